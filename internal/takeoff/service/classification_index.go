// Package service implements the takeoff aggregation core: the
// classification and location indices, the item normalizer, the roll-up
// builder and the import/export paths.
package service

import (
	"errors"
	"fmt"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// maxChainDepth bounds ancestor-chain walks. The upstream taxonomy is
// trusted to be acyclic, but a malformed one must fail instead of
// looping forever.
const maxChainDepth = 64

var (
	// ErrCodeNotFound is returned when a classification code is absent
	// from its system's code set.
	ErrCodeNotFound = errors.New("classification code not found")
	// ErrMalformedTaxonomy is returned when an ancestor chain exceeds
	// the depth bound, which only a cyclic or corrupt taxonomy can do.
	ErrMalformedTaxonomy = errors.New("malformed taxonomy: ancestor chain exceeds depth limit")
)

// ClassificationIndex answers ancestor-chain and definition lookups
// over the classification systems of a project. It is rebuilt whenever
// the systems are refetched.
type ClassificationIndex struct {
	systems map[entity.SystemTag]entity.ClassificationSystem
	codes   map[entity.SystemTag]map[string]entity.ClassificationCode
}

// NewClassificationIndex builds an index over the given systems.
func NewClassificationIndex(systems []entity.ClassificationSystem) *ClassificationIndex {
	ix := &ClassificationIndex{
		systems: make(map[entity.SystemTag]entity.ClassificationSystem),
		codes:   make(map[entity.SystemTag]map[string]entity.ClassificationCode),
	}
	for _, sys := range systems {
		ix.systems[sys.Type] = sys
		byCode := make(map[string]entity.ClassificationCode, len(sys.Codes))
		for _, c := range sys.Codes {
			byCode[c.Code] = c
		}
		ix.codes[sys.Type] = byCode
	}
	return ix
}

// System returns the system registered under tag.
func (ix *ClassificationIndex) System(tag entity.SystemTag) (entity.ClassificationSystem, bool) {
	sys, ok := ix.systems[tag]
	return sys, ok
}

// Lookup fetches the record of a code with a case-sensitive exact match.
func (ix *ClassificationIndex) Lookup(code string, tag entity.SystemTag) (entity.ClassificationCode, error) {
	c, ok := ix.codes[tag][code]
	if !ok {
		return entity.ClassificationCode{}, fmt.Errorf("%w: %q in %s", ErrCodeNotFound, code, tag)
	}
	return c, nil
}

// AncestorChain returns the chain of codes from the root down to code
// itself. The walk follows parent links from the code's own record and
// the collected sequence is reversed so the root comes first.
func (ix *ClassificationIndex) AncestorChain(code string, tag entity.SystemTag) ([]entity.ClassificationCode, error) {
	first, err := ix.Lookup(code, tag)
	if err != nil {
		return nil, err
	}
	chain := []entity.ClassificationCode{first}
	parent := first.ParentCode
	for parent != "" {
		if len(chain) >= maxChainDepth {
			return nil, fmt.Errorf("%w: starting at %q in %s", ErrMalformedTaxonomy, code, tag)
		}
		next, err := ix.Lookup(parent, tag)
		if err != nil {
			return nil, err
		}
		chain = append(chain, next)
		parent = next.ParentCode
	}
	reverse(chain)
	return chain, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
