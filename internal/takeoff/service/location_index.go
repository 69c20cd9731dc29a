package service

import (
	"fmt"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// UnassignedLocation is the display name of the pseudo-location items
// without a location id roll up under.
const UnassignedLocation = "Unassigned"

// LocationIndex answers ancestor-chain and name lookups over the
// project location tree. It operates on raw location ids; names are
// resolved lazily by the caller.
type LocationIndex struct {
	byID map[string]entity.Location
}

// NewLocationIndex builds an index over the given location nodes.
func NewLocationIndex(locations []entity.Location) *LocationIndex {
	ix := &LocationIndex{byID: make(map[string]entity.Location, len(locations))}
	for _, l := range locations {
		ix.byID[l.ID] = l
	}
	return ix
}

// AncestorChain returns location ids from the root down to id itself.
// The empty id is the unassigned sentinel and yields a one-element
// chain that is never expanded further.
func (ix *LocationIndex) AncestorChain(id string) ([]string, error) {
	if id == "" {
		return []string{""}, nil
	}
	loc, ok := ix.byID[id]
	if !ok {
		return nil, fmt.Errorf("location %q not in index", id)
	}
	chain := []string{loc.ID}
	parent := loc.ParentID
	for parent != "" {
		if len(chain) >= maxChainDepth {
			return nil, fmt.Errorf("%w: starting at location %q", ErrMalformedTaxonomy, id)
		}
		next, ok := ix.byID[parent]
		if !ok {
			return nil, fmt.Errorf("location %q not in index", parent)
		}
		chain = append(chain, next.ID)
		parent = next.ParentID
	}
	reverse(chain)
	return chain, nil
}

// Name resolves a location id to its display name. The empty id and
// ids missing from the index both resolve to "Unassigned".
func (ix *LocationIndex) Name(id string) string {
	if id == "" {
		return UnassignedLocation
	}
	loc, ok := ix.byID[id]
	if !ok {
		return UnassignedLocation
	}
	return loc.Name
}
