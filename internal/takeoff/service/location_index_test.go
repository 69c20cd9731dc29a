package service

import (
	"errors"
	"testing"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

func testLocations() []entity.Location {
	return []entity.Location{
		{ID: "loc-root", Name: "Project"},
		{ID: "loc-b1", Name: "Building 1", ParentID: "loc-root"},
		{ID: "loc-f2", Name: "Floor 2", ParentID: "loc-b1"},
		{ID: "loc-f2b", Name: "Floor 2", ParentID: "loc-b1"},
	}
}

func TestLocationAncestorChain(t *testing.T) {
	ix := NewLocationIndex(testLocations())

	chain, err := ix.AncestorChain("loc-f2")
	if err != nil {
		t.Fatalf("AncestorChain failed: %v", err)
	}
	want := []string{"loc-root", "loc-b1", "loc-f2"}
	if len(chain) != len(want) {
		t.Fatalf("Expected chain of %d, got %d", len(want), len(chain))
	}
	for i, id := range want {
		if chain[i] != id {
			t.Errorf("chain[%d]: expected %q, got %q", i, id, chain[i])
		}
	}
}

func TestLocationAncestorChainUnassigned(t *testing.T) {
	ix := NewLocationIndex(testLocations())

	chain, err := ix.AncestorChain("")
	if err != nil {
		t.Fatalf("AncestorChain failed: %v", err)
	}
	if len(chain) != 1 || chain[0] != "" {
		t.Errorf("Expected single empty-id chain, got %v", chain)
	}
}

func TestLocationAncestorChainUnknown(t *testing.T) {
	ix := NewLocationIndex(testLocations())

	if _, err := ix.AncestorChain("loc-missing"); err == nil {
		t.Error("Expected error for unknown location id")
	}
}

func TestLocationAncestorChainCycle(t *testing.T) {
	ix := NewLocationIndex([]entity.Location{
		{ID: "a", Name: "A", ParentID: "b"},
		{ID: "b", Name: "B", ParentID: "a"},
	})

	if _, err := ix.AncestorChain("a"); !errors.Is(err, ErrMalformedTaxonomy) {
		t.Errorf("Expected ErrMalformedTaxonomy for cyclic tree, got %v", err)
	}
}

func TestLocationName(t *testing.T) {
	ix := NewLocationIndex(testLocations())

	if got := ix.Name("loc-b1"); got != "Building 1" {
		t.Errorf("Expected 'Building 1', got %q", got)
	}
	if got := ix.Name(""); got != UnassignedLocation {
		t.Errorf("Expected %q for empty id, got %q", UnassignedLocation, got)
	}
	if got := ix.Name("loc-missing"); got != UnassignedLocation {
		t.Errorf("Expected %q for unknown id, got %q", UnassignedLocation, got)
	}
}
