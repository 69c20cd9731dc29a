package entity

import "fmt"

// GroupBy selects which of the five groupings a report is built from.
type GroupBy int

const (
	GroupByClassification1 GroupBy = iota
	GroupByClassification2
	GroupByDocument
	GroupByType
	GroupByLocation
)

// Selector values as they appear in requests; these match the group_by
// options of the original sample UI.
const (
	selPrimary   = "primaryclassification"
	selSecondary = "secondaryclassification"
	selDocument  = "document"
	selType      = "takeofftype"
	selLocation  = "location"
)

func (g GroupBy) String() string {
	switch g {
	case GroupByClassification1:
		return selPrimary
	case GroupByClassification2:
		return selSecondary
	case GroupByDocument:
		return selDocument
	case GroupByType:
		return selType
	case GroupByLocation:
		return selLocation
	}
	return fmt.Sprintf("groupby(%d)", int(g))
}

// ParseGroupBy maps a request selector to its GroupBy value.
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case selPrimary:
		return GroupByClassification1, nil
	case selSecondary:
		return GroupByClassification2, nil
	case selDocument:
		return GroupByDocument, nil
	case selType:
		return GroupByType, nil
	case selLocation:
		return GroupByLocation, nil
	}
	return 0, fmt.Errorf("unknown group_by selector %q", s)
}

// Style selects how report rows are rendered.
type Style int

const (
	// StyleRaw keeps raw codes and ids and unrounded quantities.
	StyleRaw Style = iota
	// StyleHumanReadable substitutes descriptive names and rounds
	// quantities to two decimals at emission time.
	StyleHumanReadable
)

// RollupRow is one row of a hierarchical report. Rows for ancestor
// levels are synthesized during roll-up and are not 1:1 with items.
// Quantity stays an unrounded float until the row is emitted.
type RollupRow struct {
	Name           string
	Count          int
	Quantity       float64
	Unit           string
	Classification string
	Document       string
}

// RollupHeader is the column order of a roll-up table. It mirrors the
// natural field order of RollupRow.
func RollupHeader() []string {
	return []string{"name", "count", "quantity", "unit", "classification", "document"}
}

// RawRow is one row of a raw item projection (primary or secondary).
type RawRow struct {
	TakeoffName string
	Quantity    float64
	Unit        string
	Document    string
}

// RawPrimaryHeader is the column order of the primary projection.
func RawPrimaryHeader() []string {
	return []string{"Takeoff Name", "Primary Quantity", "Primary Unit", "Document"}
}

// RawSecondaryHeader is the column order of the secondary projection.
func RawSecondaryHeader() []string {
	return []string{"Takeoff Name", "Secondary Quantity", "Secondary Unit", "Document"}
}
