package service

import (
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// RollupBuilder expands one flat grouping into an ordered, outline-style
// report. Shared ancestors across keys are deduplicated and decorated
// with aggregate totals; per-type detail rows nest directly under the
// most specific already-placed ancestor.
//
// Buckets are consumed read-only. Any lookup miss during formatting
// degrades to a placeholder; the builder never fails a whole report for
// one bad reference.
type RollupBuilder struct {
	classifications *ClassificationIndex
	locations       *LocationIndex
	types           map[string]entity.TakeoffType
	views           map[string]entity.ContentView
	logger          *zap.Logger
}

// NewRollupBuilder wires a builder over the current indices. types and
// views are keyed by id.
func NewRollupBuilder(
	classifications *ClassificationIndex,
	locations *LocationIndex,
	types map[string]entity.TakeoffType,
	views map[string]entity.ContentView,
	logger *zap.Logger,
) *RollupBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollupBuilder{
		classifications: classifications,
		locations:       locations,
		types:           types,
		views:           views,
		logger:          logger,
	}
}

// Build produces the report rows for one grouping in the grouping map's
// insertion order.
func (b *RollupBuilder) Build(g *entity.Groupings, groupBy entity.GroupBy, style entity.Style) []entity.RollupRow {
	switch groupBy {
	case entity.GroupByClassification1:
		return b.byClassification(g.ByClassification1, entity.System1, style)
	case entity.GroupByClassification2:
		return b.byClassification(g.ByClassification2, entity.System2, style)
	case entity.GroupByDocument:
		return b.byDocument(g.ByDocument, style)
	case entity.GroupByType:
		return b.byType(g.ByType, style)
	case entity.GroupByLocation:
		return b.byLocation(g.ByLocation, style)
	}
	return nil
}

// byClassification walks each key's ancestor chain root-first, merging
// into rows whose rendered label already exists and appending the rest,
// then splices the key's type breakdown at the insertion cursor.
func (b *RollupBuilder) byClassification(m *entity.BucketMap, tag entity.SystemTag, style entity.Style) []entity.RollupRow {
	var rows []entity.RollupRow

	for _, key := range m.Keys() {
		bucket, _ := m.Get(key)
		chain := b.chainFor(key, tag)

		// The classification column of the key's rows: for system 1 the
		// leaf of its own chain, for system 2 the cross reference to the
		// item's system-1 code.
		var classLabel string
		if tag == entity.System1 {
			classLabel = b.codeLabel(chain[len(chain)-1], style)
		} else {
			classLabel = b.codeRefLabel(bucket.ClassificationCodeOne, entity.System1, style)
		}

		cursor := 0
		for _, code := range chain {
			label := b.codeLabel(code, style)
			if idx := findRow(rows, label); idx >= 0 {
				rows[idx].Count += bucket.Count
				rows[idx].Quantity += bucket.Quantity
				if rows[idx].Classification != classLabel {
					rows[idx].Classification = ""
				}
				cursor = idx + 1
			} else {
				rows = append(rows, entity.RollupRow{
					Name:           label,
					Count:          bucket.Count,
					Quantity:       bucket.Quantity,
					Unit:           bucket.UnitOfMeasure,
					Classification: classLabel,
					Document:       b.docLabel(bucket.ContentView.Value(), style),
				})
				cursor = len(rows)
			}
		}

		for _, typeID := range bucket.ByType.Keys() {
			sub, _ := bucket.ByType.Get(typeID)
			typeClass := classLabel
			if tag == entity.System2 {
				typeClass = b.codeRefLabel(sub.ClassificationCodeOne, entity.System1, style)
			}
			rows = slices.Insert(rows, cursor, entity.RollupRow{
				Name:           b.typeLabel(typeID, style),
				Count:          sub.Count,
				Quantity:       sub.Quantity,
				Unit:           sub.UnitOfMeasure,
				Classification: typeClass,
				Document:       b.docLabel(sub.ContentView.Value(), style),
			})
			cursor++
		}
	}

	return rows
}

// byLocation mirrors byClassification over the location tree. Rows are
// merged by rendered location name, so two distinct ids resolving to
// the same name become one row; that conflation is deliberate for a
// human-facing report.
func (b *RollupBuilder) byLocation(m *entity.BucketMap, style entity.Style) []entity.RollupRow {
	var rows []entity.RollupRow

	for _, key := range m.Keys() {
		bucket, _ := m.Get(key)
		chain, err := b.locations.AncestorChain(key)
		if err != nil {
			b.logger.Warn("location chain unavailable, keeping flat row",
				zap.String("locationId", key), zap.Error(err))
			chain = []string{key}
		}

		cursor := 0
		for _, id := range chain {
			label := b.locationLabel(id, style)
			if idx := findRow(rows, label); idx >= 0 {
				rows[idx].Count += bucket.Count
				rows[idx].Quantity += bucket.Quantity
				cursor = idx + 1
			} else {
				rows = append(rows, entity.RollupRow{
					Name:     label,
					Count:    bucket.Count,
					Quantity: bucket.Quantity,
					Unit:     bucket.UnitOfMeasure,
					Document: b.docLabel(bucket.ContentView.Value(), style),
				})
				cursor = len(rows)
			}
		}

		for _, typeID := range bucket.ByType.Keys() {
			sub, _ := bucket.ByType.Get(typeID)
			rows = slices.Insert(rows, cursor, entity.RollupRow{
				Name:           b.typeLabel(typeID, style),
				Count:          sub.Count,
				Quantity:       sub.Quantity,
				Unit:           sub.UnitOfMeasure,
				Classification: b.codeRefLabel(sub.ClassificationCodeOne, entity.System1, style),
				Document:       b.docLabel(sub.ContentView.Value(), style),
			})
			cursor++
		}
	}

	return rows
}

// byDocument emits one row per content view followed by its type
// breakdown. No hierarchy, no merging across siblings.
func (b *RollupBuilder) byDocument(m *entity.BucketMap, style entity.Style) []entity.RollupRow {
	var rows []entity.RollupRow

	for _, viewID := range m.Keys() {
		bucket, _ := m.Get(viewID)
		docName := viewID
		if style == entity.StyleHumanReadable {
			docName = b.viewName(viewID)
		}
		rows = append(rows, entity.RollupRow{
			Name:     docName,
			Count:    bucket.Count,
			Quantity: bucket.Quantity,
			Unit:     bucket.UnitOfMeasure,
			Document: docName,
		})
		for _, typeID := range bucket.ByType.Keys() {
			sub, _ := bucket.ByType.Get(typeID)
			doc := docName
			if style == entity.StyleRaw {
				doc = sub.ContentView.Value()
			}
			rows = append(rows, entity.RollupRow{
				Name:           b.typeLabel(typeID, style),
				Count:          sub.Count,
				Quantity:       sub.Quantity,
				Unit:           sub.UnitOfMeasure,
				Classification: b.codeRefLabel(sub.ClassificationCodeOne, entity.System1, style),
				Document:       doc,
			})
		}
	}

	return rows
}

// byType emits one flat row per takeoff type.
func (b *RollupBuilder) byType(m *entity.BucketMap, style entity.Style) []entity.RollupRow {
	var rows []entity.RollupRow

	for _, typeID := range m.Keys() {
		bucket, _ := m.Get(typeID)
		rows = append(rows, entity.RollupRow{
			Name:           b.typeLabel(typeID, style),
			Count:          bucket.Count,
			Quantity:       bucket.Quantity,
			Unit:           bucket.UnitOfMeasure,
			Classification: b.codeRefLabel(bucket.ClassificationCodeOne, entity.System1, style),
			Document:       b.docLabel(bucket.ContentView.Value(), style),
		})
	}

	return rows
}

// chainFor resolves the ancestor chain for a grouping key, falling back
// to a single synthetic level when the code cannot be resolved so the
// key's quantities still appear in the report.
func (b *RollupBuilder) chainFor(code string, tag entity.SystemTag) []entity.ClassificationCode {
	chain, err := b.classifications.AncestorChain(code, tag)
	if err != nil {
		b.logger.Warn("classification chain unavailable, keeping flat row",
			zap.String("code", code), zap.String("system", string(tag)), zap.Error(err))
		return []entity.ClassificationCode{{Code: code}}
	}
	return chain
}

// codeLabel renders a resolved code record.
func (b *RollupBuilder) codeLabel(code entity.ClassificationCode, style entity.Style) string {
	if style == entity.StyleHumanReadable && code.Description != "" {
		return code.Code + " - " + code.Description
	}
	return code.Code
}

// codeRefLabel renders a code reference that still needs resolving. In
// human-readable style an unresolvable reference degrades to the bare
// code rather than failing the row.
func (b *RollupBuilder) codeRefLabel(code string, tag entity.SystemTag, style entity.Style) string {
	if style == entity.StyleRaw {
		return code
	}
	resolved, err := b.classifications.Lookup(code, tag)
	if err != nil {
		return code
	}
	return b.codeLabel(resolved, style)
}

// typeLabel renders a takeoff type reference. A type id missing from
// the types map renders empty in human-readable style.
func (b *RollupBuilder) typeLabel(typeID string, style entity.Style) string {
	if style == entity.StyleRaw {
		return typeID
	}
	t, ok := b.types[typeID]
	if !ok {
		return ""
	}
	return t.Name
}

// docLabel renders a document reference. Human-readable style resolves
// the id to the view name; values that are not well-formed ids (the
// blanked conflict sentinel included) render empty.
func (b *RollupBuilder) docLabel(viewID string, style entity.Style) string {
	if style == entity.StyleRaw {
		return viewID
	}
	if uuid.Validate(viewID) != nil {
		return ""
	}
	return b.viewName(viewID)
}

// viewName resolves a content view id to its display name, empty when
// the view is unknown.
func (b *RollupBuilder) viewName(viewID string) string {
	v, ok := b.views[viewID]
	if !ok {
		return ""
	}
	return v.Name
}

// locationLabel renders a location reference. The unassigned sentinel
// has no raw id, so it renders by name in both styles.
func (b *RollupBuilder) locationLabel(id string, style entity.Style) string {
	if id == "" {
		return UnassignedLocation
	}
	if style == entity.StyleRaw {
		return id
	}
	return b.locations.Name(id)
}

func findRow(rows []entity.RollupRow, name string) int {
	for i := range rows {
		if rows[i].Name == name {
			return i
		}
	}
	return -1
}
