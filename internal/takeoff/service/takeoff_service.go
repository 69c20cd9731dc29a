package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// DataSource is the read side of the takeoff backend. Implementations
// must return fully materialized lists; pagination is theirs to follow.
type DataSource interface {
	Packages(ctx context.Context, projectID string) ([]entity.Package, error)
	Items(ctx context.Context, projectID, packageID string) ([]entity.RawItem, error)
	Types(ctx context.Context, projectID, packageID string) ([]entity.TakeoffType, error)
	Systems(ctx context.Context, projectID string) ([]entity.ClassificationSystem, error)
	ContentViews(ctx context.Context, projectID string) ([]entity.ContentView, error)
	Locations(ctx context.Context, projectID string) ([]entity.Location, error)
	Settings(ctx context.Context, projectID string) (entity.Settings, error)
}

// Mutator is the write side of the takeoff backend.
type Mutator interface {
	CreatePackage(ctx context.Context, projectID, name string) (entity.MutationResult, error)
	CreateClassificationSystem(ctx context.Context, projectID, name string, systemType entity.SystemTag, classifications []entity.ClassificationUpload) (entity.MutationResult, error)
	ImportClassifications(ctx context.Context, projectID, systemID, name string, classifications []entity.ClassificationUpload) (entity.MutationResult, error)
	UpdateSettings(ctx context.Context, projectID, measurementSystem string) (entity.MutationResult, error)
}

// AggregationContext is the caller-owned selection for one aggregation
// run. It must be fully resolved before a report is built; the core
// never keeps ambient selection state.
type AggregationContext struct {
	ProjectID   string
	PackageID   string
	PackageName string
	GroupBy     entity.GroupBy
	Style       entity.Style
}

// ProjectData holds the project-scope collections one fetch cycle
// produced, plus the indices rebuilt from them. A failed fetch of one
// kind leaves that kind empty; dependent steps keep working on what is
// there.
type ProjectData struct {
	Packages  []entity.Package
	Systems   []entity.ClassificationSystem
	Views     map[string]entity.ContentView
	Locations []entity.Location
	Settings  entity.Settings

	Classifications *ClassificationIndex
	LocationIndex   *LocationIndex
}

// Report is the outcome of one aggregation run: the roll-up rows plus
// the two raw item projections, all carrying the style they were built
// for.
type Report struct {
	GroupBy entity.GroupBy
	Style   entity.Style
	Rows    []entity.RollupRow

	RawPrimary   [][]string
	RawSecondary [][]string
}

// Table flattens the report for tabular output.
func (r *Report) Table(includeOwnerLabel bool, ownerLabel string) [][]string {
	return ToRows(r.Rows, r.Style, includeOwnerLabel, ownerLabel)
}

// TakeoffService sequences fetch cycles and runs the aggregation
// pipeline over their results.
type TakeoffService struct {
	src    DataSource
	mut    Mutator
	logger *zap.Logger
}

// NewTakeoffService wires the service over a data source and mutator.
func NewTakeoffService(src DataSource, mut Mutator, logger *zap.Logger) *TakeoffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TakeoffService{src: src, mut: mut, logger: logger}
}

// LoadProject fetches the project-scope collections one kind at a time
// and rebuilds the indices. A fetch failure aborts the cycle for that
// one kind only: it is logged and the kind stays empty, so the caller
// can still render partial data and retry.
func (s *TakeoffService) LoadProject(ctx context.Context, projectID string) *ProjectData {
	p := &ProjectData{Views: make(map[string]entity.ContentView)}

	packages, err := s.src.Packages(ctx, projectID)
	if err != nil {
		s.logger.Error("fetch packages failed", zap.String("projectId", projectID), zap.Error(err))
	} else {
		p.Packages = packages
	}

	systems, err := s.src.Systems(ctx, projectID)
	if err != nil {
		s.logger.Error("fetch classification systems failed", zap.String("projectId", projectID), zap.Error(err))
	} else {
		p.Systems = systems
	}

	views, err := s.src.ContentViews(ctx, projectID)
	if err != nil {
		s.logger.Error("fetch content views failed", zap.String("projectId", projectID), zap.Error(err))
	} else {
		for _, v := range views {
			p.Views[v.ID] = v
		}
	}

	locations, err := s.src.Locations(ctx, projectID)
	if err != nil {
		s.logger.Error("fetch locations failed", zap.String("projectId", projectID), zap.Error(err))
	} else {
		p.Locations = locations
	}

	settings, err := s.src.Settings(ctx, projectID)
	if err != nil {
		s.logger.Error("fetch settings failed", zap.String("projectId", projectID), zap.Error(err))
	} else {
		p.Settings = settings
	}

	p.Classifications = NewClassificationIndex(p.Systems)
	p.LocationIndex = NewLocationIndex(p.Locations)
	return p
}

// SortedPackages returns the project's packages ordered by name for
// display. The fetched order is preserved on ProjectData itself.
func (p *ProjectData) SortedPackages() []entity.Package {
	out := make([]entity.Package, len(p.Packages))
	copy(out, p.Packages)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PackageByName resolves a package by its display name.
func (p *ProjectData) PackageByName(name string) (entity.Package, bool) {
	for _, pkg := range p.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return entity.Package{}, false
}

// BuildReport fetches the package-scope collections, normalizes the
// items and expands the selected grouping into report rows.
func (s *TakeoffService) BuildReport(ctx context.Context, project *ProjectData, actx AggregationContext) (*Report, error) {
	items, err := s.src.Items(ctx, actx.ProjectID, actx.PackageID)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	types := make(map[string]entity.TakeoffType)
	rawTypes, err := s.src.Types(ctx, actx.ProjectID, actx.PackageID)
	if err != nil {
		// Types only feed display names; the report degrades to raw
		// type ids instead of failing.
		s.logger.Error("fetch takeoff types failed", zap.String("packageId", actx.PackageID), zap.Error(err))
	} else {
		for _, t := range rawTypes {
			types[t.ID] = t
		}
	}

	groupings := Normalize(items)
	builder := NewRollupBuilder(project.Classifications, project.LocationIndex, types, project.Views, s.logger)

	report := &Report{
		GroupBy:      actx.GroupBy,
		Style:        actx.Style,
		Rows:         builder.Build(groupings, actx.GroupBy, actx.Style),
		RawPrimary:   RawToRows(resolveRawDocuments(groupings.RawPrimary, project.Views), entity.RawPrimaryHeader(), actx.Style),
		RawSecondary: RawToRows(resolveRawDocuments(groupings.RawSecondary, project.Views), entity.RawSecondaryHeader(), actx.Style),
	}
	return report, nil
}

// resolveRawDocuments swaps content view ids for display names in the
// raw projections. Unknown views degrade to an empty name.
func resolveRawDocuments(rows []entity.RawRow, views map[string]entity.ContentView) []entity.RawRow {
	out := make([]entity.RawRow, len(rows))
	for i, r := range rows {
		if v, ok := views[r.Document]; ok {
			r.Document = v.Name
		} else {
			r.Document = ""
		}
		out[i] = r
	}
	return out
}

// SystemListing returns the flat, unmodified code list of the selected
// system as tabular rows. No hierarchy expansion and no items involved.
func (p *ProjectData) SystemListing(tag entity.SystemTag) [][]string {
	rows := [][]string{{"parentCode", "code", "description", "measurementType"}}
	sys, ok := p.systemFor(tag)
	if !ok {
		return rows
	}
	for _, c := range sys.Codes {
		rows = append(rows, []string{c.ParentCode, c.Code, c.Description, c.MeasurementType})
	}
	return rows
}

func (p *ProjectData) systemFor(tag entity.SystemTag) (entity.ClassificationSystem, bool) {
	for _, sys := range p.Systems {
		if sys.Type == tag {
			return sys, true
		}
	}
	return entity.ClassificationSystem{}, false
}

// ExportAll builds one independent aggregation context per package in
// fetched order and concatenates the exported rows, each prefixed with
// its owning package name. Only the first contributing package keeps
// its header row; packages without data rows are skipped entirely.
// Contexts are disjoint, so this could run concurrently; the reference
// behavior is sequential and that is what happens here.
func (s *TakeoffService) ExportAll(ctx context.Context, project *ProjectData, projectID string, groupBy entity.GroupBy, style entity.Style) ([][]string, error) {
	var out [][]string
	for _, pkg := range project.Packages {
		report, err := s.BuildReport(ctx, project, AggregationContext{
			ProjectID:   projectID,
			PackageID:   pkg.ID,
			PackageName: pkg.Name,
			GroupBy:     groupBy,
			Style:       style,
		})
		if err != nil {
			s.logger.Error("export all: package skipped",
				zap.String("package", pkg.Name), zap.Error(err))
			continue
		}
		table := report.Table(true, pkg.Name)
		if len(table) <= 1 {
			continue
		}
		if len(out) == 0 {
			out = append(out, table...)
		} else {
			out = append(out, table[1:]...)
		}
	}
	return out, nil
}

// ImportClassificationsCSV parses an import file and forwards the batch
// upstream. Header validation happens before any line is parsed.
func (s *TakeoffService) ImportClassificationsCSV(ctx context.Context, projectID, systemID, name string, r io.Reader) (entity.MutationResult, error) {
	classifications, err := ParseClassificationCSV(r)
	if err != nil {
		return entity.MutationResult{}, err
	}
	return s.mut.ImportClassifications(ctx, projectID, systemID, name, classifications)
}

// CreateClassificationSystemCSV parses an import file and creates a new
// classification system in the given slot from the batch.
func (s *TakeoffService) CreateClassificationSystemCSV(ctx context.Context, projectID, name string, systemType entity.SystemTag, r io.Reader) (entity.MutationResult, error) {
	classifications, err := ParseClassificationCSV(r)
	if err != nil {
		return entity.MutationResult{}, err
	}
	return s.mut.CreateClassificationSystem(ctx, projectID, name, systemType, classifications)
}

// CreatePackage forwards a package creation upstream.
func (s *TakeoffService) CreatePackage(ctx context.Context, projectID, name string) (entity.MutationResult, error) {
	return s.mut.CreatePackage(ctx, projectID, name)
}

// UpdateSettings forwards a measurement system change upstream.
func (s *TakeoffService) UpdateSettings(ctx context.Context, projectID, measurementSystem string) (entity.MutationResult, error) {
	return s.mut.UpdateSettings(ctx, projectID, measurementSystem)
}
