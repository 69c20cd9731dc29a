package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/service"
)

// TakeoffHandler serves the takeoff info, report and export routes.
type TakeoffHandler struct {
	svc    *service.TakeoffService
	src    service.DataSource
	logger *zap.Logger
}

// NewTakeoffHandler creates the handler.
func NewTakeoffHandler(svc *service.TakeoffService, src service.DataSource, logger *zap.Logger) *TakeoffHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TakeoffHandler{svc: svc, src: src, logger: logger}
}

// GetInfo forwards one data-kind fetch upstream and returns the fully
// materialized result.
//
// GET /api/takeoff/info?projectId=&takeoffData=&packageId=&systemId=
func (h *TakeoffHandler) GetInfo(c *gin.Context) {
	projectID := c.Query("projectId")
	if projectID == "" {
		BadRequest(c, "project id is not provided")
		return
	}
	packageID := c.Query("packageId")
	systemID := c.Query("systemId")
	ctx := c.Request.Context()

	var (
		data any
		err  error
	)
	switch kind := c.Query("takeoffData"); kind {
	case "packages":
		data, err = h.src.Packages(ctx, projectID)
	case "items":
		data, err = h.src.Items(ctx, projectID, packageID)
	case "types":
		data, err = h.src.Types(ctx, projectID, packageID)
	case "systems":
		data, err = h.src.Systems(ctx, projectID)
	case "classifications":
		data, err = h.classifications(ctx, projectID, systemID)
	case "views":
		data, err = h.src.ContentViews(ctx, projectID)
	case "locations":
		data, err = h.src.Locations(ctx, projectID)
	case "settings":
		data, err = h.src.Settings(ctx, projectID)
	default:
		BadRequest(c, fmt.Sprintf("unknown takeoffData %q", kind))
		return
	}
	if err != nil {
		h.logger.Error("takeoff info fetch failed", zap.Error(err))
		InternalError(c, "failed to get the takeoff info")
		return
	}
	Success(c, data)
}

// postInfoInput is the body of POST /api/takeoff/info. CSV carries the
// classification import file verbatim for the two classification kinds.
type postInfoInput struct {
	TakeoffData        string `json:"takeoffData" binding:"required"`
	ProjectID          string `json:"projectId" binding:"required"`
	PackageName        string `json:"packageName"`
	SystemID           string `json:"systemId"`
	SystemType         string `json:"systemType"`
	ClassificationName string `json:"classificationName"`
	CSV                string `json:"csv"`
}

// PostInfo forwards a mutation upstream. The upstream status is
// surfaced verbatim; only 200 and 201 count as success.
//
// POST /api/takeoff/info
func (h *TakeoffHandler) PostInfo(c *gin.Context) {
	var input postInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	var (
		result entity.MutationResult
		err    error
	)
	switch input.TakeoffData {
	case "package_create":
		result, err = h.svc.CreatePackage(ctx, input.ProjectID, input.PackageName)
	case "classification_create":
		result, err = h.svc.CreateClassificationSystemCSV(ctx, input.ProjectID, input.ClassificationName,
			entity.SystemTag(input.SystemType), strings.NewReader(input.CSV))
	case "classifications_import":
		result, err = h.svc.ImportClassificationsCSV(ctx, input.ProjectID, input.SystemID,
			input.ClassificationName, strings.NewReader(input.CSV))
	default:
		BadRequest(c, fmt.Sprintf("unknown takeoffData %q", input.TakeoffData))
		return
	}
	h.writeMutationResult(c, result, err)
}

// patchInfoInput is the body of PATCH /api/takeoff/info.
type patchInfoInput struct {
	TakeoffData       string `json:"takeoffData" binding:"required"`
	ProjectID         string `json:"projectId" binding:"required"`
	MeasurementSystem string `json:"measurementSystem"`
}

// PatchInfo forwards a settings change upstream.
//
// PATCH /api/takeoff/info
func (h *TakeoffHandler) PatchInfo(c *gin.Context) {
	var input patchInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.TakeoffData != "settings" {
		BadRequest(c, fmt.Sprintf("unknown takeoffData %q", input.TakeoffData))
		return
	}
	result, err := h.svc.UpdateSettings(c.Request.Context(), input.ProjectID, input.MeasurementSystem)
	h.writeMutationResult(c, result, err)
}

func (h *TakeoffHandler) writeMutationResult(c *gin.Context, result entity.MutationResult, err error) {
	if err != nil {
		h.logger.Error("takeoff mutation failed", zap.Error(err))
		BadRequest(c, err.Error())
		return
	}
	if !result.OK() {
		h.logger.Warn("takeoff mutation rejected upstream", zap.Int("status", result.StatusCode))
	}
	c.Data(result.StatusCode, "application/json", result.Body)
}

// reportPayload is the JSON shape of a built report: the roll-up table
// plus the two raw item projections, all as column/row tables.
type reportPayload struct {
	GroupBy      string     `json:"groupBy"`
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	RawPrimary   [][]string `json:"rawPrimary"`
	RawSecondary [][]string `json:"rawSecondary"`
}

// GetReport builds the selected roll-up for one package.
//
// GET /api/takeoff/report?projectId=&packageId=|packageName=&groupBy=&humanReadable=
func (h *TakeoffHandler) GetReport(c *gin.Context) {
	actx, project, ok := h.resolveContext(c)
	if !ok {
		return
	}

	report, err := h.svc.BuildReport(c.Request.Context(), project, actx)
	if err != nil {
		h.logger.Error("build report failed", zap.Error(err))
		InternalError(c, "failed to build the takeoff report")
		return
	}

	table := report.Table(false, "")
	Success(c, reportPayload{
		GroupBy:      actx.GroupBy.String(),
		Columns:      table[0],
		Rows:         table[1:],
		RawPrimary:   report.RawPrimary,
		RawSecondary: report.RawSecondary,
	})
}

// Export serializes a roll-up (or the classification listing) as a CSV
// or XLSX attachment.
//
// GET /api/takeoff/export?projectId=&packageId=&groupBy=&humanReadable=&all=&format=&takeoffData=
func (h *TakeoffHandler) Export(c *gin.Context) {
	projectID := c.Query("projectId")
	if projectID == "" {
		BadRequest(c, "project id is not provided")
		return
	}
	ctx := c.Request.Context()

	if c.Query("takeoffData") == "classifications" {
		project := h.svc.LoadProject(ctx, projectID)
		tag := entity.System1
		if c.Query("systemType") == string(entity.System2) {
			tag = entity.System2
		}
		h.serveTable(c, project.SystemListing(tag), "classifications")
		return
	}

	if c.Query("all") == "true" {
		groupBy, style, ok := reportOptions(c)
		if !ok {
			return
		}
		project := h.svc.LoadProject(ctx, projectID)
		rows, err := h.svc.ExportAll(ctx, project, projectID, groupBy, style)
		if err != nil {
			h.logger.Error("export all failed", zap.Error(err))
			InternalError(c, "failed to export the takeoff data")
			return
		}
		h.serveTable(c, rows, "AllTakeoffData")
		return
	}

	actx, project, ok := h.resolveContext(c)
	if !ok {
		return
	}
	report, err := h.svc.BuildReport(ctx, project, actx)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		InternalError(c, "failed to export the takeoff data")
		return
	}
	h.serveTable(c, report.Table(false, ""), "items")
}

// resolveContext reads the selection parameters, loads the project
// scope and resolves the target package.
func (h *TakeoffHandler) resolveContext(c *gin.Context) (service.AggregationContext, *service.ProjectData, bool) {
	projectID := c.Query("projectId")
	if projectID == "" {
		BadRequest(c, "project id is not provided")
		return service.AggregationContext{}, nil, false
	}
	groupBy, style, ok := reportOptions(c)
	if !ok {
		return service.AggregationContext{}, nil, false
	}

	project := h.svc.LoadProject(c.Request.Context(), projectID)

	packageID := c.Query("packageId")
	packageName := c.Query("packageName")
	if packageID == "" && packageName != "" {
		pkg, found := project.PackageByName(packageName)
		if !found {
			BadRequest(c, fmt.Sprintf("unknown package %q", packageName))
			return service.AggregationContext{}, nil, false
		}
		packageID = pkg.ID
	}
	if packageID == "" {
		BadRequest(c, "package is not provided")
		return service.AggregationContext{}, nil, false
	}

	return service.AggregationContext{
		ProjectID:   projectID,
		PackageID:   packageID,
		PackageName: packageName,
		GroupBy:     groupBy,
		Style:       style,
	}, project, true
}

func reportOptions(c *gin.Context) (entity.GroupBy, entity.Style, bool) {
	groupBy := entity.GroupByClassification1
	if sel := c.Query("groupBy"); sel != "" {
		parsed, err := entity.ParseGroupBy(sel)
		if err != nil {
			BadRequest(c, err.Error())
			return 0, 0, false
		}
		groupBy = parsed
	}
	style := entity.StyleRaw
	if c.Query("humanReadable") == "true" {
		style = entity.StyleHumanReadable
	}
	return groupBy, style, true
}

// serveTable writes tabular rows as a CSV (default) or XLSX attachment.
func (h *TakeoffHandler) serveTable(c *gin.Context, rows [][]string, stem string) {
	filename := fmt.Sprintf("%s%d", stem, time.Now().UnixMilli())

	if c.Query("format") == "xlsx" {
		f, err := service.XLSXFile(rows, "Takeoff")
		if err != nil {
			h.logger.Error("xlsx export failed", zap.Error(err))
			InternalError(c, "failed to build the workbook")
			return
		}
		buf, err := f.WriteToBuffer()
		if err != nil {
			h.logger.Error("xlsx export failed", zap.Error(err))
			InternalError(c, "failed to build the workbook")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
	c.Data(http.StatusOK, "text/csv", service.CSVBytes(rows))
}

// classifications returns the codes of one classification system, or of
// all systems when no system id is given.
func (h *TakeoffHandler) classifications(ctx context.Context, projectID, systemID string) ([]entity.ClassificationCode, error) {
	systems, err := h.src.Systems(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if systemID == "" {
		var codes []entity.ClassificationCode
		for _, sys := range systems {
			codes = append(codes, sys.Codes...)
		}
		return codes, nil
	}
	for _, sys := range systems {
		if sys.ID == systemID {
			return sys.Codes, nil
		}
	}
	return nil, fmt.Errorf("unknown classification system %q", systemID)
}
