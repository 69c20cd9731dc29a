package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/service"
)

const testView = "5f8a1c2e-9d3b-4e7f-8a21-000000000001"

// stubBackend serves canned takeoff data and records mutations.
type stubBackend struct {
	failItems bool

	lastOp       string
	lastBatchLen int
	result       entity.MutationResult
}

func (s *stubBackend) Packages(ctx context.Context, projectID string) ([]entity.Package, error) {
	return []entity.Package{
		{ID: "pkg-1", Name: "Structural"},
		{ID: "pkg-2", Name: "Architectural"},
	}, nil
}

func (s *stubBackend) Items(ctx context.Context, projectID, packageID string) ([]entity.RawItem, error) {
	if s.failItems {
		return nil, errors.New("items unavailable")
	}
	if packageID != "pkg-1" {
		return nil, nil
	}
	return []entity.RawItem{{
		ID:            "i1",
		Type:          "Wall",
		TakeoffTypeID: "type-wall",
		ContentViewID: testView,
		PrimaryQuantity: entity.Quantity{
			Quantity:              10.5,
			UnitOfMeasure:         "m²",
			ClassificationCodeOne: "03 30",
		},
	}}, nil
}

func (s *stubBackend) Types(ctx context.Context, projectID, packageID string) ([]entity.TakeoffType, error) {
	return []entity.TakeoffType{{ID: "type-wall", Name: "Concrete Wall"}}, nil
}

func (s *stubBackend) Systems(ctx context.Context, projectID string) ([]entity.ClassificationSystem, error) {
	return []entity.ClassificationSystem{{
		ID:   "sys-1",
		Name: "CSI",
		Type: entity.System1,
		Codes: []entity.ClassificationCode{
			{Code: "03", Description: "Concrete"},
			{Code: "03 30", Description: "Cast-in-Place Concrete", ParentCode: "03"},
		},
	}}, nil
}

func (s *stubBackend) ContentViews(ctx context.Context, projectID string) ([]entity.ContentView, error) {
	return []entity.ContentView{{ID: testView, Type: "FILE_MODEL", Name: "Level 2 Plan"}}, nil
}

func (s *stubBackend) Locations(ctx context.Context, projectID string) ([]entity.Location, error) {
	return nil, nil
}

func (s *stubBackend) Settings(ctx context.Context, projectID string) (entity.Settings, error) {
	return entity.Settings{MeasurementSystem: "metric"}, nil
}

func (s *stubBackend) CreatePackage(ctx context.Context, projectID, name string) (entity.MutationResult, error) {
	s.lastOp = "create_package"
	return s.result, nil
}

func (s *stubBackend) CreateClassificationSystem(ctx context.Context, projectID, name string, systemType entity.SystemTag, classifications []entity.ClassificationUpload) (entity.MutationResult, error) {
	s.lastOp = "create_system"
	s.lastBatchLen = len(classifications)
	return s.result, nil
}

func (s *stubBackend) ImportClassifications(ctx context.Context, projectID, systemID, name string, classifications []entity.ClassificationUpload) (entity.MutationResult, error) {
	s.lastOp = "import"
	s.lastBatchLen = len(classifications)
	return s.result, nil
}

func (s *stubBackend) UpdateSettings(ctx context.Context, projectID, measurementSystem string) (entity.MutationResult, error) {
	s.lastOp = "update_settings"
	return s.result, nil
}

func setupTakeoffTest(t *testing.T, backend *stubBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewTakeoffService(backend, backend, nil)
	h := NewHandlers(svc, backend, nil)

	router := gin.New()
	RegisterRoutes(router.Group("/api"), h)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetInfoRequiresProject(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/info?takeoffData=packages", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetInfoPackages(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/info?projectId=proj-1&takeoffData=packages", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].([]interface{})
	if len(data) != 2 {
		t.Errorf("Expected 2 packages, got %d", len(data))
	}
}

func TestGetInfoClassifications(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/info?projectId=proj-1&takeoffData=classifications&systemId=sys-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].([]interface{})
	if len(data) != 2 {
		t.Errorf("Expected 2 classification codes, got %d", len(data))
	}
}

func TestGetInfoUnknownKind(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/info?projectId=proj-1&takeoffData=nope", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestGetReport(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET",
		"/api/takeoff/report?projectId=proj-1&packageName=Structural&groupBy=primaryclassification&humanReadable=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			GroupBy      string     `json:"groupBy"`
			Columns      []string   `json:"columns"`
			Rows         [][]string `json:"rows"`
			RawPrimary   [][]string `json:"rawPrimary"`
			RawSecondary [][]string `json:"rawSecondary"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.GroupBy != "primaryclassification" {
		t.Errorf("Expected primaryclassification, got %q", resp.Data.GroupBy)
	}
	if len(resp.Data.Columns) != 6 || resp.Data.Columns[0] != "name" {
		t.Errorf("Unexpected columns: %v", resp.Data.Columns)
	}
	// 03, 03 30 and the type row.
	if len(resp.Data.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d: %v", len(resp.Data.Rows), resp.Data.Rows)
	}
	if resp.Data.Rows[0][0] != "03 - Concrete" {
		t.Errorf("Expected '03 - Concrete' first, got %q", resp.Data.Rows[0][0])
	}
	if len(resp.Data.RawPrimary) != 2 {
		t.Errorf("Expected raw primary header plus 1 row, got %d", len(resp.Data.RawPrimary))
	}
}

func TestGetReportUnknownPackage(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/report?projectId=proj-1&packageName=Missing", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown package, got %d", w.Code)
	}
}

func TestGetReportBadGroupBy(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/report?projectId=proj-1&packageId=pkg-1&groupBy=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown selector, got %d", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/export?projectId=proj-1&packageId=pkg-1&groupBy=takeofftype", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %q", ct)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, ".csv") {
		t.Errorf("Expected csv attachment disposition, got %q", disposition)
	}
	if !strings.HasPrefix(w.Body.String(), "name,count,quantity") {
		t.Errorf("Expected csv header first, got %q", w.Body.String())
	}
}

func TestExportAllCSV(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/export?projectId=proj-1&all=true&groupBy=takeofftype", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "Package Name,") {
		t.Errorf("Expected cross-package header, got %q", body)
	}
	if !strings.Contains(body, "Structural") {
		t.Errorf("Expected package name in rows, got %q", body)
	}
}

func TestExportClassifications(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/export?projectId=proj-1&takeoffData=classifications", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Body.String(), "parentCode,code,description,measurementType") {
		t.Errorf("Expected classification listing header, got %q", w.Body.String())
	}
}

func TestExportXLSX(t *testing.T) {
	router := setupTakeoffTest(t, &stubBackend{})

	w := doJSON(t, router, "GET", "/api/takeoff/export?projectId=proj-1&packageId=pkg-1&format=xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("Expected xlsx attachment, got %q", w.Header().Get("Content-Disposition"))
	}
	if w.Body.Len() == 0 {
		t.Error("Expected a non-empty workbook")
	}
}

func TestPostInfoCreatePackage(t *testing.T) {
	backend := &stubBackend{result: entity.MutationResult{StatusCode: 201, Body: []byte(`{"id":"pkg-3"}`)}}
	router := setupTakeoffTest(t, backend)

	w := doJSON(t, router, "POST", "/api/takeoff/info", map[string]string{
		"takeoffData": "package_create",
		"projectId":   "proj-1",
		"packageName": "MEP",
	})
	// The upstream status passes through verbatim.
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if backend.lastOp != "create_package" {
		t.Errorf("Expected create_package forwarded, got %q", backend.lastOp)
	}
}

func TestPostInfoImportClassifications(t *testing.T) {
	backend := &stubBackend{result: entity.MutationResult{StatusCode: 200}}
	router := setupTakeoffTest(t, backend)

	w := doJSON(t, router, "POST", "/api/takeoff/info", map[string]string{
		"takeoffData":        "classifications_import",
		"projectId":          "proj-1",
		"systemId":           "sys-1",
		"classificationName": "CSI",
		"csv":                "parentCode,code,description,measurementType\n,03,Concrete,Area\n",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if backend.lastOp != "import" || backend.lastBatchLen != 1 {
		t.Errorf("Expected import of 1 code, got op=%q len=%d", backend.lastOp, backend.lastBatchLen)
	}
}

func TestPostInfoBadImportHeader(t *testing.T) {
	backend := &stubBackend{}
	router := setupTakeoffTest(t, backend)

	w := doJSON(t, router, "POST", "/api/takeoff/info", map[string]string{
		"takeoffData":        "classifications_import",
		"projectId":          "proj-1",
		"systemId":           "sys-1",
		"classificationName": "CSI",
		"csv":                "wrong,header\n",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if backend.lastOp != "" {
		t.Errorf("Expected nothing forwarded upstream, got %q", backend.lastOp)
	}
}

func TestPatchInfoSettings(t *testing.T) {
	backend := &stubBackend{result: entity.MutationResult{StatusCode: 200}}
	router := setupTakeoffTest(t, backend)

	w := doJSON(t, router, "PATCH", "/api/takeoff/info", map[string]string{
		"takeoffData":       "settings",
		"projectId":         "proj-1",
		"measurementSystem": "imperial",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if backend.lastOp != "update_settings" {
		t.Errorf("Expected update_settings forwarded, got %q", backend.lastOp)
	}
}
