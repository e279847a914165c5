package cases_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"casetrack-backend/internal/bootstrap"
	"casetrack-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func createTestCase(t *testing.T, router *gin.Engine) map[string]any {
	t.Helper()
	resp := doJSON(t, router, http.MethodPost, "/api/v1/cases", `{
		"clientName": "John Smith",
		"caseNumber": "CN-100",
		"courtName": "District Court",
		"hearingDates": [{"date": "2026-03-12", "time": "10:00"}]
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create case: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created
}

func TestCreateCaseRequiresIdentity(t *testing.T) {
	router := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
}

func TestCreateCaseValidationError(t *testing.T) {
	router := newTestApp(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/cases", `{
		"clientName": "John Smith",
		"caseNumber": "CN-100",
		"courtName": "District Court",
		"hearingDates": []
	}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without hearings, got %d", resp.Code)
	}

	var body map[string]map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"]["code"] != "validation_error" {
		t.Fatalf("expected validation_error, got %v", body["error"]["code"])
	}
}

func TestCaseLifecycle(t *testing.T) {
	router := newTestApp(t)
	created := createTestCase(t, router)
	caseID, _ := created["id"].(string)
	if caseID == "" {
		t.Fatalf("expected case id in response")
	}

	// Read it back.
	resp := doJSON(t, router, http.MethodGet, "/api/v1/cases/"+caseID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}

	// Patch status and clear notes with explicit null.
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/cases/"+caseID, `{"status":"Closed","notes":null}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode patch response: %v", err)
	}
	if updated["status"] != "Closed" {
		t.Fatalf("expected status Closed, got %v", updated["status"])
	}
	if _, has := updated["notes"]; has {
		t.Fatalf("expected notes cleared, got %v", updated["notes"])
	}

	// Delete, then delete again: both succeed.
	resp = doJSON(t, router, http.MethodDelete, "/api/v1/cases/"+caseID, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.Code)
	}
	resp = doJSON(t, router, http.MethodDelete, "/api/v1/cases/"+caseID, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("repeat delete: expected 204, got %d", resp.Code)
	}

	// Gone.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/cases/"+caseID, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.Code)
	}
}

func TestHearingScopedToCase(t *testing.T) {
	router := newTestApp(t)
	first := createTestCase(t, router)
	second := createTestCase(t, router)

	firstID := first["id"].(string)
	secondID := second["id"].(string)
	firstHearings := first["hearingDates"].([]any)
	hearingID := firstHearings[0].(map[string]any)["id"].(string)

	// The hearing belongs to the first case; the second must not see it.
	path := fmt.Sprintf("/api/v1/cases/%s/hearings/%s", secondID, hearingID)
	resp := doJSON(t, router, http.MethodPatch, path, `{"date":"2026-04-01"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("cross-case patch: expected 404, got %d", resp.Code)
	}

	path = fmt.Sprintf("/api/v1/cases/%s/hearings/%s", firstID, hearingID)
	resp = doJSON(t, router, http.MethodPatch, path, `{"date":"2026-04-01"}`)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("patch: expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete hearing: expected 204, got %d", resp.Code)
	}
	resp = doJSON(t, router, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("repeat hearing delete: expected 204, got %d", resp.Code)
	}
}

func TestDeleteAbsentNestedResourcesIsNoOp(t *testing.T) {
	router := newTestApp(t)
	created := createTestCase(t, router)
	caseID := created["id"].(string)

	path := fmt.Sprintf("/api/v1/cases/%s/hearings/never-existed", caseID)
	resp := doJSON(t, router, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete absent hearing: expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	path = fmt.Sprintf("/api/v1/cases/%s/files/never-existed", caseID)
	resp = doJSON(t, router, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete absent file: expected 204, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddHearingRejectsBadDate(t *testing.T) {
	router := newTestApp(t)
	created := createTestCase(t, router)
	caseID := created["id"].(string)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/cases/"+caseID+"/hearings", `{"date":"12/03/2026"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/v1/cases/"+caseID+"/hearings", `{"date":"2026-05-01"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUploadFilesMultipart(t *testing.T) {
	router := newTestApp(t)
	created := createTestCase(t, router)
	caseID := created["id"].(string)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range []string{"one.txt", "two.txt"} {
		fw, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("contents of " + name)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases/"+caseID+"/files", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Guest-Id", "test-guest")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Results []struct {
			FileName string `json:"fileName"`
			OK       bool   `json:"ok"`
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if len(payload.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(payload.Results))
	}
	if payload.Results[0].FileName != "one.txt" || payload.Results[1].FileName != "two.txt" {
		t.Fatalf("results out of order: %+v", payload.Results)
	}

	// Files show up on the case in upload order.
	getResp := doJSON(t, router, http.MethodGet, "/api/v1/cases/"+caseID, "")
	var got map[string]any
	if err := json.Unmarshal(getResp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode case: %v", err)
	}
	files := got["files"].([]any)
	if len(files) != 2 {
		t.Fatalf("expected 2 files attached, got %d", len(files))
	}
}

func TestRegisterAndDeleteFile(t *testing.T) {
	router := newTestApp(t)
	created := createTestCase(t, router)
	caseID := created["id"].(string)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/cases/"+caseID+"/files/register", `{
		"storageKey": "case-files/test-guest/`+caseID+`/scan.pdf",
		"fileName": "scan.pdf",
		"fileType": "application/pdf"
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var file map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &file); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	fileID := file["id"].(string)

	resp = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/cases/%s/files/%s", caseID, fileID), "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete file: expected 204, got %d", resp.Code)
	}
	resp = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/cases/%s/files/%s", caseID, fileID), "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("repeat file delete: expected 204, got %d", resp.Code)
	}
}
