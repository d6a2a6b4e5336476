package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"requisitions/internal/adapters/catalogue"
	reqStore "requisitions/internal/adapters/storage/requisition"
	"requisitions/internal/application/orchestrators"
	"requisitions/internal/application/projections"
	"requisitions/internal/domain/requisition"
)

var fixedNow = func() time.Time { return time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC) }

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// newTestMux returns the full handler chain over a memory store holding REQ001 (seed-1) and REQ002 (seed-2).
func newTestMux(t *testing.T) (http.Handler, *reqStore.MemoryStore) {
	t.Helper()
	store := reqStore.NewMemoryStore(seqIDs("id"), fixedNow)
	if err := store.Seed(context.Background(), orchestrators.SeedRequisitions(seqIDs("seed"))); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewMux(&Stores{RequisitionStore: store}, Options{
		CSRFKey:            bytes.Repeat([]byte("k"), 32),
		TrustedOrigins:     []string{"localhost:8080"},
		RateLimitPerSecond: 10000,
		GenerateID:         seqIDs("token"),
		Now:                fixedNow,
	})
	return h, store
}

// doJSON sends a JSON request. JSON requests bypass CSRF, as API clients do.
func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func fillREQ010(t *testing.T, h http.Handler) {
	t.Helper()
	fields := []fieldRequest{
		{Name: requisition.FieldRequisitionID, Value: "REQ010"},
		{Name: requisition.FieldDate, Value: "2025-10-01"},
		{Name: requisition.FieldDepartment, Value: requisition.DepartmentAdmin},
		{Name: requisition.FieldEmployee, Value: requisition.EmployeeFatima},
		{Name: requisition.FieldRequirement, Value: requisition.RequirementEmergency},
		{Name: requisition.FieldDetails, Value: "Replacement chairs for the meeting room"},
		{Name: requisition.FieldCategory, Value: requisition.CategoryFurniture},
		{Name: requisition.FieldQuantity, Value: "4"},
	}
	for _, f := range fields {
		expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", f), http.StatusOK)
	}
}

func TestListRequisitions_SeedOrder(t *testing.T) {
	h, _ := newTestMux(t)

	rr := doJSON(t, h, "GET", "/api/requisitions", nil)
	expectStatus(t, rr, http.StatusOK)
	res := decodeBody[projections.GetRequisitionListResult](t, rr)

	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[0].RequisitionID != "REQ001" || res.Rows[1].RequisitionID != "REQ002" {
		t.Errorf("order = %s, %s", res.Rows[0].RequisitionID, res.Rows[1].RequisitionID)
	}
	if res.Rows[1].ItemSummary != "Pens (50), Notebooks (50)" {
		t.Errorf("item summary = %q", res.Rows[1].ItemSummary)
	}
	if res.EmptyMessage != "" {
		t.Errorf("empty message = %q, want none", res.EmptyMessage)
	}
}

func TestListRequisitions_Filters(t *testing.T) {
	h, _ := newTestMux(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"department", "?department=HR", []string{"REQ002"}},
		{"enabled", "?enabled=true", []string{"REQ001"}},
		{"search", "?q=dell", []string{"REQ001"}},
		{"sort desc", "?sort=requisitionId&dir=desc", []string{"REQ002", "REQ001"}},
		{"no match", "?q=nothing-like-this", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, "GET", "/api/requisitions"+tt.query, nil)
			expectStatus(t, rr, http.StatusOK)
			res := decodeBody[projections.GetRequisitionListResult](t, rr)

			var got []string
			for _, row := range res.Rows {
				got = append(got, row.RequisitionID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("rows = %v, want %v", got, tt.want)
			}
			if len(tt.want) == 0 && res.EmptyMessage != projections.EmptyListMessage {
				t.Errorf("empty message = %q", res.EmptyMessage)
			}
		})
	}
}

func TestCatalogue(t *testing.T) {
	h, _ := newTestMux(t)

	rr := doJSON(t, h, "GET", "/api/catalogue", nil)
	expectStatus(t, rr, http.StatusOK)
	res := decodeBody[catalogueResponse](t, rr)

	if len(res.Departments) != 6 || res.Departments[0] != requisition.DepartmentHR {
		t.Errorf("departments = %v", res.Departments)
	}
	if len(res.Categories) != 5 {
		t.Errorf("categories = %v", res.Categories)
	}
}

func TestCatalogue_YAML(t *testing.T) {
	h, _ := newTestMux(t)

	rr := doJSON(t, h, "GET", "/api/catalogue?format=yaml", nil)
	expectStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("content type = %q", ct)
	}

	got, err := catalogue.Parse(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("parse downloaded catalogue: %v", err)
	}
	want := requisition.DefaultCatalogue()
	tests := []struct {
		name      string
		got, want []string
	}{
		{"departments", got.Departments(), want.Departments()},
		{"employees", got.Employees(), want.Employees()},
		{"requirements", got.Requirements(), want.Requirements()},
		{"categories", got.Categories(), want.Categories()},
	}
	for _, tt := range tests {
		if strings.Join(tt.got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

// TestCreateEndToEnd_REQ010 drives the create flow purely through the API.
func TestCreateEndToEnd_REQ010(t *testing.T) {
	h, _ := newTestMux(t)

	rr := doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "create"})
	expectStatus(t, rr, http.StatusCreated)
	opened := decodeBody[draftResponse](t, rr)
	if !opened.Open || opened.Draft == nil || !opened.Draft.Enabled {
		t.Fatalf("opened = %+v", opened)
	}

	fillREQ010(t, h)
	rr = doJSON(t, h, "POST", "/api/requisitions/draft/items", itemRequest{Name: "Ergonomic chair", Quantity: "4"})
	expectStatus(t, rr, http.StatusCreated)
	withItem := decodeBody[draftResponse](t, rr)
	if len(withItem.Draft.Items) != 1 || withItem.Draft.PendingItemName != "" {
		t.Errorf("draft after item = %+v", withItem.Draft)
	}

	rr = doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil)
	expectStatus(t, rr, http.StatusCreated)
	res := decodeBody[submitResponse](t, rr)

	if res.Notice != orchestrators.NoticeAdded {
		t.Errorf("notice = %q", res.Notice)
	}
	if len(res.Records) != 3 || res.Records[2].RequisitionID != "REQ010" {
		t.Fatalf("records = %+v", res.Records)
	}
	rec := res.Record
	if rec.ID != "id-1" || !rec.CreatedAt.Equal(fixedNow()) || rec.Quantity != 4 || !rec.Enabled {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Items) != 1 || rec.Items[0] != (requisition.LineItem{Name: "Ergonomic chair", Quantity: 4}) {
		t.Errorf("items = %+v", rec.Items)
	}

	rr = doJSON(t, h, "GET", "/api/requisitions/draft", nil)
	expectStatus(t, rr, http.StatusOK)
	if decodeBody[draftResponse](t, rr).Open {
		t.Error("draft should be closed after a successful submit")
	}
}

func TestSubmit_ValidationFailureKeepsDraftOpen(t *testing.T) {
	h, store := newTestMux(t)

	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{}), http.StatusCreated)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "department", Value: "Marketing"}), http.StatusOK)

	rr := doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	body := decodeBody[validationErrorBody](t, rr)

	for _, f := range []string{"requisitionId", "date", "department", "employee", "requirement", "details", "category", "itemsList", "quantity"} {
		if _, ok := body.Errors[f]; !ok {
			t.Errorf("missing error for %s", f)
		}
	}
	if !strings.HasPrefix(body.Errors["department"], "Department must be one of: ") {
		t.Errorf("department error = %q", body.Errors["department"])
	}
	if len(body.Messages) != len(body.Errors) || body.Messages[0] != "Requisition ID is required" {
		t.Errorf("messages = %v", body.Messages)
	}

	rr = doJSON(t, h, "GET", "/api/requisitions/draft", nil)
	current := decodeBody[draftResponse](t, rr)
	if !current.Open || len(current.Draft.Errors) != 9 {
		t.Errorf("draft after failed submit = %+v", current)
	}

	records, _ := store.List(context.Background())
	if len(records) != 2 {
		t.Errorf("store has %d records, want 2", len(records))
	}
}

func TestAppendItem_InvalidEntry(t *testing.T) {
	h, _ := newTestMux(t)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "create"}), http.StatusCreated)

	tests := []struct {
		name string
		item itemRequest
	}{
		{"blank name", itemRequest{Name: "   ", Quantity: "3"}},
		{"zero quantity", itemRequest{Name: "Pens", Quantity: "0"}},
		{"fraction", itemRequest{Name: "Pens", Quantity: "2.5"}},
		{"not a number", itemRequest{Name: "Pens", Quantity: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, "POST", "/api/requisitions/draft/items", tt.item)
			expectStatus(t, rr, http.StatusBadRequest)
			body := decodeBody[map[string]string](t, rr)
			if body["error"] != requisition.ErrInvalidItem.Error() {
				t.Errorf("error = %q", body["error"])
			}
		})
	}

	current := decodeBody[draftResponse](t, doJSON(t, h, "GET", "/api/requisitions/draft", nil))
	if len(current.Draft.Items) != 0 {
		t.Errorf("items = %+v, want none", current.Draft.Items)
	}
}

func TestDraftProtocolErrors(t *testing.T) {
	h, _ := newTestMux(t)

	// Closed editor
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil), http.StatusConflict)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "date", Value: "2025-10-01"}), http.StatusConflict)
	expectStatus(t, doJSON(t, h, "DELETE", "/api/requisitions/draft", nil), http.StatusConflict)

	// Open in edit mode
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "edit", ID: "seed-1"}), http.StatusCreated)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "create"}), http.StatusConflict)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "requisitionId", Value: "REQ999"}), http.StatusConflict)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "colour", Value: "red"}), http.StatusBadRequest)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "enabled", Value: "maybe"}), http.StatusBadRequest)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", map[string]string{"Name": "date", "Extra": "x"}), http.StatusBadRequest)

	expectStatus(t, doJSON(t, h, "DELETE", "/api/requisitions/draft", nil), http.StatusOK)
}

func TestOpenDraft_BadRequests(t *testing.T) {
	h, _ := newTestMux(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"unknown mode", openDraftRequest{Mode: "archive"}, http.StatusBadRequest},
		{"edit without id", openDraftRequest{Mode: "edit"}, http.StatusBadRequest},
		{"edit unknown id", openDraftRequest{Mode: "edit", ID: "nope"}, http.StatusNotFound},
		{"unknown field", map[string]string{"Mode": "create", "Target": "x"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", tt.body), tt.want)
		})
	}
}

func TestEditFlow_KeepsPositionAndCreatedAt(t *testing.T) {
	h, store := newTestMux(t)
	before, _ := store.GetByID(context.Background(), "seed-1")

	rr := doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "edit", ID: "seed-1"})
	expectStatus(t, rr, http.StatusCreated)
	opened := decodeBody[draftResponse](t, rr)
	if opened.Draft.Mode != requisition.ModeEdit || opened.Draft.Quantity != "5" {
		t.Fatalf("draft = %+v", opened.Draft)
	}

	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/items", itemRequest{Name: "USB-C dock", Quantity: "5"}), http.StatusCreated)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "quantity", Value: "10"}), http.StatusOK)

	rr = doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil)
	expectStatus(t, rr, http.StatusOK)
	res := decodeBody[submitResponse](t, rr)

	if res.Notice != orchestrators.NoticeUpdated || res.Mode != requisition.ModeEdit {
		t.Errorf("result = %+v", res)
	}
	if len(res.Records) != 2 || res.Records[0].ID != "seed-1" {
		t.Fatalf("records = %+v", res.Records)
	}
	got := res.Records[0]
	if got.Quantity != 10 || len(got.Items) != 2 || !got.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("updated = %+v", got)
	}
}

func TestEditSubmit_TargetDeletedMeanwhile(t *testing.T) {
	h, store := newTestMux(t)

	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "edit", ID: "seed-1"}), http.StatusCreated)

	prompt := decodeBody[promptResponse](t, doJSON(t, h, "POST", "/api/requisitions/delete?id=seed-1", nil))
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/delete/confirm", confirmRequest{Token: prompt.Token, Confirmed: true}), http.StatusOK)

	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil), http.StatusNotFound)

	rr := doJSON(t, h, "GET", "/api/requisitions/draft", nil)
	expectStatus(t, rr, http.StatusOK)
	if d := decodeBody[draftResponse](t, rr); !d.Open {
		t.Error("draft should stay open after a failed submit")
	}
	if records, _ := store.List(context.Background()); len(records) != 1 || records[0].ID != "seed-2" {
		t.Errorf("records = %+v", records)
	}
}

func TestNewMux_InstancesAreIndependent(t *testing.T) {
	t.Parallel()
	a, _ := newTestMux(t)
	b, _ := newTestMux(t)

	expectStatus(t, doJSON(t, a, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "create"}), http.StatusCreated)

	tests := []struct {
		name string
		h    http.Handler
		open bool
	}{
		{"opened", a, true},
		{"other", b, false},
	}
	for _, tt := range tests {
		rr := doJSON(t, tt.h, "GET", "/api/requisitions/draft", nil)
		expectStatus(t, rr, http.StatusOK)
		if d := decodeBody[draftResponse](t, rr); d.Open != tt.open {
			t.Errorf("%s mux: open = %v, want %v", tt.name, d.Open, tt.open)
		}
	}
}

func TestToggle(t *testing.T) {
	h, _ := newTestMux(t)

	rr := doJSON(t, h, "POST", "/api/requisitions/toggle?id=seed-2", nil)
	expectStatus(t, rr, http.StatusOK)
	res := decodeBody[toggleResponse](t, rr)
	if !res.Found || !res.Enabled || res.Notice != orchestrators.NoticeEnabled {
		t.Errorf("toggle = %+v", res)
	}
	if !res.Records[1].Enabled {
		t.Error("REQ002 should be enabled in the snapshot")
	}

	rr = doJSON(t, h, "POST", "/api/requisitions/toggle?id=unknown", nil)
	expectStatus(t, rr, http.StatusOK)
	if res := decodeBody[toggleResponse](t, rr); res.Found || len(res.Records) != 2 {
		t.Errorf("unknown id toggle = %+v", res)
	}

	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/toggle", nil), http.StatusBadRequest)
}

func TestDelete_CancelThenConfirm(t *testing.T) {
	h, store := newTestMux(t)

	rr := doJSON(t, h, "POST", "/api/requisitions/delete?id=seed-1", nil)
	expectStatus(t, rr, http.StatusOK)
	prompt := decodeBody[promptResponse](t, rr)
	if prompt.Token != "token-1" || prompt.Title != orchestrators.DeletePromptTitle || prompt.ConfirmLabel != orchestrators.DeleteConfirmLabel {
		t.Fatalf("prompt = %+v", prompt)
	}

	rr = doJSON(t, h, "POST", "/api/requisitions/delete/confirm", confirmRequest{Token: prompt.Token, Confirmed: false})
	expectStatus(t, rr, http.StatusOK)
	if res := decodeBody[deleteResponse](t, rr); res.Outcome != orchestrators.DeleteOutcomeCancelled || res.Notice != orchestrators.NoticeDeleteAborted {
		t.Errorf("cancel = %+v", res)
	}
	if records, _ := store.List(context.Background()); len(records) != 2 {
		t.Fatalf("cancel removed a record")
	}

	// The answered token is spent.
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/delete/confirm", confirmRequest{Token: prompt.Token, Confirmed: true}), http.StatusConflict)

	prompt = decodeBody[promptResponse](t, doJSON(t, h, "POST", "/api/requisitions/delete?id=seed-1", nil))
	rr = doJSON(t, h, "POST", "/api/requisitions/delete/confirm", confirmRequest{Token: prompt.Token, Confirmed: true})
	expectStatus(t, rr, http.StatusOK)
	res := decodeBody[deleteResponse](t, rr)
	if res.Outcome != orchestrators.DeleteOutcomeDeleted || res.Notice != orchestrators.NoticeDeleted {
		t.Errorf("confirm = %+v", res)
	}
	if len(res.Records) != 1 || res.Records[0].ID != "seed-2" {
		t.Errorf("records = %+v", res.Records)
	}

	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/delete", nil), http.StatusBadRequest)
}

func TestExport(t *testing.T) {
	h, _ := newTestMux(t)

	rr := doJSON(t, h, "GET", "/api/requisitions/export.xlsx?department=IT", nil)
	expectStatus(t, rr, http.StatusOK)

	if ct := rr.Header().Get("Content-Type"); ct != XLSXContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="requisitions_20251001_093000.xlsx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if cl := rr.Header().Get("Content-Length"); cl != strconv.Itoa(rr.Body.Len()) {
		t.Errorf("Content-Length = %s, body = %d", cl, rr.Body.Len())
	}

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	for cell, want := range map[string]string{"A5": "REQ001", "A6": ""} {
		got, err := f.GetCellValue(projections.ExportSheetName, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestMux(t)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/requisitions"},
		{"POST", "/api/catalogue"},
		{"PUT", "/api/requisitions/draft"},
		{"GET", "/api/requisitions/draft/field"},
		{"GET", "/api/requisitions/draft/items"},
		{"GET", "/api/requisitions/draft/submit"},
		{"GET", "/api/requisitions/toggle"},
		{"GET", "/api/requisitions/delete"},
		{"GET", "/api/requisitions/delete/confirm"},
		{"POST", "/api/requisitions/export.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			expectStatus(t, doJSON(t, h, tt.method, tt.path, nil), http.StatusMethodNotAllowed)
		})
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	h, _ := newTestMux(t)
	rr := doJSON(t, h, "GET", "/api/requisitions", nil)
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q", rr.Header().Get("X-Frame-Options"))
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}
