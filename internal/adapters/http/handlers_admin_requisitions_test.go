package web

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
)

var csrfInput = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// browser carries the CSRF cookie and form token between page loads.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
	token   string
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.h.ServeHTTP(rr, req)
	if cs := rr.Result().Cookies(); len(cs) > 0 {
		b.cookies = cs
	}
	if m := csrfInput.FindStringSubmatch(rr.Body.String()); m != nil {
		b.token = html.UnescapeString(m[1])
	}
	return rr
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	form.Set("gorilla.csrf.Token", b.token)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://localhost:8080/admin/requisitions")
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.h.ServeHTTP(rr, req)
	return rr
}

func TestAdminPage_ListsRequisitions(t *testing.T) {
	h, _ := newTestMux(t)
	b := &browser{t: t, h: h}

	rr := b.get("/admin/requisitions")
	expectStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rr.Body.String()
	for _, want := range []string{
		"REQ001",
		"REQ002",
		"Dell XPS 15 (5)",
		"Pens (50), Notebooks (50)",
		"<p>High-performance laptops for development team</p>",
		`class="disabled"`,
		"Showing 1 to 2 of 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if b.token == "" {
		t.Error("page has no CSRF token")
	}
}

func TestAdminPage_EmptyMessage(t *testing.T) {
	h, _ := newTestMux(t)
	b := &browser{t: t, h: h}

	rr := b.get("/admin/requisitions?q=nothing-like-this")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "No requisitions found.") {
		t.Error("missing empty list message")
	}
}

func TestAdminPage_ShowsOpenDraftErrors(t *testing.T) {
	h, _ := newTestMux(t)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "create"}), http.StatusCreated)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil), http.StatusUnprocessableEntity)

	b := &browser{t: t, h: h}
	body := b.get("/admin/requisitions").Body.String()
	for _, want := range []string{"New requisition in progress", "Requisition ID is required", "At least one item is required"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestAdminPage_EscapesMarkdownHTML(t *testing.T) {
	h, store := newTestMux(t)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft", openDraftRequest{Mode: "edit", ID: "seed-1"}), http.StatusCreated)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/field", fieldRequest{Name: "details", Value: "**Urgent** <script>alert(1)</script>"}), http.StatusOK)
	expectStatus(t, doJSON(t, h, "POST", "/api/requisitions/draft/submit", nil), http.StatusOK)
	if r, _ := store.GetByID(context.Background(), "seed-1"); !strings.HasPrefix(r.Details, "**Urgent**") {
		t.Fatalf("details = %q", r.Details)
	}

	body := (&browser{t: t, h: h}).get("/admin/requisitions").Body.String()
	if !strings.Contains(body, "<strong>Urgent</strong>") {
		t.Error("markdown not rendered")
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("raw HTML in details must not be rendered")
	}
}

func TestAdminToggle_RejectsMissingCSRFToken(t *testing.T) {
	h, store := newTestMux(t)

	req := httptest.NewRequest("POST", "/admin/requisitions/toggle", strings.NewReader("id=seed-2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://localhost:8080/admin/requisitions")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusForbidden)
	if r, _ := store.GetByID(context.Background(), "seed-2"); r.Enabled {
		t.Error("toggle ran without a CSRF token")
	}
}

func TestAdminToggle_WithCSRFToken(t *testing.T) {
	h, store := newTestMux(t)
	b := &browser{t: t, h: h}
	b.get("/admin/requisitions")

	rr := b.post("/admin/requisitions/toggle", url.Values{"id": {"seed-2"}})
	expectStatus(t, rr, http.StatusSeeOther)
	if loc := rr.Header().Get("Location"); loc != "/admin/requisitions?notice=Requisition+enabled." {
		t.Errorf("Location = %q", loc)
	}
	if r, _ := store.GetByID(context.Background(), "seed-2"); !r.Enabled {
		t.Error("seed-2 should be enabled")
	}

	page := b.get("/admin/requisitions?notice=Requisition+enabled.").Body.String()
	if !strings.Contains(page, `<div class="notice" role="status">Requisition enabled.</div>`) {
		t.Error("notice not shown")
	}
}

func TestAdminDelete_PromptThenConfirm(t *testing.T) {
	h, store := newTestMux(t)
	b := &browser{t: t, h: h}
	b.get("/admin/requisitions")

	rr := b.post("/admin/requisitions/delete", url.Values{"id": {"seed-1"}})
	expectStatus(t, rr, http.StatusSeeOther)

	page := b.get("/admin/requisitions").Body.String()
	for _, want := range []string{"Are you sure?", "You won&#39;t be able to revert this!", "Yes, delete it!", "No, cancel!", `name="token" value="token-1"`} {
		if !strings.Contains(page, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if records, _ := store.List(context.Background()); len(records) != 2 {
		t.Fatal("requesting a delete must not remove anything")
	}

	rr = b.post("/admin/requisitions/delete/confirm", url.Values{"token": {"token-1"}, "confirmed": {"true"}})
	expectStatus(t, rr, http.StatusSeeOther)
	if loc := rr.Header().Get("Location"); loc != "/admin/requisitions?notice=Requisition+deleted+successfully." {
		t.Errorf("Location = %q", loc)
	}
	records, _ := store.List(context.Background())
	if len(records) != 1 || records[0].ID != "seed-2" {
		t.Errorf("records = %+v", records)
	}

	rr = b.post("/admin/requisitions/delete/confirm", url.Values{"token": {"token-1"}, "confirmed": {"true"}})
	expectStatus(t, rr, http.StatusConflict)
}

func TestAdminDelete_Cancel(t *testing.T) {
	h, store := newTestMux(t)
	b := &browser{t: t, h: h}
	b.get("/admin/requisitions")

	expectStatus(t, b.post("/admin/requisitions/delete", url.Values{"id": {"seed-2"}}), http.StatusSeeOther)
	rr := b.post("/admin/requisitions/delete/confirm", url.Values{"token": {"token-1"}, "confirmed": {"false"}})
	expectStatus(t, rr, http.StatusSeeOther)
	if loc := rr.Header().Get("Location"); loc != "/admin/requisitions?notice=Requisition+is+safe" {
		t.Errorf("Location = %q", loc)
	}
	if records, _ := store.List(context.Background()); len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestRootRedirectsToAdminPage(t *testing.T) {
	h, _ := newTestMux(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	expectStatus(t, rr, http.StatusSeeOther)
	if loc := rr.Header().Get("Location"); loc != "/admin/requisitions" {
		t.Errorf("Location = %q", loc)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/nope", nil))
	expectStatus(t, rr, http.StatusNotFound)
}
