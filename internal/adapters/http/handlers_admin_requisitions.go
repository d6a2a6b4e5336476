package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"requisitions/internal/application/listutil"
	"requisitions/internal/application/orchestrators"
	"requisitions/internal/application/projections"
	"requisitions/internal/domain/requisition"
)

const adminRequisitionsPath = "/admin/requisitions"

// pageLink is one entry in the pager.
type pageLink struct {
	Number  int
	URL     string
	Current bool
}

// adminRequisitionsPage is the view model for the admin list page.
type adminRequisitionsPage struct {
	List        projections.GetRequisitionListResult
	Params      listutil.ListParams
	Catalogue   requisition.Catalogue
	Notice      string
	Draft       *requisition.Draft
	DraftErrors []string
	Pending     *orchestrators.DeletePrompt
	Pages       []pageLink
	ExportURL   string
}

// listQuery rebuilds the list query string for the given page.
func listQuery(p listutil.ListParams, page int) url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	for k, v := range p.Filters {
		q.Set(k, v)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
		q.Set("dir", p.Dir)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if p.PerPage != listutil.DefaultPerPage {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

func pathWithQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// redirectWithNotice sends the browser back to the list page with a one-off notice.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, notice string) {
	q := url.Values{}
	if notice != "" {
		q.Set("notice", notice)
	}
	http.Redirect(w, r, pathWithQuery(adminRequisitionsPath, q), http.StatusSeeOther)
}

// handleAdminRequisitions handles GET /admin/requisitions
func (s *server) handleAdminRequisitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	lp := listutil.ParseListParams(q, projections.RequisitionSortColumns, projections.RequisitionFilterKeys)

	result, err := projections.QueryGetRequisitionList(r.Context(), projections.GetRequisitionListQuery{ListParams: lp}, projections.GetRequisitionListDeps{
		Store: s.stores.RequisitionStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	data := adminRequisitionsPage{
		List:      result,
		Params:    lp,
		Notice:    q.Get("notice"),
		ExportURL: pathWithQuery("/api/requisitions/export.xlsx", listQuery(lp, 1)),
	}
	if result.Page.ShowPagination() {
		for _, n := range result.Page.PageNumbers() {
			data.Pages = append(data.Pages, pageLink{
				Number:  n,
				URL:     pathWithQuery(adminRequisitionsPath, listQuery(lp, n)),
				Current: n == result.Page.Page,
			})
		}
	}

	s.mu.Lock()
	data.Catalogue = s.editor.Catalogue()
	if d, ok := s.editor.Current(); ok {
		data.Draft = &d
		data.DraftErrors = d.Errors.Messages()
	}
	if p, ok := s.deleteGate.Pending(); ok {
		data.Pending = &p
	}
	s.mu.Unlock()

	renderTemplate(w, r, "admin_requisitions.html", data)
}

// handleAdminToggle handles POST /admin/requisitions/toggle (form: id)
func (s *server) handleAdminToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	s.mu.Lock()
	res, err := orchestrators.ExecuteToggleRequisition(r.Context(), r.PostFormValue("id"), orchestrators.ToggleRequisitionDeps{
		Store: s.stores.RequisitionStore,
	})
	s.mu.Unlock()
	if errors.Is(err, orchestrators.ErrMissingID) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	redirectWithNotice(w, r, res.Notice)
}

// handleAdminDelete handles POST /admin/requisitions/delete (form: id).
// The prompt is shown on the list page until it is answered.
func (s *server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	s.mu.Lock()
	_, err := s.deleteGate.RequestDelete(r.PostFormValue("id"))
	s.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, adminRequisitionsPath, http.StatusSeeOther)
}

// handleAdminDeleteConfirm handles POST /admin/requisitions/delete/confirm (form: token, confirmed)
func (s *server) handleAdminDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	confirmed, _ := strconv.ParseBool(r.PostFormValue("confirmed"))

	s.mu.Lock()
	res, err := s.deleteGate.ResolveDelete(r.Context(), r.PostFormValue("token"), confirmed)
	s.mu.Unlock()
	if errors.Is(err, orchestrators.ErrNoPendingDelete) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	redirectWithNotice(w, r, res.Notice)
}
