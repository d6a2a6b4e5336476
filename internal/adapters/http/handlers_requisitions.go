package web

import (
	"fmt"
	"net/http"
	"strconv"

	"requisitions/internal/adapters/catalogue"
	"requisitions/internal/application/listutil"
	"requisitions/internal/application/orchestrators"
	"requisitions/internal/application/projections"
	"requisitions/internal/domain/requisition"
)

// XLSXContentType is the media type of the export download.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type catalogueResponse struct {
	Departments  []string `json:"departments"`
	Employees    []string `json:"employees"`
	Requirements []string `json:"requirements"`
	Categories   []string `json:"categories"`
}

type draftResponse struct {
	Open     bool               `json:"open"`
	Draft    *requisition.Draft `json:"draft,omitempty"`
	Messages []string           `json:"messages,omitempty"`
}

type openDraftRequest struct {
	Mode string
	ID   string
}

type fieldRequest struct {
	Name  string
	Value string
}

type itemRequest struct {
	Name     string
	Quantity string
}

type submitResponse struct {
	Mode    requisition.Mode          `json:"mode"`
	Record  requisition.Requisition   `json:"record"`
	Records []requisition.Requisition `json:"records"`
	Notice  string                    `json:"notice"`
}

type toggleResponse struct {
	Found   bool                      `json:"found"`
	Enabled bool                      `json:"enabled"`
	Notice  string                    `json:"notice,omitempty"`
	Records []requisition.Requisition `json:"records"`
}

type promptResponse struct {
	Token         string `json:"token"`
	RequisitionID string `json:"requisitionId"`
	Title         string `json:"title"`
	Text          string `json:"text"`
	ConfirmLabel  string `json:"confirmLabel"`
	CancelLabel   string `json:"cancelLabel"`
}

type confirmRequest struct {
	Token     string
	Confirmed bool
}

type deleteResponse struct {
	Outcome       orchestrators.DeleteOutcome `json:"outcome"`
	RequisitionID string                      `json:"requisitionId"`
	Notice        string                      `json:"notice"`
	Records       []requisition.Requisition   `json:"records,omitempty"`
}

func newDraftResponse(d requisition.Draft) draftResponse {
	return draftResponse{Open: true, Draft: &d, Messages: d.Errors.Messages()}
}

func newPromptResponse(p orchestrators.DeletePrompt) promptResponse {
	return promptResponse{
		Token:         p.Token,
		RequisitionID: p.RequisitionID,
		Title:         p.Title,
		Text:          p.Text,
		ConfirmLabel:  p.ConfirmLabel,
		CancelLabel:   p.CancelLabel,
	}
}

// handleCatalogue handles GET /api/catalogue.
// ?format=yaml returns the active catalogue in the REQ_CATALOGUE_PATH file format.
func (s *server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s.mu.Lock()
	c := s.editor.Catalogue()
	s.mu.Unlock()

	if r.URL.Query().Get("format") == "yaml" {
		b, err := catalogue.Marshal(c)
		if err != nil {
			internalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="catalogue.yaml"`)
		w.Write(b)
		return
	}

	writeJSON(w, http.StatusOK, catalogueResponse{
		Departments:  c.Departments(),
		Employees:    c.Employees(),
		Requirements: c.Requirements(),
		Categories:   c.Categories(),
	})
}

// handleRequisitions handles GET /api/requisitions
func (s *server) handleRequisitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lp := listutil.ParseListParams(r.URL.Query(), projections.RequisitionSortColumns, projections.RequisitionFilterKeys)
	result, err := projections.QueryGetRequisitionList(r.Context(), projections.GetRequisitionListQuery{ListParams: lp}, projections.GetRequisitionListDeps{
		Store: s.stores.RequisitionStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDraft handles GET (current), POST (open) and DELETE (cancel) for /api/requisitions/draft
func (s *server) handleDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		d, ok := s.editor.Current()
		if !ok {
			writeJSON(w, http.StatusOK, draftResponse{})
			return
		}
		writeJSON(w, http.StatusOK, newDraftResponse(d))

	case http.MethodPost:
		var req openDraftRequest
		if err := strictDecode(r, &req); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
		var (
			d   requisition.Draft
			err error
		)
		switch requisition.Mode(req.Mode) {
		case requisition.ModeCreate, "":
			d, err = s.editor.OpenForCreate()
		case requisition.ModeEdit:
			if req.ID == "" {
				writeCoreError(w, orchestrators.ErrMissingID)
				return
			}
			d, err = s.editor.OpenForEdit(r.Context(), req.ID)
		default:
			writeErrorJSON(w, http.StatusBadRequest, fmt.Sprintf("unknown draft mode %q", req.Mode))
			return
		}
		if err != nil {
			writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newDraftResponse(d))

	case http.MethodDelete:
		if err := s.editor.Cancel(); err != nil {
			writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, draftResponse{})

	default:
		methodNotAllowed(w)
	}
}

// handleDraftField handles POST /api/requisitions/draft/field
func (s *server) handleDraftField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req fieldRequest
	if err := strictDecode(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.editor.UpdateField(req.Name, req.Value)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(d))
}

// handleDraftItems handles POST /api/requisitions/draft/items
func (s *server) handleDraftItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req itemRequest
	if err := strictDecode(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.editor.AppendItem(req.Name, req.Quantity)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDraftResponse(d))
}

// handleDraftSubmit handles POST /api/requisitions/draft/submit
func (s *server) handleDraftSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.editor.Submit(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	status := http.StatusOK
	if res.Mode == requisition.ModeCreate {
		status = http.StatusCreated
	}
	writeJSON(w, status, submitResponse{
		Mode:    res.Mode,
		Record:  res.Record,
		Records: res.Records,
		Notice:  res.Notice,
	})
}

// handleToggle handles POST /api/requisitions/toggle?id=
func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := orchestrators.ExecuteToggleRequisition(r.Context(), r.URL.Query().Get("id"), orchestrators.ToggleRequisitionDeps{
		Store: s.stores.RequisitionStore,
	})
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		Found:   res.Found,
		Enabled: res.Enabled,
		Notice:  res.Notice,
		Records: res.Records,
	})
}

// handleDelete handles POST /api/requisitions/delete?id=
func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.deleteGate.RequestDelete(r.URL.Query().Get("id"))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPromptResponse(p))
}

// handleDeleteConfirm handles POST /api/requisitions/delete/confirm
func (s *server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req confirmRequest
	if err := strictDecode(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.deleteGate.ResolveDelete(r.Context(), req.Token, req.Confirmed)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{
		Outcome:       res.Outcome,
		RequisitionID: res.RequisitionID,
		Notice:        res.Notice,
		Records:       res.Records,
	})
}

// handleExport handles GET /api/requisitions/export.xlsx
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	buf, err := projections.QueryExportRequisitions(r.Context(), projections.ExportRequisitionsQuery{
		FilterParams: listutil.ParseFilterParams(q, projections.RequisitionFilterKeys),
		SortParams:   listutil.ParseSortParams(q, projections.RequisitionSortColumns),
	}, projections.ExportRequisitionsDeps{
		Store: s.stores.RequisitionStore,
		Now:   s.now,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	filename := fmt.Sprintf("requisitions_%s.xlsx", s.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}
