package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"requisitions/internal/application/orchestrators"
	"requisitions/internal/domain/requisition"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "error", err.Error())
	}
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationErrorBody is the 422 payload for a rejected submit.
type validationErrorBody struct {
	Errors   requisition.Errors `json:"errors"`
	Messages []string           `json:"messages"`
}

// writeCoreError maps editor, gate and store errors onto HTTP statuses.
func writeCoreError(w http.ResponseWriter, err error) {
	var ve *requisition.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorBody{
			Errors:   ve.Errors,
			Messages: ve.Errors.Messages(),
		})
	case errors.Is(err, requisition.ErrInvalidItem):
		writeErrorJSON(w, http.StatusBadRequest, requisition.ErrInvalidItem.Error())
	case errors.Is(err, requisition.ErrNoOpenDraft),
		errors.Is(err, requisition.ErrDraftAlreadyOpen),
		errors.Is(err, requisition.ErrFieldReadOnly),
		errors.Is(err, orchestrators.ErrNoPendingDelete):
		writeErrorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, requisition.ErrUnknownField),
		errors.Is(err, requisition.ErrInvalidFieldValue),
		errors.Is(err, orchestrators.ErrMissingID):
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orchestrators.ErrRequisitionNotFound):
		writeErrorJSON(w, http.StatusNotFound, err.Error())
	default:
		internalError(w, err)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"displayDate": requisition.FormatDisplayDate,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}

	// Render to a buffer so a failed execute never leaves a half-written page.
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
