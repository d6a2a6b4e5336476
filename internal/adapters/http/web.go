package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"requisitions/internal/adapters/http/middleware"
	reqStore "requisitions/internal/adapters/storage/requisition"
	"requisitions/internal/application/orchestrators"
	"requisitions/internal/domain/requisition"
)

// Stores holds all storage dependencies.
type Stores struct {
	RequisitionStore reqStore.Store
}

// Options configures the mux. Zero values fall back to development defaults.
type Options struct {
	Catalogue          requisition.Catalogue
	Notifier           orchestrators.SubmissionNotifier
	CSRFKey            []byte // 32 bytes
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
	GenerateID         func() string // delete-prompt tokens
	Now                func() time.Time
}

// DefaultRateLimitPerSecond is used when Options.RateLimitPerSecond is unset.
const DefaultRateLimitPerSecond = 10

// server owns the single draft session and confirmation gate behind one mux.
type server struct {
	stores *Stores

	// mu serialises every call into the editor, gate and store mutations.
	// The core is single-user and synchronous; net/http is not.
	mu         sync.Mutex
	editor     *orchestrators.Editor
	deleteGate *orchestrators.DeleteGate
	now        func() time.Time
}

// NewMux wires HTTP handlers for the app.
// Each call builds an independent editor session over the given stores.
func NewMux(st *Stores, opts Options) http.Handler {
	if opts.GenerateID == nil {
		opts.GenerateID = func() string { return uuid.New().String() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = DefaultRateLimitPerSecond
	}

	srv := &server{
		stores: st,
		editor: orchestrators.NewEditor(orchestrators.EditorDeps{
			Store:     st.RequisitionStore,
			Catalogue: opts.Catalogue,
			Notifier:  opts.Notifier,
		}),
		deleteGate: orchestrators.NewDeleteGate(orchestrators.DeleteGateDeps{
			Store:      st.RequisitionStore,
			GenerateID: opts.GenerateID,
		}),
		now: opts.Now,
	}

	mux := http.NewServeMux()
	registerRoutes(mux, srv)

	limiter := middleware.NewRateLimiter(opts.RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(middleware.CSRFOptions{
			AuthKey:        opts.CSRFKey,
			Secure:         opts.SecureCookies,
			TrustedOrigins: opts.TrustedOrigins,
		}),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.SlowRequestMs),
	)
}

func registerRoutes(mux *http.ServeMux, s *server) {
	// JSON API
	mux.HandleFunc("/api/catalogue", s.handleCatalogue)
	mux.HandleFunc("/api/requisitions", s.handleRequisitions)
	mux.HandleFunc("/api/requisitions/draft", s.handleDraft)
	mux.HandleFunc("/api/requisitions/draft/field", s.handleDraftField)
	mux.HandleFunc("/api/requisitions/draft/items", s.handleDraftItems)
	mux.HandleFunc("/api/requisitions/draft/submit", s.handleDraftSubmit)
	mux.HandleFunc("/api/requisitions/toggle", s.handleToggle)
	mux.HandleFunc("/api/requisitions/delete", s.handleDelete)
	mux.HandleFunc("/api/requisitions/delete/confirm", s.handleDeleteConfirm)
	mux.HandleFunc("/api/requisitions/export.xlsx", s.handleExport)

	// Admin page
	mux.HandleFunc("/admin/requisitions", s.handleAdminRequisitions)
	mux.HandleFunc("/admin/requisitions/toggle", s.handleAdminToggle)
	mux.HandleFunc("/admin/requisitions/delete", s.handleAdminDelete)
	mux.HandleFunc("/admin/requisitions/delete/confirm", s.handleAdminDeleteConfirm)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/admin/requisitions", http.StatusSeeOther)
	})
}
