package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "modernc.org/sqlite"

	"requisitions/internal/adapters/catalogue"
	emailPkg "requisitions/internal/adapters/email"
	web "requisitions/internal/adapters/http"
	"requisitions/internal/adapters/storage"
	reqStore "requisitions/internal/adapters/storage/requisition"
	"requisitions/internal/application/orchestrators"
	"requisitions/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cat, err := catalogue.Load(cfg.CataloguePath)
	if err != nil {
		log.Fatalf("failed to load catalogue: %v", err)
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	if cfg.Seed {
		if err := orchestrators.ExecuteSeedRequisitions(context.Background(), orchestrators.SeedRequisitionsDeps{Store: store}); err != nil {
			log.Fatalf("failed to seed requisitions: %v", err)
		}
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.NotifyFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() && cfg.NotificationsEnabled() {
			log.Println("WARNING: REQ_RESEND_KEY is not set, submission emails are DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set REQ_RESEND_KEY for real delivery)")
		}
	}
	var notifier orchestrators.SubmissionNotifier
	if cfg.NotificationsEnabled() {
		notifier = &orchestrators.EmailNotifier{Sender: sender, From: cfg.NotifyFrom, To: []string{cfg.NotifyTo}}
	}

	mux := web.NewMux(&web.Stores{RequisitionStore: store}, web.Options{
		Catalogue:          cat,
		Notifier:           notifier,
		CSRFKey:            cfg.CSRFKey,
		SecureCookies:      cfg.IsProduction(),
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RateLimit,
		SlowRequestMs:      cfg.SlowRequestMs,
	})

	log.Printf("Requisitions %s starting on %s (env=%s, store=%s, schema=%d)", version, cfg.Addr, cfg.Env, cfg.Store, storage.SchemaVersion)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// openStore builds the configured record store and returns its cleanup func.
func openStore(cfg config.Config) (reqStore.Store, func()) {
	if cfg.Store != config.StoreSQLite {
		log.Println("Using in-memory requisition store (data is lost on restart)")
		return reqStore.NewMemoryStore(nil, nil), func() {}
	}

	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	timedDB := storage.NewTimedDB(db, cfg.SlowQueryMs)
	return reqStore.NewSQLiteStore(timedDB, nil, nil), func() {
		total, slow := timedDB.Stats()
		log.Printf("Closing database (%d queries, %d slow)", total, slow)
		timedDB.Close()
	}
}
