// @title           School Finance API
// @version         1.0
// @description     Billing, credit ledger, payables and monthly closing for a school.
// @BasePath        /api/v1
// @securityDefinitions.apikey ActorID
// @in header
// @name X-Actor-ID
package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/schoolfinance/docs"
	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/closing"
	"github.com/fkhayef/schoolfinance/internal/config"
	"github.com/fkhayef/schoolfinance/internal/credit"
	"github.com/fkhayef/schoolfinance/internal/payable"
	"github.com/fkhayef/schoolfinance/internal/payment"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/internal/student"
	mw "github.com/fkhayef/schoolfinance/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	// Initialize database connection when any component needs it
	var db *sql.DB
	if cfg.NeedsPostgres() {
		db, err = store.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			config.LogError(log, "main", "main", "connect to database", nil, err)
			log.Fatal("Failed to connect to database")
		}
		defer db.Close()
		log.Info("Connected to database successfully")
	}

	// Ledger store
	var st store.Store
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			config.LogError(log, "store", "Migrate", "postgres ledger", nil, err)
			log.Fatal("Failed to migrate ledger store")
		}
		st = pg
	default:
		bs, err := store.NewBoltStore(cfg.BoltPath)
		if err != nil {
			config.LogError(log, "store", "NewBoltStore", cfg.BoltPath, nil, err)
			log.Fatal("Failed to open ledger store")
		}
		st = bs
	}
	defer st.Close()

	// Audit trail
	sinks := []audit.Sink{audit.NewLogSink(log)}
	var auditRepo *audit.Repository
	if cfg.AuditSink == config.AuditSinkPostgres {
		auditRepo = audit.NewRepository(db)
		if err := auditRepo.Migrate(ctx); err != nil {
			config.LogError(log, "audit", "Migrate", "postgres audit sink", nil, err)
			log.Fatal("Failed to migrate audit table")
		}
		sinks = append(sinks, auditRepo)
	}
	auditLog := audit.NewLogger(log, sinks...)

	// Charge feature
	chargeRepo := charge.NewRepository()
	chargeService := charge.NewService(st, chargeRepo, auditLog, log, cfg.EnrollmentFeeDueDays)
	chargeHandler := charge.NewHandler(chargeService)

	// Student feature (enrollment generates charges)
	studentRepo := student.NewRepository()
	studentService := student.NewService(st, studentRepo, chargeService, auditLog, log)
	studentHandler := student.NewHandler(studentService)

	// Credit ledger
	creditRepo := credit.NewRepository()
	creditService := credit.NewService(st, creditRepo, auditLog, log)
	creditHandler := credit.NewHandler(creditService)

	// Payment lifecycle
	policy := payment.PolicyFromPercent(cfg.LatePenaltyPercent, cfg.LateDailyInterestPercent)
	paymentService := payment.NewService(st, chargeRepo, creditService, policy, auditLog, log)
	paymentHandler := payment.NewHandler(paymentService)

	// Accounts payable
	payableRepo := payable.NewRepository(chargeRepo)
	payableService := payable.NewService(st, payableRepo, auditLog, log)
	payableHandler := payable.NewHandler(payableService)

	// Monthly closing
	closingRepo := closing.NewRepository()
	closingService := closing.NewService(st, closingRepo, payableRepo, auditLog, log)
	closingHandler := closing.NewHandler(closingService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.ActorMiddleware)

		// Mount feature routers
		r.Mount("/students", studentHandler.Routes())
		r.Mount("/charges", chargeHandler.Routes())
		r.Mount("/payments", paymentHandler.Routes())
		r.Mount("/credits", creditHandler.Routes())
		r.Mount("/payables", payableHandler.Routes())
		r.Mount("/closings", closingHandler.Routes())
		if auditRepo != nil {
			r.Mount("/audit", audit.NewHandler(auditRepo).Routes())
		}
	})

	// Start server
	log.WithFields(logrus.Fields{
		"port":  cfg.Port,
		"store": cfg.StoreDriver,
		"audit": cfg.AuditSink,
	}).Info("Server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		config.LogError(log, "main", "main", "listen", cfg.Port, err)
		log.Fatal("Server failed to start")
	}
}
