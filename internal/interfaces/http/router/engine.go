package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"github.com/invoicely/backend/internal/interfaces/http/handler"
	"github.com/invoicely/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AdminRole may run sweeps on demand
const AdminRole = "admin"

// WebhookPath is the unauthenticated payment gateway callback
const WebhookPath = "/webhooks/gateway"

// Handlers bundles every HTTP handler. Nil handlers leave their routes unregistered.
type Handlers struct {
	System        *handler.SystemHandler
	Invoices      *handler.InvoiceHandler
	Quotes        *handler.QuoteHandler
	Payments      *handler.PaymentHandler
	CreditNotes   *handler.CreditNoteHandler
	Consolidation *handler.ConsolidationHandler
	Recurring     *handler.RecurringHandler
	Reports       *handler.ReportHandler
	Notifications *handler.NotificationHandler
	Items         *handler.ItemHandler
	Customers     *handler.CustomerHandler
	Billables     *handler.BillableHandler
	Gateway       *handler.GatewayWebhookHandler
	Sweeps        *handler.SweepHandler
}

// EngineConfig holds what the middleware chain needs
type EngineConfig struct {
	Logger           *zap.Logger
	HTTP             config.HTTPConfig
	ServiceName      string
	TracingEnabled   bool
	MeterProvider    *telemetry.MeterProvider
	Verifier         middleware.TokenVerifier
	IdempotencyStore shared.IdempotencyStore
	// RateLimiter overrides the limiter built from HTTP.RateLimitRPS
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine: request id, logging, recovery, tracing,
// metrics, CORS, security headers and body limit for every request, then
// identity, rate limiting and idempotency for the API.
func NewEngine(ctx context.Context, cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{Enabled: cfg.TracingEnabled, ServiceName: cfg.ServiceName}),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{MeterProvider: cfg.MeterProvider, Enabled: true, Logger: log}),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.HTTP.CORSAllowOrigins)),
		middleware.Secure(),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	r := NewRouter(engine)
	api := []gin.HandlerFunc{
		middleware.Identity(middleware.IdentityConfig{
			Verifier:         cfg.Verifier,
			SkipPathPrefixes: []string{r.Prefix() + WebhookPath},
			Logger:           log,
		}),
		middleware.SpanEnricher(),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := cfg.RateLimiter
		if limiter == nil {
			limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
			go limiter.RunCleanup(ctx, time.Minute)
		}
		api = append(api, middleware.RateLimit(limiter))
	}
	idemCfg := shared.DefaultIdempotencyConfig()
	if cfg.HTTP.IdempotencyTTL > 0 {
		idemCfg.TTL = cfg.HTTP.IdempotencyTTL
	}
	api = append(api, middleware.Idempotency(cfg.IdempotencyStore,
		middleware.WithIdempotencyConfig(idemCfg),
		middleware.WithIdempotencyLogger(log),
	))

	for _, g := range domainGroups(h) {
		r.Register(g.Use(api...))
	}
	r.Setup()
	return engine
}

func domainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup
	add := func(g *DomainGroup) { groups = append(groups, g) }

	if h.System != nil {
		add(NewDomainGroup("system", "/system").GET("/info", h.System.Info))
	}
	if h.Invoices != nil {
		g := NewDomainGroup("invoices", "/invoices").
			POST("", h.Invoices.Create).
			GET("", h.Invoices.List).
			GET("/:id", h.Invoices.Get).
			PATCH("/:id", h.Invoices.Update).
			DELETE("/:id", h.Invoices.Delete).
			POST("/:id/send", h.Invoices.MarkSent).
			POST("/:id/mark-paid", h.Invoices.MarkPaid).
			GET("/:id/activity", h.Invoices.Activity)
		if h.Consolidation != nil {
			g.POST("/consolidate", h.Consolidation.Consolidate)
		}
		add(g)
	}
	if h.Quotes != nil {
		add(NewDomainGroup("quotes", "/quotes").
			POST("", h.Quotes.Create).
			GET("", h.Quotes.List).
			GET("/:id", h.Quotes.Get).
			PATCH("/:id", h.Quotes.Update).
			DELETE("/:id", h.Quotes.Delete).
			POST("/:id/convert", h.Quotes.Convert).
			GET("/:id/activity", h.Quotes.Activity))
	}
	if h.Payments != nil {
		add(NewDomainGroup("payments", "/payments").
			POST("", h.Payments.Apply).
			GET("", h.Payments.List).
			GET("/:id", h.Payments.Get).
			PATCH("/:id/status", h.Payments.UpdateStatus))
	}
	if h.CreditNotes != nil {
		add(NewDomainGroup("credit-notes", "/credit-notes").
			POST("", h.CreditNotes.Create).
			GET("", h.CreditNotes.List).
			GET("/:id", h.CreditNotes.Get).
			DELETE("/:id", h.CreditNotes.Delete))
	}
	if h.Recurring != nil {
		add(NewDomainGroup("recurring", "/recurring-profiles").
			POST("", h.Recurring.Create).
			GET("", h.Recurring.List).
			GET("/:id", h.Recurring.Get).
			PATCH("/:id", h.Recurring.Update).
			DELETE("/:id", h.Recurring.Delete).
			POST("/:id/pause", h.Recurring.Pause).
			POST("/:id/resume", h.Recurring.Resume))
	}
	if h.Reports != nil {
		add(NewDomainGroup("reports", "/reports").
			GET("/aging", h.Reports.Aging).
			GET("/tax", h.Reports.TaxSummary).
			GET("/sales", h.Reports.Sales).
			GET("/expenses", h.Reports.Expenses))
	}
	if h.Notifications != nil {
		add(NewDomainGroup("notifications", "/notifications").
			GET("", h.Notifications.List).
			POST("/read", h.Notifications.MarkRead))
	}
	if h.Items != nil {
		add(NewDomainGroup("items", "/items").
			POST("", h.Items.Create).
			GET("", h.Items.List).
			GET("/:id", h.Items.Get).
			PATCH("/:id", h.Items.Update).
			DELETE("/:id", h.Items.Delete))
	}
	if h.Customers != nil {
		add(NewDomainGroup("customers", "/customers").
			POST("", h.Customers.Create).
			GET("", h.Customers.List).
			GET("/:id", h.Customers.Get).
			PATCH("/:id", h.Customers.Update).
			DELETE("/:id", h.Customers.Delete))
	}
	if h.Billables != nil {
		add(NewDomainGroup("time-entries", "/time-entries").
			POST("", h.Billables.LogTime).
			GET("", h.Billables.ListTimeEntries).
			GET("/:id", h.Billables.GetTimeEntry).
			PATCH("/:id", h.Billables.UpdateTimeEntry).
			DELETE("/:id", h.Billables.DeleteTimeEntry))
		add(NewDomainGroup("expenses", "/expenses").
			POST("", h.Billables.RecordExpense).
			GET("", h.Billables.ListExpenses).
			GET("/:id", h.Billables.GetExpense).
			PATCH("/:id", h.Billables.UpdateExpense).
			DELETE("/:id", h.Billables.DeleteExpense))
	}
	if h.Sweeps != nil {
		add(NewDomainGroup("sweeps", "/admin/sweeps").
			GET("", middleware.RequireRole(AdminRole), h.Sweeps.Statuses).
			POST("/:name/run", middleware.RequireRole(AdminRole), h.Sweeps.Run))
	}
	if h.Gateway != nil {
		add(NewDomainGroup("webhooks", WebhookPath).POST("", h.Gateway.Handle))
	}
	return groups
}
