// Package bootstrap wires repositories, application services, sweep schedulers
// and HTTP handlers together for the server, the CLI and end-to-end tests.
package bootstrap

import (
	"fmt"

	appcatalog "github.com/invoicely/backend/internal/application/catalog"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	apppartner "github.com/invoicely/backend/internal/application/partner"
	apptime "github.com/invoicely/backend/internal/application/timetracking"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/persistence"
	"github.com/invoicely/backend/internal/infrastructure/scheduler"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"github.com/invoicely/backend/internal/interfaces/http/handler"
	"github.com/invoicely/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services holds every application service over one database
type Services struct {
	Repos *appinvoicing.Repositories
	Scope appinvoicing.TransactionScope

	Invoices      *appinvoicing.InvoiceService
	Quotes        *appinvoicing.QuoteService
	Payments      *appinvoicing.PaymentService
	CreditNotes   *appinvoicing.CreditNoteService
	Consolidation *appinvoicing.ConsolidationService
	Recurring     *appinvoicing.RecurringService
	Overdue       *appinvoicing.OverdueService
	Notifications *appinvoicing.NotificationService
	Reports       *appinvoicing.ReportService
	Activity      *appinvoicing.ActivityRecorder
	Items         *appcatalog.ItemService
	Customers     *apppartner.CustomerService
	Billables     *apptime.Service
}

// NewServices builds the services and applies the billing and scheduler defaults
func NewServices(db *gorm.DB, billing config.BillingConfig, sched config.SchedulerConfig, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	currency, err := valueobject.ParseCurrency(billing.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("billing default currency: %w", err)
	}

	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)

	s := &Services{
		Repos:         repos,
		Scope:         scope,
		Invoices:      appinvoicing.NewInvoiceService(scope, repos, logger),
		Quotes:        appinvoicing.NewQuoteService(scope, repos, logger),
		Payments:      appinvoicing.NewPaymentService(scope, repos, logger),
		CreditNotes:   appinvoicing.NewCreditNoteService(scope, repos, logger),
		Consolidation: appinvoicing.NewConsolidationService(scope, repos, logger),
		Recurring:     appinvoicing.NewRecurringService(scope, repos, logger),
		Overdue:       appinvoicing.NewOverdueService(scope, repos, logger),
		Notifications: appinvoicing.NewNotificationService(repos.Notifications),
		Reports:       appinvoicing.NewReportService(repos.Invoices, repos.Expenses),
		Activity:      appinvoicing.NewActivityRecorder(repos.Activity),
		Items:         appcatalog.NewItemService(repos.Items),
		Customers:     apppartner.NewCustomerService(repos.Customers),
		Billables:     apptime.NewService(repos.TimeEntries, repos.Expenses, repos.Customers),
	}

	s.Invoices.SetDefaultCurrency(currency)
	s.Quotes.SetDefaults(currency, billing.QuoteDueDays)
	s.Consolidation.SetDefaults(currency, billing.ConsolidationDueDays)
	s.Recurring.SetDefaultCurrency(currency)
	s.Customers.SetDefaultCurrency(currency)
	s.Recurring.SetBatchSize(sched.BatchSize)
	s.Overdue.SetBatchSize(sched.BatchSize)
	s.Overdue.SetLocale(billing.Locale)
	return s, nil
}

// SetBusinessMetrics attaches the metric recorder to every service that reports
func (s *Services) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	if bm == nil {
		return
	}
	s.Invoices.SetBusinessMetrics(bm)
	s.Quotes.SetBusinessMetrics(bm)
	s.Payments.SetBusinessMetrics(bm)
	s.Consolidation.SetBusinessMetrics(bm)
	s.Recurring.SetBusinessMetrics(bm)
	s.Overdue.SetBusinessMetrics(bm)
}

// Schedulers builds the recurring and overdue sweep schedulers.
// A nil locker runs the sweeps without cross-instance coordination.
func (s *Services) Schedulers(cfg config.SchedulerConfig, locker scheduler.Locker, logger *zap.Logger) (*scheduler.Manager, error) {
	var opts []scheduler.SweepOption
	if locker != nil && cfg.DistributedLock {
		opts = append(opts, scheduler.WithLocker(locker))
	}

	recurringCfg := scheduler.RecurringSweepConfig()
	recurringCfg.Enabled = cfg.Enabled
	if cfg.RecurringInterval > 0 {
		recurringCfg.Interval = cfg.RecurringInterval
	}
	recurringCfg.StartupDelay = cfg.RecurringStartupDelay
	applySweepLimits(&recurringCfg, cfg)

	overdueCfg := scheduler.OverdueSweepConfig()
	overdueCfg.Enabled = cfg.Enabled
	overdueCfg.DailyHour = cfg.OverdueHour
	overdueCfg.StartupDelay = cfg.OverdueStartupDelay
	applySweepLimits(&overdueCfg, cfg)

	recurring, err := scheduler.NewSweepScheduler(s.Recurring.RunDue, logger, recurringCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("recurring scheduler: %w", err)
	}
	overdue, err := scheduler.NewSweepScheduler(s.Overdue.RunSweep, logger, overdueCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("overdue scheduler: %w", err)
	}
	return scheduler.NewManager(logger, recurring, overdue), nil
}

func applySweepLimits(sc *scheduler.SweepConfig, cfg config.SchedulerConfig) {
	if cfg.SweepTimeout > 0 {
		sc.Timeout = cfg.SweepTimeout
	}
	if cfg.LockTTL > 0 {
		sc.LockTTL = cfg.LockTTL
	}
}

// HandlerDeps carries what the handlers need beyond the services
type HandlerDeps struct {
	ServiceName   string
	Version       string
	WebhookSecret string
	Sweeps        *scheduler.Manager
	Checks        map[string]handler.Pinger
}

// Handlers builds the HTTP handlers over the services
func (s *Services) Handlers(deps HandlerDeps) router.Handlers {
	h := router.Handlers{
		System:        handler.NewSystemHandler(deps.ServiceName, deps.Version, deps.Checks),
		Invoices:      handler.NewInvoiceHandler(s.Invoices, s.Activity),
		Quotes:        handler.NewQuoteHandler(s.Quotes, s.Activity),
		Payments:      handler.NewPaymentHandler(s.Payments),
		CreditNotes:   handler.NewCreditNoteHandler(s.CreditNotes),
		Consolidation: handler.NewConsolidationHandler(s.Consolidation),
		Recurring:     handler.NewRecurringHandler(s.Recurring),
		Reports:       handler.NewReportHandler(s.Reports),
		Notifications: handler.NewNotificationHandler(s.Notifications),
		Items:         handler.NewItemHandler(s.Items),
		Customers:     handler.NewCustomerHandler(s.Customers),
		Billables:     handler.NewBillableHandler(s.Billables),
		Gateway:       handler.NewGatewayWebhookHandler(s.Payments, deps.WebhookSecret),
	}
	if deps.Sweeps != nil {
		h.Sweeps = handler.NewSweepHandler(deps.Sweeps)
	}
	return h
}
