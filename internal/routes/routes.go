package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tier-pay/tier_pay/internal/auth"
	"github.com/tier-pay/tier_pay/internal/commission"
	"github.com/tier-pay/tier_pay/internal/config"
	"github.com/tier-pay/tier_pay/internal/hierarchy"
	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
	"github.com/tier-pay/tier_pay/internal/middleware"
	"github.com/tier-pay/tier_pay/internal/notification"
	"github.com/tier-pay/tier_pay/internal/orders"
	"github.com/tier-pay/tier_pay/internal/reporting"
	"github.com/tier-pay/tier_pay/internal/withdrawal"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Logger != nil {
		app.Use(middleware.Audit(d.Logger))
	}
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores: Postgres in deployed environments, in-memory for local dev.
	var (
		ledgerStore     ledger.Store
		identityRepo    identity.Repository
		orderReader     orders.Reader
		rateStore       hierarchy.RateStore
		withdrawalStore withdrawal.Store
		reportReader    reporting.Reader
	)
	if d.DB != nil {
		ledgerStore = ledger.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		orderReader = orders.NewPostgresReader(d.DB)
		rateStore = hierarchy.NewPostgresRateStore(d.DB)
		withdrawalStore = withdrawal.NewPostgresStore(d.DB)
		reportReader = reporting.NewPostgresReader(d.DB)
	} else {
		memLedger := ledger.NewInMemory()
		memIdentity := identity.NewMemoryRepository()
		memWithdrawals := withdrawal.NewMemoryStore(memLedger, memIdentity)
		ledgerStore = memLedger
		identityRepo = memIdentity
		orderReader = orders.NewMemoryReader()
		rateStore = hierarchy.NewMemoryRateStore()
		withdrawalStore = memWithdrawals
		reportReader = reporting.NewMemoryReader(memIdentity, memLedger, memWithdrawals)
	}

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	authHandler := auth.NewHandler(identitySvc, authSvc)
	resolver := hierarchy.NewResolver(identityRepo, rateStore, orderReader)
	distributor := commission.NewDistributor(ledgerStore, resolver, orderReader, notifier)
	commissionHandler := commission.NewHandler(distributor)
	withdrawalMgr := withdrawal.NewManager(withdrawalStore, ledgerStore, identityRepo, notifier, d.Cfg.WithdrawalFee)
	withdrawalHandler := withdrawal.NewHandler(withdrawalMgr)
	reportingHandler := reporting.NewHandler(reportReader)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identitySvc, ledgerStore, d.Logger)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	protected.Post("/auth/logout", authHandler.Logout)
	RegisterWalletRoutes(protected, ledgerStore, withdrawalMgr, identityRepo)
	RegisterCommissionRoutes(protected, commissionHandler)
	RegisterWithdrawalRoutes(protected, withdrawalHandler)
	RegisterReportingRoutes(protected, reportingHandler)

	return nil
}
