package main

import (
	"log"
	"log/slog"
	"strings"

	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/bankimport"
	"dernek-backend/internal/cache"
	"dernek-backend/internal/claims"
	"dernek-backend/internal/config"
	"dernek-backend/internal/database"
	"dernek-backend/internal/ditib"
	"dernek-backend/internal/events"
	"dernek-backend/internal/financial"
	"dernek-backend/internal/logging"
	"dernek-backend/internal/models"
	"dernek-backend/internal/verein"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logging.Setup()

	cfg := config.Load()
	database.Init(cfg)

	appCache := cache.New(cfg)

	uploadSvc := bankimport.NewUploadService(database.DB, appCache, cfg.RemainderPolicy)
	ditibSvc := ditib.NewService(database.DB)
	summarySvc := financial.NewSummaryService(database.DB, appCache, cfg.SummaryCacheTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			slog.Error("beklenmeyen hata", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	adminRoutes.Post("/vereine", verein.CreateVereinHandler())
	adminRoutes.Post("/verein-admins", auth.CreateVereinAdminHandler())

	// Dernek & üye yönetimi
	protected.Get("/vereine", verein.ListVereineHandler())
	protected.Post("/members", verein.CreateMemberHandler())
	protected.Get("/members", verein.ListMembersHandler())
	protected.Post("/bank-accounts", verein.CreateBankAccountHandler())
	protected.Get("/bank-accounts", verein.ListBankAccountsHandler())

	// Ekstre yükleme ve eşleştirme
	protected.Post("/bank-uploads", bankimport.BankUploadHandler(uploadSvc))
	protected.Get("/bank-transactions/unmatched", bankimport.UnmatchedTransactionsHandler(uploadSvc))
	protected.Post("/bank-transactions/:id/match", bankimport.ManualMatchHandler(uploadSvc))

	// DITIB federasyon aidatları
	protected.Post("/ditib-uploads", ditib.DitibUploadHandler(ditibSvc))
	protected.Get("/ditib-payments", ditib.ListDitibPaymentsHandler(ditibSvc))

	// Alacak & ödeme yönetimi
	protected.Post("/claims", claims.CreateClaimHandler(summarySvc))
	protected.Get("/members/:id/claims", claims.ListMemberClaimsHandler())
	protected.Get("/members/:id/payments", claims.ListMemberPaymentsHandler())
	protected.Get("/members/:id/advance-payments", claims.ListMemberAdvancesHandler())

	// Etkinlikler
	protected.Post("/events", events.CreateEventHandler())
	protected.Post("/events/:id/registrations", events.CreateRegistrationHandler())
	protected.Post("/event-registrations/:id/payments", events.CreateEventPaymentHandler(summarySvc))

	// Finansal özetler
	protected.Get("/members/:id/financial-summary", financial.MemberFinancialSummaryHandler(summarySvc))
	protected.Get("/financial-summary/monthly", financial.MonthlyVereinSummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
