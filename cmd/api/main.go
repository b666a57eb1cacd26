package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nusalink/backend/internal/config"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/handlers"
	"github.com/nusalink/backend/internal/middleware"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/olt"
	"github.com/nusalink/backend/internal/radiusdb"
	"github.com/nusalink/backend/internal/router"
	"github.com/nusalink/backend/internal/routeros"
	"github.com/nusalink/backend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to databases and Redis
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := models.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed admin user if not exists
	seedAdminUser()

	// Wire the service graph
	dialer := &routeros.NetDialer{
		Timeout:    time.Duration(cfg.RouterConnectTimeoutSec) * time.Second,
		Attempts:   cfg.RouterConnectAttempts,
		RetryDelay: time.Duration(cfg.RouterRetryDelaySec) * time.Second,
	}
	gateway := router.NewGateway(dialer)
	oltService := olt.NewService()
	radiusBridge := radiusdb.NewBridge(database.RadiusDB)

	saldoService := services.NewSaldoService(database.DB)
	whatsapp := services.NewWhatsAppService(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey)
	billingService := services.NewBillingService(database.DB, cfg.Billing, gateway, whatsapp)
	provisioningService := services.NewProvisioningService(database.DB, radiusBridge, oltService)
	voucherService := services.NewVoucherService(database.DB, saldoService)
	acsService := services.NewAcsService(cfg.AcsURL, cfg.AcsUsername, cfg.AcsPassword)
	bgpService := services.NewBgpService()

	// Start the daily billing cycle
	scheduler := services.NewBillingScheduler(billingService)
	scheduler.Start()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "NusaLink API v1.0",
		ServerHeader: "NusaLink",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "nusalink-api",
		})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	customerHandler := handlers.NewCustomerHandler(gateway)
	nodeHandler := handlers.NewNodeHandler(gateway)
	planHandler := handlers.NewPlanHandler()
	requestHandler := handlers.NewRequestHandler(provisioningService)
	invoiceHandler := handlers.NewInvoiceHandler(billingService, saldoService)
	saldoHandler := handlers.NewSaldoHandler(saldoService)
	voucherHandler := handlers.NewVoucherHandler(voucherService)
	deviceHandler := handlers.NewDeviceHandler(oltService, acsService)
	bgpHandler := handlers.NewBgpHandler(bgpService)

	// API routes
	api := app.Group("/api")
	api.Use(middleware.RateLimiter(100, 1*time.Minute))

	// Public routes
	api.Post("/auth/login", authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(cfg))

	protected.Get("/auth/me", authHandler.Me)
	protected.Put("/auth/password", authHandler.ChangePassword)

	// Customer routes
	customers := protected.Group("/customers")
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.Get)
	customers.Post("/", customerHandler.Create)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", middleware.AdminOnly(), customerHandler.Delete)
	customers.Post("/:id/suspend", customerHandler.Suspend)
	customers.Post("/:id/reactivate", customerHandler.Reactivate)
	customers.Get("/:id/session", customerHandler.Session)
	customers.Post("/:id/invoice", invoiceHandler.Generate)
	customers.Post("/:id/saldo/topup", saldoHandler.Topup)
	customers.Post("/:id/saldo/deduct", middleware.AdminOnly(), saldoHandler.Deduct)
	customers.Get("/:id/saldo/history", saldoHandler.History)

	// Node routes
	nodes := protected.Group("/nodes")
	nodes.Get("/", nodeHandler.List)
	nodes.Get("/:id", nodeHandler.Get)
	nodes.Post("/", middleware.AdminOnly(), nodeHandler.Create)
	nodes.Put("/:id", middleware.AdminOnly(), nodeHandler.Update)
	nodes.Delete("/:id", middleware.AdminOnly(), nodeHandler.Delete)
	nodes.Post("/:id/test", nodeHandler.Test)
	nodes.Get("/:id/diagnostics", nodeHandler.Diagnostics)
	nodes.Get("/:id/sessions", nodeHandler.Sessions)
	nodes.Get("/:id/traffic", nodeHandler.Traffic)

	// Plan routes
	plans := protected.Group("/plans")
	plans.Get("/", planHandler.List)
	plans.Post("/", middleware.AdminOnly(), planHandler.Create)
	plans.Put("/:id", middleware.AdminOnly(), planHandler.Update)

	// Service request routes
	requests := protected.Group("/requests")
	requests.Get("/", requestHandler.List)
	requests.Get("/:id", requestHandler.Get)
	requests.Post("/", requestHandler.Create)
	requests.Post("/:id/execute", requestHandler.Execute)

	// Invoice routes
	invoices := protected.Group("/invoices")
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.Get)
	invoices.Post("/:id/pay-saldo", invoiceHandler.PayWithSaldo)
	protected.Post("/billing/run", middleware.AdminOnly(), invoiceHandler.RunBilling)

	// Voucher routes
	vouchers := protected.Group("/vouchers")
	vouchers.Get("/", voucherHandler.List)
	vouchers.Post("/generate", middleware.AdminOnly(), voucherHandler.Generate)
	vouchers.Post("/redeem", voucherHandler.Redeem)

	// Device routes
	devices := protected.Group("/devices")
	devices.Get("/", deviceHandler.List)
	devices.Post("/", deviceHandler.Create)
	devices.Get("/:id/signal", deviceHandler.Signal)
	devices.Post("/:id/reboot", deviceHandler.Reboot)
	devices.Post("/:id/cpe-reboot", deviceHandler.CpeReboot)
	devices.Post("/:id/wifi", deviceHandler.SetWifi)

	// BGP toolkit routes (admin only)
	bgp := protected.Group("/bgp", middleware.AdminOnly())
	bgp.Get("/as/:asn", bgpHandler.AsOverview)
	bgp.Get("/as/:asn/prefixes", bgpHandler.Prefixes)
	bgp.Post("/push", bgpHandler.Push)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		scheduler.Stop()
		app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting NusaLink API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func seedAdminUser() {
	var count int64
	database.DB.Model(&models.User{}).Where("role = ?", "admin").Count(&count)

	if count == 0 {
		log.Println("Creating default admin user...")

		admin := models.User{
			Username: "admin",
			FullName: "System Administrator",
			Role:     "admin",
			IsActive: true,
		}
		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Failed to hash admin password: %v", err)
			return
		}

		if err := database.DB.Create(&admin).Error; err != nil {
			log.Printf("Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created successfully (username: admin, password: admin123)")
		}
	}
}
