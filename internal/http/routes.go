package http

import (
	"net/http"
	"time"

	"github.com/chitworks/chitfund-api/internal/cache"
	"github.com/chitworks/chitfund-api/internal/config"
	"github.com/chitworks/chitfund-api/internal/http/handlers"
	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/chitworks/chitfund-api/internal/reporting"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes registers the full API surface under /api/v1.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, reportCache *cache.ReportCache) {
	if r == nil || db == nil || cfg == nil {
		return
	}

	handlers.SetProductionMode(cfg.IsProduction())

	r.Use(RequestLogger())
	r.Use(Recovery())
	timeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.Use(RequestTimeout(timeout))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, errDB := db.DB()
		if errDB != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ledgerSvc := ledger.NewService(db)
	reportSvc := reporting.NewService(db)

	api := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(db, cfg.JWT)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(UserAuthMiddleware(db, cfg.JWT))

	authed.GET("/profile", authHandler.Profile)
	authed.PUT("/profile", authHandler.UpdateProfile)
	authed.PUT("/profile/password", authHandler.ChangePassword)

	admin := authed.Group("")
	admin.Use(RequireRole(models.RoleAdmin))

	usersHandler := handlers.NewUsersHandler(db)
	admin.GET("/users", usersHandler.List)
	admin.PUT("/users/:id/active", usersHandler.SetActive)

	schemesHandler := handlers.NewSchemesHandler(db, ledgerSvc)
	admin.POST("/chit-schemes", schemesHandler.Create)
	authed.GET("/chit-schemes", schemesHandler.List)
	authed.GET("/chit-schemes/:id", schemesHandler.Get)
	admin.PUT("/chit-schemes/:id", schemesHandler.Update)
	admin.DELETE("/chit-schemes/:id", schemesHandler.Delete)
	authed.GET("/chit-schemes/:id/customers", schemesHandler.Customers)

	customersHandler := handlers.NewCustomersHandler(db, ledgerSvc)
	authed.POST("/customers", customersHandler.Create)
	authed.GET("/customers", customersHandler.List)
	authed.GET("/customers/:id", customersHandler.Get)
	authed.PUT("/customers/:id", customersHandler.Update)
	authed.DELETE("/customers/:id", customersHandler.Delete)

	enrollmentsHandler := handlers.NewEnrollmentsHandler(db, ledgerSvc)
	authed.POST("/customers/:id/enrollments", enrollmentsHandler.Enroll)
	authed.GET("/customers/:id/enrollments", enrollmentsHandler.ListForCustomer)
	authed.PUT("/enrollments/:id", enrollmentsHandler.Update)
	authed.DELETE("/enrollments/:id", enrollmentsHandler.Unenroll)

	collectionsHandler := handlers.NewCollectionsHandler(db, ledgerSvc, reportCache)
	authed.POST("/collections", collectionsHandler.Create)
	authed.GET("/collections", collectionsHandler.List)
	authed.GET("/collections/:id", collectionsHandler.Get)
	authed.PUT("/collections/:id", collectionsHandler.Update)
	authed.DELETE("/collections/:id", collectionsHandler.Delete)

	auctionsHandler := handlers.NewAuctionsHandler(db, ledgerSvc)
	admin.POST("/auctions", auctionsHandler.Create)
	authed.GET("/auctions", auctionsHandler.List)
	authed.GET("/auctions/:id", auctionsHandler.Get)
	admin.PUT("/auctions/:id", auctionsHandler.Update)
	admin.DELETE("/auctions/:id", auctionsHandler.Delete)

	passbookHandler := handlers.NewPassbookHandler(db, ledgerSvc)
	authed.GET("/enrollments/:id/passbook", passbookHandler.ListForEnrollment)
	authed.POST("/passbook", passbookHandler.Create)
	authed.POST("/enrollments/:id/passbook/generate", passbookHandler.Generate)
	authed.PUT("/passbook/:id", passbookHandler.Update)
	authed.DELETE("/passbook/:id", passbookHandler.Delete)

	reportsHandler := handlers.NewReportsHandler(reportSvc, reportCache)
	authed.GET("/reports/revenue", reportsHandler.Revenue)
	authed.GET("/reports/collectors/efficiency", reportsHandler.CollectorEfficiency)
	authed.GET("/reports/schemes/performance", reportsHandler.SchemePerformance)
	authed.GET("/reports/customers/:id/performance", reportsHandler.CustomerPerformance)
	authed.GET("/reports/passbook/profit", reportsHandler.PassbookProfit)
	authed.GET("/reports/dashboard", reportsHandler.Dashboard)

	settingsHandler := handlers.NewSettingsHandler(db)
	admin.GET("/settings", settingsHandler.Get)
	admin.PUT("/settings", settingsHandler.Update)
}
