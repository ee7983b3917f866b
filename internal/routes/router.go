package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/config"
	"hrms-backend/internal/delivery/http/handler"
	"hrms-backend/internal/infrastructure/database/postgres"
	"hrms-backend/internal/logger"
	"hrms-backend/internal/mailer"
	"hrms-backend/internal/middleware"
	"hrms-backend/internal/token"
	"hrms-backend/internal/usecase/auth"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB, issuer *token.Issuer, notifier mailer.Notifier) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	accountRepository := postgres.NewAccountRepository(db)
	authService := auth.NewService(accountRepository, notifier, issuer)
	authHandler := handler.NewAuthHandler(authService, cfg)
	homeHandler := handler.NewHomeHandler()

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(issuer))
		{
			hr := protected.Group("/hr")
			hr.Use(middleware.HROnly())
			{
				homeHandler.RegisterHRRoutes(hr)
			}

			employee := protected.Group("/employee")
			employee.Use(middleware.EmployeeOnly())
			{
				homeHandler.RegisterEmployeeRoutes(employee)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
