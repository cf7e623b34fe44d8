package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/user-pratik/service-app/internal/admin"
	"github.com/user-pratik/service-app/internal/alerts"
	"github.com/user-pratik/service-app/internal/auth"
	"github.com/user-pratik/service-app/internal/db"
	"github.com/user-pratik/service-app/internal/messages"
	mware "github.com/user-pratik/service-app/internal/middleware"
	"github.com/user-pratik/service-app/internal/services"
	"github.com/user-pratik/service-app/internal/transactions"
	"github.com/user-pratik/service-app/internal/user"
)

func main() {
	// .env is optional; real deployments set vars directly
	_ = godotenv.Load()

	// Initialize subsystems
	db.Init()
	alerts.Init()

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "service-app"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", user.GetPublicProfile)

	e.GET("/services", services.GetAllServices)
	e.GET("/services/categories", services.GetCategories)
	e.GET("/services/:id", services.GetService)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)
	api.POST("/auth/signout", auth.Signout)

	api.PATCH("/user/profile", user.UpdateProfile)

	api.POST("/services", services.CreateService)
	api.GET("/services/me/list", services.GetUserServices)
	api.PATCH("/services/:id", services.UpdateService)
	api.DELETE("/services/:id", services.DeleteService)

	api.GET("/messages", messages.GetUserMessages)
	api.GET("/services/:id/messages", messages.GetConversation)
	api.POST("/services/:id/messages", messages.SendMessage)
	api.POST("/messages/:id/read", messages.MarkRead)
	api.GET("/services/:id/ws", messages.ThreadWS)

	api.GET("/transactions", transactions.GetUserTransactions)
	api.POST("/transactions", transactions.CreateTransaction)

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/promote", admin.PromoteUser)
	adminGroup.POST("/users/:id/demote", admin.DemoteUser)
	adminGroup.GET("/services", admin.ListServices)
	adminGroup.GET("/transactions", admin.ListTransactions)
	adminGroup.GET("/transactions/user/:id", admin.ListUserTransactions)
	adminGroup.POST("/transactions/:id/status", transactions.UpdateStatus)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
