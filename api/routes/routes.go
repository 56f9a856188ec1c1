package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/handlers"
	"github.com/lotsaero/rifa-backend/internal/middleware"
	"github.com/lotsaero/rifa-backend/internal/ws"
)

// HandlerDependencies groups everything SetupRouter wires up
type HandlerDependencies struct {
	AuthHandler   *handlers.AuthHandler
	RaffleHandler *handlers.RaffleHandler
	AdminHandler  *handlers.AdminHandler
	WSHandler     *ws.Handler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, logger zerolog.Logger, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
		}

		raffle := public.Group("/raffle")
		{
			raffle.GET("/state", deps.RaffleHandler.GetState)
			raffle.GET("/config", deps.RaffleHandler.GetConfig)
			raffle.POST("/checkout", deps.RaffleHandler.Checkout)
		}
	}

	// Realtime snapshot feed
	router.GET("/ws", deps.WSHandler.Serve)

	// Protected admin console routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg))
	{
		admin.GET("/commands", deps.AdminHandler.Commands)

		numbers := admin.Group("/numbers")
		{
			numbers.GET("/sold", deps.AdminHandler.GetSold)
			numbers.GET("/reserved", deps.AdminHandler.GetReserved)
			numbers.GET("/available", deps.AdminHandler.GetAvailable)
			numbers.POST("/mark-sold", deps.AdminHandler.MarkSold)
			numbers.POST("/mark-reserved", deps.AdminHandler.MarkReserved)
			numbers.POST("/free", deps.AdminHandler.Free)
		}

		admin.POST("/reservations/expire", deps.AdminHandler.Expire)
		admin.POST("/reset", deps.AdminHandler.Reset)
		admin.GET("/export", deps.AdminHandler.Export)
		admin.POST("/import", deps.AdminHandler.Import)
	}

	return router
}
