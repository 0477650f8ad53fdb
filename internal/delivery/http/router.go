package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "paperledger/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler      *AuthHandler
	PortfolioHandler *PortfolioHandler
	MarketHandler    *MarketHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Polling endpoint; logging every hit drowns the log.
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "paperledger-api",
		})
	})

	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/update-password", config.AuthHandler.UpdatePassword)
		auth.POST("/update-email", config.AuthHandler.UpdateEmail)
		auth.POST("/google-login", config.AuthHandler.GoogleLogin)
	}

	// Portfolio routes
	portfolio := api.Group("/portfolio")
	{
		portfolio.GET("/:username", config.PortfolioHandler.GetPortfolio)
		portfolio.POST("/:username/upload", config.PortfolioHandler.Upload)
		portfolio.POST("/:username/cancel/:symbol", config.PortfolioHandler.Cancel)
		portfolio.GET("/:username/download", config.PortfolioHandler.Download)
	}

	// Market administration: token/catalog mutation requires a valid session
	market := api.Group("/market")
	{
		market.GET("/status", config.MarketHandler.Status)
		market.POST("/reload-token", config.MarketHandler.ReloadToken, custommiddleware.AuthMiddleware)
		market.POST("/refresh-instruments", config.MarketHandler.RefreshInstruments, custommiddleware.AuthMiddleware)
	}
}
