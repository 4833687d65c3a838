package api

import (
	"net/http"

	"merchant-service/internal/api/handlers"
	"merchant-service/internal/auth"
	"merchant-service/internal/metrics"
	"merchant-service/internal/middleware"
	"merchant-service/internal/services"
	"merchant-service/shared/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the router wires into handlers.
// Tokens may be nil, which leaves the merchant routes open.
type Dependencies struct {
	MerchantService *services.MerchantService
	Tokens          *auth.JWTService
	Metrics         *metrics.Metrics
	Logger          logger.Logger
}

// NewRouter builds the gin engine serving health, metrics and the merchant API.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(deps.Metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	merchantsHandler := handlers.NewMerchantsHandler(deps.MerchantService, deps.Logger)

	apiV1 := router.Group("/api/v1")
	{
		merchants := apiV1.Group("/merchants")
		if deps.Tokens != nil {
			merchants.Use(middleware.AuthMiddleware(deps.Tokens))
		}
		{
			merchants.GET("", merchantsHandler.FindAll)
			merchants.POST("", merchantsHandler.Create)
			merchants.GET("/:id", merchantsHandler.FindOne)
			merchants.PUT("/:id", merchantsHandler.Update)
			merchants.DELETE("/:id", merchantsHandler.Remove)
			merchants.PATCH("/:id/status", merchantsHandler.ChangeStatus)
		}
	}

	return router
}
