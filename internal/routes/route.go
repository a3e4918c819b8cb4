package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agita-app/agita-server/internal/container"
	"github.com/agita-app/agita-server/internal/handlers"
	"github.com/agita-app/agita-server/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container, allowedOrigin string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{allowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(200, gin.H{
				"status":  "OK",
				"service": "agita-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.SignUp(c.UserService))
		v1.POST("/login", handlers.SignIn(c.UserService))
		v1.POST("/logout", handlers.Logout())

		// landing page feed and anonymous view tracking
		v1.GET("/parties", handlers.ListUpcoming(c.DashboardService))
		v1.POST("/parties/:id/view", handlers.TrackPartyView(c.EngagementService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(c.UserService, c.Logger))
	{
		protected.GET("/session", handlers.GetSession())
	}

	partyRoutes := protected.Group("/parties")
	{
		partyRoutes.POST("/", handlers.CreateParty(c.RegistrationService))
		partyRoutes.GET("/mine", handlers.ListMyParties(c.DashboardService))
		partyRoutes.PATCH("/:id", handlers.UpdateParty(c.DashboardService))
		partyRoutes.DELETE("/:id", handlers.DeleteParty(c.DashboardService))
		partyRoutes.POST("/:id/interested", handlers.MarkInterested(c.EngagementService))
		partyRoutes.DELETE("/:id/interested", handlers.RemoveInterested(c.EngagementService))
	}

	return r
}
