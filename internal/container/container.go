package container

import (
	"log/slog"

	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agita-app/agita-server/internal/models"
	"github.com/agita-app/agita-server/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client

	EngagementRepo models.EngagementRepo

	UserService         *services.UserService
	RegistrationService *services.RegistrationService
	DashboardService    *services.DashboardService
	EngagementService   *services.EngagementService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	supaUrl, supaKey, bucket string,
) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, supaUrl, supaKey, bucket)
	mongoRepo := models.MongodbNewRepo(mongoDBClient)

	userService := services.NewUserService(supa)
	registrationService := services.NewRegistrationService(supa, supa, logger)
	dashboardService := services.NewDashboardService(supa, supa, mongoRepo, bucket, logger)
	engagementService := services.NewEngagementService(mongoRepo, logger)

	return &Container{
		Logger:              logger,
		SupabaseClient:      supabaseClient,
		MongoDBClient:       mongoDBClient,
		EngagementRepo:      mongoRepo,
		UserService:         userService,
		RegistrationService: registrationService,
		DashboardService:    dashboardService,
		EngagementService:   engagementService,
	}
}
