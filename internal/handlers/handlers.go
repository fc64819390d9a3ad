package handlers

import (
	"TimeCapsule/internal/config"
	"TimeCapsule/internal/middleware"
	"TimeCapsule/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	capsuleService *service.CapsuleService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	userHandler := NewUserHandler(userService, logger, config)
	capsuleHandler := NewCapsuleHandler(capsuleService, logger, config)

	// User routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)

	// Capsule routes
	r.Post("/api/capsules", capsuleHandler.Create)
	r.Get("/api/capsules", capsuleHandler.List)
	r.Get("/api/capsules/view/{token}", capsuleHandler.View)
	r.Get("/api/capsules/{id}", capsuleHandler.Get)
	r.Delete("/api/capsules/{id}", capsuleHandler.Delete)
	r.Post("/api/capsules/{id}/items", capsuleHandler.AddItem)
	r.Get("/api/capsules/{id}/logs", capsuleHandler.Logs)

	return &Handler{Router: r}
}
