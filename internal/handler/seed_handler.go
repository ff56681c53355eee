package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"schools24/internal/repository"
	"schools24/internal/seed"
)

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	users    repository.UserRepository
	services seed.Services
	log      *zap.Logger
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(users repository.UserRepository, services seed.Services, log *zap.Logger) *SeedHandler {
	return &SeedHandler{users: users, services: services, log: log}
}

// SeedResponse represents the seed response.
type SeedResponse struct {
	Message string       `json:"message"`
	Result  *seed.Result `json:"result"`
}

// Seed godoc
// @Summary Load demo data
// @Description Only mounted outside production. A seeded store is left untouched.
// @Tags seed
// @Produce json
// @Success 200 {object} SeedResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /seed [post]
func (h *SeedHandler) Seed(c echo.Context) error {
	result, err := seed.Run(c.Request().Context(), h.users, h.services, h.log)
	if err != nil {
		return serviceError(err)
	}
	message := "demo data loaded"
	if result.Skipped {
		message = "store already seeded"
	}
	return c.JSON(http.StatusOK, SeedResponse{Message: message, Result: result})
}
