package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/diagnosis"
	"github.com/symptom-checker/backend/internal/middleware/validation"
	"github.com/symptom-checker/backend/internal/storage/models"
	"github.com/symptom-checker/backend/pkg/logger"
)

type ProfileHandler struct {
	service *diagnosis.Service
}

func NewProfileHandler(service *diagnosis.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.service.LoadProfile(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(profile)
}

// Put replaces the whole profile.
func (h *ProfileHandler) Put(c *fiber.Ctx) error {
	var profile models.UserProfile
	if err := c.BodyParser(&profile); err != nil {
		logger.Debug("Failed to parse profile body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if err := validation.Struct("profile.save", profile); err != nil {
		return writeError(c, err)
	}

	if err := h.service.SaveProfile(c.UserContext(), profile); err != nil {
		return writeError(c, err)
	}
	return c.JSON(profile)
}
