package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/symptom-checker/backend/internal/diagnosis"
)

type CatalogHandler struct {
	service *diagnosis.Service
}

func NewCatalogHandler(service *diagnosis.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) ListBodyParts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"bodyParts": h.service.ListBodyParts(),
	})
}

// ListSymptoms filters by ?bodyPart=; a non-empty ?q= searches names across
// every body part instead.
func (h *CatalogHandler) ListSymptoms(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"symptoms": h.service.ListSymptoms(c.Query("bodyPart"), c.Query("q")),
	})
}

func (h *CatalogHandler) GetSymptom(c *fiber.Ctx) error {
	symptom, err := h.service.GetSymptom(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(symptom)
}

func (h *CatalogHandler) GetCondition(c *fiber.Ctx) error {
	condition, err := h.service.GetCondition(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(condition)
}
