package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/diagnosis"
	"github.com/symptom-checker/backend/internal/middleware/validation"
	"github.com/symptom-checker/backend/internal/storage/models"
	"github.com/symptom-checker/backend/pkg/logger"
)

type DiagnosisHandler struct {
	service *diagnosis.Service
}

func NewDiagnosisHandler(service *diagnosis.Service) *DiagnosisHandler {
	return &DiagnosisHandler{service: service}
}

type rankRequest struct {
	SymptomIDs []string `json:"symptomIds" validate:"dive,required"`
}

func (h *DiagnosisHandler) Rank(c *fiber.Ctx) error {
	var req rankRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Debug("Failed to parse rankings body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if err := validation.Struct("diagnosis.rank", req); err != nil {
		return writeError(c, err)
	}

	ranked, err := h.service.RankConditions(req.SymptomIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"conditions": ranked,
	})
}

type createRequest struct {
	BodyPart       string                   `json:"bodyPart"`
	Symptoms       []models.SelectedSymptom `json:"symptoms" validate:"dive"`
	AdditionalInfo string                   `json:"additionalInfo"`
}

func (h *DiagnosisHandler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Debug("Failed to parse diagnosis body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if err := validation.Struct("diagnosis.build", req); err != nil {
		return writeError(c, err)
	}

	record, err := h.service.BuildRecord(c.UserContext(), diagnosis.BuildRequest{
		BodyPart:       req.BodyPart,
		Symptoms:       req.Symptoms,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		if record == nil {
			return writeError(c, err)
		}
		// Ranked but not saved: hand the record back so the result is not lost.
		body := errorBody(c, err)
		body["record"] = record
		return c.Status(statusFor(err)).JSON(body)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *DiagnosisHandler) List(c *fiber.Ctx) error {
	records, err := h.service.ListHistory(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"diagnoses": newRecordViews(records),
	})
}

func (h *DiagnosisHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Diagnosis id must be an integer")
	}

	record, err := h.service.GetRecord(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(newRecordView(record))
}

func (h *DiagnosisHandler) Clear(c *fiber.Ctx) error {
	if err := h.service.ClearHistory(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
