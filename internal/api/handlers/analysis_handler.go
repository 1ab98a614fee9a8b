package handlers

import (
	"errors"

	"snaplens/internal/dto"
	"snaplens/internal/models"
	"snaplens/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AnalysisHandler struct {
	intakeService *service.IntakeService
	intentService *service.IntentService
	logger        *zap.Logger
}

func NewAnalysisHandler(intakeService *service.IntakeService, intentService *service.IntentService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		intakeService: intakeService,
		intentService: intentService,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Upload and analyze a screenshot
// @Description Stores the image, then classifies it with GigaChat vision or, when that fails, local OCR and keyword rules
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Screenshot (png, jpeg, webp, bmp)"
// @Success 200 {object} dto.AnalysisResponse
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 415 {object} map[string]string
// @Router /upload [post]
func (h *AnalysisHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	upload, err := h.intakeService.Accept(c.UserContext(), src, file.Filename, file.Header.Get("Content-Type"), file.Size)
	switch {
	case errors.Is(err, service.ErrUnsupportedMediaType):
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Unsupported file type, allowed: png, jpeg, webp, bmp",
		})
	case errors.Is(err, service.ErrPayloadTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File is too large",
		})
	case err != nil:
		h.logger.Error("Failed to store upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store upload",
		})
	}

	analysis := h.intentService.Analyze(c.UserContext(), upload)

	return c.JSON(toAnalysisResponse(upload, analysis))
}

func toAnalysisResponse(upload *models.Upload, analysis *models.Analysis) dto.AnalysisResponse {
	return dto.AnalysisResponse{
		Intent: dto.IntentResponse{
			Category:        string(analysis.Intent.Category),
			Title:           analysis.Intent.Title,
			Summary:         analysis.Intent.Summary,
			SuggestedAction: analysis.Intent.SuggestedAction,
			KeyDetail:       analysis.Intent.KeyDetail,
		},
		ExtractedText: analysis.ExtractedText,
		Source:        string(analysis.Source),
		FileName:      upload.FileName,
		SizeBytes:     upload.Size,
	}
}
