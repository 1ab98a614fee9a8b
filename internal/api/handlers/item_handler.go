package handlers

import (
	"errors"
	"strconv"
	"time"

	"snaplens/internal/dto"
	"snaplens/internal/models"
	"snaplens/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ItemHandler struct {
	itemService *service.ItemService
	logger      *zap.Logger
}

func NewItemHandler(itemService *service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// CreateItem godoc
// @Summary Save an item
// @Description Persist a confirmed intent
// @Tags items
// @Accept json
// @Produce json
// @Param request body dto.CreateItemRequest true "Item fields"
// @Success 201 {object} dto.ItemResponse
// @Failure 422 {object} map[string]string
// @Router /items [post]
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	item, err := h.itemService.Create(c.UserContext(), models.ItemFields{
		Category:        models.Category(req.Category),
		Title:           req.Title,
		Summary:         req.Summary,
		KeyDetail:       req.KeyDetail,
		ExtractedText:   req.ExtractedText,
		SuggestedAction: req.SuggestedAction,
	})
	switch {
	case errors.Is(err, service.ErrInvalidCategory):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Invalid category, expected one of: task, reminder, expense, link, note",
		})
	case errors.Is(err, service.ErrMissingFields):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Title is required",
		})
	case err != nil:
		h.logger.Error("Failed to create item", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save item",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
}

// ListItems godoc
// @Summary List saved items
// @Description Newest first, optionally filtered by category
// @Tags items
// @Produce json
// @Param category query string false "task, reminder, expense, link or note"
// @Success 200 {array} dto.ItemResponse
// @Failure 422 {object} map[string]string
// @Router /items [get]
func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.itemService.List(c.UserContext(), c.Query("category"))
	if errors.Is(err, service.ErrInvalidCategory) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Invalid category, expected one of: task, reminder, expense, link, note",
		})
	}
	if err != nil {
		h.logger.Error("Failed to list items", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list items",
		})
	}

	response := make([]dto.ItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toItemResponse(item))
	}

	return c.JSON(response)
}

// DeleteItem godoc
// @Summary Delete an item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} dto.DeleteItemResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid item ID",
		})
	}

	deleted, err := h.itemService.Delete(c.UserContext(), id)
	if err != nil {
		h.logger.Error("Failed to delete item", zap.Int64("item_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete item",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Item not found",
		})
	}

	return c.JSON(dto.DeleteItemResponse{Status: "deleted", ID: id})
}

func toItemResponse(item *models.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:              item.ID,
		Category:        string(item.Category),
		Title:           item.Title,
		Summary:         item.Summary,
		KeyDetail:       item.KeyDetail,
		ExtractedText:   item.ExtractedText,
		SuggestedAction: item.SuggestedAction,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339),
	}
}
