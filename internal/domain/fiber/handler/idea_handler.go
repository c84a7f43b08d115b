package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nucleushq/nucleus/internal/dto"
	"github.com/nucleushq/nucleus/internal/middleware"
	"github.com/nucleushq/nucleus/internal/response"
	"github.com/nucleushq/nucleus/internal/usecase"
	"github.com/nucleushq/nucleus/internal/util"
	"github.com/sirupsen/logrus"
)

type IdeaHandler struct {
	uc   *usecase.IdeaUsecase
	auth *middleware.Authenticator
}

func NewIdeaHandler(uc *usecase.IdeaUsecase, auth *middleware.Authenticator) *IdeaHandler {
	return &IdeaHandler{uc: uc, auth: auth}
}

func (h *IdeaHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/ideas", middleware.RateLimiter(10, time.Minute), h.auth.Required(), h.Submit)
	api.Get("/ideas/:id", h.auth.Optional(), h.GetIdea)
	api.Get("/ideas/:id/similar", h.Similar)
	api.Get("/leaderboard", h.Leaderboard)
	api.Get("/best-of-day", h.BestOfDay)
	api.Get("/me/ideas", h.auth.Required(), h.MyIdeas)
}

func (h *IdeaHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.SubmitIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	idea, err := h.uc.Submit(user, req)
	if err != nil {
		return h.submitError(c, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Idea queued for analysis",
		Data:    fiber.Map{"id": idea.ID, "status": idea.Status},
	})
}

func (h *IdeaHandler) submitError(c *fiber.Ctx, err error) error {
	var formErr *util.FormError
	switch {
	case errors.As(err, &formErr):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: formErr.Message,
			Details: formErr.Errors,
		}, err)
	case errors.Is(err, usecase.ErrDailyLimitReached):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusTooManyRequests,
			Message: "daily idea limit reached",
		}, err)
	default:
		logrus.Errorf("submit idea: %v", err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to submit idea",
		}, err)
	}
}

func (h *IdeaHandler) GetIdea(c *fiber.Ctx) error {
	requesterID := ""
	if user, ok := middleware.UserFromContext(c); ok {
		requesterID = user.ID
	}

	idea, err := h.uc.GetIdea(c.Params("id"), requesterID)
	if errors.Is(err, usecase.ErrNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "idea not found",
		}, err)
	}
	if err != nil {
		logrus.Errorf("get idea: %v", err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load idea",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get idea",
		Data:    idea,
	})
}

func (h *IdeaHandler) Similar(c *fiber.Ctx) error {
	entries, err := h.uc.SimilarIdeas(c.Params("id"))
	if errors.Is(err, usecase.ErrNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "idea not found",
		}, err)
	}
	if err != nil {
		logrus.Errorf("similar ideas: %v", err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load similar ideas",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get similar ideas",
		Data:    fiber.Map{"items": entries},
	})
}

func (h *IdeaHandler) Leaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, total, err := h.uc.Leaderboard(limit)
	if err != nil {
		logrus.Errorf("leaderboard: %v", err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load leaderboard",
		}, err)
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get leaderboard",
		Data:       fiber.Map{"items": entries, "totalItems": total},
		Pagination: response.NewPagination(1, limit, len(entries), total),
	})
}

func (h *IdeaHandler) BestOfDay(c *fiber.Ctx) error {
	best, err := h.uc.BestOfDay(c.Query("tz"))
	if errors.Is(err, usecase.ErrBadTimezone) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "unknown timezone",
		}, err)
	}
	if err != nil {
		logrus.Errorf("best of day: %v", err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load best idea of the day",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get best idea of the day",
		Data:    fiber.Map{"bestIdea": best},
	})
}

func (h *IdeaHandler) MyIdeas(c *fiber.Ctx) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	ideas, err := h.uc.OwnerIdeas(user.ID)
	if err != nil {
		logrus.Errorf("my ideas: %v", err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load your ideas",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get your ideas",
		Data:    fiber.Map{"items": ideas},
	})
}
