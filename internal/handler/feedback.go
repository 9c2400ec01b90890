package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-space-reservation/internal/engine"
	"github.com/iliyamo/library-space-reservation/internal/repository"
)

// FeedbackHandler serves program feedback submission and the admin view
// of collected feedback.
type FeedbackHandler struct {
	Engine   *engine.Engine
	Feedback *repository.FeedbackRepo
}

func NewFeedbackHandler(eng *engine.Engine, fb *repository.FeedbackRepo) *FeedbackHandler {
	return &FeedbackHandler{Engine: eng, Feedback: fb}
}

type feedbackReq struct {
	ProgramID string `json:"program_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// Submit stores one rating per (program, user).  A second submission is
// rejected with 409.
func (h *FeedbackHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req feedbackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ProgramID = strings.TrimSpace(req.ProgramID)
	if req.ProgramID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "program_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Engine.SubmitFeedback(ctx, req.ProgramID, uid, req.Rating, req.Comment)
	if err != nil {
		switch err {
		case engine.ErrInvalidRating:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
		case engine.ErrNotProgram:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "feedback is only accepted for programs"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
		case repository.ErrDuplicate:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already submitted"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save feedback failed"})
		}
	}
	return c.JSON(http.StatusCreated, f)
}

// ListByProgram returns all feedback for one program.  Admin only.
func (h *FeedbackHandler) ListByProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Feedback.ListByProgram(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list feedback failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": list})
}
