package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-space-reservation/internal/model"
	"github.com/iliyamo/library-space-reservation/internal/repository"
)

// SpaceHandler serves the public browse endpoints and the admin catalog
// management endpoints for reservable spaces.
type SpaceHandler struct {
	Spaces *repository.SpaceRepo
}

func NewSpaceHandler(s *repository.SpaceRepo) *SpaceHandler {
	return &SpaceHandler{Spaces: s}
}

type spaceReq struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url"`
}

func (req *spaceReq) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if req.Name == "" {
		return "name required"
	}
	if !model.ValidSpaceType(model.SpaceType(req.Type)) {
		return "type must be program, room or studyroom"
	}
	if req.Capacity <= 0 {
		return "capacity must be positive"
	}
	return ""
}

// List returns all spaces, optionally filtered with ?type=.  Public.
func (h *SpaceHandler) List(c echo.Context) error {
	typ := model.SpaceType(strings.ToLower(c.QueryParam("type")))
	if typ != "" && !model.ValidSpaceType(typ) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown space type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	spaces, err := h.Spaces.List(ctx, typ)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spaces failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"spaces": spaces})
}

// Get returns a single space by id.  Public.
func (h *SpaceHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Spaces.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load space failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Create adds a space to the catalog.  Admin only.
func (h *SpaceHandler) Create(c echo.Context) error {
	var req spaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := &model.Space{
		Name:        req.Name,
		Type:        model.SpaceType(req.Type),
		Capacity:    req.Capacity,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}
	if err := h.Spaces.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create space failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Update replaces the mutable fields of a space.  Admin only.
func (h *SpaceHandler) Update(c echo.Context) error {
	var req spaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := &model.Space{
		ID:          c.Param("id"),
		Name:        req.Name,
		Type:        model.SpaceType(req.Type),
		Capacity:    req.Capacity,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}
	if err := h.Spaces.Update(ctx, s); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update space failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Delete removes a space that has no active reservations.  Admin only.
func (h *SpaceHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Spaces.Delete(ctx, c.Param("id")); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "space has active reservations"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete space failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
