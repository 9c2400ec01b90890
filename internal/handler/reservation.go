package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-space-reservation/internal/config"
	"github.com/iliyamo/library-space-reservation/internal/engine"
	"github.com/iliyamo/library-space-reservation/internal/repository"
	"github.com/iliyamo/library-space-reservation/internal/utils"
)

// ReservationHandler exposes the member-facing reservation endpoints.
// All state changes go through the engine; the handler only translates
// HTTP to engine calls and engine errors back to status codes.
type ReservationHandler struct {
	Cfg          config.Config
	Engine       *engine.Engine
	Reservations *repository.ReservationRepo
	Waitlist     *repository.WaitlistRepo
}

func NewReservationHandler(cfg config.Config, eng *engine.Engine, res *repository.ReservationRepo, wl *repository.WaitlistRepo) *ReservationHandler {
	return &ReservationHandler{Cfg: cfg, Engine: eng, Reservations: res, Waitlist: wl}
}

type createReservationReq struct {
	SpaceID   string `json:"space_id"`
	StartTime string `json:"start_time"` // RFC 3339
}

// Create requests a reservation for one slot.  A full slot diverts the
// request to the waitlist and reports the queue position instead of
// creating a reservation.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SpaceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "space_id required"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC 3339"})
	}
	if !start.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	result, err := h.Engine.CreateReservation(ctx, req.SpaceID, uid, start)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		case engine.ErrSlotBusy:
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot busy, retry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
		}
	}
	if result.Waitlisted {
		return c.JSON(http.StatusAccepted, echo.Map{
			"waitlisted": true,
			"position":   result.Position,
		})
	}

	// The check-in token goes into the QR code shown to the user.  It
	// stays valid until the slot ends.
	token, err := utils.NewCheckInToken(h.Cfg.JWTSecret, result.Reservation.ID, result.Reservation.EndTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue check-in token failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation":   result.Reservation,
		"checkin_token": token,
	})
}

// Mine lists the caller's reservations, newest first, together with any
// waitlist entries still queued.
func (h *ReservationHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reservations, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	waitlist, err := h.Waitlist.ListForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list waitlist failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": reservations,
		"waitlist":     waitlist,
	})
}

// Get returns one reservation.  Members see only their own; admins see
// any.
func (h *ReservationHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.Get(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	if res.UserID != uid && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel withdraws the caller's own pending or approved reservation.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.Cancel(ctx, c.Param("id"), uid); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
		case repository.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation can no longer be cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
