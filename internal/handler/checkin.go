package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-space-reservation/internal/config"
	"github.com/iliyamo/library-space-reservation/internal/engine"
	"github.com/iliyamo/library-space-reservation/internal/utils"
)

// CheckInHandler processes QR scans at the door.
type CheckInHandler struct {
	Cfg    config.Config
	Engine *engine.Engine
}

func NewCheckInHandler(cfg config.Config, eng *engine.Engine) *CheckInHandler {
	return &CheckInHandler{Cfg: cfg, Engine: eng}
}

type checkInReq struct {
	Token string `json:"token"`
}

// CheckIn resolves the scanned token to a reservation and applies the
// grace-window decision.  A scan inside the window confirms attendance;
// a late scan on a still-approved reservation marks it missed on the
// spot.  Re-scanning a confirmed reservation is reported as success.
func (h *CheckInHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	reservationID, err := utils.ParseCheckInToken(h.Cfg.JWTSecret, req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": engine.CheckInInvalid, "error": "invalid check-in token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	result, err := h.Engine.CheckIn(ctx, reservationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	switch result.Status {
	case engine.CheckInOK:
		return c.JSON(http.StatusOK, echo.Map{
			"status":      result.Status,
			"already":     result.Already,
			"reservation": result.Reservation,
		})
	case engine.CheckInNoShow:
		return c.JSON(http.StatusConflict, echo.Map{
			"status": result.Status,
			"error":  "check-in window expired",
		})
	case engine.CheckInInvalid:
		return c.JSON(http.StatusNotFound, echo.Map{
			"status": result.Status,
			"error":  "reservation not found",
		})
	default: // CheckInInvalidState
		return c.JSON(http.StatusConflict, echo.Map{
			"status": result.Status,
			"error":  "reservation is not approved",
		})
	}
}
