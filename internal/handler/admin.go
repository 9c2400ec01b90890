package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-space-reservation/internal/engine"
	"github.com/iliyamo/library-space-reservation/internal/model"
	"github.com/iliyamo/library-space-reservation/internal/repository"
)

// AdminHandler bundles the reservation moderation and reporting
// endpoints.  All routes are mounted behind the ADMIN role middleware.
type AdminHandler struct {
	Engine       *engine.Engine
	Reservations *repository.ReservationRepo
	Stats        *repository.StatsRepo
}

func NewAdminHandler(eng *engine.Engine, res *repository.ReservationRepo, stats *repository.StatsRepo) *AdminHandler {
	return &AdminHandler{Engine: eng, Reservations: res, Stats: stats}
}

// ListReservations returns reservations filtered by ?status=, defaulting
// to the approval queue (pending).
func (h *AdminHandler) ListReservations(c echo.Context) error {
	status := model.Status(c.QueryParam("status"))
	if status == "" {
		status = model.StatusPending
	}
	if !model.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByStatus(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// Approve confirms a pending reservation.  The approval side effects
// (notification, waitlist promotion) run through the engine.
func (h *AdminHandler) Approve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Approve(ctx, c.Param("id"))
	if err != nil {
		return moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Reject declines a pending reservation and notifies the requester.
func (h *AdminHandler) Reject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Reject(ctx, c.Param("id"))
	if err != nil {
		return moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func moderationError(c echo.Context, err error) error {
	switch err {
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case repository.ErrInvalidTransition:
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not pending"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// dayRollup is one row of the stats response: the per-day totals summed
// across spaces, with the per-space rows attached for drill-down.
type dayRollup struct {
	Date             string             `json:"date"`
	ReservationCount int                `json:"reservation_count"`
	CheckInCount     int                `json:"check_in_count"`
	NoShowCount      int                `json:"no_show_count"`
	Spaces           []model.DailyStats `json:"spaces"`
}

// StatsRange reports daily usage between ?from= and ?to= (inclusive,
// YYYY-MM-DD).  Defaults to the trailing 30 days.
func (h *AdminHandler) StatsRange(c echo.Context) error {
	to := c.QueryParam("to")
	from := c.QueryParam("from")
	now := time.Now().UTC()
	if to == "" {
		to = now.Format("2006-01-02")
	}
	if from == "" {
		from = now.AddDate(0, 0, -30).Format("2006-01-02")
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD"})
		}
	}
	if from > to {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must not be after to"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Stats.Range(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load stats failed"})
	}

	// Rows arrive ordered by date, one per (date, space).
	var days []dayRollup
	for _, row := range rows {
		if len(days) == 0 || days[len(days)-1].Date != row.Date {
			days = append(days, dayRollup{Date: row.Date})
		}
		d := &days[len(days)-1]
		d.ReservationCount += row.ReservationCount
		d.CheckInCount += row.CheckInCount
		d.NoShowCount += row.NoShowCount
		d.Spaces = append(d.Spaces, row)
	}
	return c.JSON(http.StatusOK, echo.Map{"from": from, "to": to, "days": days})
}
