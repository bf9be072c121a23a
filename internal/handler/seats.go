package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-hall-reservation/internal/layout"
	"github.com/iliyamo/study-hall-reservation/internal/middleware"
	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/queue"
	"github.com/iliyamo/study-hall-reservation/internal/reservation"
	queue_publisher "github.com/iliyamo/study-hall-reservation/internal/service"
)

// Notifier pushes seat and directory changes to all realtime connections.
// The hub implements it; handlers only need this narrow surface.
type Notifier interface {
	SeatsChanged(ctx context.Context, seats ...model.Seat)
}

// SeatHandler bundles dependencies for the seat endpoints.
type SeatHandler struct {
	Res    *reservation.Store
	Notify Notifier
}

// NewSeatHandler constructs a SeatHandler.  Notify may be nil in tests
// that do not exercise the realtime channel.
func NewSeatHandler(res *reservation.Store, notify Notifier) *SeatHandler {
	if res == nil {
		panic("nil reservation store passed to NewSeatHandler")
	}
	return &SeatHandler{Res: res, Notify: notify}
}

type bookReq struct {
	Minutes int `json:"minutes"`
}

type pairBookReq struct {
	SeatA      int    `json:"seatA"`
	SeatB      int    `json:"seatB"`
	FriendName string `json:"friendName"`
	Minutes    int    `json:"minutes"`
}

// List handles GET /api/seats.  Public: anyone may look at the hall.  The
// expiry sweep runs inside List, so stale holds are never visible.
func (h *SeatHandler) List(c echo.Context) error {
	seats, err := h.Res.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": model.SeatViews(seats)})
}

// Layout handles GET /api/seats/layout.  It serves the canonical placement
// table so clients render (and pre-check adjacency) from the same source
// of truth the server books against.
func (h *SeatHandler) Layout(c echo.Context) error {
	total, err := h.Res.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"placements": layout.Placements(len(total)),
		"threshold":  layout.AdjacencyThreshold,
	})
}

// Book handles POST /api/seats/:id/book.  The duration is clamped to the
// maximum; a missing body books for the full allowance.
func (h *SeatHandler) Book(c echo.Context) error {
	name, ok := middleware.PrincipalName(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	number, err := strconv.Atoi(c.Param("id"))
	if err != nil || number < 1 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	var req bookReq
	_ = c.Bind(&req) // absent/invalid body means "maximum duration"

	seat, err := h.Res.Book(c.Request().Context(), number, name, req.Minutes)
	if err != nil {
		return seatError(c, err)
	}
	h.notifyAndAudit(queue.ActionBooked, name, "", *seat)
	return c.JSON(http.StatusOK, echo.Map{"seat": seat.View()})
}

// Release handles POST /api/seats/:id/release.  Only the current holder
// may release a seat.
func (h *SeatHandler) Release(c echo.Context) error {
	name, ok := middleware.PrincipalName(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	number, err := strconv.Atoi(c.Param("id"))
	if err != nil || number < 1 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	seat, err := h.Res.Release(c.Request().Context(), number, name)
	if err != nil {
		return seatError(c, err)
	}
	h.notifyAndAudit(queue.ActionReleased, name, "", *seat)
	return c.JSON(http.StatusOK, echo.Map{"seat": seat.View()})
}

// PairBook handles POST /api/seats/pair/book: two adjacent seats booked
// atomically, the second carrying the companion's label.
func (h *SeatHandler) PairBook(c echo.Context) error {
	name, ok := middleware.PrincipalName(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req pairBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatA, seatB, and friendName are required"})
	}
	seats, err := h.Res.PairBook(c.Request().Context(), req.SeatA, req.SeatB, name, req.FriendName, req.Minutes)
	if err != nil {
		return seatError(c, err)
	}
	h.notifyAndAudit(queue.ActionPairBooked, name, req.FriendName, seats...)
	return c.JSON(http.StatusOK, echo.Map{"seats": model.SeatViews(seats)})
}

// notifyAndAudit fans the mutation out to realtime clients and publishes a
// best-effort audit event.  Neither can fail the request.
func (h *SeatHandler) notifyAndAudit(action, principal, friendLabel string, seats ...model.Seat) {
	if h.Notify != nil {
		h.Notify.SeatsChanged(context.Background(), seats...)
	}
	ev := queue.SeatEvent{
		Action:      action,
		Principal:   principal,
		FriendLabel: friendLabel,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	for _, s := range seats {
		ev.SeatNumbers = append(ev.SeatNumbers, s.Number)
		if s.EndTime != nil {
			ev.EndTimeMs = s.EndTime.UnixMilli()
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishSeatEvent(ctx, ev)
	}()
}

// seatError maps reservation errors onto the HTTP taxonomy: 400 for
// malformed input, 404 for unknown seats, 409 for occupancy or adjacency
// conflicts, 403 for releasing someone else's booking.
func seatError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, reservation.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatA, seatB, and friendName are required"})
	case errors.Is(err, reservation.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, reservation.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already booked"})
	case errors.Is(err, reservation.ErrSeatFree):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not booked"})
	case errors.Is(err, reservation.ErrNotAdjacent):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats are not adjacent"})
	case errors.Is(err, reservation.ErrNotHolder):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
