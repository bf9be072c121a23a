package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-hall-reservation/internal/middleware"
	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/reservation"
	"github.com/iliyamo/study-hall-reservation/internal/store"
	"github.com/iliyamo/study-hall-reservation/internal/utils"
)

const testSecret = "test_secret"

// recordingNotifier captures SeatsChanged calls so tests can assert the
// realtime fanout was triggered without standing up a hub.
type recordingNotifier struct {
	calls [][]model.Seat
}

func (n *recordingNotifier) SeatsChanged(_ context.Context, seats ...model.Seat) {
	n.calls = append(n.calls, seats)
}

func newSeatEnv(t *testing.T) (*echo.Echo, *reservation.Store, *recordingNotifier) {
	t.Helper()
	seats := store.NewMemorySeatStore()
	rows := make([]model.Seat, 60)
	for i := range rows {
		rows[i] = model.Seat{Number: i + 1}
	}
	if err := seats.InsertMany(context.Background(), rows); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res := reservation.New(seats)
	notify := &recordingNotifier{}
	h := NewSeatHandler(res, notify)

	e := echo.New()
	authed := middleware.JWTAuth(testSecret)
	e.GET("/api/seats", h.List)
	e.GET("/api/seats/layout", h.Layout)
	e.POST("/api/seats/pair/book", h.PairBook, authed)
	e.POST("/api/seats/:id/book", h.Book, authed)
	e.POST("/api/seats/:id/release", h.Release, authed)
	return e, res, notify
}

func bearerFor(t *testing.T, name string) string {
	t.Helper()
	access, err := utils.NewAccessToken(testSecret, utils.TokenIdentity{
		UserID: 1, Name: name, Email: name + "@example.com",
	}, 1)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + access.Token
}

func doJSON(e *echo.Echo, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListSeatsPublic(t *testing.T) {
	e, _, _ := newSeatEnv(t)
	rec := doJSON(e, http.MethodGet, "/api/seats", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Seats []model.SeatView `json:"seats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Seats) != 60 {
		t.Fatalf("got %d seats, want 60", len(body.Seats))
	}
	if body.Seats[0].BookedBy != nil {
		t.Fatalf("fresh seat 1 should be free, got %+v", body.Seats[0])
	}
}

func TestLayoutEndpoint(t *testing.T) {
	e, _, _ := newSeatEnv(t)
	rec := doJSON(e, http.MethodGet, "/api/seats/layout", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Placements []struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"placements"`
		Threshold float64 `json:"threshold"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Placements) != 60 {
		t.Fatalf("got %d placements, want 60", len(body.Placements))
	}
	if body.Threshold != 130 {
		t.Fatalf("threshold = %v, want 130", body.Threshold)
	}
}

func TestBookRequiresToken(t *testing.T) {
	e, _, _ := newSeatEnv(t)
	rec := doJSON(e, http.MethodPost, "/api/seats/1/book", "", `{"minutes":30}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/1/book", "Bearer not.a.token", `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestBookSeat(t *testing.T) {
	e, _, notify := newSeatEnv(t)
	rec := doJSON(e, http.MethodPost, "/api/seats/5/book", bearerFor(t, "Alice"), `{"minutes":45}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Seat model.SeatView `json:"seat"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Seat.Number != 5 || body.Seat.BookedBy == nil || *body.Seat.BookedBy != "Alice" {
		t.Fatalf("seat = %+v, want 5 held by Alice", body.Seat)
	}
	if body.Seat.EndTime == nil {
		t.Fatalf("booked seat missing endTime")
	}
	if len(notify.calls) != 1 || len(notify.calls[0]) != 1 {
		t.Fatalf("notifier calls = %v, want one call with one seat", notify.calls)
	}
}

func TestBookConflicts(t *testing.T) {
	e, _, _ := newSeatEnv(t)
	if rec := doJSON(e, http.MethodPost, "/api/seats/5/book", bearerFor(t, "Alice"), `{}`); rec.Code != http.StatusOK {
		t.Fatalf("first book: %d", rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/api/seats/5/book", bearerFor(t, "Bob"), `{}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("occupied seat: status = %d, want 409", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/999/book", bearerFor(t, "Bob"), `{}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown seat: status = %d, want 404", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/abc/book", bearerFor(t, "Bob"), `{}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-numeric seat: status = %d, want 404", rec.Code)
	}
}

func TestReleaseSeat(t *testing.T) {
	e, _, notify := newSeatEnv(t)
	doJSON(e, http.MethodPost, "/api/seats/5/book", bearerFor(t, "Alice"), `{}`)

	rec := doJSON(e, http.MethodPost, "/api/seats/5/release", bearerFor(t, "Bob"), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign release: status = %d, want 403", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/6/release", bearerFor(t, "Alice"), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("free seat release: status = %d, want 409", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/5/release", bearerFor(t, "Alice"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("release: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Seat model.SeatView `json:"seat"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Seat.BookedBy != nil || body.Seat.EndTime != nil {
		t.Fatalf("released seat = %+v, want cleared", body.Seat)
	}
	// book + release both notified
	if len(notify.calls) != 2 {
		t.Fatalf("notifier calls = %d, want 2", len(notify.calls))
	}
}

func TestPairBook(t *testing.T) {
	e, _, notify := newSeatEnv(t)
	rec := doJSON(e, http.MethodPost, "/api/seats/pair/book", bearerFor(t, "Alice"),
		`{"seatA":5,"seatB":6,"friendName":"Dana","minutes":60}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Seats []model.SeatView `json:"seats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Seats) != 2 {
		t.Fatalf("got %d seats, want 2", len(body.Seats))
	}
	if body.Seats[0].FriendLabel != nil {
		t.Fatalf("requester seat carries a friend label: %+v", body.Seats[0])
	}
	if body.Seats[1].FriendLabel == nil || *body.Seats[1].FriendLabel != "Dana" {
		t.Fatalf("companion seat = %+v, want label Dana", body.Seats[1])
	}
	if len(notify.calls) != 1 || len(notify.calls[0]) != 2 {
		t.Fatalf("notifier calls = %v, want one call with both seats", notify.calls)
	}
}

func TestPairBookValidationAndAdjacency(t *testing.T) {
	e, _, _ := newSeatEnv(t)
	rec := doJSON(e, http.MethodPost, "/api/seats/pair/book", bearerFor(t, "Alice"),
		`{"seatA":5,"seatB":6,"minutes":60}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing friendName: status = %d, want 400", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/pair/book", bearerFor(t, "Alice"),
		`{"seatA":1,"seatB":30,"friendName":"Dana"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("distant seats: status = %d, want 409", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/seats/pair/book", "",
		`{"seatA":5,"seatB":6,"friendName":"Dana"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", rec.Code)
	}
}

func TestPairBookHalfOccupied(t *testing.T) {
	e, _, _ := newSeatEnv(t)
	doJSON(e, http.MethodPost, "/api/seats/6/book", bearerFor(t, "Bob"), `{}`)
	rec := doJSON(e, http.MethodPost, "/api/seats/pair/book", bearerFor(t, "Alice"),
		`{"seatA":5,"seatB":6,"friendName":"Dana"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("half-occupied pair: status = %d, want 409", rec.Code)
	}
	// Seat 5 must not have been booked by the failed pair.
	list := doJSON(e, http.MethodGet, "/api/seats", "", "")
	var body struct {
		Seats []model.SeatView `json:"seats"`
	}
	json.Unmarshal(list.Body.Bytes(), &body)
	if body.Seats[4].BookedBy != nil {
		t.Fatalf("seat 5 leaked from failed pair booking: %+v", body.Seats[4])
	}
}
