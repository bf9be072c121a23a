package main // entry point for the study-hall reservation server

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-hall-reservation/internal/chat"
	"github.com/iliyamo/study-hall-reservation/internal/config"
	"github.com/iliyamo/study-hall-reservation/internal/database"
	"github.com/iliyamo/study-hall-reservation/internal/handler"
	"github.com/iliyamo/study-hall-reservation/internal/hub"
	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/queue"
	"github.com/iliyamo/study-hall-reservation/internal/reservation"
	"github.com/iliyamo/study-hall-reservation/internal/router"
	"github.com/iliyamo/study-hall-reservation/internal/store"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	var (
		seats store.SeatStore
		msgs  store.MessageStore
		users store.UserStore
	)
	if cfg.UseDB() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureSchema(ctx, db); err != nil {
			cancel()
			log.Fatalf("mysql schema: %v", err)
		}
		cancel()
		seats = store.NewMySQLSeatStore(db)
		msgs = store.NewMySQLMessageStore(db)
		users = store.NewMySQLUserStore(db)
		log.Printf("store: mysql (%s/%s)", cfg.DBHost, cfg.DBName)
	} else {
		seats = store.NewMemorySeatStore()
		msgs = store.NewMemoryMessageStore()
		users = store.NewMemoryUserStore()
		log.Printf("store: memory")
	}

	if err := seedSeats(seats, cfg.SeatCount); err != nil {
		log.Fatalf("seed seats: %v", err)
	}

	res := reservation.New(seats)
	relay := chat.New(msgs)
	h := hub.New(res, relay, cfg.JWTSecret)

	if url := queue.BrokerURL(); url != "" {
		go queue.StartSeatEventConsumer(url)
	} else {
		log.Printf("audit: no broker configured, reservation log disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg,
		handler.NewAuthHandler(cfg, users),
		handler.NewSeatHandler(res, h),
		h,
		config.NewRedisClient(),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedSeats fills an empty hall with the configured number of free seats.
// A hall that already has rows is left untouched.
func seedSeats(seats store.SeatStore, count int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := seats.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if count <= 0 {
		count = 60
	}
	rows := make([]model.Seat, count)
	for i := range rows {
		rows[i] = model.Seat{Number: i + 1}
	}
	return seats.InsertMany(ctx, rows)
}
