package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/config"
	"github.com/iliyamo/travel-reservation/internal/database"
	"github.com/iliyamo/travel-reservation/internal/handler"
	"github.com/iliyamo/travel-reservation/internal/middleware"
	"github.com/iliyamo/travel-reservation/internal/payment"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
	"github.com/iliyamo/travel-reservation/internal/router"
	"github.com/iliyamo/travel-reservation/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: when unavailable the cache and rate limiter
	// middleware degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	flights := repository.NewFlightRepo(db)
	reservations := repository.NewFlightReservationRepo(db)
	hotels := repository.NewHotelRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewHotelBookingRepo(db)
	payments := repository.NewPaymentRepo(db)

	registry := payment.NewRegistry(
		payment.MpesaNormalizer{},
		payment.PaypalNormalizer{},
		payment.CardNormalizer{Secret: cfg.CardWebhookSecret},
	)
	reconciler := payment.NewReconciler(db, payments, reservations, bookings, flights)

	var publisher handler.ConfirmationPublisher
	if cfg.AMQPURL != "" {
		publisher = service.NewQueuePublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartConfirmationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("confirmation consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set; confirmation events disabled")
	}

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	flightHandler := handler.NewFlightHandler(flights, reservations)
	hotelHandler := handler.NewHotelHandler(hotels, rooms, bookings)
	paymentHandler := handler.NewPaymentHandler(payments, reservations, bookings, registry, reconciler, publisher)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, flightHandler, hotelHandler, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterTraveler(e, flightHandler, hotelHandler, paymentHandler, cfg.JWTSecret)
	router.RegisterWebhooks(e, paymentHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
