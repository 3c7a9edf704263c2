package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/handler"
	"github.com/iliyamo/travel-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	// Account creation returns a token pair immediately.
	g.POST("/signup", a.Signup)
	g.POST("/signin", a.Signin)
	// Refresh rotates the refresh token: the presented token is revoked
	// and a new pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout invalidates the refresh token given in the body.  No JWT is
	// required; possession of the refresh token is the credential.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: flight
// search, hotel and room listings, and the advisory room-availability
// check.  The browse middleware (response cache, rate limiting) is
// applied here; mutating endpoints never go through it.
func RegisterPublic(e *echo.Echo, f *handler.FlightHandler, h *handler.HotelHandler, browse ...echo.MiddlewareFunc) {
	g := e.Group("/v1", browse...)
	// Flight search with optional origin/destination filters.
	g.GET("/flights", f.ListFlights)
	g.GET("/flights/:id", f.GetFlight)
	// Hotel browsing with an optional city filter.
	g.GET("/hotels", h.ListHotels)
	g.GET("/hotels/:id/rooms", h.ListRooms)
	// Advisory only; BookRoom re-checks under a row lock.
	g.GET("/hotels/rooms/:id/availability", h.RoomAvailability)
}

// RegisterTraveler registers the authenticated booking endpoints: seat
// reservation and cancellation, room booking and cancellation, payment
// initiation, and the traveler's own reservation listings.
func RegisterTraveler(e *echo.Echo, f *handler.FlightHandler, h *handler.HotelHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.POST("/flights/reserve", f.ReserveSeat)
	g.POST("/flights/reservations/:id/cancel", f.CancelReservation)
	g.GET("/my/flight-reservations", f.ListReservations)

	g.POST("/hotels/book", h.BookRoom)
	g.POST("/hotels/bookings/:id/cancel", h.CancelBooking)
	g.GET("/my/hotel-bookings", h.ListBookings)

	g.POST("/payments/process", p.ProcessPayment)
}

// RegisterWebhooks registers the provider callback endpoint.  The route
// is deliberately outside the JWT group: providers cannot carry user
// tokens.  Providers that sign their deliveries are verified by their
// normalizer before any state is touched.
func RegisterWebhooks(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payments/webhook/:provider", p.Webhook)
}
