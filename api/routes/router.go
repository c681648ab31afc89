package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selfydev/selfy-backend/api/controllers"
	"github.com/selfydev/selfy-backend/api/middleware"
	"github.com/selfydev/selfy-backend/internal/bookings"
	"github.com/selfydev/selfy-backend/internal/credits"
	"github.com/selfydev/selfy-backend/internal/notifications"
	"github.com/selfydev/selfy-backend/internal/payments"
	"github.com/selfydev/selfy-backend/internal/seats"
	"github.com/selfydev/selfy-backend/pkg/config"
	"github.com/selfydev/selfy-backend/pkg/db"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache redis.Pinger,
	idemStore redis.IdempotencyStore,
	bookingsSvc bookings.Service,
	paymentsSvc payments.Service,
	seatsSvc seats.Service,
	notificationsSvc notifications.Service,
	creditsSvc credits.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cache, logg))
	})

	if !cfg.App.IsProd() {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.ListBookings(bookingsSvc, logg))
			r.Post("/", controllers.CreateBooking(bookingsSvc, logg))
			r.Route("/{bookingID}", func(r chi.Router) {
				r.Get("/", controllers.GetBooking(bookingsSvc, logg))
				r.Get("/timeline", controllers.BookingTimeline(bookingsSvc, logg))
				r.Get("/payments", controllers.ListBookingPayments(paymentsSvc, bookingsSvc, logg))
				r.Post("/clone", controllers.CloneBooking(bookingsSvc, logg))

				// Approve and reject are admin decisions.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
					r.Post("/approve", controllers.ApproveBooking(bookingsSvc, logg))
					r.Post("/reject", controllers.RejectBooking(bookingsSvc, logg))
				})

				// Day-of transitions and invoicing are open to staff.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.UserRoleStaff, logg))
					r.Post("/complete", controllers.CompleteBooking(bookingsSvc, logg))
					r.Post("/no-show", controllers.NoShowBooking(bookingsSvc, logg))
					r.Post("/invoice", controllers.InvoiceBooking(bookingsSvc, logg))
				})
			})
		})

		r.Post("/payments", controllers.CreatePayment(paymentsSvc, logg))

		r.Route("/organizations/{orgID}/seats", func(r chi.Router) {
			r.Get("/", controllers.ListSeats(seatsSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/", controllers.AssignSeat(seatsSvc, logg))
				r.Delete("/{userID}", controllers.RemoveSeat(seatsSvc, logg))
			})
		})

		r.Get("/packages/{packageID}/balance", controllers.PackageBalance(creditsSvc, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsSvc, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationsSvc, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsSvc, logg))
		})
	})

	return r
}
