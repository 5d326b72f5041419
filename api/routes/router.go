package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/julianvossen/gatherly-backend/api/controllers"
	"github.com/julianvossen/gatherly-backend/api/middleware"
	"github.com/julianvossen/gatherly-backend/internal/auth"
	"github.com/julianvossen/gatherly-backend/internal/gatherings"
	"github.com/julianvossen/gatherly-backend/internal/memberships"
	"github.com/julianvossen/gatherly-backend/internal/notifications"
	"github.com/julianvossen/gatherly-backend/internal/users"
	"github.com/julianvossen/gatherly-backend/pkg/config"
	"github.com/julianvossen/gatherly-backend/pkg/db"
	"github.com/julianvossen/gatherly-backend/pkg/logger"
	"github.com/julianvossen/gatherly-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	registerService auth.RegisterService,
	gatheringService gatherings.Service,
	membershipRepo *memberships.Repository,
	userRepo *users.Repository,
	notificationService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/gatherings", func(r chi.Router) {
			r.Post("/", controllers.GatheringCreate(gatheringService, logg))
			r.Route("/{gatheringID}", func(r chi.Router) {
				r.Get("/", controllers.GatheringGet(gatheringService, logg))
				r.Patch("/", controllers.GatheringUpdate(gatheringService, logg))
				r.Delete("/", controllers.GatheringDelete(gatheringService, logg))
				r.Post("/cancel", controllers.GatheringCancel(gatheringService, logg))

				r.Post("/join", controllers.GatheringJoin(gatheringService, logg))
				r.Post("/leave", controllers.GatheringLeave(gatheringService, logg))
				r.Delete("/membership", controllers.MembershipCancel(gatheringService, logg))

				r.Get("/members", controllers.GatheringMembers(membershipRepo, logg))
				r.Post("/members/{userID}/approve", controllers.MembershipApprove(gatheringService, logg))
				r.Post("/members/{userID}/reject", controllers.MembershipReject(gatheringService, logg))
			})
		})

		r.Get("/me/gatherings", controllers.MyGatherings(membershipRepo, logg))
		r.Patch("/me/refund-account", controllers.UpdateRefundAccount(userRepo, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationService, logg))
		})
	})

	return r
}
