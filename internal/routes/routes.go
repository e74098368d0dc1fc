package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/config"
	"github.com/baldwinboy/neuromancers-community-platform/internal/handlers"
	"github.com/baldwinboy/neuromancers-community-platform/internal/middleware"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
	"github.com/baldwinboy/neuromancers-community-platform/internal/scheduler"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
	notifyws "github.com/baldwinboy/neuromancers-community-platform/internal/websocket"
)

// RegisterRoutes wires repositories, services and handlers onto the app and
// returns the background scheduler for the caller to start and stop.
func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	logger *zap.Logger,
) *scheduler.Scheduler {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	stripeAccountRepo := repository.NewStripeAccountRepository(db)
	peerSessionRepo := repository.NewPeerSessionRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	peerRequestRepo := repository.NewPeerRequestRepository(db)
	scheduledRepo := repository.NewScheduledSessionRepository(db)
	groupSessionRepo := repository.NewGroupSessionRepository(db)
	groupRequestRepo := repository.NewGroupRequestRepository(db)
	groupReviewRepo := repository.NewGroupReviewRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	pageRepo := repository.NewPageRepository(db)

	hub := notifyws.NewHub(logger)
	go hub.Run()

	mailer := services.NewSMTPMailer(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
		cfg.SMTPFrom,
	)
	notifier := services.NewNotifier(settingsRepo, notificationRepo, userRepo, mailer, hub, logger)
	pageService := services.NewPageService(pageRepo, cfg.SiteURL)
	paymentClient := services.NewStripePaymentClient(cfg.StripeBaseURL, cfg.StripeSecretKey)
	meetingClient := services.NewWherebyMeetingClient(cfg.WherebyBaseURL, cfg.WherebyAPIKey)

	availabilityService := services.NewAvailabilityService(peerSessionRepo, availabilityRepo)
	peerSessionService := services.NewPeerSessionService(peerSessionRepo, pageService, notifier, logger)
	peerRequestService := services.NewPeerRequestService(
		db,
		peerSessionRepo,
		peerRequestRepo,
		scheduledRepo,
		userRepo,
		stripeAccountRepo,
		paymentClient,
		pageService,
		notifier,
		logger,
	)
	groupSessionService := services.NewGroupSessionService(groupSessionRepo, pageService, notifier, logger)
	groupRequestService := services.NewGroupRequestService(
		db,
		groupSessionRepo,
		groupRequestRepo,
		userRepo,
		stripeAccountRepo,
		paymentClient,
		pageService,
		notifier,
		logger,
	)
	reviewService := services.NewReviewService(groupSessionRepo, groupRequestRepo, groupReviewRepo, logger)
	feedService := services.NewFeedService(peerSessionRepo, groupSessionRepo, availabilityService, logger)
	reminderService := services.NewReminderService(
		peerRequestRepo,
		scheduledRepo,
		groupSessionRepo,
		groupRequestRepo,
		meetingClient,
		notifier,
		logger,
	)

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileRepo, stripeAccountRepo, certificateRepo)
	peerSessionHandler := handlers.NewPeerSessionHandler(peerSessionService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	peerRequestHandler := handlers.NewPeerRequestHandler(peerRequestService)
	groupSessionHandler := handlers.NewGroupSessionHandler(groupSessionService)
	groupRequestHandler := handlers.NewGroupRequestHandler(groupRequestService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	feedHandler := handlers.NewFeedHandler(feedService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, hub, cfg.JWTSecret)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	api.Get("/v1/feed", feedHandler.Feed)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := protected.Group("/users")
	users.Get("/profile", profileHandler.GetProfile)
	users.Put("/profile", profileHandler.UpdateProfile)
	users.Post("/stripe-account", profileHandler.ConnectStripeAccount)
	users.Get("/certificate", profileHandler.GetCertificate)
	users.Post("/:id/certificate", profileHandler.IssueCertificate)

	peerSessions := protected.Group("/peer-sessions")
	peerSessions.Post("", peerSessionHandler.CreateSession)
	peerSessions.Get("/mine", peerSessionHandler.ListMine)
	peerSessions.Get("/:id", peerSessionHandler.GetSession)
	peerSessions.Put("/:id", peerSessionHandler.UpdateSession)
	peerSessions.Post("/:id/publish", peerSessionHandler.Publish)
	peerSessions.Post("/:id/unpublish", peerSessionHandler.Unpublish)
	peerSessions.Get("/:id/slots", availabilityHandler.ListSlots)
	peerSessions.Post("/:id/availability", availabilityHandler.CreateAvailability)
	peerSessions.Delete("/:id/availability/:availabilityId", availabilityHandler.DeleteAvailability)
	peerSessions.Post("/:id/requests", peerRequestHandler.CreateRequest)
	peerSessions.Get("/:id/requests", peerRequestHandler.ListBySession)

	peerRequests := protected.Group("/peer-requests")
	peerRequests.Get("/mine", peerRequestHandler.ListMine)
	peerRequests.Get("/:id", peerRequestHandler.GetRequest)
	peerRequests.Post("/:id/approve", peerRequestHandler.Approve)
	peerRequests.Post("/:id/reject", peerRequestHandler.Reject)
	peerRequests.Post("/:id/concession", peerRequestHandler.ApproveConcession)
	peerRequests.Post("/:id/withdraw", peerRequestHandler.Withdraw)
	peerRequests.Post("/:id/pay", peerRequestHandler.Pay)
	peerRequests.Post("/:id/refund", peerRequestHandler.RequestRefund)
	peerRequests.Post("/:id/refund/approve", peerRequestHandler.ApproveRefund)

	groupSessions := protected.Group("/group-sessions")
	groupSessions.Post("", groupSessionHandler.CreateSession)
	groupSessions.Get("/mine", groupSessionHandler.ListMine)
	groupSessions.Get("/:id", groupSessionHandler.GetSession)
	groupSessions.Put("/:id", groupSessionHandler.UpdateSession)
	groupSessions.Post("/:id/publish", groupSessionHandler.Publish)
	groupSessions.Post("/:id/unpublish", groupSessionHandler.Unpublish)
	groupSessions.Post("/:id/join", groupRequestHandler.Join)
	groupSessions.Get("/:id/requests", groupRequestHandler.ListBySession)
	groupSessions.Post("/:id/reviews", reviewHandler.CreateReview)
	groupSessions.Get("/:id/reviews", reviewHandler.ListReviews)

	groupRequests := protected.Group("/group-requests")
	groupRequests.Get("/mine", groupRequestHandler.ListMine)
	groupRequests.Post("/:id/approve", groupRequestHandler.Approve)
	groupRequests.Post("/:id/reject", groupRequestHandler.Reject)
	groupRequests.Post("/:id/withdraw", groupRequestHandler.Withdraw)
	groupRequests.Post("/:id/pay", groupRequestHandler.Pay)
	groupRequests.Post("/:id/refund/approve", groupRequestHandler.ApproveRefund)

	notifications := protected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	settings := protected.Group("/settings")
	settings.Get("/notifications", settingsHandler.GetNotificationSettings)
	settings.Put("/notifications", settingsHandler.UpdateNotificationSettings)
	settings.Get("/peer-notifications", settingsHandler.GetPeerNotificationSettings)
	settings.Put("/peer-notifications", settingsHandler.UpdatePeerNotificationSettings)
	settings.Get("/peer-filters", settingsHandler.GetPeerFilterSettings)
	settings.Put("/peer-filters", settingsHandler.UpdatePeerFilterSettings)
	settings.Get("/peer-privacy", settingsHandler.GetPeerPrivacySettings)
	settings.Put("/peer-privacy", settingsHandler.UpdatePeerPrivacySettings)

	api.Use("/v1/ws", notificationHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(notificationHandler.HandleWebSocket))

	return scheduler.New(reminderService, cfg.SchedulerInterval, logger)
}
