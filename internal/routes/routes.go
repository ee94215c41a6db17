package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/handlers"
	infraRepo "github.com/BruksfildServices01/barber-agenda/internal/infra/repository"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/storage"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/realtime"
	"github.com/BruksfildServices01/barber-agenda/internal/settings"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
	ucBooking "github.com/BruksfildServices01/barber-agenda/internal/usecase/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/usecase/finance"
)

// Deps is the long-lived infrastructure built in main.
type Deps struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Clock    timezone.Clock
	Tokens   *auth.Tokens
	Audit    *audit.Dispatcher
	Events   changefeed.Publisher
	Hub      *realtime.Hub
	Bookings ucBooking.Store
	Blobs    storage.BlobStore
	Photos   handlers.PhotoStore // nil quando o storage está desligado
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	db := d.DB

	// ======================================================
	// INFRA
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	financeRepo := infraRepo.NewFinanceGormRepository(db)
	settingsSvc := settings.NewService(settings.NewGormStore(db))
	grid := domain.StandardGrid()

	// ======================================================
	// USE CASES: APPOINTMENTS
	// ======================================================
	deps := ucAppointment.Deps{
		Repo:   appointmentRepo,
		Audit:  d.Audit,
		Events: d.Events,
		Clock:  d.Clock,
		Log:    d.Log,
	}

	createAppointmentUC := ucAppointment.NewCreateAppointment(deps, grid)
	completeAppointmentUC := ucAppointment.NewCompleteAppointment(deps)
	cancelAppointmentUC := ucAppointment.NewCancelAppointment(deps)
	deleteAppointmentUC := ucAppointment.NewDeleteAppointment(deps)
	listAppointmentsByDateUC := ucAppointment.NewListAppointmentsByDate(appointmentRepo)
	listAppointmentsByPeriodUC := ucAppointment.NewListAppointmentsByPeriod(appointmentRepo)
	availabilityUC := ucAppointment.NewGetAvailability(appointmentRepo, d.Clock, grid)

	bookingSvc := ucBooking.NewService(
		d.Bookings,
		createAppointmentUC,
		appointmentRepo,
		availabilityUC,
		d.Clock,
		d.Log.Named("booking"),
	)

	// ======================================================
	// USE CASES: FINANCE
	// ======================================================
	summaryUC := finance.NewGetSummary(financeRepo, d.Clock)
	walkInUC := finance.NewRecordWalkInPayment(financeRepo, d.Audit, d.Clock)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, d.Tokens, d.Clock)
	meHandler := handlers.NewMeHandler(db, settingsSvc)

	barberHandler := handlers.NewBarberHandler(db, d.Audit, storage.NewPhotoUploader(d.Blobs), d.Photos, d.Log)
	serviceHandler := handlers.NewServiceHandler(db, d.Audit)
	clientHandler := handlers.NewClientHandler(db, d.Audit)
	expenseHandler := handlers.NewExpenseHandler(db, d.Audit)
	financeHandler := handlers.NewFinanceHandler(summaryUC, walkInUC)

	appointmentHandler := handlers.NewAppointmentHandler(
		createAppointmentUC,
		completeAppointmentUC,
		cancelAppointmentUC,
		deleteAppointmentUC,
		listAppointmentsByDateUC,
		listAppointmentsByPeriodUC,
		availabilityUC,
	)

	liveHandler := handlers.NewLiveHandler(d.Hub, settingsSvc, d.Clock, d.Log)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	publicHandler := handlers.NewPublicHandler(db, availabilityUC, bookingSvc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"change_feed": d.Hub.Status(),
		})
	})

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/services", publicHandler.ListServices)
			publicAPI.GET("/barbers", publicHandler.ListBarbers)
			publicAPI.GET("/availability", publicHandler.Availability)

			bookings := publicAPI.Group("/bookings")
			bookings.POST("", publicHandler.StartBooking)
			bookings.GET("/:id", publicHandler.GetBooking)
			bookings.DELETE("/:id", publicHandler.DiscardBooking)
			bookings.GET("/:id/availability", publicHandler.BookingAvailability)
			bookings.PUT("/:id/service", publicHandler.SelectService)
			bookings.PUT("/:id/barber", publicHandler.SelectBarber)
			bookings.PUT("/:id/slot", publicHandler.SelectSlot)
			bookings.PUT("/:id/client", publicHandler.SetClient)
			bookings.POST("/:id/back", publicHandler.Back)
			bookings.POST("/:id/submit", publicHandler.Submit)
			bookings.POST("/:id/restart", publicHandler.Restart)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/me")
		secured.Use(middleware.AuthMiddleware(d.Tokens))
		{
			secured.GET("", meHandler.GetMe)
			secured.GET("/settings", meHandler.GetSettings)
			secured.PUT("/settings", meHandler.UpdateSettings)
			secured.POST("/settings/reset", meHandler.ResetSettings)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.POST("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.POST("/appointments/:id/complete", appointmentHandler.Complete)
			secured.DELETE("/appointments/:id", appointmentHandler.Delete)
			secured.GET("/availability", appointmentHandler.Availability)

			// ------------------------------
			// LIVE
			// ------------------------------
			secured.GET("/live", liveHandler.Stream)
			secured.GET("/live/:sid", liveHandler.Snapshot)
			secured.POST("/live/:sid/date", liveHandler.LoadDate)
			secured.POST("/live/:sid/sound", liveHandler.SetSound)
			secured.POST("/live/:sid/sound-blocked", liveHandler.SoundBlocked)
			secured.POST("/live/:sid/dismiss", liveHandler.Dismiss)

			// ------------------------------
			// CATALOG
			// ------------------------------
			secured.GET("/barbers", barberHandler.List)
			secured.POST("/barbers", barberHandler.Create)
			secured.PATCH("/barbers/:id", barberHandler.Update)
			secured.DELETE("/barbers/:id", barberHandler.Delete)
			secured.POST("/barbers/:id/photo", barberHandler.UploadPhoto)

			secured.GET("/services", serviceHandler.List)
			secured.POST("/services", serviceHandler.Create)
			secured.PATCH("/services/:id", serviceHandler.Update)
			secured.DELETE("/services/:id", serviceHandler.Delete)

			secured.GET("/clients", clientHandler.List)
			secured.GET("/clients/:id", clientHandler.History)
			secured.PATCH("/clients/:id", clientHandler.Update)

			secured.GET("/expense-categories", expenseHandler.ListCategories)
			secured.POST("/expense-categories", expenseHandler.CreateCategory)
			secured.DELETE("/expense-categories/:id", expenseHandler.DeleteCategory)

			secured.GET("/expenses", expenseHandler.List)
			secured.POST("/expenses", expenseHandler.Create)
			secured.PUT("/expenses/:id", expenseHandler.Update)
			secured.DELETE("/expenses/:id", expenseHandler.Delete)

			// ------------------------------
			// FINANCE / AUDIT
			// ------------------------------
			secured.GET("/finance/summary", financeHandler.Summary)
			secured.POST("/finance/walk-in", financeHandler.RecordWalkIn)

			secured.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
