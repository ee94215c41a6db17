package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-agenda/internal/domain/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	ucAppointment "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
	ucBooking "github.com/BruksfildServices01/barber-agenda/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type PublicHandler struct {
	db           *gorm.DB
	availability *ucAppointment.GetAvailability
	bookings     *ucBooking.Service
}

func NewPublicHandler(
	db *gorm.DB,
	availability *ucAppointment.GetAvailability,
	bookings *ucBooking.Service,
) *PublicHandler {
	return &PublicHandler{
		db:           db,
		availability: availability,
		bookings:     bookings,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type selectIDRequest struct {
	ID uint `json:"id" binding:"required"`
}

type selectSlotRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
	Time string `json:"time" binding:"required"` // HH:MM
}

type clientInfoRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

type backRequest struct {
	Step booking.Step `json:"step" binding:"required"`
}

// ======================================================
// CATALOG
// ======================================================

func (h *PublicHandler) ListServices(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Where("is_active = ?", true)

	if category := strings.TrimSpace(strings.ToLower(c.Query("category"))); category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	httpresp.List(c, services)
}

func (h *PublicHandler) ListBarbers(c *gin.Context) {
	var barbers []models.Barber
	if err := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&barbers).Error; err != nil {
		httperr.Internal(c, "failed_to_list_barbers", "Erro ao listar barbeiros.")
		return
	}

	httpresp.List(c, barbers)
}

func (h *PublicHandler) Availability(c *gin.Context) {
	barberID, ok := queryUint(c, "barber_id")
	if !ok {
		return
	}
	if c.Query("date") == "" {
		httperr.BadRequest(c, "missing_date", "Data é obrigatória.")
		return
	}

	out, err := h.availability.Execute(c.Request.Context(), barberID, c.Query("date"))
	if err != nil {
		httperr.Respond(c, err, "availability_failed")
		return
	}

	httpresp.OK(c, out)
}

// ======================================================
// BOOKING FLOW
// ======================================================

func (h *PublicHandler) StartBooking(c *gin.Context) {
	f, err := h.bookings.Start(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err, "failed_to_start_booking")
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *PublicHandler) GetBooking(c *gin.Context) {
	f, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	respondFlow(c, f, err)
}

func (h *PublicHandler) DiscardBooking(c *gin.Context) {
	if err := h.bookings.Discard(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, err, "failed_to_discard_booking")
		return
	}
	httpresp.NoContent(c)
}

func (h *PublicHandler) SelectService(c *gin.Context) {
	var req selectIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "service_required", "Selecione um serviço.")
		return
	}
	f, err := h.bookings.SelectService(c.Request.Context(), c.Param("id"), req.ID)
	respondFlow(c, f, err)
}

func (h *PublicHandler) SelectBarber(c *gin.Context) {
	var req selectIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "barber_required", "Selecione um barbeiro.")
		return
	}
	f, err := h.bookings.SelectBarber(c.Request.Context(), c.Param("id"), req.ID)
	respondFlow(c, f, err)
}

func (h *PublicHandler) SelectSlot(c *gin.Context) {
	var req selectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "slot_required", "Selecione data e horário.")
		return
	}
	f, err := h.bookings.SelectSlot(c.Request.Context(), c.Param("id"), req.Date, req.Time)
	respondFlow(c, f, err)
}

// SetClient accepts empty fields; the flow decides what is missing.
func (h *PublicHandler) SetClient(c *gin.Context) {
	var req clientInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	f, err := h.bookings.SetClient(c.Request.Context(), c.Param("id"), req.Name, req.Phone, req.Notes)
	respondFlow(c, f, err)
}

func (h *PublicHandler) Back(c *gin.Context) {
	var req backRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_target_step", "Etapa inválida.")
		return
	}
	f, err := h.bookings.Back(c.Request.Context(), c.Param("id"), req.Step)
	respondFlow(c, f, err)
}

func (h *PublicHandler) Restart(c *gin.Context) {
	f, err := h.bookings.Restart(c.Request.Context(), c.Param("id"))
	respondFlow(c, f, err)
}

func (h *PublicHandler) BookingAvailability(c *gin.Context) {
	out, err := h.bookings.Availability(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		httperr.Respond(c, err, "availability_failed")
		return
	}
	httpresp.OK(c, out)
}

// Submit always answers with the flow. A failed booking keeps the flow
// alive and the status reflects the failure kind.
func (h *PublicHandler) Submit(c *gin.Context) {
	f, err := h.bookings.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err, "failed_to_submit_booking")
		return
	}

	switch {
	case f.Step == booking.StepSuccess:
		c.JSON(http.StatusCreated, f)
	case f.LastError != nil:
		c.JSON(httperr.StatusOf(httperr.BusinessError{
			Kind: f.LastError.Kind,
			Code: f.LastError.Code,
		}), f)
	default:
		c.JSON(http.StatusOK, f)
	}
}

func respondFlow(c *gin.Context, f *booking.Flow, err error) {
	if err != nil {
		httperr.Respond(c, err, "booking_failed")
		return
	}
	c.JSON(http.StatusOK, f)
}
