package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/storage"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/validators"
)

// PhotoStore removes a previous photo once the new one is saved.
// *storage.S3Store satisfies it.
type PhotoStore interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type BarberHandler struct {
	db       *gorm.DB
	audit    AuditSink
	uploader *storage.PhotoUploader
	photos   PhotoStore
	log      *zap.Logger
}

func NewBarberHandler(
	db *gorm.DB,
	audit AuditSink,
	uploader *storage.PhotoUploader,
	photos PhotoStore,
	log *zap.Logger,
) *BarberHandler {
	return &BarberHandler{db: db, audit: audit, uploader: uploader, photos: photos, log: log}
}

// --------- Requests ---------

// Lunch times are "HH:MM"; empty means no lunch window.
type BarberRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	LunchStart *string `json:"lunch_start"`
	LunchEnd   *string `json:"lunch_end"`
	IsActive   *bool   `json:"is_active"`
}

// apply copies the request onto b. Both lunch fields are required together.
func (r BarberRequest) apply(b *models.Barber) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return httperr.ErrValidation("name_required")
		}
		b.Name = name
	}
	if r.Phone != nil {
		phone := ""
		if strings.TrimSpace(*r.Phone) != "" {
			if phone = validators.NormalizePhone(*r.Phone); phone == "" {
				return httperr.ErrValidation("invalid_phone")
			}
		}
		b.Phone = phone
	}
	if r.LunchStart != nil || r.LunchEnd != nil {
		start, err := optionalTime(r.LunchStart)
		if err != nil {
			return err
		}
		end, err := optionalTime(r.LunchEnd)
		if err != nil {
			return err
		}
		if (start == nil) != (end == nil) {
			return httperr.ErrValidation("lunch_incomplete")
		}
		if start != nil && !start.Before(*end) {
			return httperr.ErrValidation("invalid_lunch_window")
		}
		b.LunchStart, b.LunchEnd = start, end
	}
	if r.IsActive != nil {
		b.IsActive = *r.IsActive
	}
	return nil
}

func optionalTime(s *string) (*timeofday.TimeOfDay, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := timeofday.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, httperr.ErrValidation("invalid_time")
	}
	return &t, nil
}

// --------- Handlers ---------

func (h *BarberHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if active, ok := boolFilter(c.Query("active")); ok {
		q = q.Where("is_active = ?", active)
	}

	var barbers []models.Barber
	if err := q.Order("name ASC").Find(&barbers).Error; err != nil {
		httperr.Internal(c, "failed_to_list_barbers", "Erro ao listar barbeiros.")
		return
	}

	httpresp.List(c, barbers)
}

func (h *BarberHandler) Create(c *gin.Context) {
	var req BarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if req.Name == nil {
		httperr.BadRequest(c, "name_required", "Nome é obrigatório.")
		return
	}

	barber := models.Barber{IsActive: true}
	if err := req.apply(&barber); err != nil {
		httperr.Respond(c, err, "invalid_request")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&barber).Error; err != nil {
		httperr.Internal(c, "failed_to_create_barber", "Erro ao criar barbeiro.")
		return
	}

	recordOperator(c, h.audit, "barber_created", "barber", barber.ID, map[string]any{"name": barber.Name})
	httpresp.Created(c, barber)
}

func (h *BarberHandler) find(c *gin.Context) (*models.Barber, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var barber models.Barber
	if err := h.db.WithContext(c.Request.Context()).First(&barber, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "barber_not_found", "Barbeiro não encontrado.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_barber", "Erro ao buscar barbeiro.")
		return nil, false
	}
	return &barber, true
}

// Update never touches existing appointments; a new lunch window only
// affects future availability and bookings.
func (h *BarberHandler) Update(c *gin.Context) {
	barber, ok := h.find(c)
	if !ok {
		return
	}

	var req BarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if err := req.apply(barber); err != nil {
		httperr.Respond(c, err, "invalid_request")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Save(barber).Error; err != nil {
		httperr.Internal(c, "failed_to_update_barber", "Erro ao atualizar barbeiro.")
		return
	}

	recordOperator(c, h.audit, "barber_updated", "barber", barber.ID, nil)
	c.JSON(http.StatusOK, barber)
}

// Delete only succeeds for barbers without appointments; otherwise the
// answer suggests deactivation.
func (h *BarberHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.Barber{}, id)
	if res.Error != nil {
		if httperr.IsForeignKeyViolation(res.Error) {
			httperr.Respond(c, httperr.ErrReferential("barber_in_use", "deactivate"), "failed_to_delete_barber")
			return
		}
		httperr.Internal(c, "failed_to_delete_barber", "Erro ao excluir barbeiro.")
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, "barber_not_found", "Barbeiro não encontrado.")
		return
	}

	recordOperator(c, h.audit, "barber_deleted", "barber", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// PHOTO
// ======================================================

// UploadPhoto takes a multipart "photo" field, re-encodes it as WebP and
// stores the public URL on the barber.
func (h *BarberHandler) UploadPhoto(c *gin.Context) {
	barber, ok := h.find(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+1<<20)

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "photo_required", "Envie uma imagem no campo photo.")
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	url, err := h.uploader.Upload(ctx, barber.ID, file)
	if err != nil {
		httperr.Respond(c, err, "failed_to_upload_photo")
		return
	}

	previous := barber.PhotoURL
	if err := h.db.WithContext(ctx).
		Model(barber).
		Update("photo_url", url).Error; err != nil {
		httperr.Internal(c, "failed_to_update_barber", "Erro ao salvar foto.")
		return
	}

	// a foto antiga vira lixo; falha aqui não afeta a resposta
	if previous != "" && h.photos != nil {
		if key, ok := h.photos.KeyFromURL(previous); ok {
			if err := h.photos.Delete(ctx, key); err != nil {
				h.log.Warn("failed to delete old photo", zap.String("key", key), zap.Error(err))
			}
		}
	}

	recordOperator(c, h.audit, "barber_photo_updated", "barber", barber.ID, nil)
	c.JSON(http.StatusOK, barber)
}
