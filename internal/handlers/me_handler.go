package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/settings"
)

type MeHandler struct {
	db       *gorm.DB
	settings *settings.Service
}

func NewMeHandler(db *gorm.DB, settings *settings.Service) *MeHandler {
	return &MeHandler{db: db, settings: settings}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userIDVal, exists := c.Get(middleware.ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_not_in_context"})
		return
	}

	userID, ok := userIDVal.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user_id_type"})
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_load_user"})
		return
	}

	prefs, err := h.settings.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_load_settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"phone": user.Phone,
			"role":  user.Role,
		},
		"settings": prefs,
	})
}

// ======================================================
// SETTINGS
// ======================================================

func (h *MeHandler) GetSettings(c *gin.Context) {
	prefs, err := h.settings.Get(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err, "failed_to_load_settings")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *MeHandler) UpdateSettings(c *gin.Context) {
	var p settings.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	prefs, err := h.settings.Update(c.Request.Context(), p)
	if err != nil {
		httperr.Respond(c, err, "failed_to_save_settings")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *MeHandler) ResetSettings(c *gin.Context) {
	prefs, err := h.settings.Reset(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err, "failed_to_save_settings")
		return
	}
	c.JSON(http.StatusOK, prefs)
}
