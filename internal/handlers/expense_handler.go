package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

type ExpenseHandler struct {
	db    *gorm.DB
	audit AuditSink
}

func NewExpenseHandler(db *gorm.DB, audit AuditSink) *ExpenseHandler {
	return &ExpenseHandler{db: db, audit: audit}
}

// --------- Requests ---------

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type ExpenseRequest struct {
	CategoryID  *uint   `json:"category_id"`
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"gt=0"`
	ExpenseDate string  `json:"expense_date" binding:"required"` // YYYY-MM-DD
}

// ======================================================
// CATEGORIES
// ======================================================

func (h *ExpenseHandler) ListCategories(c *gin.Context) {
	var cats []models.ExpenseCategory
	if err := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&cats).Error; err != nil {
		httperr.Internal(c, "failed_to_list_categories", "Erro ao listar categorias.")
		return
	}
	httpresp.List(c, cats)
}

func (h *ExpenseHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		httperr.BadRequest(c, "name_required", "Nome é obrigatório.")
		return
	}

	cat := models.ExpenseCategory{Name: strings.TrimSpace(req.Name)}
	if err := h.db.WithContext(c.Request.Context()).Create(&cat).Error; err != nil {
		if httperr.IsUniqueViolation(err, "") {
			httperr.Respond(c, httperr.ErrConflict("category_already_exists"), "failed_to_create_category")
			return
		}
		httperr.Internal(c, "failed_to_create_category", "Erro ao criar categoria.")
		return
	}

	recordOperator(c, h.audit, "expense_category_created", "expense_category", cat.ID, nil)
	httpresp.Created(c, cat)
}

// DeleteCategory keeps the expenses; their category becomes empty.
func (h *ExpenseHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.ExpenseCategory{}, id)
	if res.Error != nil {
		httperr.Internal(c, "failed_to_delete_category", "Erro ao excluir categoria.")
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, "category_not_found", "Categoria não encontrada.")
		return
	}

	recordOperator(c, h.audit, "expense_category_deleted", "expense_category", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// EXPENSES
// ======================================================

func (h *ExpenseHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Preload("Category")

	if from := c.Query("from"); from != "" {
		d, err := timeofday.ParseDate(from)
		if err != nil {
			httperr.BadRequest(c, "invalid_from", "Data inicial inválida.")
			return
		}
		q = q.Where("expense_date >= ?", d)
	}
	if to := c.Query("to"); to != "" {
		d, err := timeofday.ParseDate(to)
		if err != nil {
			httperr.BadRequest(c, "invalid_to", "Data final inválida.")
			return
		}
		q = q.Where("expense_date <= ?", d)
	}
	if c.Query("category_id") != "" {
		catID, ok := queryUint(c, "category_id")
		if !ok {
			return
		}
		q = q.Where("category_id = ?", catID)
	}

	var expenses []models.Expense
	if err := q.Order("expense_date DESC").Order("id DESC").Find(&expenses).Error; err != nil {
		httperr.Internal(c, "failed_to_list_expenses", "Erro ao listar despesas.")
		return
	}
	httpresp.List(c, expenses)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	exp := models.Expense{}
	if err := req.apply(&exp); err != nil {
		httperr.Respond(c, err, "invalid_request")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&exp).Error; err != nil {
		if httperr.IsForeignKeyViolation(err) {
			httperr.Respond(c, httperr.ErrValidation("category_not_found"), "failed_to_create_expense")
			return
		}
		httperr.Internal(c, "failed_to_create_expense", "Erro ao criar despesa.")
		return
	}

	recordOperator(c, h.audit, "expense_created", "expense", exp.ID, map[string]any{"amount": exp.Amount})
	httpresp.Created(c, exp)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	var exp models.Expense
	if err := h.db.WithContext(ctx).First(&exp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "expense_not_found", "Despesa não encontrada.")
			return
		}
		httperr.Internal(c, "failed_to_get_expense", "Erro ao buscar despesa.")
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if err := req.apply(&exp); err != nil {
		httperr.Respond(c, err, "invalid_request")
		return
	}

	exp.Category = nil
	if err := h.db.WithContext(ctx).Save(&exp).Error; err != nil {
		if httperr.IsForeignKeyViolation(err) {
			httperr.Respond(c, httperr.ErrValidation("category_not_found"), "failed_to_update_expense")
			return
		}
		httperr.Internal(c, "failed_to_update_expense", "Erro ao atualizar despesa.")
		return
	}

	recordOperator(c, h.audit, "expense_updated", "expense", exp.ID, nil)
	c.JSON(http.StatusOK, exp)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.Expense{}, id)
	if res.Error != nil {
		httperr.Internal(c, "failed_to_delete_expense", "Erro ao excluir despesa.")
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, "expense_not_found", "Despesa não encontrada.")
		return
	}

	recordOperator(c, h.audit, "expense_deleted", "expense", id, nil)
	httpresp.NoContent(c)
}

func (r ExpenseRequest) apply(e *models.Expense) error {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return httperr.ErrValidation("description_required")
	}
	d, err := timeofday.ParseDate(r.ExpenseDate)
	if err != nil {
		return httperr.ErrValidation("invalid_date")
	}
	e.CategoryID = r.CategoryID
	e.Description = desc
	e.Amount = r.Amount
	e.ExpenseDate = d
	return nil
}
