package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/usecase/finance"
)

type FinanceHandler struct {
	summary *finance.GetSummary
	walkIn  *finance.RecordWalkInPayment
}

func NewFinanceHandler(summary *finance.GetSummary, walkIn *finance.RecordWalkInPayment) *FinanceHandler {
	return &FinanceHandler{summary: summary, walkIn: walkIn}
}

type WalkInPaymentRequest struct {
	Amount        float64 `json:"amount" binding:"gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Notes         string  `json:"notes"`
}

// Summary answers ?period=day|week|month, with optional year/month for
// the month view.
func (h *FinanceHandler) Summary(c *gin.Context) {
	in := finance.SummaryInput{Period: c.DefaultQuery("period", finance.PeriodMonth)}

	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_year_or_month", "Ano inválido.")
			return
		}
		in.Year = y
	}
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_year_or_month", "Mês inválido.")
			return
		}
		in.Month = m
	}

	out, err := h.summary.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err, "failed_to_load_summary")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FinanceHandler) RecordWalkIn(c *gin.Context) {
	var req WalkInPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	p, err := h.walkIn.Execute(c.Request.Context(), finance.WalkInPaymentInput{
		Amount: req.Amount,
		Method: req.PaymentMethod,
		Notes:  req.Notes,
	})
	if err != nil {
		httperr.Respond(c, err, "failed_to_record_payment")
		return
	}
	httpresp.Created(c, p)
}
