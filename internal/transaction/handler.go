package transaction

import (
	"errors"
	"net/http"
	"time"

	"kestiv/internal/api"
	"kestiv/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      List transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        type   query string false "Transaction type" Enums(subscription, session, service, sale, debt_payment)
// @Param        member_id query string false "Member ID"
// @Param        from   query string false "RFC3339 lower bound"
// @Param        to     query string false "RFC3339 upper bound"
// @Param        limit  query int    false "Page size"
// @Param        offset query int    false "Page offset"
// @Success      200 {array} transaction.Transaction
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /transactions [get]
func (h *Handler) List(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var filter ListFilter
	var page api.Page
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid transaction type"})
		return
	}
	if v := c.Query("member_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member_id"})
			return
		}
		filter.MemberID = &id
	}

	txs, err := h.service.List(c.Request.Context(), businessID, filter, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// parseWindow reads RFC3339 from/to query params, falling back to the given
// defaults. It writes a 400 and returns false on a malformed value.
func parseWindow(c *gin.Context, from, to time.Time) (time.Time, time.Time, bool) {
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &from}, {"to", &to}} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid " + p.name})
			return time.Time{}, time.Time{}, false
		}
		*p.dst = t
	}
	return from, to, true
}

// @Summary      Takings summary
// @Description  Totals per payment method. Defaults to the current UTC day.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "RFC3339 lower bound"
// @Param        to   query string false "RFC3339 upper bound"
// @Success      200 {object} transaction.Summary
// @Failure      400 {object} api.ErrorResponse
// @Router       /transactions/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, to, ok := parseWindow(c, today, today.Add(24*time.Hour))
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), businessID, from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from must be before to"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to build summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary      Record a retail sale
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body transaction.CreateSaleRequest true "Sale"
// @Success      201 {object} transaction.Transaction
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /sales [post]
func (h *Handler) CreateSale(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateSaleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.CreateSale(c.Request.Context(), businessID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrMemberNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrProductInactive):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrMemberRequired):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to record sale"})
		}
		return
	}

	c.JSON(http.StatusCreated, sale)
}

// @Summary      Takings analytics
// @Description  Takings grouped by UTC day or by transaction type. Defaults to the last 30 days.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        group_by query string false "day or type"
// @Param        from     query string false "RFC3339 lower bound"
// @Param        to       query string false "RFC3339 upper bound"
// @Success      200 {object} transaction.Analytics
// @Failure      400 {object} api.ErrorResponse
// @Router       /transactions/analytics [get]
func (h *Handler) Analytics(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from, to, ok := parseWindow(c, to.AddDate(0, 0, -30), to)
	if !ok {
		return
	}

	out, err := h.service.Analytics(c.Request.Context(), businessID, c.DefaultQuery("group_by", GroupByDay), from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidGroupBy) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to build analytics"})
		return
	}

	c.JSON(http.StatusOK, out)
}
