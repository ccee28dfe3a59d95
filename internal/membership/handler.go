package membership

import (
	"errors"
	"net/http"

	"kestiv/internal/api"
	"kestiv/internal/auth"
	"kestiv/internal/plan"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMemberNotFound):
		return http.StatusNotFound, "Member not found"
	case errors.Is(err, plan.ErrPlanNotFound):
		return http.StatusNotFound, "Plan not found"
	case errors.Is(err, ErrInvalidCount), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidPaymentMethod):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNoPlan), errors.Is(err, ErrNotSessionPlan), errors.Is(err, ErrNoSessionsLeft),
		errors.Is(err, ErrAlreadyFrozen), errors.Is(err, ErrNotFrozen), errors.Is(err, ErrMemberFrozen),
		errors.Is(err, ErrPlanInactive), errors.Is(err, ErrPlanMismatch), errors.Is(err, ErrRepaymentExceedsDebt):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeError(c *gin.Context, err error, fallback string) {
	status, msg := errorStatus(err)
	if msg == "" {
		msg = fallback
	}
	c.JSON(status, api.ErrorResponse{Error: msg})
}

// target resolves the tenant and the member id from the request.
func target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := api.ParamUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return businessID, id, true
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return api.BindJSON(c, obj)
}

// @Summary      Create a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body membership.CreateMemberRequest true "Member payload"
// @Success      201 {object} membership.View
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members [post]
func (h *Handler) Create(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Create(c.Request.Context(), businessID, req)
	if err != nil {
		writeError(c, err, "Failed to create member")
		return
	}

	c.JSON(http.StatusCreated, v)
}

// @Summary      List members
// @Description  Status is derived at read time; limit and offset apply to the filtered result.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Name or phone fragment"
// @Param        status query string false "Derived status" Enums(no_plan, frozen, single_used, active, expiring_soon, expired)
// @Param        limit  query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {array} membership.View
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /members [get]
func (h *Handler) List(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var q ListQuery
	var page api.Page
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if q.Status != "" && !q.Status.Valid() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid status"})
		return
	}

	views, err := h.service.List(c.Request.Context(), businessID, q, page)
	if err != nil {
		writeError(c, err, "Failed to fetch members")
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} membership.View
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), businessID, id)
	if err != nil {
		writeError(c, err, "Failed to fetch member")
		return
	}

	c.JSON(http.StatusOK, v)
}

// @Summary      Update member contact details
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.UpdateMemberRequest true "Fields to change"
// @Success      200 {object} membership.View
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}

	var req UpdateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), businessID, id, req)
	if err != nil {
		writeError(c, err, "Failed to update member")
		return
	}

	c.JSON(http.StatusOK, v)
}

// @Summary      Member history
// @Description  Ledger entries, newest first.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Member ID"
// @Param        limit  query int    false "Page size"
// @Param        offset query int    false "Page offset"
// @Success      200 {array} membership.HistoryEntry
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id}/history [get]
func (h *Handler) History(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}

	var page api.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	entries, err := h.service.History(c.Request.Context(), businessID, id, page)
	if err != nil {
		writeError(c, err, "Failed to fetch history")
		return
	}

	c.JSON(http.StatusOK, entries)
}

func respond(c *gin.Context, res *Result, err error, fallback string) {
	if err != nil {
		writeError(c, err, fallback)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Assign or change a plan
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.ChangePlanRequest true "Plan and payment"
// @Success      200 {object} membership.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/plan [post]
func (h *Handler) ChangePlan(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req ChangePlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.ChangePlan(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to change plan")
}

// @Summary      Renew the current plan
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.RenewRequest true "Payment"
// @Success      200 {object} membership.Result
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req RenewRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Renew(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to renew plan")
}

// @Summary      Check in one session
// @Tags         member-actions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} membership.Result
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/sessions/use [post]
func (h *Handler) UseSession(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}

	res, err := h.service.UseSession(c.Request.Context(), businessID, id)
	respond(c, res, err, "Failed to use session")
}

// @Summary      Add sessions
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.AddSessionsRequest true "Sessions and optional payment"
// @Success      200 {object} membership.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/sessions [post]
func (h *Handler) AddSessions(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req AddSessionsRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.AddSessions(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to add sessions")
}

// @Summary      Freeze a membership
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.ReasonRequest false "Reason"
// @Success      200 {object} membership.Result
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/freeze [post]
func (h *Handler) Freeze(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}

	res, err := h.service.Freeze(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to freeze membership")
}

// @Summary      Unfreeze a membership
// @Description  The expiry date moves forward by the frozen days.
// @Tags         member-actions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} membership.Result
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/unfreeze [post]
func (h *Handler) Unfreeze(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}

	res, err := h.service.Unfreeze(c.Request.Context(), businessID, id)
	respond(c, res, err, "Failed to unfreeze membership")
}

// @Summary      Cancel a membership
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.ReasonRequest false "Reason"
// @Success      200 {object} membership.Result
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to cancel membership")
}

// @Summary      Sell a service to a member
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.AddServiceRequest true "Service"
// @Success      200 {object} membership.Result
// @Failure      400 {object} api.ErrorResponse
// @Router       /members/{id}/services [post]
func (h *Handler) AddService(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req AddServiceRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.AddService(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to add service")
}

// @Summary      Repay debt
// @Tags         member-actions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body membership.RepayDebtRequest true "Amount"
// @Success      200 {object} membership.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /members/{id}/debt/repay [post]
func (h *Handler) RepayDebt(c *gin.Context) {
	businessID, id, ok := target(c)
	if !ok {
		return
	}
	var req RepayDebtRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.RepayDebt(c.Request.Context(), businessID, id, req)
	respond(c, res, err, "Failed to record repayment")
}
