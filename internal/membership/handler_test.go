package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kestiv/internal/api"
	"kestiv/internal/auth"
	"kestiv/internal/plan"
	"kestiv/internal/transaction"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) result(args mock.Arguments) (*Result, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockService) view(args mock.Arguments) (*View, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*View), args.Error(1)
}

func (m *MockService) Create(ctx context.Context, businessID uuid.UUID, req CreateMemberRequest) (*View, error) {
	return m.view(m.Called(ctx, businessID, req))
}

func (m *MockService) Get(ctx context.Context, businessID, id uuid.UUID) (*View, error) {
	return m.view(m.Called(ctx, businessID, id))
}

func (m *MockService) List(ctx context.Context, businessID uuid.UUID, q ListQuery, page api.Page) ([]View, error) {
	args := m.Called(ctx, businessID, q, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]View), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, businessID, id uuid.UUID, req UpdateMemberRequest) (*View, error) {
	return m.view(m.Called(ctx, businessID, id, req))
}

func (m *MockService) History(ctx context.Context, businessID, id uuid.UUID, page api.Page) ([]HistoryEntry, error) {
	args := m.Called(ctx, businessID, id, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

func (m *MockService) ChangePlan(ctx context.Context, businessID, id uuid.UUID, req ChangePlanRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func (m *MockService) Renew(ctx context.Context, businessID, id uuid.UUID, req RenewRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func (m *MockService) UseSession(ctx context.Context, businessID, id uuid.UUID) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id))
}

func (m *MockService) AddSessions(ctx context.Context, businessID, id uuid.UUID, req AddSessionsRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func (m *MockService) Freeze(ctx context.Context, businessID, id uuid.UUID, req ReasonRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func (m *MockService) Unfreeze(ctx context.Context, businessID, id uuid.UUID) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id))
}

func (m *MockService) Cancel(ctx context.Context, businessID, id uuid.UUID, req ReasonRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func (m *MockService) AddService(ctx context.Context, businessID, id uuid.UUID, req AddServiceRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func (m *MockService) RepayDebt(ctx context.Context, businessID, id uuid.UUID, req RepayDebtRequest) (*Result, error) {
	return m.result(m.Called(ctx, businessID, id, req))
}

func setupRouter(svc Service, businessID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if businessID != uuid.Nil {
			auth.SetIdentity(c, auth.Identity{StaffID: uuid.New(), BusinessID: businessID, Role: "cashier"})
		}
		c.Next()
	})
	r.POST("/members", h.Create)
	r.GET("/members", h.List)
	r.GET("/members/:id", h.Get)
	r.GET("/members/:id/history", h.History)
	r.POST("/members/:id/plan", h.ChangePlan)
	r.POST("/members/:id/sessions/use", h.UseSession)
	r.POST("/members/:id/freeze", h.Freeze)
	r.POST("/members/:id/debt/repay", h.RepayDebt)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Create(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)

	svc.On("Create", mock.Anything, businessID, mock.MatchedBy(func(req CreateMemberRequest) bool {
		return req.Name == "Dana" && req.Phone == "+7701"
	})).Return(&View{Member: Member{Name: "Dana"}, Status: StatusNoPlan}, nil)

	w := doJSON(r, http.MethodPost, "/members", `{"name":"Dana","phone":"+7701"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"no_plan"`)
}

func TestHandler_Create_Validation(t *testing.T) {
	svc := new(MockService)
	r := setupRouter(svc, uuid.New())

	w := doJSON(r, http.MethodPost, "/members", `{"name":"Dana","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Unauthorized(t *testing.T) {
	r := setupRouter(new(MockService), uuid.Nil)

	w := doJSON(r, http.MethodGet, "/members", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_List_InvalidStatus(t *testing.T) {
	r := setupRouter(new(MockService), uuid.New())

	w := doJSON(r, http.MethodGet, "/members?status=gold", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_List(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)

	svc.On("List", mock.Anything, businessID, ListQuery{Search: "dan", Status: StatusActive}, api.Page{Limit: 10}).
		Return([]View{{Status: StatusActive}}, nil)

	w := doJSON(r, http.MethodGet, "/members?search=dan&status=active&limit=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Get_NotFound(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	id := uuid.New()

	svc.On("Get", mock.Anything, businessID, id).Return(nil, ErrMemberNotFound)

	w := doJSON(r, http.MethodGet, "/members/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ChangePlan(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	id, planID := uuid.New(), uuid.New()

	svc.On("ChangePlan", mock.Anything, businessID, id, ChangePlanRequest{PlanID: planID, PaymentMethod: transaction.MethodCash}).
		Return(&Result{
			Member:      View{Status: StatusActive},
			Entry:       &HistoryEntry{Type: EntrySubscription, Amount: decimal.NewNullDecimal(decimal.NewFromInt(50))},
			Transaction: &transaction.Transaction{Amount: decimal.NewFromInt(50), PaymentMethod: transaction.MethodCash},
		}, nil)

	w := doJSON(r, http.MethodPost, "/members/"+id.String()+"/plan", `{"plan_id":"`+planID.String()+`","payment_method":"cash"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "active", body["member"].(map[string]interface{})["status"])
	assert.Equal(t, "subscription", body["entry"].(map[string]interface{})["type"])
}

func TestHandler_ChangePlan_BadPaymentMethod(t *testing.T) {
	r := setupRouter(new(MockService), uuid.New())

	w := doJSON(r, http.MethodPost, "/members/"+uuid.NewString()+"/plan", `{"plan_id":"`+uuid.NewString()+`","payment_method":"card"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrNoSessionsLeft, http.StatusConflict},
		{ErrNotSessionPlan, http.StatusConflict},
		{ErrMemberFrozen, http.StatusConflict},
		{ErrMemberNotFound, http.StatusNotFound},
		{plan.ErrPlanNotFound, http.StatusNotFound},
		{ErrInvalidAmount, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := new(MockService)
			businessID := uuid.New()
			r := setupRouter(svc, businessID)
			id := uuid.New()

			svc.On("UseSession", mock.Anything, businessID, id).Return(nil, tt.err)

			w := doJSON(r, http.MethodPost, "/members/"+id.String()+"/sessions/use", "")
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestHandler_Freeze_OptionalBody(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	id := uuid.New()

	svc.On("Freeze", mock.Anything, businessID, id, ReasonRequest{}).
		Return(&Result{Member: View{Status: StatusFrozen}}, nil).Once()
	w := doJSON(r, http.MethodPost, "/members/"+id.String()+"/freeze", "")
	assert.Equal(t, http.StatusOK, w.Code)

	reason := "injury"
	svc.On("Freeze", mock.Anything, businessID, id, ReasonRequest{Reason: &reason}).
		Return(&Result{Member: View{Status: StatusFrozen}}, nil).Once()
	w = doJSON(r, http.MethodPost, "/members/"+id.String()+"/freeze", `{"reason":"injury"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestHandler_RepayDebt(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	id := uuid.New()

	svc.On("RepayDebt", mock.Anything, businessID, id, mock.MatchedBy(func(req RepayDebtRequest) bool {
		return req.Amount.Equal(decimal.RequireFromString("12.50"))
	})).Return(nil, ErrRepaymentExceedsDebt)

	w := doJSON(r, http.MethodPost, "/members/"+id.String()+"/debt/repay", `{"amount":"12.50"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_History(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	id := uuid.New()

	svc.On("History", mock.Anything, businessID, id, api.Page{Limit: 5, Offset: 10}).
		Return([]HistoryEntry{{Type: EntryFreeze}}, nil)

	w := doJSON(r, http.MethodGet, "/members/"+id.String()+"/history?limit=5&offset=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"freeze"`)
}
