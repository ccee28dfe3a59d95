package transaction

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kestiv/internal/api"
	"kestiv/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, businessID uuid.UUID, filter ListFilter, page api.Page) ([]Transaction, error) {
	args := m.Called(ctx, businessID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Transaction), args.Error(1)
}

func (m *MockService) Summary(ctx context.Context, businessID uuid.UUID, from, to time.Time) (*Summary, error) {
	args := m.Called(ctx, businessID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Summary), args.Error(1)
}

func (m *MockService) CreateSale(ctx context.Context, businessID uuid.UUID, req CreateSaleRequest) (*Transaction, error) {
	args := m.Called(ctx, businessID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockService) Analytics(ctx context.Context, businessID uuid.UUID, groupBy string, from, to time.Time) (*Analytics, error) {
	args := m.Called(ctx, businessID, groupBy, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Analytics), args.Error(1)
}

func setupRouter(svc Service, businessID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetIdentity(c, auth.Identity{StaffID: uuid.New(), BusinessID: businessID, Role: "owner"})
		c.Next()
	})
	r.GET("/transactions", h.List)
	r.GET("/transactions/summary", h.Summary)
	r.GET("/transactions/analytics", h.Analytics)
	r.POST("/sales", h.CreateSale)
	return r
}

func TestHandler_List(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	memberID := uuid.New()
	r := setupRouter(svc, businessID)

	svc.On("List", mock.Anything, businessID, mock.MatchedBy(func(f ListFilter) bool {
		return f.Type == TypeSession && f.MemberID != nil && *f.MemberID == memberID
	}), api.Page{Limit: 20}).Return([]Transaction{{Type: TypeSession}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions?type=session&limit=20&member_id="+memberID.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_List_InvalidType(t *testing.T) {
	r := setupRouter(new(MockService), uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions?type=refund", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Summary(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	svc.On("Summary", mock.Anything, businessID, from, to).
		Return(&Summary{From: from, To: to, Total: decimal.NewFromInt(900)}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/summary?from=2025-03-01T00:00:00Z&to=2025-04-01T00:00:00Z", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"900"`)
}

func TestHandler_Summary_BadRange(t *testing.T) {
	svc := new(MockService)
	r := setupRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/summary?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("Summary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, ErrInvalidRange)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/summary?from=2025-04-01T00:00:00Z&to=2025-03-01T00:00:00Z", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateSale(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	productID := uuid.New()

	svc.On("CreateSale", mock.Anything, businessID, mock.MatchedBy(func(req CreateSaleRequest) bool {
		return len(req.Items) == 1 && req.Items[0].ProductID == productID && req.PaymentMethod == MethodCash
	})).Return(&Transaction{Type: TypeSale, Amount: decimal.NewFromInt(6)}, nil)

	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":2}],"payment_method":"cash"}`
	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_CreateSale_Errors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrInsufficientStock, http.StatusConflict},
		{ErrProductNotFound, http.StatusNotFound},
		{ErrMemberRequired, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := new(MockService)
			r := setupRouter(svc, uuid.New())
			svc.On("CreateSale", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1}],"payment_method":"debt"}`
			req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestHandler_CreateSale_EmptyItems(t *testing.T) {
	r := setupRouter(new(MockService), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewBufferString(`{"items":[],"payment_method":"cash"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Analytics(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	svc.On("Analytics", mock.Anything, businessID, GroupByType, from, to).Return(&Analytics{
		GroupBy: GroupByType,
		Types:   []TypeTotal{{Type: TypeSale, Count: 3, Total: decimal.NewFromInt(30)}},
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/transactions/analytics?group_by=type&from=2025-03-01T00:00:00Z&to=2025-03-08T00:00:00Z", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"types"`)
	assert.NotContains(t, w.Body.String(), `"days"`)
}

func TestHandler_Analytics_DefaultsToDaily(t *testing.T) {
	svc := new(MockService)
	businessID := uuid.New()
	r := setupRouter(svc, businessID)

	svc.On("Analytics", mock.Anything, businessID, GroupByDay, mock.Anything, mock.Anything).
		Return(&Analytics{GroupBy: GroupByDay}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/analytics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Analytics_BadGroupBy(t *testing.T) {
	svc := new(MockService)
	r := setupRouter(svc, uuid.New())

	svc.On("Analytics", mock.Anything, mock.Anything, "gym", mock.Anything, mock.Anything).Return(nil, ErrInvalidGroupBy)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/analytics?group_by=gym", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
