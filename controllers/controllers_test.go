package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeOrderService records checkout requests. Methods a test does not set
// panic through the nil embedded interface.
type fakeOrderService struct {
	services.OrderService
	placed   map[string]*models.Order
	requests []services.CreateOrderRequest
	cancel   func(ref string, itemID uint) (*models.Order, error)
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, userID uint, req services.CreateOrderRequest) (*models.Order, bool, error) {
	f.requests = append(f.requests, req)
	if order, ok := f.placed[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return order, false, nil
	}
	order := &models.Order{UserID: userID, OrderID: "ZK-000001-AAAA", PaymentMethod: req.PaymentMethod}
	f.placed[req.IdempotencyKey] = order
	return order, true, nil
}

func (f *fakeOrderService) CancelOrderItem(ctx context.Context, userID uint, ref string, itemID uint, reason string) (*models.Order, error) {
	return f.cancel(ref, itemID)
}

func withUser(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	}
}

func orderRouter(svc services.OrderService) *gin.Engine {
	oc := InitOrderController(svc)
	router := gin.New()
	user := models.User{Name: "Asha"}
	user.ID = 7
	orders := router.Group("/api/orders", withUser(user))
	orders.POST("", oc.CreateOrder)
	orders.POST("/:id/items/:itemId/cancel", oc.CancelOrderItem)
	router.POST("/anonymous/orders", oc.CreateOrder)
	return router
}

func do(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.StandardResponse {
	t.Helper()
	var resp utils.StandardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateOrderIdempotencyHeader(t *testing.T) {
	svc := &fakeOrderService{placed: map[string]*models.Order{}}
	router := orderRouter(svc)
	body := `{"addressId": 3, "paymentMethod": "Wallet", "idempotencyKey": "from-body"}`
	headers := map[string]string{IdempotencyKeyHeader: "checkout-123"}

	first := do(router, http.MethodPost, "/api/orders", body, headers)
	assert.Equal(t, http.StatusCreated, first.Code)

	replay := do(router, http.MethodPost, "/api/orders", body, headers)
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "Order already placed", decode(t, replay).Message)

	require.Len(t, svc.requests, 2)
	assert.Equal(t, "checkout-123", svc.requests[0].IdempotencyKey)
	assert.Equal(t, uint(3), svc.requests[0].AddressID)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	svc := &fakeOrderService{placed: map[string]*models.Order{}}
	router := orderRouter(svc)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown payment method", "/api/orders", `{"addressId": 3, "paymentMethod": "Card"}`, http.StatusBadRequest},
		{"missing address", "/api/orders", `{"paymentMethod": "COD"}`, http.StatusBadRequest},
		{"malformed json", "/api/orders", `{"addressId": `, http.StatusBadRequest},
		{"no user in context", "/anonymous/orders", `{"addressId": 3, "paymentMethod": "COD"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Empty(t, svc.requests)
}

func TestCancelOrderItem(t *testing.T) {
	var gotRef string
	var gotItem uint
	svc := &fakeOrderService{cancel: func(ref string, itemID uint) (*models.Order, error) {
		gotRef, gotItem = ref, itemID
		if itemID == 99 {
			return nil, utils.BadRequestError("Item is already cancelled", nil).WithType(utils.ErrTypeCancelNotAllowed)
		}
		return &models.Order{OrderID: ref}, nil
	}}
	router := orderRouter(svc)

	w := do(router, http.MethodPost, "/api/orders/ZK-482913-7QXA/items/5/cancel", `{"reason": "  changed my mind "}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ZK-482913-7QXA", gotRef)
	assert.Equal(t, uint(5), gotItem)

	w = do(router, http.MethodPost, "/api/orders/12/items/99/cancel", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrTypeCancelNotAllowed, decode(t, w).ErrorType)

	w = do(router, http.MethodPost, "/api/orders/12/items/abc/cancel", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid itemId", decode(t, w).Message)
}

type fakeReportService struct {
	services.ReportService
	calls int
}

func (f *fakeReportService) SalesReport(ctx context.Context, filter services.SalesReportFilter) (*services.SalesReport, error) {
	f.calls++
	if filter.Range == "decade" {
		return nil, utils.BadRequestError("Invalid range", nil).WithType(utils.ErrTypeValidation)
	}
	start := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	return &services.SalesReport{
		Range:       filter.Range,
		Start:       start,
		End:         start.AddDate(0, 0, 7),
		Granularity: "day",
		GeneratedAt: start,
	}, nil
}

func TestSalesReportFormats(t *testing.T) {
	svc := &fakeReportService{}
	rc := InitAdminReportController(svc)
	router := gin.New()
	router.GET("/api/admin/reports/sales", rc.SalesReport)

	w := do(router, http.MethodGet, "/api/admin/reports/sales?range=weekly&format=csv", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, svc.calls)

	w = do(router, http.MethodGet, "/api/admin/reports/sales?range=decade", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/admin/reports/sales?range=weekly", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w).Status)

	w = do(router, http.MethodGet, "/api/admin/reports/sales?range=weekly&format=EXCEL", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=sales-report-2025-03-09-2025-03-15.xlsx", w.Header().Get("Content-Disposition"))

	w = do(router, http.MethodGet, "/api/admin/reports/sales?range=weekly&format=pdf", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}
