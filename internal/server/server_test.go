package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/feuerwache/kantine/internal/auth"
	"github.com/feuerwache/kantine/internal/config"
	"github.com/feuerwache/kantine/internal/deps"
	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/mocks"
	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/money"
	"github.com/feuerwache/kantine/internal/sponsoring"
	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func setup(t *testing.T) (*Server, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockStorage := mocks.NewMockStorage(ctrl)

	logger := zaptest.NewLogger(t)
	cfg := &config.Config{}
	deps := &deps.Deps{
		TokenManager: auth.NewTokenManager("testsecret"),
		Logger:       logger.Sugar(),
	}

	srv := NewServer(mockStorage, cfg, deps)

	return srv, mockStorage
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRegisterHandler(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		CreateAdmin(gomock.Any(), "admin", gomock.Any()).
		Return(nil)

	mock.EXPECT().
		GetAdminByLogin(gomock.Any(), "admin").
		Return(model.Admin{ID: 1, Login: "admin"}, "", nil)

	payload := `{"login":"admin","password":"pass"}`
	req := httptest.NewRequest("POST", "/api/admin/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.RegisterHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	authHeader := resp.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		t.Errorf("missing token")
	}
}

func TestLoginHandler(t *testing.T) {
	srv, mock := setup(t)

	pw, _ := bcryptHash("pass")
	mock.EXPECT().
		GetAdminByLogin(gomock.Any(), "admin").
		Return(model.Admin{ID: 1, Login: "admin"}, pw, nil)

	payload := `{"login":"admin","password":"pass"}`
	req := httptest.NewRequest("POST", "/api/admin/login", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.LoginHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200")
	}
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	srv, mock := setup(t)

	pw, _ := bcryptHash("pass")
	mock.EXPECT().
		GetAdminByLogin(gomock.Any(), "admin").
		Return(model.Admin{ID: 1, Login: "admin"}, pw, nil)

	payload := `{"login":"admin","password":"wrong"}`
	req := httptest.NewRequest("POST", "/api/admin/login", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.LoginHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateOrderHandler(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		CreateOrder(gomock.Any(), gomock.Any()).
		Return(model.Order{ID: 42, EmployeeID: 1, TotalPrice: money.MustParse("7.60")}, nil)

	payload := `{"employee_id":1,"department_id":3,"type":"breakfast","total_halves":2,"white_halves":1,"seeded_halves":1,"has_coffee":true,"has_lunch":true}`
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.CreateOrderHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}

	var order model.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.ID != 42 {
		t.Errorf("expected order id 42, got %d", order.ID)
	}
	if order.TotalPrice.String() != "7.60" {
		t.Errorf("expected total 7.60, got %s", order.TotalPrice)
	}
}

func TestCreateOrderHandlerInvalid(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		CreateOrder(gomock.Any(), gomock.Any()).
		Return(model.Order{}, errs.ErrInvalidOrder)

	payload := `{"employee_id":1,"department_id":3,"type":"breakfast","total_halves":3,"white_halves":1,"seeded_halves":1}`
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.CreateOrderHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCancelOrderHandler(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		CancelOrder(gomock.Any(), int64(42)).
		Return(model.Order{ID: 42, IsCancelled: true}, nil)

	req := httptest.NewRequest("POST", "/api/orders/42/cancel", nil)
	req = withURLParam(req, "id", "42")
	w := httptest.NewRecorder()

	srv.CancelOrderHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCancelOrderHandlerRepeat(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		CancelOrder(gomock.Any(), int64(42)).
		Return(model.Order{ID: 42, IsCancelled: true}, errs.ErrOrderAlreadyCancelled)

	req := httptest.NewRequest("POST", "/api/orders/42/cancel", nil)
	req = withURLParam(req, "id", "42")
	w := httptest.NewRecorder()

	srv.CancelOrderHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	// repeated cancel must not issue a second credit but still succeeds
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		AlreadyCancelled bool `json:"already_cancelled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.AlreadyCancelled {
		t.Errorf("expected already_cancelled flag")
	}
}

func TestGetBalanceHandler(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		GetBalance(gomock.Any(), 1, 3).
		Return(model.Balance{
			Breakfast: money.MustParse("-12.50"),
			Drinks:    money.MustParse("4.00"),
		}, nil)

	req := httptest.NewRequest("GET", "/api/employees/1/balance?department=3", nil)
	req = withURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	srv.GetBalanceHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var balance model.Balance
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if balance.Breakfast.String() != "-12.50" {
		t.Errorf("expected breakfast -12.50, got %s", balance.Breakfast)
	}
}

func TestSponsorHandler(t *testing.T) {
	srv, mock := setup(t)

	plan := sponsoring.Plan{
		Orders: []sponsoring.SponsoredOrder{
			{OrderID: 1, Portion: money.MustParse("1.10")},
			{OrderID: 2, Portion: money.MustParse("1.10")},
		},
		Transaction: model.Order{
			IsSponsorOrder:       true,
			SponsorEmployeeCount: 2,
			SponsorTotalCost:     money.MustParse("2.20"),
		},
	}

	mock.EXPECT().
		SponsorMeal(gomock.Any(), gomock.Any(), gomock.Any(), sponsoring.Policy{}).
		Return(plan, nil)

	payload := `{"department_id":3,"date":"2025-06-10","meal_type":"breakfast","sponsor_employee_id":1}`
	req := httptest.NewRequest("POST", "/api/sponsor", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.SponsorHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}

	var body struct {
		SponsoredOrders int    `json:"sponsored_orders"`
		EmployeeCount   int    `json:"employee_count"`
		TotalCost       string `json:"total_cost"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SponsoredOrders != 2 {
		t.Errorf("expected 2 sponsored orders, got %d", body.SponsoredOrders)
	}
	if body.TotalCost != "2.20" {
		t.Errorf("expected total 2.20, got %s", body.TotalCost)
	}
}

func TestSponsorHandlerRepeat(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		SponsorMeal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sponsoring.Plan{}, errs.ErrAlreadySponsored)

	payload := `{"department_id":3,"date":"2025-06-10","meal_type":"breakfast","sponsor_employee_id":1}`
	req := httptest.NewRequest("POST", "/api/sponsor", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.SponsorHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestSponsorHandlerBadMealType(t *testing.T) {
	srv, _ := setup(t)

	payload := `{"department_id":3,"date":"2025-06-10","meal_type":"dinner","sponsor_employee_id":1}`
	req := httptest.NewRequest("POST", "/api/sponsor", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.SponsorHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestLunchPriceHandler(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		AdjustLunchPrice(gomock.Any(), 3, money.MustParse("4.50"), gomock.Any()).
		Return(7, nil)

	payload := `{"department_id":3,"price":"4.50"}`
	req := httptest.NewRequest("POST", "/api/lunch-price", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.LunchPriceHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		OrdersUpdated int `json:"orders_updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OrdersUpdated != 7 {
		t.Errorf("expected 7 updated orders, got %d", body.OrdersUpdated)
	}
}

func TestPaymentHandler(t *testing.T) {
	srv, mock := setup(t)

	mock.EXPECT().
		RecordPayment(gomock.Any(), model.PaymentRequest{
			EmployeeID: 1,
			Category:   "breakfast",
			Amount:     money.MustParse("20.00"),
			Method:     "cash",
		}).
		Return(model.Payment{EmployeeID: 1, Amount: money.MustParse("20.00")}, nil)

	payload := `{"employee_id":1,"category":"breakfast","amount":"20.00","method":"cash"}`
	req := httptest.NewRequest("POST", "/api/payments", strings.NewReader(payload))
	w := httptest.NewRecorder()

	srv.PaymentHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestDailyReportHandler(t *testing.T) {
	srv, mock := setup(t)

	day := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	mock.EXPECT().
		OrdersForDay(gomock.Any(), 3, gomock.Any()).
		Return([]model.Order{
			{ID: 1, EmployeeID: 1, DepartmentID: 3, TotalPrice: money.MustParse("7.60"), OrderDate: day},
			{ID: 2, EmployeeID: 2, DepartmentID: 3, TotalPrice: money.MustParse("3.10"), OrderDate: day},
		}, nil)

	req := httptest.NewRequest("GET", "/api/report/daily?department=3&date=2025-06-10", nil)
	w := httptest.NewRecorder()

	srv.DailyReportHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		DepartmentID int    `json:"department_id"`
		TotalOrders  int    `json:"total_orders"`
		TotalAmount  string `json:"total_amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalOrders != 2 {
		t.Errorf("expected 2 orders, got %d", body.TotalOrders)
	}
	if body.TotalAmount != "10.70" {
		t.Errorf("expected total 10.70, got %s", body.TotalAmount)
	}
}

func TestDailyReportHandlerMissingDepartment(t *testing.T) {
	srv, _ := setup(t)

	req := httptest.NewRequest("GET", "/api/report/daily", nil)
	w := httptest.NewRecorder()

	srv.DailyReportHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func bcryptHash(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), 10)
	return string(hash), err
}
