package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/feuerwache/kantine/internal/config"
	"github.com/feuerwache/kantine/internal/deps"
	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/middleware"
	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/money"
	"github.com/feuerwache/kantine/internal/report"
	"github.com/feuerwache/kantine/internal/sponsoring"
	"github.com/feuerwache/kantine/internal/utils"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type Storage interface {
	CreateAdmin(ctx context.Context, login, passwordHash string) error
	GetAdminByLogin(ctx context.Context, login string) (model.Admin, string, error)
	GetAdminByID(ctx context.Context, id int) (model.Admin, error)

	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (model.Order, error)
	GetBalance(ctx context.Context, employeeID, departmentID int) (model.Balance, error)

	SponsorMeal(ctx context.Context, req model.SponsorRequest, date time.Time, policy sponsoring.Policy) (sponsoring.Plan, error)
	AdjustLunchPrice(ctx context.Context, departmentID int, newPrice money.Money, now time.Time) (int, error)
	RecordPayment(ctx context.Context, req model.PaymentRequest) (model.Payment, error)
	OrdersForDay(ctx context.Context, departmentID int, t time.Time) ([]model.Order, error)
}

type Server struct {
	storage Storage
	config  *config.Config
	deps    *deps.Deps
}

func NewServer(storage Storage, config *config.Config, deps *deps.Deps) *Server {
	return &Server{
		storage: storage,
		config:  config,
		deps:    deps,
	}
}

func (srv *Server) buildRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.LogMiddleware(srv.deps.Logger))
	router.Use(middleware.DecompressMiddleware)
	router.Use(middleware.CompressMiddleware(srv.deps.Logger))

	router.Post("/api/admin/register", srv.RegisterHandler)
	router.Post("/api/admin/login", srv.LoginHandler)

	// everything touching the ledger requires an authenticated admin
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(srv.storage, srv.deps.TokenManager))

		r.Post("/api/orders", srv.CreateOrderHandler)
		r.Post("/api/orders/{id}/cancel", srv.CancelOrderHandler)
		r.Get("/api/employees/{id}/balance", srv.GetBalanceHandler)
		r.Post("/api/sponsor", srv.SponsorHandler)
		r.Post("/api/lunch-price", srv.LunchPriceHandler)
		r.Post("/api/payments", srv.PaymentHandler)
		r.Get("/api/report/daily", srv.DailyReportHandler)
	})

	return router
}

func (srv *Server) Run(ctx context.Context) error {
	router := srv.buildRouter()

	server := &http.Server{
		Addr:    srv.config.RunAddress,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srv.deps.Logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if creds.Login == "" || creds.Password == "" {
		http.Error(w, "login and password required", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "hash error", http.StatusInternalServerError)
		return
	}

	err = s.storage.CreateAdmin(r.Context(), creds.Login, string(hash))
	if err != nil {
		if errors.Is(err, errs.ErrLoginAlreadyExists) {
			http.Error(w, "login taken", http.StatusConflict)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	admin, _, err := s.storage.GetAdminByLogin(r.Context(), creds.Login)
	if err != nil {
		http.Error(w, "failed to fetch admin", http.StatusInternalServerError)
		return
	}

	token, err := s.deps.TokenManager.GenerateToken(admin.ID)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if creds.Login == "" || creds.Password == "" {
		http.Error(w, "login and password required", http.StatusBadRequest)
		return
	}

	admin, hash, err := s.storage.GetAdminByLogin(r.Context(), creds.Login)
	if err != nil {
		if errors.Is(err, errs.ErrAdminNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.deps.TokenManager.GenerateToken(admin.ID)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	order, err := s.storage.CreateOrder(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidOrder):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrEmployeeNotFound), errors.Is(err, errs.ErrDepartmentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "db error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := s.storage.CancelOrder(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrOrderAlreadyCancelled):
			// idempotent: the credit was already issued exactly once
			writeJSON(w, http.StatusOK, map[string]any{
				"order":             order,
				"already_cancelled": true,
			})
		case errors.Is(err, errs.ErrOrderNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, errs.ErrInvalidOrder):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, "db error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (s *Server) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}

	departmentID := 0
	if d := r.URL.Query().Get("department"); d != "" {
		departmentID, err = strconv.Atoi(d)
		if err != nil {
			http.Error(w, "invalid department id", http.StatusBadRequest)
			return
		}
	}

	balance, err := s.storage.GetBalance(r.Context(), employeeID, departmentID)
	if err != nil {
		if errors.Is(err, errs.ErrEmployeeNotFound) {
			http.Error(w, "employee not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to get balance", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) SponsorHandler(w http.ResponseWriter, r *http.Request) {
	var req model.SponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.MealType != model.MealBreakfast && req.MealType != model.MealLunch {
		http.Error(w, "invalid meal type", http.StatusUnprocessableEntity)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, utils.Berlin())
	if err != nil {
		http.Error(w, "invalid date", http.StatusUnprocessableEntity)
		return
	}

	policy := sponsoring.Policy{IncludeCoffee: s.config.SponsorIncludeCoffee}
	plan, err := s.storage.SponsorMeal(r.Context(), req, date, policy)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAlreadySponsored):
			http.Error(w, "already sponsored", http.StatusConflict)
		case errors.Is(err, errs.ErrNothingToSponsor):
			http.Error(w, "no orders to sponsor", http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrEmployeeNotFound):
			http.Error(w, "sponsor not found", http.StatusNotFound)
		default:
			http.Error(w, "db error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sponsored_orders": len(plan.Orders),
		"employee_count":   plan.Transaction.SponsorEmployeeCount,
		"total_cost":       plan.TotalCost(),
	})
}

func (s *Server) LunchPriceHandler(w http.ResponseWriter, r *http.Request) {
	var req model.LunchPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	updated, err := s.storage.AdjustLunchPrice(r.Context(), req.DepartmentID, req.Price, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidOrder):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrDepartmentNotFound):
			http.Error(w, "department not found", http.StatusNotFound)
		default:
			http.Error(w, "db error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders_updated": updated})
}

func (s *Server) PaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	payment, err := s.storage.RecordPayment(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidOrder):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrEmployeeNotFound):
			http.Error(w, "employee not found", http.StatusNotFound)
		default:
			http.Error(w, "db error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) DailyReportHandler(w http.ResponseWriter, r *http.Request) {
	departmentID, err := strconv.Atoi(r.URL.Query().Get("department"))
	if err != nil {
		http.Error(w, "invalid department id", http.StatusBadRequest)
		return
	}

	date := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		date, err = time.ParseInLocation("2006-01-02", d, utils.Berlin())
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
	}

	orders, err := s.storage.OrdersForDay(r.Context(), departmentID, date)
	if err != nil {
		http.Error(w, "failed to get orders", http.StatusInternalServerError)
		return
	}

	summary := report.BuildDailySummary(departmentID, utils.DateOf(date, utils.Berlin()), orders)
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
