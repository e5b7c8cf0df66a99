//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/sponsoring"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStorage(t *testing.T) *PostgresStorage {
	t.Helper()

	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI not set")
	}

	s, err := NewPostgresStorage(context.Background(), uri, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	_, err = s.db.Exec(context.Background(), `
		TRUNCATE ledger_entries, payments, orders, lunch_prices, menu_prices,
			subaccounts, employees, departments RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return s
}

func seedDepartment(t *testing.T, s *PostgresStorage, employees int) {
	t.Helper()
	ctx := context.Background()

	_, err := s.db.Exec(ctx, `INSERT INTO departments (name) VALUES ('wache 1')`)
	require.NoError(t, err)

	for i := 0; i < employees; i++ {
		_, err = s.db.Exec(ctx,
			`INSERT INTO employees (name, department_id) VALUES ($1, 1)`, "employee")
		require.NoError(t, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO menu_prices (department_id, item_kind, price) VALUES
			(1, 'roll_white', 0.60), (1, 'roll_seeded', 0.60),
			(1, 'egg', 0.50), (1, 'coffee', 1.50)`)
	require.NoError(t, err)

	_, err = s.db.Exec(ctx, `
		INSERT INTO lunch_prices (department_id, price, effective_date)
		VALUES (1, 5.00, CURRENT_DATE)`)
	require.NoError(t, err)
}

func ledgerCount(t *testing.T, s *PostgresStorage) int {
	t.Helper()
	var n int
	require.NoError(t,
		s.db.QueryRow(context.Background(), `SELECT COUNT(*) FROM ledger_entries`).Scan(&n))
	return n
}

// A second sponsoring of the same department/date/meal must fail and leave
// every balance and the ledger exactly as the first one left them.
func TestSponsorMealRepeatLeavesBalancesUnchanged(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	seedDepartment(t, s, 4)

	for id := 1; id <= 4; id++ {
		_, err := s.CreateOrder(ctx, model.CreateOrderRequest{
			EmployeeID:   id,
			DepartmentID: 1,
			Type:         model.OrderBreakfast,
			TotalHalves:  2,
			WhiteHalves:  1,
			SeededHalves: 1,
			Eggs:         1,
			HasCoffee:    true,
			HasLunch:     true,
		})
		require.NoError(t, err)
	}

	now := time.Now()
	req := model.SponsorRequest{DepartmentID: 1, MealType: model.MealBreakfast, SponsorEmployeeID: 1}

	plan, err := s.SponsorMeal(ctx, req, now, sponsoring.Policy{})
	require.NoError(t, err)
	require.Equal(t, "4.40", plan.TotalCost().String())

	entriesBefore := ledgerCount(t, s)
	var balancesBefore []model.Balance
	for id := 1; id <= 4; id++ {
		b, err := s.GetBalance(ctx, id, 0)
		require.NoError(t, err)
		balancesBefore = append(balancesBefore, b)
	}

	_, err = s.SponsorMeal(ctx, req, now, sponsoring.Policy{})
	require.ErrorIs(t, err, errs.ErrAlreadySponsored)

	require.Equal(t, entriesBefore, ledgerCount(t, s))
	for id := 1; id <= 4; id++ {
		b, err := s.GetBalance(ctx, id, 0)
		require.NoError(t, err)
		require.True(t, b.Breakfast.Equal(balancesBefore[id-1].Breakfast),
			"employee %d breakfast balance changed", id)
		require.True(t, b.Drinks.Equal(balancesBefore[id-1].Drinks),
			"employee %d drinks balance changed", id)
	}
}
