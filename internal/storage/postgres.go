package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/ledger"
	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/money"
	"github.com/feuerwache/kantine/internal/pricing"
	"github.com/feuerwache/kantine/internal/sponsoring"
	"github.com/feuerwache/kantine/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type PostgresStorage struct {
	db     *pgxpool.Pool
	pricer *pricing.Engine
	logger *zap.SugaredLogger
}

func (store *PostgresStorage) initSchema(ctx context.Context) error {
	const initSchemaQuery = `
	CREATE TABLE IF NOT EXISTS departments (
		id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS admins (
		id SERIAL PRIMARY KEY,
		login TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS employees (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		department_id INT NOT NULL REFERENCES departments(id),
		breakfast_balance NUMERIC(10,2) NOT NULL DEFAULT 0,
		drinks_balance NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS subaccounts (
		employee_id INT NOT NULL REFERENCES employees(id),
		department_id INT NOT NULL REFERENCES departments(id),
		breakfast_balance NUMERIC(10,2) NOT NULL DEFAULT 0,
		drinks_balance NUMERIC(10,2) NOT NULL DEFAULT 0,
		PRIMARY KEY (employee_id, department_id)
	);
	CREATE TABLE IF NOT EXISTS menu_prices (
		department_id INT NOT NULL REFERENCES departments(id),
		item_kind TEXT NOT NULL,
		price NUMERIC(10,2) NOT NULL,
		PRIMARY KEY (department_id, item_kind)
	);
	CREATE TABLE IF NOT EXISTS lunch_prices (
		id SERIAL PRIMARY KEY,
		department_id INT NOT NULL REFERENCES departments(id),
		price NUMERIC(10,2) NOT NULL,
		effective_date DATE NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		employee_id INT NOT NULL REFERENCES employees(id),
		department_id INT NOT NULL REFERENCES departments(id),
		order_type TEXT NOT NULL,
		total_halves INT NOT NULL DEFAULT 0,
		white_halves INT NOT NULL DEFAULT 0,
		seeded_halves INT NOT NULL DEFAULT 0,
		toppings TEXT[] NOT NULL DEFAULT '{}',
		eggs INT NOT NULL DEFAULT 0,
		has_coffee BOOLEAN NOT NULL DEFAULT FALSE,
		has_lunch BOOLEAN NOT NULL DEFAULT FALSE,
		roll_cost NUMERIC(10,2) NOT NULL DEFAULT 0,
		egg_cost NUMERIC(10,2) NOT NULL DEFAULT 0,
		coffee_cost NUMERIC(10,2) NOT NULL DEFAULT 0,
		lunch_price NUMERIC(10,2) NOT NULL DEFAULT 0,
		total_price NUMERIC(10,2) NOT NULL DEFAULT 0,
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		is_sponsor_order BOOLEAN NOT NULL DEFAULT FALSE,
		is_sponsored BOOLEAN NOT NULL DEFAULT FALSE,
		sponsored_meal_type TEXT NOT NULL DEFAULT '',
		sponsor_employee_id INT REFERENCES employees(id),
		sponsor_employee_count INT NOT NULL DEFAULT 0,
		sponsor_total_cost NUMERIC(10,2) NOT NULL DEFAULT 0,
		order_date DATE NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS uq_sponsor_per_meal_day
		ON orders (department_id, order_date, sponsored_meal_type)
		WHERE is_sponsor_order;
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id UUID PRIMARY KEY,
		employee_id INT NOT NULL REFERENCES employees(id),
		department_id INT NOT NULL REFERENCES departments(id),
		category TEXT NOT NULL,
		delta NUMERIC(10,2) NOT NULL,
		idempotency_key TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		employee_id INT NOT NULL REFERENCES employees(id),
		category TEXT NOT NULL,
		amount NUMERIC(10,2) NOT NULL,
		method TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);`

	_, err := store.db.Exec(ctx, initSchemaQuery)
	return err
}

func NewPostgresStorage(ctx context.Context, databaseURI string, logger *zap.SugaredLogger) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, err
	}

	storage := &PostgresStorage{db: db, logger: logger}
	storage.pricer = pricing.New(storage)

	if err := storage.Ping(ctx); err != nil {
		return nil, err
	}

	if err := storage.initSchema(ctx); err != nil {
		return nil, err
	}

	return storage, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

func (store *PostgresStorage) CreateAdmin(ctx context.Context, login, passwordHash string) error {
	const insertAdminQuery = `INSERT INTO admins (login, password_hash) VALUES ($1, $2)`

	_, err := store.db.Exec(ctx, insertAdminQuery, login, passwordHash)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == uniqueViolation {
			return errs.ErrLoginAlreadyExists
		}
		return err
	}

	return nil
}

func (s *PostgresStorage) GetAdminByLogin(ctx context.Context, login string) (model.Admin, string, error) {
	const query = `SELECT id, login, password_hash FROM admins WHERE login = $1`

	var admin model.Admin
	var hash string

	err := s.db.QueryRow(ctx, query, login).Scan(&admin.ID, &admin.Login, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Admin{}, "", errs.ErrAdminNotFound
		}
		return model.Admin{}, "", fmt.Errorf("get admin by login: %w", err)
	}

	return admin, hash, nil
}

func (s *PostgresStorage) GetAdminByID(ctx context.Context, id int) (model.Admin, error) {
	const query = `SELECT id, login FROM admins WHERE id = $1`

	var admin model.Admin

	err := s.db.QueryRow(ctx, query, id).Scan(&admin.ID, &admin.Login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Admin{}, errs.ErrAdminNotFound
		}
		return model.Admin{}, fmt.Errorf("get admin by id: %w", err)
	}

	return admin, nil
}

func (s *PostgresStorage) GetEmployee(ctx context.Context, id int) (model.Employee, error) {
	const query = `SELECT id, name, department_id FROM employees WHERE id = $1`

	var e model.Employee
	err := s.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Employee{}, errs.ErrEmployeeNotFound
		}
		return model.Employee{}, fmt.Errorf("get employee: %w", err)
	}

	return e, nil
}

// GetBalance returns the employee's balances for the given department: the
// home columns when departmentID is zero or the home department, the
// subaccount row otherwise. Non-finite stored values are sanitized to zero
// in place and logged; they never reach the caller.
func (s *PostgresStorage) GetBalance(ctx context.Context, employeeID, departmentID int) (model.Balance, error) {
	employee, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return model.Balance{}, err
	}

	if departmentID == 0 || departmentID == employee.DepartmentID {
		const query = `SELECT breakfast_balance, drinks_balance FROM employees WHERE id = $1`

		var b model.Balance
		if err := s.db.QueryRow(ctx, query, employeeID).Scan(&b.Breakfast, &b.Drinks); err != nil {
			return model.Balance{}, fmt.Errorf("get balance: %w", err)
		}
		return s.sanitizeBalance(ctx, employeeID, 0, b)
	}

	const query = `
		SELECT breakfast_balance, drinks_balance
		FROM subaccounts
		WHERE employee_id = $1 AND department_id = $2`

	var b model.Balance
	err = s.db.QueryRow(ctx, query, employeeID, departmentID).Scan(&b.Breakfast, &b.Drinks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Balance{Breakfast: money.Zero(), Drinks: money.Zero()}, nil
		}
		return model.Balance{}, fmt.Errorf("get subaccount balance: %w", err)
	}
	return s.sanitizeBalance(ctx, employeeID, departmentID, b)
}

// corruptedColumns lists the balance columns whose stored value was
// non-finite. Only these are repaired; the other column keeps its value.
func corruptedColumns(b model.Balance) []string {
	var cols []string
	if b.Breakfast.Corrupted() {
		cols = append(cols, "breakfast_balance")
	}
	if b.Drinks.Corrupted() {
		cols = append(cols, "drinks_balance")
	}
	return cols
}

func sanitizeSetClause(cols []string) string {
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = c + " = 0"
	}
	return strings.Join(set, ", ")
}

func (s *PostgresStorage) sanitizeBalance(ctx context.Context, employeeID, departmentID int, b model.Balance) (model.Balance, error) {
	cols := corruptedColumns(b)
	if len(cols) == 0 {
		return b, nil
	}

	s.logger.Warnw("sanitizing corrupted balance",
		"employee_id", employeeID, "department_id", departmentID, "columns", cols)

	var query string
	args := []any{employeeID}
	if departmentID == 0 {
		query = fmt.Sprintf(`UPDATE employees SET %s WHERE id = $1`, sanitizeSetClause(cols))
	} else {
		query = fmt.Sprintf(`UPDATE subaccounts SET %s
			WHERE employee_id = $1 AND department_id = $2`, sanitizeSetClause(cols))
		args = append(args, departmentID)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return model.Balance{}, fmt.Errorf("sanitize balance: %w", err)
	}

	if b.Breakfast.Corrupted() {
		b.Breakfast = money.Zero()
	}
	if b.Drinks.Corrupted() {
		b.Drinks = money.Zero()
	}
	return b, nil
}

// Price implements pricing.PriceStore against the department's menu.
func (s *PostgresStorage) Price(ctx context.Context, departmentID int, kind pricing.ItemKind) (money.Money, error) {
	const query = `SELECT price FROM menu_prices WHERE department_id = $1 AND item_kind = $2`

	var price money.Money
	err := s.db.QueryRow(ctx, query, departmentID, string(kind)).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return money.Zero(), fmt.Errorf("%w: no %s price for department %d", errs.ErrInvalidOrder, kind, departmentID)
		}
		return money.Zero(), fmt.Errorf("get price: %w", err)
	}

	return price, nil
}

// CurrentLunchPrice returns the newest versioned lunch price row for the
// department. Orders snapshot this value; history is never rewritten.
func (s *PostgresStorage) CurrentLunchPrice(ctx context.Context, departmentID int) (money.Money, error) {
	const query = `
		SELECT price FROM lunch_prices
		WHERE department_id = $1
		ORDER BY effective_date DESC, id DESC
		LIMIT 1`

	var price money.Money
	err := s.db.QueryRow(ctx, query, departmentID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return money.Zero(), fmt.Errorf("%w: no lunch price for department %d", errs.ErrInvalidOrder, departmentID)
		}
		return money.Zero(), fmt.Errorf("get lunch price: %w", err)
	}

	return price, nil
}

// CreateOrder prices the request against the order's department, stores the
// order with its cost breakdown snapshot, and applies the single create
// debit to the employee's balance, all in one transaction.
func (s *PostgresStorage) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error) {
	switch req.Type {
	case model.OrderBreakfast, model.OrderLunch, model.OrderDrinks, model.OrderSweets:
	default:
		return model.Order{}, fmt.Errorf("%w: unknown order type %q", errs.ErrInvalidOrder, req.Type)
	}

	total, breakdown, err := s.pricer.PriceOrder(ctx, req.DepartmentID, pricing.Items{
		TotalHalves:  req.TotalHalves,
		WhiteHalves:  req.WhiteHalves,
		SeededHalves: req.SeededHalves,
		Toppings:     req.Toppings,
		Eggs:         req.Eggs,
		HasCoffee:    req.HasCoffee,
		HasLunch:     req.HasLunch,
	})
	if err != nil {
		return model.Order{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockEmployee(ctx, tx, req.EmployeeID); err != nil {
		return model.Order{}, err
	}

	if req.Toppings == nil {
		req.Toppings = []string{}
	}

	order := model.Order{
		EmployeeID:   req.EmployeeID,
		DepartmentID: req.DepartmentID,
		Type:         req.Type,
		TotalHalves:  req.TotalHalves,
		WhiteHalves:  req.WhiteHalves,
		SeededHalves: req.SeededHalves,
		Toppings:     req.Toppings,
		Eggs:         req.Eggs,
		HasCoffee:    req.HasCoffee,
		HasLunch:     req.HasLunch,
		RollCost:     breakdown.RollCost,
		EggCost:      breakdown.EggCost,
		CoffeeCost:   breakdown.CoffeeCost,
		LunchPrice:   breakdown.LunchPrice,
		TotalPrice:   total,
		OrderDate:    utils.DateOf(time.Now(), utils.Berlin()),
	}

	const insertOrderQuery = `
		INSERT INTO orders (
			employee_id, department_id, order_type,
			total_halves, white_halves, seeded_halves, toppings, eggs,
			has_coffee, has_lunch,
			roll_cost, egg_cost, coffee_cost, lunch_price, total_price,
			order_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, insertOrderQuery,
		order.EmployeeID, order.DepartmentID, string(order.Type),
		order.TotalHalves, order.WhiteHalves, order.SeededHalves, order.Toppings, order.Eggs,
		order.HasCoffee, order.HasLunch,
		order.RollCost, order.EggCost, order.CoffeeCost, order.LunchPrice, order.TotalPrice,
		order.OrderDate,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if _, err := s.applyEntry(ctx, tx, ledger.ForCreate(order)); err != nil {
		return model.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, fmt.Errorf("commit: %w", err)
	}

	return order, nil
}

// CancelOrder credits back exactly the order's current stored total and
// flags it cancelled. Cancelling an already-cancelled order is a no-op: the
// cancel ledger key can only ever apply once.
func (s *PostgresStorage) CancelOrder(ctx context.Context, orderID int64) (model.Order, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if order.IsSponsorOrder {
		return model.Order{}, fmt.Errorf("%w: sponsor transactions are not cancellable", errs.ErrInvalidOrder)
	}
	if order.IsCancelled {
		return order, errs.ErrOrderAlreadyCancelled
	}

	if _, err := lockEmployee(ctx, tx, order.EmployeeID); err != nil {
		return model.Order{}, err
	}

	const cancelQuery = `UPDATE orders SET is_cancelled = TRUE WHERE id = $1`
	if _, err := tx.Exec(ctx, cancelQuery, orderID); err != nil {
		return model.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	if _, err := s.applyEntry(ctx, tx, ledger.ForCancel(order)); err != nil {
		return model.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, fmt.Errorf("commit: %w", err)
	}

	order.IsCancelled = true
	return order, nil
}

// SponsorMeal applies a sponsoring plan atomically: insert the sponsor
// transaction (the partial unique index makes a second attempt for the same
// department/date/meal fail), move each sponsored portion off its order, and
// apply the balanced ledger entries. Any failure rolls everything back.
func (s *PostgresStorage) SponsorMeal(ctx context.Context, req model.SponsorRequest, date time.Time, policy sponsoring.Policy) (sponsoring.Plan, error) {
	if _, err := s.GetEmployee(ctx, req.SponsorEmployeeID); err != nil {
		return sponsoring.Plan{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return sponsoring.Plan{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	orders, err := s.ordersForDay(ctx, tx, req.DepartmentID, date, true)
	if err != nil {
		return sponsoring.Plan{}, err
	}

	plan, err := sponsoring.BuildPlan(req.DepartmentID, date, req.MealType, req.SponsorEmployeeID, orders, policy)
	if err != nil {
		return sponsoring.Plan{}, err
	}

	const insertSponsorQuery = `
		INSERT INTO orders (
			employee_id, department_id, order_type, total_price,
			is_sponsor_order, sponsored_meal_type,
			sponsor_employee_count, sponsor_total_cost, order_date
		) VALUES ($1,$2,$3,$4,TRUE,$5,$6,$7,$8)
		RETURNING id, created_at`

	t := plan.Transaction
	err = tx.QueryRow(ctx, insertSponsorQuery,
		t.EmployeeID, t.DepartmentID, string(t.Type), t.TotalPrice,
		string(t.SponsoredMealType), t.SponsorEmployeeCount, t.SponsorTotalCost, t.OrderDate,
	).Scan(&plan.Transaction.ID, &plan.Transaction.CreatedAt)
	if err != nil {
		if pgErr, ok := asPgError(err); ok && pgErr.Code == uniqueViolation {
			return sponsoring.Plan{}, errs.ErrAlreadySponsored
		}
		return sponsoring.Plan{}, fmt.Errorf("insert sponsor transaction: %w", err)
	}

	const sponsorOrderQuery = `
		UPDATE orders
		SET total_price = total_price - $2,
			is_sponsored = TRUE,
			sponsored_meal_type = $3,
			sponsor_employee_id = $4
		WHERE id = $1`

	for _, so := range plan.Orders {
		_, err := tx.Exec(ctx, sponsorOrderQuery, so.OrderID, so.Portion,
			string(req.MealType), req.SponsorEmployeeID)
		if err != nil {
			return sponsoring.Plan{}, fmt.Errorf("mark order sponsored: %w", err)
		}
	}

	for _, entry := range plan.Entries {
		if _, err := s.applyEntry(ctx, tx, entry); err != nil {
			return sponsoring.Plan{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sponsoring.Plan{}, fmt.Errorf("commit: %w", err)
	}

	return plan, nil
}

// AdjustLunchPrice records a new versioned lunch price and retroactively
// recomputes today's open lunch orders that still carry the old snapshot.
// Orders already sponsored for lunch keep their frozen cost basis. Returns
// the number of orders touched.
func (s *PostgresStorage) AdjustLunchPrice(ctx context.Context, departmentID int, newPrice money.Money, now time.Time) (int, error) {
	newPrice = newPrice.Round()
	if newPrice.IsNegative() {
		return 0, fmt.Errorf("%w: negative lunch price", errs.ErrInvalidOrder)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldPrice money.Money
	hadPrice := true
	const currentQuery = `
		SELECT price FROM lunch_prices
		WHERE department_id = $1
		ORDER BY effective_date DESC, id DESC
		LIMIT 1
		FOR UPDATE`
	if err := tx.QueryRow(ctx, currentQuery, departmentID).Scan(&oldPrice); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("get current lunch price: %w", err)
		}
		hadPrice = false
	}

	today := utils.DateOf(now, utils.Berlin())

	var priceVersion int64
	const insertPriceQuery = `
		INSERT INTO lunch_prices (department_id, price, effective_date)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := tx.QueryRow(ctx, insertPriceQuery, departmentID, newPrice, today).Scan(&priceVersion); err != nil {
		return 0, fmt.Errorf("insert lunch price: %w", err)
	}

	if !hadPrice || oldPrice.Equal(newPrice) {
		return 0, tx.Commit(ctx)
	}

	const affectedQuery = `
		SELECT id, employee_id, department_id, order_type, lunch_price, total_price
		FROM orders
		WHERE department_id = $1
		  AND NOT is_cancelled
		  AND NOT is_sponsor_order
		  AND has_lunch
		  AND NOT (is_sponsored AND sponsored_meal_type = 'lunch')
		  AND lunch_price = $2
		  AND order_date >= $3
		FOR UPDATE`

	rows, err := tx.Query(ctx, affectedQuery, departmentID, oldPrice, today)
	if err != nil {
		return 0, fmt.Errorf("select affected orders: %w", err)
	}

	var affected []model.Order
	for rows.Next() {
		var o model.Order
		var orderType string
		if err := rows.Scan(&o.ID, &o.EmployeeID, &o.DepartmentID, &orderType, &o.LunchPrice, &o.TotalPrice); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan affected order: %w", err)
		}
		o.Type = model.OrderType(orderType)
		affected = append(affected, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row iteration: %w", err)
	}

	const adjustOrderQuery = `
		UPDATE orders
		SET total_price = total_price - $2,
			lunch_price = $3
		WHERE id = $1`

	updated := 0
	for _, o := range affected {
		entry := ledger.ForAdjustment(o, newPrice, priceVersion)
		applied, err := s.applyEntry(ctx, tx, entry)
		if err != nil {
			return 0, err
		}
		if !applied {
			// replayed adjustment, order already rewritten
			continue
		}
		delta := o.LunchPrice.Sub(newPrice)
		if _, err := tx.Exec(ctx, adjustOrderQuery, o.ID, delta, newPrice); err != nil {
			return 0, fmt.Errorf("adjust order: %w", err)
		}
		updated++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return updated, nil
}

// RecordPayment appends to the payment log and credits the balance. The log
// is append-only; corrections are new entries, never edits.
func (s *PostgresStorage) RecordPayment(ctx context.Context, req model.PaymentRequest) (model.Payment, error) {
	if req.Category != string(ledger.Breakfast) && req.Category != string(ledger.Drinks) {
		return model.Payment{}, fmt.Errorf("%w: unknown category %q", errs.ErrInvalidOrder, req.Category)
	}

	payment := model.Payment{
		ID:         uuid.New(),
		EmployeeID: req.EmployeeID,
		Category:   req.Category,
		Amount:     req.Amount.Round(),
		Method:     req.Method,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.Payment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	homeDept, err := lockEmployee(ctx, tx, req.EmployeeID)
	if err != nil {
		return model.Payment{}, err
	}

	const insertPaymentQuery = `
		INSERT INTO payments (id, employee_id, category, amount, method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err = tx.QueryRow(ctx, insertPaymentQuery,
		payment.ID, payment.EmployeeID, payment.Category, payment.Amount, payment.Method,
	).Scan(&payment.CreatedAt)
	if err != nil {
		return model.Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	if _, err := s.applyEntry(ctx, tx, ledger.ForPayment(payment, homeDept)); err != nil {
		return model.Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Payment{}, fmt.Errorf("commit: %w", err)
	}

	return payment, nil
}

// OrdersForDay returns all of a department's orders for the Berlin calendar
// day containing t, sponsor transactions and cancelled orders included; the
// report layer decides what counts.
func (s *PostgresStorage) OrdersForDay(ctx context.Context, departmentID int, t time.Time) ([]model.Order, error) {
	return s.ordersForDay(ctx, s.db, departmentID, t, false)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresStorage) ordersForDay(ctx context.Context, q querier, departmentID int, t time.Time, forUpdate bool) ([]model.Order, error) {
	day := utils.DateOf(t, utils.Berlin())

	query := `
		SELECT id, employee_id, department_id, order_type,
			total_halves, white_halves, seeded_halves, toppings, eggs,
			has_coffee, has_lunch,
			roll_cost, egg_cost, coffee_cost, lunch_price, total_price,
			is_cancelled, is_sponsor_order, is_sponsored, sponsored_meal_type,
			sponsor_employee_id, sponsor_employee_count, sponsor_total_cost,
			order_date, created_at
		FROM orders
		WHERE department_id = $1 AND order_date = $2
		ORDER BY id`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, departmentID, day)
	if err != nil {
		return nil, fmt.Errorf("get orders for day: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var orderType, mealType string
		err := rows.Scan(&o.ID, &o.EmployeeID, &o.DepartmentID, &orderType,
			&o.TotalHalves, &o.WhiteHalves, &o.SeededHalves, &o.Toppings, &o.Eggs,
			&o.HasCoffee, &o.HasLunch,
			&o.RollCost, &o.EggCost, &o.CoffeeCost, &o.LunchPrice, &o.TotalPrice,
			&o.IsCancelled, &o.IsSponsorOrder, &o.IsSponsored, &mealType,
			&o.SponsorEmployeeID, &o.SponsorEmployeeCount, &o.SponsorTotalCost,
			&o.OrderDate, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Type = model.OrderType(orderType)
		o.SponsoredMealType = model.MealType(mealType)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return orders, nil
}

func (s *PostgresStorage) getOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID int64) (model.Order, error) {
	const query = `
		SELECT id, employee_id, department_id, order_type, total_price,
			is_cancelled, is_sponsor_order
		FROM orders
		WHERE id = $1
		FOR UPDATE`

	var o model.Order
	var orderType string
	err := tx.QueryRow(ctx, query, orderID).Scan(&o.ID, &o.EmployeeID, &o.DepartmentID,
		&orderType, &o.TotalPrice, &o.IsCancelled, &o.IsSponsorOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, errs.ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Type = model.OrderType(orderType)

	return o, nil
}

// lockEmployee serializes ledger mutations per employee and returns the home
// department id.
func lockEmployee(ctx context.Context, tx pgx.Tx, employeeID int) (int, error) {
	const query = `SELECT department_id FROM employees WHERE id = $1 FOR UPDATE`

	var departmentID int
	if err := tx.QueryRow(ctx, query, employeeID).Scan(&departmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrEmployeeNotFound
		}
		return 0, fmt.Errorf("lock employee: %w", err)
	}

	return departmentID, nil
}

// applyEntry inserts the ledger row and increments the matching balance.
// The unique idempotency key turns a replayed event into a no-op: the row
// insert is skipped and so is the balance update. Returns whether the entry
// was applied.
func (s *PostgresStorage) applyEntry(ctx context.Context, tx pgx.Tx, e ledger.Entry) (bool, error) {
	const insertEntryQuery = `
		INSERT INTO ledger_entries (id, employee_id, department_id, category, delta, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING`

	cmdTag, err := tx.Exec(ctx, insertEntryQuery,
		e.ID, e.EmployeeID, e.DepartmentID, string(e.Category), e.Delta, e.IdempotencyKey)
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		s.logger.Infow("duplicate ledger event skipped", "idempotency_key", e.IdempotencyKey)
		return false, nil
	}

	var homeDept int
	const homeQuery = `SELECT department_id FROM employees WHERE id = $1`
	if err := tx.QueryRow(ctx, homeQuery, e.EmployeeID).Scan(&homeDept); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, errs.ErrEmployeeNotFound
		}
		return false, fmt.Errorf("get employee department: %w", err)
	}

	column := "breakfast_balance"
	if e.Category == ledger.Drinks {
		column = "drinks_balance"
	}

	if e.DepartmentID == homeDept {
		query := fmt.Sprintf(`UPDATE employees SET %s = %s + $2 WHERE id = $1`, column, column)
		if _, err := tx.Exec(ctx, query, e.EmployeeID, e.Delta); err != nil {
			return false, fmt.Errorf("update balance: %w", err)
		}
		return true, nil
	}

	// guest order: the delta lands on the per-department subaccount
	query := fmt.Sprintf(`
		INSERT INTO subaccounts (employee_id, department_id, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, department_id)
		DO UPDATE SET %s = subaccounts.%s + $3`, column, column, column)
	if _, err := tx.Exec(ctx, query, e.EmployeeID, e.DepartmentID, e.Delta); err != nil {
		return false, fmt.Errorf("update subaccount balance: %w", err)
	}
	return true, nil
}

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
