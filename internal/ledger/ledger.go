// Package ledger builds the balance deltas that the storage layer applies.
// Every meaningful event (order create, cancel, sponsoring, retroactive
// adjustment, payment) produces entries carrying a deterministic idempotency
// key; the storage layer enforces at-most-once application per key, so a
// replayed event is a no-op instead of a double deduction.
package ledger

import (
	"fmt"
	"time"

	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/money"
	"github.com/google/uuid"
)

type Category string

const (
	Breakfast Category = "breakfast"
	Drinks    Category = "drinks"
)

// CategoryFor maps an order type to the balance it debits: breakfast and
// lunch share the breakfast ledger, drinks and sweets share the drinks one.
func CategoryFor(t model.OrderType) Category {
	switch t {
	case model.OrderDrinks, model.OrderSweets:
		return Drinks
	default:
		return Breakfast
	}
}

// Entry is one signed balance delta for one employee, scoped to the
// department the order was placed in. Storage resolves whether that hits the
// home balance or a subaccount.
type Entry struct {
	ID             uuid.UUID
	EmployeeID     int
	DepartmentID   int
	Category       Category
	Delta          money.Money
	IdempotencyKey string
	CreatedAt      time.Time
}

func newEntry(employeeID, departmentID int, cat Category, delta money.Money, key string) Entry {
	return Entry{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		DepartmentID:   departmentID,
		Category:       cat,
		Delta:          delta.Round(),
		IdempotencyKey: key,
		CreatedAt:      time.Now().UTC(),
	}
}

func CreateKey(orderID int64) string {
	return fmt.Sprintf("order:%d:create", orderID)
}

func CancelKey(orderID int64) string {
	return fmt.Sprintf("order:%d:cancel", orderID)
}

// AdjustKey identifies one retroactive price adjustment of one order. The
// price version (the inserted lunch_prices row id) is part of the key, so a
// replayed admin request no-ops while a genuine later adjustment applies even
// when it oscillates back to an earlier price value.
func AdjustKey(orderID, priceVersion int64) string {
	return fmt.Sprintf("order:%d:adjust:%d", orderID, priceVersion)
}

func SponsorCreditKey(orderID int64, meal model.MealType) string {
	return fmt.Sprintf("sponsor:%s:order:%d", meal, orderID)
}

func SponsorDebitKey(departmentID int, date time.Time, meal model.MealType) string {
	return fmt.Sprintf("sponsor:%s:dept:%d:%s", meal, departmentID, date.Format("2006-01-02"))
}

func PaymentKey(paymentID uuid.UUID) string {
	return fmt.Sprintf("payment:%s", paymentID)
}

// ForCreate debits the order's full price from the employee's balance.
func ForCreate(o model.Order) Entry {
	return newEntry(o.EmployeeID, o.DepartmentID, CategoryFor(o.Type),
		o.TotalPrice.Neg(), CreateKey(o.ID))
}

// ForCancel credits back exactly the stored total, never a recomputed one,
// so a price change between order and cancellation cannot skew the balance.
func ForCancel(o model.Order) Entry {
	return newEntry(o.EmployeeID, o.DepartmentID, CategoryFor(o.Type),
		o.TotalPrice, CancelKey(o.ID))
}

// ForAdjustment credits the employee with the price drop (or debits the
// increase) after a retroactive lunch price change: delta = old - new.
func ForAdjustment(o model.Order, newPrice money.Money, priceVersion int64) Entry {
	delta := o.LunchPrice.Sub(newPrice)
	return newEntry(o.EmployeeID, o.DepartmentID, CategoryFor(o.Type),
		delta, AdjustKey(o.ID, priceVersion))
}

// ForSponsorCredit credits one sponsored employee with the portion absorbed
// by the sponsor.
func ForSponsorCredit(o model.Order, portion money.Money, meal model.MealType) Entry {
	return newEntry(o.EmployeeID, o.DepartmentID, CategoryFor(o.Type),
		portion, SponsorCreditKey(o.ID, meal))
}

// ForSponsorDebit charges the sponsor with the aggregate cost.
func ForSponsorDebit(sponsorID, departmentID int, date time.Time, meal model.MealType, total money.Money) Entry {
	return newEntry(sponsorID, departmentID, Breakfast,
		total.Neg(), SponsorDebitKey(departmentID, date, meal))
}

// ForPayment credits a manual deposit or correction.
func ForPayment(p model.Payment, homeDepartmentID int) Entry {
	cat := Breakfast
	if p.Category == string(Drinks) {
		cat = Drinks
	}
	return newEntry(p.EmployeeID, homeDepartmentID, cat, p.Amount, PaymentKey(p.ID))
}
