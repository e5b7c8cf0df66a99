// Package sponsoring turns an admin sponsoring action into a balanced set of
// ledger entries: one credit per affected order, one debit for the sponsor,
// plus the sponsor-transaction order that records the action. The entries of
// a plan always sum to exactly zero; money moves, it is never created.
package sponsoring

import (
	"fmt"
	"time"

	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/ledger"
	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/money"
)

// Policy controls what counts toward the sponsored portion. Coffee stays
// with the original employee unless IncludeCoffee is set; the historical
// record was ambiguous on this, so it is a setting, not a constant.
type Policy struct {
	IncludeCoffee bool
}

// SponsoredOrder pairs an affected order with the portion moving to the
// sponsor. Storage subtracts the portion from the order's stored total, so
// the order's current total_price is always the remaining liability.
type SponsoredOrder struct {
	OrderID int64
	Portion money.Money
}

type Plan struct {
	Orders      []SponsoredOrder
	Entries     []ledger.Entry
	Transaction model.Order
}

// TotalCost is the aggregate amount the sponsor absorbs.
func (p Plan) TotalCost() money.Money {
	return p.Transaction.SponsorTotalCost
}

// BuildPlan selects the orders affected by sponsoring the given meal for a
// department and date, and produces the ledger entries plus the sponsor
// transaction. Cancelled orders, sponsor transactions themselves, and orders
// already sponsored for this meal are skipped. A sponsor transaction for this
// meal already present among the day's orders fails the plan outright;
// concurrent attempts are additionally fenced by storage's unique index.
func BuildPlan(departmentID int, date time.Time, meal model.MealType, sponsorID int, orders []model.Order, policy Policy) (Plan, error) {
	for _, o := range orders {
		if o.IsSponsorOrder && o.SponsoredMealType == meal {
			return Plan{}, errs.ErrAlreadySponsored
		}
	}

	var plan Plan
	total := money.Zero()
	employees := map[int]struct{}{}

	for _, o := range orders {
		if o.IsCancelled || o.IsSponsorOrder {
			continue
		}
		if o.IsSponsored && o.SponsoredMealType == meal {
			continue
		}
		portion := sponsoredPortion(o, meal, policy)
		if portion.IsZero() {
			continue
		}

		plan.Orders = append(plan.Orders, SponsoredOrder{OrderID: o.ID, Portion: portion})
		plan.Entries = append(plan.Entries, ledger.ForSponsorCredit(o, portion, meal))
		total = total.Add(portion)
		employees[o.EmployeeID] = struct{}{}
	}

	if len(plan.Orders) == 0 {
		return Plan{}, errs.ErrNothingToSponsor
	}

	total = total.Round()
	plan.Entries = append(plan.Entries, ledger.ForSponsorDebit(sponsorID, departmentID, date, meal, total))

	plan.Transaction = model.Order{
		EmployeeID:           sponsorID,
		DepartmentID:         departmentID,
		Type:                 orderTypeFor(meal),
		TotalPrice:           total,
		IsSponsorOrder:       true,
		SponsoredMealType:    meal,
		SponsorEmployeeCount: len(employees),
		SponsorTotalCost:     total,
		OrderDate:            date,
	}

	if err := verifyBalanced(plan.Entries); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// sponsoredPortion is the part of an order's cost the sponsor absorbs.
// Breakfast: rolls and eggs from the stored breakdown, coffee only per
// policy. Lunch: exactly the lunch price snapshot frozen on the order.
func sponsoredPortion(o model.Order, meal model.MealType, policy Policy) money.Money {
	switch meal {
	case model.MealBreakfast:
		portion := o.RollCost.Add(o.EggCost)
		if policy.IncludeCoffee {
			portion = portion.Add(o.CoffeeCost)
		}
		return portion.Round()
	case model.MealLunch:
		if !o.HasLunch {
			return money.Zero()
		}
		return o.LunchPrice.Round()
	default:
		return money.Zero()
	}
}

func orderTypeFor(meal model.MealType) model.OrderType {
	if meal == model.MealLunch {
		return model.OrderLunch
	}
	return model.OrderBreakfast
}

func verifyBalanced(entries []ledger.Entry) error {
	sum := money.Zero()
	for _, e := range entries {
		sum = sum.Add(e.Delta)
	}
	if !sum.IsZero() {
		return fmt.Errorf("sponsor plan not balanced: residual %s", sum)
	}
	return nil
}
