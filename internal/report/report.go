// Package report builds the daily per-department summary as a read-only
// view over the day's orders. Sponsor transactions contribute the sponsoring
// descriptors on the sponsoring employee's row; their own totals are never
// added into the headline amount.
package report

import (
	"sort"
	"time"

	"github.com/feuerwache/kantine/internal/model"
	"github.com/feuerwache/kantine/internal/money"
)

type SponsoredTotal struct {
	Count  int         `json:"count"`
	Amount money.Money `json:"amount"`
}

type EmployeeSummary struct {
	EmployeeID         int             `json:"employee_id"`
	OrderCount         int             `json:"order_count"`
	Amount             money.Money     `json:"amount"`
	SponsoredBreakfast *SponsoredTotal `json:"sponsored_breakfast,omitempty"`
	SponsoredLunch     *SponsoredTotal `json:"sponsored_lunch,omitempty"`
}

type DailySummary struct {
	DepartmentID int               `json:"department_id"`
	Date         string            `json:"date"`
	TotalOrders  int               `json:"total_orders"`
	TotalAmount  money.Money       `json:"total_amount"`
	Sponsored    money.Money       `json:"sponsored_amount"`
	Employees    []EmployeeSummary `json:"employees"`
}

// BuildDailySummary aggregates one department/date. TotalAmount sums the
// current total_price of non-sponsor, non-cancelled orders, which after
// sponsoring is each order's remaining liability. Sponsoring descriptors are
// attached to the sponsoring employee, read off the sponsor transactions
// where that employee is the owner; never the inverse direction.
func BuildDailySummary(departmentID int, date time.Time, orders []model.Order) DailySummary {
	summary := DailySummary{
		DepartmentID: departmentID,
		Date:         date.Format("2006-01-02"),
		TotalAmount:  money.Zero(),
		Sponsored:    money.Zero(),
	}

	byEmployee := map[int]*EmployeeSummary{}
	row := func(employeeID int) *EmployeeSummary {
		if e, ok := byEmployee[employeeID]; ok {
			return e
		}
		e := &EmployeeSummary{EmployeeID: employeeID, Amount: money.Zero()}
		byEmployee[employeeID] = e
		return e
	}

	for _, o := range orders {
		if o.IsCancelled {
			continue
		}

		if o.IsSponsorOrder {
			st := &SponsoredTotal{Count: o.SponsorEmployeeCount, Amount: o.SponsorTotalCost}
			e := row(o.EmployeeID)
			switch o.SponsoredMealType {
			case model.MealLunch:
				e.SponsoredLunch = st
			default:
				e.SponsoredBreakfast = st
			}
			summary.Sponsored = summary.Sponsored.Add(o.SponsorTotalCost).Round()
			continue
		}

		summary.TotalOrders++
		summary.TotalAmount = summary.TotalAmount.Add(o.TotalPrice).Round()

		e := row(o.EmployeeID)
		e.OrderCount++
		e.Amount = e.Amount.Add(o.TotalPrice).Round()
	}

	for _, e := range byEmployee {
		summary.Employees = append(summary.Employees, *e)
	}
	sort.Slice(summary.Employees, func(i, j int) bool {
		return summary.Employees[i].EmployeeID < summary.Employees[j].EmployeeID
	})

	return summary
}
