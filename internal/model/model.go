package model

import (
	"time"

	"github.com/feuerwache/kantine/internal/money"
	"github.com/google/uuid"
)

type OrderType string

const (
	OrderBreakfast OrderType = "breakfast"
	OrderLunch     OrderType = "lunch"
	OrderDrinks    OrderType = "drinks"
	OrderSweets    OrderType = "sweets"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
)

type Employee struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DepartmentID int    `json:"department_id"`
}

// Balance is one employee's pair of meal-category balances. Negative means
// the employee owes money, positive is prepaid credit.
type Balance struct {
	Breakfast money.Money `json:"breakfast"`
	Drinks    money.Money `json:"drinks"`
}

type Order struct {
	ID           int64     `json:"id"`
	EmployeeID   int       `json:"employee_id"`
	DepartmentID int       `json:"department_id"`
	Type         OrderType `json:"type"`

	TotalHalves  int      `json:"total_halves"`
	WhiteHalves  int      `json:"white_halves"`
	SeededHalves int      `json:"seeded_halves"`
	Toppings     []string `json:"toppings,omitempty"`
	Eggs         int      `json:"eggs"`
	HasCoffee    bool     `json:"has_coffee"`
	HasLunch     bool     `json:"has_lunch"`

	// Cost breakdown frozen at order time. Sponsoring and retroactive
	// adjustment read these snapshots, never current prices.
	RollCost   money.Money `json:"roll_cost"`
	EggCost    money.Money `json:"egg_cost"`
	CoffeeCost money.Money `json:"coffee_cost"`
	LunchPrice money.Money `json:"lunch_price"`
	TotalPrice money.Money `json:"total_price"`

	IsCancelled bool `json:"is_cancelled"`

	IsSponsorOrder       bool        `json:"is_sponsor_order"`
	IsSponsored          bool        `json:"is_sponsored"`
	SponsoredMealType    MealType    `json:"sponsored_meal_type,omitempty"`
	SponsorEmployeeID    *int        `json:"sponsor_employee_id,omitempty"`
	SponsorEmployeeCount int         `json:"sponsor_employee_count,omitempty"`
	SponsorTotalCost     money.Money `json:"sponsor_total_cost"`

	OrderDate time.Time `json:"order_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Payment is an append-only manual balance adjustment (deposit, correction).
type Payment struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID int         `json:"employee_id"`
	Category   string      `json:"category"`
	Amount     money.Money `json:"amount"`
	Method     string      `json:"method"`
	CreatedAt  time.Time   `json:"created_at"`
}

// LunchPrice is one row of the versioned lunch price history. The current
// price for a department is the newest row; orders keep their own snapshot.
type LunchPrice struct {
	DepartmentID  int         `json:"department_id"`
	Price         money.Money `json:"price"`
	EffectiveDate time.Time   `json:"effective_date"`
}

type Admin struct {
	ID    int
	Login string
}
