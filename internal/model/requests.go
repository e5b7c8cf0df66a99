package model

import "github.com/feuerwache/kantine/internal/money"

type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type CreateOrderRequest struct {
	EmployeeID   int       `json:"employee_id"`
	DepartmentID int       `json:"department_id"`
	Type         OrderType `json:"type"`
	TotalHalves  int       `json:"total_halves"`
	WhiteHalves  int       `json:"white_halves"`
	SeededHalves int       `json:"seeded_halves"`
	Toppings     []string  `json:"toppings,omitempty"`
	Eggs         int       `json:"eggs"`
	HasCoffee    bool      `json:"has_coffee"`
	HasLunch     bool      `json:"has_lunch"`
}

type SponsorRequest struct {
	DepartmentID      int      `json:"department_id"`
	Date              string   `json:"date"`
	MealType          MealType `json:"meal_type"`
	SponsorEmployeeID int      `json:"sponsor_employee_id"`
}

type LunchPriceRequest struct {
	DepartmentID int         `json:"department_id"`
	Price        money.Money `json:"price"`
}

type PaymentRequest struct {
	EmployeeID int         `json:"employee_id"`
	Category   string      `json:"category"`
	Amount     money.Money `json:"amount"`
	Method     string      `json:"method"`
}
