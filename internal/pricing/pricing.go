// Package pricing computes order totals from department-scoped prices.
// Prices always come from the order's department, never the employee's home
// department, so guest orders are billed at the serving department's rates.
package pricing

import (
	"context"
	"fmt"

	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/money"
)

type ItemKind string

const (
	RollWhite  ItemKind = "roll_white"
	RollSeeded ItemKind = "roll_seeded"
	Egg        ItemKind = "egg"
	Coffee     ItemKind = "coffee"
)

// PriceStore is the department-scoped price lookup the engine prices against.
type PriceStore interface {
	Price(ctx context.Context, departmentID int, kind ItemKind) (money.Money, error)
	CurrentLunchPrice(ctx context.Context, departmentID int) (money.Money, error)
}

type Items struct {
	TotalHalves  int
	WhiteHalves  int
	SeededHalves int
	Toppings     []string
	Eggs         int
	HasCoffee    bool
	HasLunch     bool
}

// Breakdown is the per-component cost snapshot stored on the order. Later
// sponsoring and retroactive math read these values, not current prices.
type Breakdown struct {
	RollCost   money.Money
	EggCost    money.Money
	CoffeeCost money.Money
	LunchPrice money.Money
}

func (b Breakdown) Total() money.Money {
	return b.RollCost.Add(b.EggCost).Add(b.CoffeeCost).Add(b.LunchPrice).Round()
}

type Engine struct {
	prices PriceStore
}

func New(prices PriceStore) *Engine {
	return &Engine{prices: prices}
}

// PriceOrder validates the line items and returns the total with its
// breakdown. Halves are priced at half the whole-roll price rounded to
// cents, so N halves cost N * round(roll/2). Toppings are free.
func (e *Engine) PriceOrder(ctx context.Context, departmentID int, items Items) (money.Money, Breakdown, error) {
	if err := validate(items); err != nil {
		return money.Zero(), Breakdown{}, err
	}

	var b Breakdown

	if items.WhiteHalves > 0 {
		price, err := e.prices.Price(ctx, departmentID, RollWhite)
		if err != nil {
			return money.Zero(), Breakdown{}, fmt.Errorf("white roll price: %w", err)
		}
		b.RollCost = b.RollCost.Add(price.Half().MulInt(items.WhiteHalves))
	}
	if items.SeededHalves > 0 {
		price, err := e.prices.Price(ctx, departmentID, RollSeeded)
		if err != nil {
			return money.Zero(), Breakdown{}, fmt.Errorf("seeded roll price: %w", err)
		}
		b.RollCost = b.RollCost.Add(price.Half().MulInt(items.SeededHalves))
	}
	if items.Eggs > 0 {
		price, err := e.prices.Price(ctx, departmentID, Egg)
		if err != nil {
			return money.Zero(), Breakdown{}, fmt.Errorf("egg price: %w", err)
		}
		b.EggCost = price.MulInt(items.Eggs).Round()
	}
	if items.HasCoffee {
		price, err := e.prices.Price(ctx, departmentID, Coffee)
		if err != nil {
			return money.Zero(), Breakdown{}, fmt.Errorf("coffee price: %w", err)
		}
		b.CoffeeCost = price.Round()
	}
	if items.HasLunch {
		price, err := e.prices.CurrentLunchPrice(ctx, departmentID)
		if err != nil {
			return money.Zero(), Breakdown{}, fmt.Errorf("lunch price: %w", err)
		}
		b.LunchPrice = price.Round()
	}

	b.RollCost = b.RollCost.Round()
	return b.Total(), b, nil
}

func validate(items Items) error {
	if items.TotalHalves < 0 || items.WhiteHalves < 0 || items.SeededHalves < 0 || items.Eggs < 0 {
		return fmt.Errorf("%w: negative item count", errs.ErrInvalidOrder)
	}
	if items.TotalHalves != items.WhiteHalves+items.SeededHalves {
		return fmt.Errorf("%w: total halves %d != white %d + seeded %d",
			errs.ErrInvalidOrder, items.TotalHalves, items.WhiteHalves, items.SeededHalves)
	}
	return nil
}
