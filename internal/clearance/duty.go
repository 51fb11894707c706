package clearance

import "github.com/shopspring/decimal"

// DutyPolicy prices the customs duty for a container. It is consulted once,
// on the first customs status check.
type DutyPolicy interface {
	Assess(c *Container) decimal.Decimal
}

// WeightBasedDuty estimates cargo value from weight and applies a rate.
// Containers without a known, non-zero weight pay the flat amount.
type WeightBasedDuty struct {
	ValuePerKg decimal.Decimal
	Rate       decimal.Decimal
	Flat       decimal.Decimal
}

func DefaultDutyPolicy() WeightBasedDuty {
	return WeightBasedDuty{
		ValuePerKg: decimal.NewFromInt(100),
		Rate:       decimal.RequireFromString("0.10"),
		Flat:       decimal.RequireFromString("150000.00"),
	}
}

func (p WeightBasedDuty) Assess(c *Container) decimal.Decimal {
	if !c.CargoWeight.Valid || c.CargoWeight.Decimal.IsZero() {
		return p.Flat.Round(2)
	}
	return c.CargoWeight.Decimal.Mul(p.ValuePerKg).Mul(p.Rate).Round(2)
}

type FlatDuty struct {
	Amount decimal.Decimal
}

func (p FlatDuty) Assess(*Container) decimal.Decimal {
	return p.Amount.Round(2)
}

// DutyFunc adapts a plain function to DutyPolicy.
type DutyFunc func(c *Container) decimal.Decimal

func (f DutyFunc) Assess(c *Container) decimal.Decimal {
	return f(c)
}
