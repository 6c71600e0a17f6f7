package analyzer

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Valuation is the priced view of one framing of a binary match market.
// Model and Market are both P(asked player wins).
type Valuation struct {
	Model  decimal.Decimal
	Market decimal.Decimal

	Edge          decimal.Decimal // Model - Market
	Side          model.TradeSide
	TradeValue    decimal.Decimal // |Edge|
	ExpectedValue decimal.Decimal // Per unit staked on Side, zero when no side

	deadZone decimal.Decimal
}

// Value prices the framing (m, k). Edges inside ±deadZone get no side.
func Value(m, k, deadZone decimal.Decimal) Valuation {
	v := Valuation{
		Model:    m,
		Market:   k,
		Edge:     m.Sub(k),
		Side:     model.SideNone,
		deadZone: deadZone,
	}
	v.TradeValue = v.Edge.Abs()

	switch {
	case v.Edge.GreaterThan(deadZone):
		v.Side = model.SideYes
		v.ExpectedValue = m.Div(k).Sub(one)
	case v.Edge.LessThan(deadZone.Neg()):
		v.Side = model.SideNo
		v.ExpectedValue = one.Sub(m).Div(one.Sub(k)).Sub(one)
	}
	return v
}

// Flip returns the valuation of the same match asked about the other
// player. Its edge is the exact negation of v's and its trade value and
// expected value are unchanged.
func (v Valuation) Flip() Valuation {
	return Value(one.Sub(v.Model), one.Sub(v.Market), v.deadZone)
}

// MarketProbability derives P(yes) from a listing's quote: the yes mid when
// both sides are quoted, else the last trade, else one minus the no mid.
func MarketProbability(l model.Listing) (decimal.Decimal, bool) {
	switch {
	case l.YesBid > 0 && l.YesAsk > 0:
		return centsMid(l.YesBid, l.YesAsk), true
	case l.LastPrice > 0:
		return decimal.NewFromInt(int64(l.LastPrice)).Div(hundred), true
	case l.NoBid > 0 && l.NoAsk > 0:
		return one.Sub(centsMid(l.NoBid, l.NoAsk)), true
	}
	return decimal.Zero, false
}

// centsMid is the midpoint of two cent prices as a probability.
func centsMid(bid, ask int) decimal.Decimal {
	return decimal.NewFromInt(int64(bid + ask)).Div(decimal.NewFromInt(200))
}
