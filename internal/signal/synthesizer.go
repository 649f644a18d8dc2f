// Package signal turns evaluator output into persistable trade
// signals: blended confidence, price targets, and a leverage choice.
package signal

import (
	"math"

	"github.com/shopspring/decimal"

	"signalbot/internal/backtest"
	"signalbot/internal/evaluator"
	"signalbot/pkg/db"
)

// Synthesizer builds unsaved signals from evaluations. The calibration
// table is captured at construction; the synthesizer itself is
// stateless and safe for concurrent use.
type Synthesizer struct {
	calibration backtest.Calibration
}

// NewSynthesizer captures the startup calibration.
func NewSynthesizer(cal backtest.Calibration) *Synthesizer {
	return &Synthesizer{calibration: cal}
}

// Request carries everything one synthesis needs. Strategy is optional;
// without one the calibration band stands in for the win-rate blend.
type Request struct {
	Pair        string
	Price       float64
	Evaluation  evaluator.Evaluation
	Strategy    *db.Strategy
	MaxLeverage int // user's global cap from settings
}

// Synthesize produces an unsaved signal: id, userId and createdAt are
// the caller's concern.
func (s *Synthesizer) Synthesize(req Request) db.Signal {
	eval := req.Evaluation

	// Confidence blends the evaluation with a historical win rate:
	// the owning strategy's when one is selected, otherwise the
	// calibration band matching the evaluation tier.
	winRate := s.calibration.Band(eval)
	if req.Strategy != nil {
		winRate = req.Strategy.WinRate
	}
	confidence := int(math.Round(float64(eval.Confidence+winRate) / 2))

	entry := decimal.NewFromFloat(req.Price)

	// Higher confidence pushes the target further out; the stop stays
	// a flat 3% adverse move.
	tpMove := decimal.NewFromFloat(float64(confidence) / 100 * 0.08)
	slMove := decimal.NewFromFloat(0.03)
	one := decimal.NewFromInt(1)

	var tp, sl decimal.Decimal
	if eval.Direction == evaluator.Long {
		tp = entry.Mul(one.Add(tpMove))
		sl = entry.Mul(one.Sub(slMove))
	} else {
		tp = entry.Mul(one.Sub(tpMove))
		sl = entry.Mul(one.Add(slMove))
	}

	var strategyID *string
	if req.Strategy != nil {
		id := req.Strategy.ID
		strategyID = &id
	}

	return db.Signal{
		StrategyID: strategyID,
		Pair:       req.Pair,
		Type:       string(eval.Direction),
		Entry:      entry.StringFixed(2),
		TP:         tp.StringFixed(2),
		SL:         sl.StringFixed(2),
		Confidence: confidence,
		Leverage:   s.leverage(confidence, req.Strategy, req.MaxLeverage),
		Status:     db.SignalActive,
	}
}

// leverage maps confidence onto a leverage choice. Without a strategy
// it is a flat linear map from confidence; with one, the strategy's
// own [min,max] band is interpolated by the confidence ratio. Either
// way the user's global cap wins.
func (s *Synthesizer) leverage(confidence int, strategy *db.Strategy, maxLeverage int) int {
	if maxLeverage < 1 {
		maxLeverage = 1
	}

	var lev int
	if strategy == nil {
		lev = int(math.Round(1 + float64(confidence-50)*0.18))
	} else {
		ratio := float64(confidence-50) / 30
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		band := strategy.MaxLeverage - strategy.MinLeverage
		lev = strategy.MinLeverage + int(math.Round(ratio*float64(band)))
	}

	if lev < 1 {
		lev = 1
	}
	if lev > maxLeverage {
		lev = maxLeverage
	}
	return lev
}
