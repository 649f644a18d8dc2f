package signal

import (
	"testing"

	"signalbot/internal/backtest"
	"signalbot/internal/evaluator"
	"signalbot/pkg/db"
)

func testSynthesizer() *Synthesizer {
	return NewSynthesizer(backtest.Calibration{
		StrongLong: 72, StrongShort: 71, MildLong: 62, MildShort: 61, Conflicting: 55,
	})
}

func TestSynthesizeLong(t *testing.T) {
	s := testSynthesizer()
	sig := s.Synthesize(Request{
		Pair:        "BTC/USDT",
		Price:       100,
		Evaluation:  evaluator.Evaluation{Confidence: 76, Direction: evaluator.Long},
		MaxLeverage: 10,
	})

	// (76 + strongLong 72) / 2 = 74
	if sig.Confidence != 74 {
		t.Errorf("confidence = %d, want 74", sig.Confidence)
	}
	if sig.Type != "LONG" || sig.Status != db.SignalActive {
		t.Errorf("type/status = %s/%s", sig.Type, sig.Status)
	}
	if sig.Entry != "100.00" {
		t.Errorf("entry = %s, want 100.00", sig.Entry)
	}
	// TP = 100 * (1 + 0.74*0.08) = 105.92, SL = 97.00
	if sig.TP != "105.92" {
		t.Errorf("tp = %s, want 105.92", sig.TP)
	}
	if sig.SL != "97.00" {
		t.Errorf("sl = %s, want 97.00", sig.SL)
	}
	// round(1 + 24*0.18) = round(5.32) = 5
	if sig.Leverage != 5 {
		t.Errorf("leverage = %d, want 5", sig.Leverage)
	}
	if sig.StrategyID != nil {
		t.Errorf("strategyID = %v, want nil", sig.StrategyID)
	}
}

func TestSynthesizeShortInvertsTargets(t *testing.T) {
	s := testSynthesizer()
	sig := s.Synthesize(Request{
		Pair:        "ETH/USDT",
		Price:       200,
		Evaluation:  evaluator.Evaluation{Confidence: 70, Direction: evaluator.Short},
		MaxLeverage: 10,
	})

	if sig.Type != "SHORT" {
		t.Fatalf("type = %s, want SHORT", sig.Type)
	}
	// SHORT: TP below entry, SL above. conf = (70+61)/2 = 66 (mildShort band).
	if sig.Confidence != 66 {
		t.Errorf("confidence = %d, want 66", sig.Confidence)
	}
	if sig.TP != "189.44" { // 200 * (1 - 0.66*0.08)
		t.Errorf("tp = %s, want 189.44", sig.TP)
	}
	if sig.SL != "206.00" {
		t.Errorf("sl = %s, want 206.00", sig.SL)
	}
}

func TestSynthesizeWithStrategy(t *testing.T) {
	s := testSynthesizer()
	strategy := &db.Strategy{
		ID: "st1", WinRate: 84, MinLeverage: 2, MaxLeverage: 8,
	}
	sig := s.Synthesize(Request{
		Pair:        "BTC/USDT",
		Price:       100,
		Evaluation:  evaluator.Evaluation{Confidence: 76, Direction: evaluator.Long},
		Strategy:    strategy,
		MaxLeverage: 10,
	})

	// (76 + 84) / 2 = 80
	if sig.Confidence != 80 {
		t.Errorf("confidence = %d, want 80", sig.Confidence)
	}
	if sig.StrategyID == nil || *sig.StrategyID != "st1" {
		t.Errorf("strategyID = %v, want st1", sig.StrategyID)
	}
	// ratio = (80-50)/30 = 1 -> top of the strategy band.
	if sig.Leverage != 8 {
		t.Errorf("leverage = %d, want 8", sig.Leverage)
	}
}

func TestLeverageRespectsGlobalCap(t *testing.T) {
	s := testSynthesizer()

	sig := s.Synthesize(Request{
		Pair:        "BTC/USDT",
		Price:       100,
		Evaluation:  evaluator.Evaluation{Confidence: 80, Direction: evaluator.Long},
		Strategy:    &db.Strategy{ID: "st1", WinRate: 90, MinLeverage: 5, MaxLeverage: 20},
		MaxLeverage: 3,
	})
	if sig.Leverage != 3 {
		t.Errorf("leverage = %d, want global cap 3", sig.Leverage)
	}

	sig = s.Synthesize(Request{
		Pair:        "BTC/USDT",
		Price:       100,
		Evaluation:  evaluator.Evaluation{Confidence: 55, Direction: evaluator.Long},
		MaxLeverage: 10,
	})
	if sig.Leverage < 1 {
		t.Errorf("leverage = %d, want at least 1", sig.Leverage)
	}
}

func TestNeutralEvaluationStaysConservative(t *testing.T) {
	s := testSynthesizer()
	sig := s.Synthesize(Request{
		Pair:        "SOL/USDT",
		Price:       150,
		Evaluation:  evaluator.Evaluation{Confidence: 55, Direction: evaluator.Long},
		MaxLeverage: 10,
	})

	// (55 + conflicting 55) / 2 = 55; round(1 + 5*0.18) = 2.
	if sig.Confidence != 55 {
		t.Errorf("confidence = %d, want 55", sig.Confidence)
	}
	if sig.Leverage != 2 {
		t.Errorf("leverage = %d, want 2", sig.Leverage)
	}
}
