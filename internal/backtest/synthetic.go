package backtest

import (
	"math"
	"math/rand"
)

const syntheticTrials = 100

// Result is the aggregate outcome of one simulator run. Replay runs
// additionally carry a Trades sample.
type Result struct {
	TotalTrades       int     `json:"totalTrades"`
	WinningTrades     int     `json:"winningTrades"`
	LosingTrades      int     `json:"losingTrades"`
	WinRate           float64 `json:"winRate"`
	InitialBalance    float64 `json:"initialBalance"`
	FinalBalance      float64 `json:"finalBalance"`
	TotalProfit       float64 `json:"totalProfit"`
	ProfitPercentage  float64 `json:"profitPercentage"`
	AvgWinPercentage  float64 `json:"avgWinPercentage"`
	AvgLossPercentage float64 `json:"avgLossPercentage"`
	ProfitFactor      float64 `json:"profitFactor"`
	MaxDrawdown       float64 `json:"maxDrawdown"`
	Trades            []Trade `json:"trades,omitempty"`
}

// Trade is one sample entry/exit pair from a replay run.
type Trade struct {
	EntryDate     string  `json:"entryDate"`
	EntryPrice    float64 `json:"entryPrice"`
	ExitDate      string  `json:"exitDate"`
	ExitPrice     float64 `json:"exitPrice"`
	Type          string  `json:"type"`
	PnlPercentage float64 `json:"pnlPercentage"`
	ProfitLoss    float64 `json:"profitLoss"`
}

// Synthetic runs 100 Bernoulli trials against a nominal win rate: each
// win compounds the balance up by a uniform [2,3) percent scaled by
// leverage/10, each loss down by a uniform [0.5,1.5) percent on the
// same scale. The rng is injected so runs are reproducible in tests.
func Synthetic(winRate int, leverage int, rng *rand.Rand) Result {
	const initialBalance = 100.0
	balance := initialBalance
	peak := initialBalance

	var (
		wins, losses int
		totalWinPct  float64
		totalLossPct float64
		maxDrawdown  float64
	)

	scale := float64(leverage) / 10

	for i := 0; i < syntheticTrials; i++ {
		if rng.Float64()*100 < float64(winRate) {
			pct := (2 + rng.Float64()) * scale
			balance *= 1 + pct/100
			wins++
			totalWinPct += pct
		} else {
			pct := (0.5 + rng.Float64()) * scale
			balance *= 1 - pct/100
			losses++
			totalLossPct += pct
		}

		if balance > peak {
			peak = balance
		}
		if dd := (peak - balance) / peak * 100; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	var avgWin, avgLoss float64
	if wins > 0 {
		avgWin = totalWinPct / float64(wins)
	}
	if losses > 0 {
		avgLoss = totalLossPct / float64(losses)
	}
	var profitFactor float64
	if avgLoss > 0 && losses > 0 {
		profitFactor = round2(avgWin * float64(wins) / (avgLoss * float64(losses)))
	}

	totalProfit := balance - initialBalance
	return Result{
		TotalTrades:       syntheticTrials,
		WinningTrades:     wins,
		LosingTrades:      losses,
		WinRate:           round2(float64(wins) / syntheticTrials * 100),
		InitialBalance:    initialBalance,
		FinalBalance:      round2(balance),
		TotalProfit:       round2(totalProfit),
		ProfitPercentage:  round2(totalProfit / initialBalance * 100),
		AvgWinPercentage:  round2(avgWin),
		AvgLossPercentage: round2(avgLoss),
		ProfitFactor:      profitFactor,
		MaxDrawdown:       round2(maxDrawdown),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
