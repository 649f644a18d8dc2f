package backtest

import (
	"time"

	"signalbot/internal/evaluator"
)

const (
	replayWarmup    = 50 // bars of history before the first evaluation
	entryThreshold  = 61
	maxHoldingDays  = 30
	slBandPercent   = 3.0
	tradeSampleSize = 10
)

type openPosition struct {
	entryIndex int
	entryPrice float64
	direction  evaluator.Direction
	confidence int
}

// Replay walks a daily close series, evaluating the trailing 50-bar
// window at each step. With no position open it enters when confidence
// clears the threshold; an open position closes when the directional
// move crosses the confidence-scaled take-profit band, the fixed
// stop-loss band, or the 30-day holding cap. Position sizing follows
// the live settlement model: balance x riskPerTrade percent, levered.
func Replay(prices []float64, eval evaluator.Evaluator, leverage int, riskPerTrade float64) Result {
	const initialBalance = 100.0
	balance := initialBalance
	peak := initialBalance

	var (
		wins, losses int
		totalWinPct  float64
		totalLossPct float64
		maxDrawdown  float64
		trades       []Trade
		open         *openPosition
	)

	if len(prices) <= replayWarmup {
		return Result{InitialBalance: initialBalance, FinalBalance: initialBalance}
	}

	scale := float64(leverage) / 10
	now := time.Now()
	dateAt := func(i int) string {
		return now.AddDate(0, 0, -(len(prices) - i)).Format("2006-01-02")
	}

	for i := replayWarmup; i < len(prices); i++ {
		current := prices[i]
		start := i - replayWarmup
		if start < 0 {
			start = 0
		}
		window := prices[start : i+1]

		ev := eval.Evaluate(window)

		if open == nil && ev.Confidence > entryThreshold {
			open = &openPosition{
				entryIndex: i,
				entryPrice: current,
				direction:  ev.Direction,
				confidence: ev.Confidence,
			}
		}

		if open == nil {
			continue
		}

		holdingDays := i - open.entryIndex
		tpBand := float64(open.confidence) * 0.08 * scale
		slBand := slBandPercent * scale

		var move float64
		if open.direction == evaluator.Long {
			move = (current - open.entryPrice) / open.entryPrice * 100
		} else {
			move = (open.entryPrice - current) / open.entryPrice * 100
		}

		isWin := move >= tpBand
		isLoss := move <= -slBand || holdingDays >= maxHoldingDays

		if !isWin && !isLoss {
			continue
		}

		var exitPrice, pnlPct float64
		switch {
		case isWin:
			pnlPct = tpBand
		case move <= -slBand:
			pnlPct = -slBand
		default:
			// Holding cap: close at the market.
			pnlPct = move
		}
		if open.direction == evaluator.Long {
			exitPrice = open.entryPrice * (1 + pnlPct/100)
		} else {
			exitPrice = open.entryPrice * (1 - pnlPct/100)
		}

		notional := balance * riskPerTrade / 100 * float64(leverage)
		profitLoss := notional * pnlPct / 100
		balance += profitLoss

		if pnlPct > 0 {
			wins++
			totalWinPct += pnlPct
		} else {
			losses++
			totalLossPct += -pnlPct
		}

		if len(trades) < tradeSampleSize {
			trades = append(trades, Trade{
				EntryDate:     dateAt(open.entryIndex),
				EntryPrice:    open.entryPrice,
				ExitDate:      dateAt(i),
				ExitPrice:     round2(exitPrice),
				Type:          string(open.direction),
				PnlPercentage: round2(pnlPct),
				ProfitLoss:    round2(profitLoss),
			})
		}
		open = nil

		if balance > peak {
			peak = balance
		}
		if dd := (peak - balance) / peak * 100; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	total := wins + losses
	var winRate, avgWin, avgLoss, profitFactor float64
	if total > 0 {
		winRate = round2(float64(wins) / float64(total) * 100)
	}
	if wins > 0 {
		avgWin = totalWinPct / float64(wins)
	}
	if losses > 0 {
		avgLoss = totalLossPct / float64(losses)
	}
	if avgLoss > 0 && losses > 0 {
		profitFactor = round2(avgWin * float64(wins) / (avgLoss * float64(losses)))
	}

	totalProfit := balance - initialBalance
	return Result{
		TotalTrades:       total,
		WinningTrades:     wins,
		LosingTrades:      losses,
		WinRate:           winRate,
		InitialBalance:    initialBalance,
		FinalBalance:      round2(balance),
		TotalProfit:       round2(totalProfit),
		ProfitPercentage:  round2(totalProfit / initialBalance * 100),
		AvgWinPercentage:  round2(avgWin),
		AvgLossPercentage: round2(avgLoss),
		ProfitFactor:      profitFactor,
		MaxDrawdown:       round2(maxDrawdown),
		Trades:            trades,
	}
}
