package db

import "time"

// User owns a simulated account balance. Balance is the single source of
// truth for account equity; every write to it is paired with a
// balance_history append in the same transaction.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// Strategy is a named signal-generation preset with nominal performance
// metrics. Metrics are overwritten in place by synthetic backtest runs.
type Strategy struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Risk         string  `json:"risk"` // High, Med, Low
	WinRate      int     `json:"winRate"`
	AvgProfit    float64 `json:"avgProfit"`
	Active       bool    `json:"active"`
	TotalTrades  int     `json:"totalTrades"`
	ProfitFactor float64 `json:"profitFactor"`
	MaxDrawdown  float64 `json:"maxDrawdown"`
	MinLeverage  int     `json:"minLeverage"`
	MaxLeverage  int     `json:"maxLeverage"`
}

// Signal lifecycle: active -> completed. Completed is terminal; the
// result, profitLoss and completedAt fields are set together with the
// status flip, never separately.
type Signal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	StrategyID  *string    `json:"strategyId"`
	Pair        string     `json:"pair"`
	Type        string     `json:"type"` // LONG or SHORT
	Entry       string     `json:"entry"`
	TP          string     `json:"tp"`
	SL          string     `json:"sl"`
	Confidence  int        `json:"confidence"`
	Leverage    int        `json:"leverage"`
	Status      string     `json:"status"`
	Result      *string    `json:"result,omitempty"`
	ProfitLoss  *float64   `json:"profitLoss,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Signal lifecycle states.
const (
	SignalActive    = "active"
	SignalCompleted = "completed"
)

// Settings is the one-per-user risk configuration. riskPerTrade,
// maxDailyDrawdown and dailyProfitTarget are percentages of current
// balance, never absolute amounts.
type Settings struct {
	ID                string  `json:"id"`
	UserID            string  `json:"userId"`
	RiskPerTrade      float64 `json:"riskPerTrade"`
	MaxLeverage       int     `json:"maxLeverage"`
	MaxDailyDrawdown  float64 `json:"maxDailyDrawdown"`
	DailyProfitTarget float64 `json:"dailyProfitTarget"`
	CompoundProfits   bool    `json:"compoundProfits"`
	AutoTrading       bool    `json:"autoTrading"`
}

// BalanceSample is one point of the append-only per-user equity series.
type BalanceSample struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Balance   float64   `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

// StrategyUpdate carries a partial strategy mutation; nil fields are
// left untouched.
type StrategyUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Risk        *string  `json:"risk"`
	Active      *bool    `json:"active"`
	WinRate     *int     `json:"winRate"`
	AvgProfit   *float64 `json:"avgProfit"`
	MinLeverage *int     `json:"minLeverage"`
	MaxLeverage *int     `json:"maxLeverage"`
}

// SettingsUpdate carries a partial settings mutation; nil fields are
// left untouched.
type SettingsUpdate struct {
	RiskPerTrade      *float64 `json:"riskPerTrade"`
	MaxLeverage       *int     `json:"maxLeverage"`
	MaxDailyDrawdown  *float64 `json:"maxDailyDrawdown"`
	DailyProfitTarget *float64 `json:"dailyProfitTarget"`
	CompoundProfits   *bool    `json:"compoundProfits"`
	AutoTrading       *bool    `json:"autoTrading"`
}

// StrategyMetrics is the backtest result slice written back onto a
// strategy record. Overwrites, never appends.
type StrategyMetrics struct {
	WinRate      int
	ProfitFactor float64
	MaxDrawdown  float64
	AvgProfit    float64
	TotalTrades  int
}
