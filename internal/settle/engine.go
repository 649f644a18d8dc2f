// Package settle closes active signals against their stored price
// targets and applies the balance delta atomically.
package settle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"signalbot/internal/events"
	"signalbot/pkg/db"
)

var (
	// ErrAlreadySettled rejects a second settlement of a completed
	// signal.
	ErrAlreadySettled = errors.New("signal already settled")
	// ErrInvalidResult rejects outcomes other than tp/sl.
	ErrInvalidResult = errors.New("result must be tp or sl")
)

// Settlement outcomes a caller may report.
const (
	ResultTP = "tp"
	ResultSL = "sl"
)

// Outcome is what a settlement returns to the caller.
type Outcome struct {
	ProfitLoss       float64 `json:"profitLoss"`
	NewBalance       float64 `json:"newBalance"`
	ProfitPercentage float64 `json:"profitPercentage"`
}

// Engine performs settlements. All mutations for one settlement run in
// a single transaction; settlements for the same user additionally
// serialize on a per-user mutex so the balance read-modify-write can
// never interleave.
type Engine struct {
	db    *sql.DB
	locks *userLocks
	bus   *events.Bus
}

// NewEngine wires the settlement engine. bus may be nil in tests.
func NewEngine(database *sql.DB, bus *events.Bus) *Engine {
	return &Engine{db: database, locks: newUserLocks(), bus: bus}
}

// Settle closes a signal with the reported outcome. The exit price is
// the signal's own stored tp/sl level, the position is sized from the
// user's risk-per-trade setting, and the directional percent move on
// the levered notional becomes the balance delta.
func (e *Engine) Settle(ctx context.Context, userID, signalID, result string) (*Outcome, error) {
	if userID == "" {
		return nil, db.ErrUserIDRequired
	}
	if result != ResultTP && result != ResultSL {
		return nil, ErrInvalidResult
	}

	lock := e.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance float64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	var (
		sigType, entryStr, tpStr, slStr, status string
		leverage                                int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT type, entry, tp, sl, leverage, status
		FROM signals WHERE id = ? AND user_id = ?
	`, signalID, userID).Scan(&sigType, &entryStr, &tpStr, &slStr, &leverage, &status)
	if err == sql.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read signal: %w", err)
	}
	if status == db.SignalCompleted {
		return nil, ErrAlreadySettled
	}

	riskPerTrade := 2.0
	err = tx.QueryRowContext(ctx, `SELECT risk_per_trade FROM settings WHERE user_id = ?`, userID).Scan(&riskPerTrade)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	entry, err := strconv.ParseFloat(entryStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse entry %q: %w", entryStr, err)
	}
	exitStr := tpStr
	if result == ResultSL {
		exitStr = slStr
	}
	exit, err := strconv.ParseFloat(exitStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse exit %q: %w", exitStr, err)
	}

	var movePct float64
	if sigType == "LONG" {
		movePct = (exit - entry) / entry * 100
	} else {
		movePct = (entry - exit) / entry * 100
	}

	positionSize := balance * riskPerTrade / 100
	notional := positionSize * float64(leverage)
	profitLoss, _ := decimal.NewFromFloat(notional * movePct / 100).Round(2).Float64()
	newBalance := balance + profitLoss
	now := time.Now()

	if _, err := tx.ExecContext(ctx, `
		UPDATE signals
		SET status = ?, result = ?, profit_loss = ?, completed_at = ?
		WHERE id = ?
	`, db.SignalCompleted, result, profitLoss, now, signalID); err != nil {
		return nil, fmt.Errorf("complete signal: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET balance = ? WHERE id = ?`, newBalance, userID); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO balance_history (id, user_id, balance, timestamp)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), userID, newBalance, now); err != nil {
		return nil, fmt.Errorf("append balance history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		ProfitLoss:       profitLoss,
		NewBalance:       newBalance,
		ProfitPercentage: movePct,
	}

	if e.bus != nil {
		e.bus.Publish(events.Event{Topic: events.TopicSignalSettled, UserID: userID, Payload: map[string]any{
			"signalId": signalID,
			"result":   result,
			"outcome":  outcome,
		}})
		e.bus.Publish(events.Event{Topic: events.TopicBalanceUpdated, UserID: userID, Payload: map[string]any{
			"balance": newBalance,
		}})
	}

	return outcome, nil
}
