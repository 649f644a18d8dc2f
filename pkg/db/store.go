// Package db provides user-isolated persistence for the signal engine.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUserIDRequired = errors.New("user_id is required for data isolation")
	ErrNotFound       = errors.New("record not found")
)

// Store provides user-isolated database queries.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store instance.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the raw handle for components that manage their own
// transactions (settlement).
func (s *Store) DB() *sql.DB {
	return s.db
}

// ----------------------------------------
// User queries
// ----------------------------------------

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password, email, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Password, u.Email, u.Balance, u.CreatedAt)
	return err
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrUserIDRequired
	}
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password, COALESCE(email, ''), balance, created_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.Balance, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername returns a user by username, or nil if absent.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password, COALESCE(email, ''), balance, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.Balance, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by username: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, or nil if absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password, COALESCE(email, ''), balance, created_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.Balance, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return &u, nil
}

// UpdateUserBalance sets the balance and appends a history sample in one
// transaction so the pair can never diverge.
func (s *Store) UpdateUserBalance(ctx context.Context, userID, sampleID string, balance float64) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE users SET balance = ? WHERE id = ?`, balance, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO balance_history (id, user_id, balance, timestamp)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, sampleID, userID, balance); err != nil {
		return fmt.Errorf("append balance history: %w", err)
	}
	return tx.Commit()
}

// ----------------------------------------
// Strategy queries
// ----------------------------------------

// ListStrategies returns all strategies for a user.
func (s *Store) ListStrategies(ctx context.Context, userID string) ([]Strategy, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, risk, win_rate, avg_profit, active,
		       total_trades, profit_factor, max_drawdown, min_leverage, max_leverage
		FROM strategies
		WHERE user_id = ?
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query strategies: %w", err)
	}
	defer rows.Close()

	var out []Strategy
	for rows.Next() {
		var st Strategy
		if err := rows.Scan(&st.ID, &st.UserID, &st.Name, &st.Description, &st.Risk,
			&st.WinRate, &st.AvgProfit, &st.Active, &st.TotalTrades,
			&st.ProfitFactor, &st.MaxDrawdown, &st.MinLeverage, &st.MaxLeverage); err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetStrategy returns a strategy by id, verifying user ownership.
func (s *Store) GetStrategy(ctx context.Context, userID, id string) (*Strategy, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	var st Strategy
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, risk, win_rate, avg_profit, active,
		       total_trades, profit_factor, max_drawdown, min_leverage, max_leverage
		FROM strategies
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&st.ID, &st.UserID, &st.Name, &st.Description, &st.Risk,
		&st.WinRate, &st.AvgProfit, &st.Active, &st.TotalTrades,
		&st.ProfitFactor, &st.MaxDrawdown, &st.MinLeverage, &st.MaxLeverage)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query strategy: %w", err)
	}
	return &st, nil
}

// CreateStrategy inserts a new strategy.
func (s *Store) CreateStrategy(ctx context.Context, st Strategy) error {
	if st.UserID == "" {
		return ErrUserIDRequired
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO strategies (id, user_id, name, description, risk, win_rate, avg_profit,
		                        active, total_trades, profit_factor, max_drawdown,
		                        min_leverage, max_leverage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, st.ID, st.UserID, st.Name, st.Description, st.Risk, st.WinRate, st.AvgProfit,
		st.Active, st.TotalTrades, st.ProfitFactor, st.MaxDrawdown,
		st.MinLeverage, st.MaxLeverage)
	return err
}

// UpdateStrategy applies a partial update; nil fields are untouched.
func (s *Store) UpdateStrategy(ctx context.Context, userID, id string, upd StrategyUpdate) (*Strategy, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	set := make([]string, 0, 8)
	args := make([]any, 0, 10)
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Risk != nil {
		add("risk", *upd.Risk)
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}
	if upd.WinRate != nil {
		add("win_rate", *upd.WinRate)
	}
	if upd.AvgProfit != nil {
		add("avg_profit", *upd.AvgProfit)
	}
	if upd.MinLeverage != nil {
		add("min_leverage", *upd.MinLeverage)
	}
	if upd.MaxLeverage != nil {
		add("max_leverage", *upd.MaxLeverage)
	}
	if len(set) > 0 {
		args = append(args, id, userID)
		query := "UPDATE strategies SET " + strings.Join(set, ", ") + " WHERE id = ? AND user_id = ?"
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("update strategy: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetStrategy(ctx, userID, id)
}

// OverwriteStrategyMetrics replaces the strategy's performance metrics
// with freshly simulated ones.
func (s *Store) OverwriteStrategyMetrics(ctx context.Context, userID, id string, m StrategyMetrics) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE strategies
		SET win_rate = ?, profit_factor = ?, max_drawdown = ?, avg_profit = ?, total_trades = ?
		WHERE id = ? AND user_id = ?
	`, m.WinRate, m.ProfitFactor, m.MaxDrawdown, m.AvgProfit, m.TotalTrades, id, userID)
	if err != nil {
		return fmt.Errorf("overwrite strategy metrics: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ----------------------------------------
// Signal queries
// ----------------------------------------

// ListSignals returns the most recent signals for a user.
func (s *Store) ListSignals(ctx context.Context, userID string, limit int) ([]Signal, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, strategy_id, pair, type, entry, tp, sl, confidence,
		       leverage, status, result, profit_loss, completed_at, created_at
		FROM signals
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// GetSignal returns a signal by id, verifying user ownership.
func (s *Store) GetSignal(ctx context.Context, userID, id string) (*Signal, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, strategy_id, pair, type, entry, tp, sl, confidence,
		       leverage, status, result, profit_loss, completed_at, created_at
		FROM signals
		WHERE id = ? AND user_id = ?
	`, id, userID)
	sig, err := scanSignal(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query signal: %w", err)
	}
	return &sig, nil
}

// CreateSignal inserts a new signal.
func (s *Store) CreateSignal(ctx context.Context, sig Signal) error {
	if sig.UserID == "" {
		return ErrUserIDRequired
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (id, user_id, strategy_id, pair, type, entry, tp, sl,
		                     confidence, leverage, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.ID, sig.UserID, sig.StrategyID, sig.Pair, sig.Type, sig.Entry, sig.TP, sig.SL,
		sig.Confidence, sig.Leverage, sig.Status, sig.CreatedAt)
	return err
}

// UpdateSignalStatus changes the lifecycle status of a signal that has
// not completed. Completed signals are terminal.
func (s *Store) UpdateSignalStatus(ctx context.Context, userID, id, status string) (*Signal, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE signals SET status = ?
		WHERE id = ? AND user_id = ? AND status != ?
	`, status, id, userID, SignalCompleted)
	if err != nil {
		return nil, fmt.Errorf("update signal status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetSignal(ctx, userID, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(r rowScanner) (Signal, error) {
	var (
		sig         Signal
		strategyID  sql.NullString
		result      sql.NullString
		profitLoss  sql.NullFloat64
		completedAt sql.NullTime
	)
	err := r.Scan(&sig.ID, &sig.UserID, &strategyID, &sig.Pair, &sig.Type,
		&sig.Entry, &sig.TP, &sig.SL, &sig.Confidence, &sig.Leverage,
		&sig.Status, &result, &profitLoss, &completedAt, &sig.CreatedAt)
	if err != nil {
		return Signal{}, err
	}
	if strategyID.Valid {
		sig.StrategyID = &strategyID.String
	}
	if result.Valid {
		sig.Result = &result.String
	}
	if profitLoss.Valid {
		sig.ProfitLoss = &profitLoss.Float64
	}
	if completedAt.Valid {
		t := completedAt.Time
		sig.CompletedAt = &t
	}
	return sig, nil
}

// ----------------------------------------
// Settings queries
// ----------------------------------------

// GetSettings returns the settings row for a user.
func (s *Store) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	var st Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, risk_per_trade, max_leverage, max_daily_drawdown,
		       daily_profit_target, compound_profits, auto_trading
		FROM settings WHERE user_id = ?
	`, userID).Scan(&st.ID, &st.UserID, &st.RiskPerTrade, &st.MaxLeverage,
		&st.MaxDailyDrawdown, &st.DailyProfitTarget, &st.CompoundProfits, &st.AutoTrading)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	return &st, nil
}

// CreateSettings inserts the one-per-user settings row.
func (s *Store) CreateSettings(ctx context.Context, st Settings) error {
	if st.UserID == "" {
		return ErrUserIDRequired
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, user_id, risk_per_trade, max_leverage, max_daily_drawdown,
		                      daily_profit_target, compound_profits, auto_trading)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, st.ID, st.UserID, st.RiskPerTrade, st.MaxLeverage, st.MaxDailyDrawdown,
		st.DailyProfitTarget, st.CompoundProfits, st.AutoTrading)
	return err
}

// UpdateSettings applies a partial update; nil fields are untouched.
func (s *Store) UpdateSettings(ctx context.Context, userID string, upd SettingsUpdate) (*Settings, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	set := make([]string, 0, 6)
	args := make([]any, 0, 8)
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if upd.RiskPerTrade != nil {
		add("risk_per_trade", *upd.RiskPerTrade)
	}
	if upd.MaxLeverage != nil {
		add("max_leverage", *upd.MaxLeverage)
	}
	if upd.MaxDailyDrawdown != nil {
		add("max_daily_drawdown", *upd.MaxDailyDrawdown)
	}
	if upd.DailyProfitTarget != nil {
		add("daily_profit_target", *upd.DailyProfitTarget)
	}
	if upd.CompoundProfits != nil {
		add("compound_profits", *upd.CompoundProfits)
	}
	if upd.AutoTrading != nil {
		add("auto_trading", *upd.AutoTrading)
	}
	if len(set) > 0 {
		args = append(args, userID)
		query := "UPDATE settings SET " + strings.Join(set, ", ") + " WHERE user_id = ?"
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("update settings: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetSettings(ctx, userID)
}

// ----------------------------------------
// Balance history queries
// ----------------------------------------

// ListBalanceHistory returns the most recent samples, newest first.
func (s *Store) ListBalanceHistory(ctx context.Context, userID string, limit int) ([]BalanceSample, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if limit <= 0 {
		limit = 7
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, balance, timestamp
		FROM balance_history
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query balance history: %w", err)
	}
	defer rows.Close()

	var out []BalanceSample
	for rows.Next() {
		var b BalanceSample
		if err := rows.Scan(&b.ID, &b.UserID, &b.Balance, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan balance sample: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBalanceSample appends one equity point.
func (s *Store) AddBalanceSample(ctx context.Context, b BalanceSample) error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balance_history (id, user_id, balance, timestamp)
		VALUES (?, ?, ?, ?)
	`, b.ID, b.UserID, b.Balance, b.Timestamp)
	return err
}

// ----------------------------------------
// Account reset
// ----------------------------------------

// ResetAccount wipes a user's signals and balance history and restores
// the default balance, all inside one transaction.
func (s *Store) ResetAccount(ctx context.Context, userID string, defaultBalance float64) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE users SET balance = ? WHERE id = ?`, defaultBalance, userID)
	if err != nil {
		return fmt.Errorf("reset balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM signals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("purge signals: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM balance_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("purge balance history: %w", err)
	}
	return tx.Commit()
}
