package account

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"signalbot/pkg/db"
)

// demoSeedBalance is the demo account's starting equity; slightly above
// the registration default so the dashboard opens with a green curve.
const demoSeedBalance = 110.30

// BootstrapParams describes the demo identity to ensure at startup.
type BootstrapParams struct {
	Username string
	Email    string
	Password string
	Presets  []Preset
}

// EnsureDemoAccount creates the demo user, its risk settings, the
// preset strategies and a seeded balance curve on first startup.
// Subsequent startups only sync presets the user has not created yet;
// user edits are never overwritten. Returns the demo user's id.
func EnsureDemoAccount(ctx context.Context, store *db.Store, p BootstrapParams) (string, error) {
	user, err := store.GetUserByUsername(ctx, p.Username)
	if err != nil {
		return "", err
	}

	if user == nil {
		password := p.Password
		if password == "" {
			password = uuid.NewString()
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash demo password: %w", err)
		}

		user = &db.User{
			ID:        uuid.NewString(),
			Username:  p.Username,
			Password:  string(hash),
			Email:     p.Email,
			Balance:   demoSeedBalance,
			CreatedAt: time.Now(),
		}
		if err := store.CreateUser(ctx, *user); err != nil {
			return "", fmt.Errorf("create demo user: %w", err)
		}
		if err := store.CreateSettings(ctx, db.Settings{
			ID:                uuid.NewString(),
			UserID:            user.ID,
			RiskPerTrade:      2.0,
			MaxLeverage:       10,
			MaxDailyDrawdown:  5.0,
			DailyProfitTarget: 2.0,
			CompoundProfits:   true,
			AutoTrading:       true,
		}); err != nil {
			return "", fmt.Errorf("create demo settings: %w", err)
		}
		if err := seedBalanceCurve(ctx, store, user.ID); err != nil {
			return "", err
		}
		log.Printf("[BOOTSTRAP] demo account %s created (%s)", p.Username, user.ID)
	}

	if err := syncPresets(ctx, store, user.ID, p.Presets); err != nil {
		return "", err
	}
	return user.ID, nil
}

// seedBalanceCurve writes a week of equity samples climbing to the
// seed balance so the dashboard chart is populated on first load.
func seedBalanceCurve(ctx context.Context, store *db.Store, userID string) error {
	curve := []float64{100.00, 101.20, 100.45, 103.80, 106.10, 108.75, demoSeedBalance}
	now := time.Now()
	for i, balance := range curve {
		sample := db.BalanceSample{
			ID:        uuid.NewString(),
			UserID:    userID,
			Balance:   balance,
			Timestamp: now.AddDate(0, 0, i-len(curve)+1),
		}
		if err := store.AddBalanceSample(ctx, sample); err != nil {
			return fmt.Errorf("seed balance history: %w", err)
		}
	}
	return nil
}

// syncPresets inserts any preset the user does not already have a
// strategy for, matched by name.
func syncPresets(ctx context.Context, store *db.Store, userID string, presets []Preset) error {
	existing, err := store.ListStrategies(ctx, userID)
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, st := range existing {
		byName[st.Name] = true
	}

	for _, p := range presets {
		if byName[p.Name] {
			continue
		}
		strategy := db.Strategy{
			ID:           uuid.NewString(),
			UserID:       userID,
			Name:         p.Name,
			Description:  p.Description,
			Risk:         p.Risk,
			WinRate:      p.WinRate,
			AvgProfit:    p.AvgProfit,
			Active:       p.Active,
			TotalTrades:  p.TotalTrades,
			ProfitFactor: p.ProfitFactor,
			MaxDrawdown:  p.MaxDrawdown,
			MinLeverage:  p.MinLeverage,
			MaxLeverage:  p.MaxLeverage,
		}
		if err := store.CreateStrategy(ctx, strategy); err != nil {
			return fmt.Errorf("sync preset %q: %w", p.Name, err)
		}
		log.Printf("[BOOTSTRAP] preset strategy %q synced", p.Name)
	}
	return nil
}
