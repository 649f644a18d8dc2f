package account

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"signalbot/pkg/db"
)

const presetYAML = `
strategies:
  - name: Trend Master
    description: slow trend following
    variant: trend
    risk: Low
    win_rate: 85
    avg_profit: 3.5
    active: true
    total_trades: 24
    profit_factor: 3.8
    max_drawdown: 1.2
    min_leverage: 1
    max_leverage: 5
  - name: Micro-Scalp v2
    variant: meanrev
    risk: High
    win_rate: 78
    avg_profit: 1.2
    active: true
`

func writePresets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	return path
}

var variants = []string{"trend", "meanrev", "contrarian"}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets(writePresets(t, presetYAML), variants)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("len = %d, want 2", len(presets))
	}
	if presets[0].Name != "Trend Master" || presets[0].WinRate != 85 {
		t.Errorf("first preset = %+v", presets[0])
	}
	// Leverage defaults fill in when omitted.
	if presets[1].MinLeverage != 1 || presets[1].MaxLeverage != 1 {
		t.Errorf("leverage defaults = %d/%d, want 1/1", presets[1].MinLeverage, presets[1].MaxLeverage)
	}
}

func TestLoadPresetsRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown variant": `
strategies:
  - name: X
    variant: quantum
    win_rate: 50
`,
		"win rate out of range": `
strategies:
  - name: X
    win_rate: 130
`,
		"missing name": `
strategies:
  - win_rate: 50
`,
		"duplicate names": `
strategies:
  - name: X
    win_rate: 50
  - name: X
    win_rate: 60
`,
		"empty file": `strategies: []`,
	}
	for label, content := range cases {
		if _, err := LoadPresets(writePresets(t, content), variants); err == nil {
			t.Errorf("%s: expected error", label)
		}
	}
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return database.Store()
}

func TestEnsureDemoAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	presets, err := LoadPresets(writePresets(t, presetYAML), variants)
	if err != nil {
		t.Fatalf("load presets: %v", err)
	}
	params := BootstrapParams{
		Username: "Trader_01",
		Email:    "demo@example.com",
		Presets:  presets,
	}

	userID, err := EnsureDemoAccount(ctx, store, params)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		t.Fatalf("get demo user: %v", err)
	}
	if user.Balance != demoSeedBalance {
		t.Errorf("balance = %v, want %v", user.Balance, demoSeedBalance)
	}

	settings, err := store.GetSettings(ctx, userID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.RiskPerTrade != 2.0 || settings.MaxLeverage != 10 {
		t.Errorf("settings = %+v", settings)
	}

	strategies, _ := store.ListStrategies(ctx, userID)
	if len(strategies) != 2 {
		t.Errorf("strategies = %d, want 2", len(strategies))
	}

	history, _ := store.ListBalanceHistory(ctx, userID, 10)
	if len(history) != 7 {
		t.Errorf("balance samples = %d, want 7", len(history))
	}
	if history[0].Balance != demoSeedBalance {
		t.Errorf("latest sample = %v, want %v", history[0].Balance, demoSeedBalance)
	}

	t.Run("idempotent", func(t *testing.T) {
		again, err := EnsureDemoAccount(ctx, store, params)
		if err != nil {
			t.Fatalf("second bootstrap: %v", err)
		}
		if again != userID {
			t.Errorf("user id changed: %s vs %s", again, userID)
		}
		strategies, _ := store.ListStrategies(ctx, userID)
		if len(strategies) != 2 {
			t.Errorf("strategies duplicated: %d", len(strategies))
		}
		history, _ := store.ListBalanceHistory(ctx, userID, 20)
		if len(history) != 7 {
			t.Errorf("balance curve duplicated: %d", len(history))
		}
	})
}
