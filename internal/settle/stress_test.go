//go:build stress
// +build stress

package settle

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
)

// TestMultiUserSettlementStress settles many signals for many users
// concurrently. It is guarded by the "stress" build tag and is not
// intended for normal CI runs.
func TestMultiUserSettlementStress(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	const (
		numUsers       = 50
		signalsPerUser = 3
	)

	userIDs := make([]string, numUsers)
	for u := 0; u < numUsers; u++ {
		userID := fmt.Sprintf("stress-u%02d", u)
		userIDs[u] = userID
		seedAccount(t, store, userID, 100, 10)
		for s := 0; s < signalsPerUser; s++ {
			seedSignal(t, store, fmt.Sprintf("%s-sig%d", userID, s), userID, "LONG", "100.00", "110.00", "97.00", 2)
		}
	}

	var wg sync.WaitGroup
	for _, userID := range userIDs {
		for s := 0; s < signalsPerUser; s++ {
			wg.Add(1)
			go func(userID, signalID string) {
				defer wg.Done()
				if _, err := engine.Settle(ctx, userID, signalID, ResultTP); err != nil {
					t.Errorf("settle %s: %v", signalID, err)
				}
			}(userID, fmt.Sprintf("%s-sig%d", userID, s))
		}
	}
	wg.Wait()

	// Every user independently compounds 3 wins of +2% each
	// (risk 10%, lev 2, move +10%).
	want := 100 * math.Pow(1.02, signalsPerUser)
	for _, userID := range userIDs {
		u, err := store.GetUser(ctx, userID)
		if err != nil {
			t.Fatalf("get %s: %v", userID, err)
		}
		if math.Abs(u.Balance-want) > 0.05 {
			t.Errorf("%s balance = %v, want about %v", userID, u.Balance, want)
		}
		hist, _ := store.ListBalanceHistory(ctx, userID, 10)
		if len(hist) != signalsPerUser {
			t.Errorf("%s history samples = %d, want %d", userID, len(hist), signalsPerUser)
		}
	}
}
