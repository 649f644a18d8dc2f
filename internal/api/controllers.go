package api

import (
	"errors"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signalbot/internal/backtest"
	"signalbot/internal/events"
	"signalbot/internal/settle"
	"signalbot/internal/signal"
	"signalbot/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// storeError maps query-layer errors onto HTTP responses.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":  "NOT_FOUND",
			"error": "record not found",
		})
	case errors.Is(err, db.ErrUserIDRequired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":  "MISSING_USER",
			"error": "user context required",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
	}
}

func marketError(c *gin.Context, err error) {
	log.Printf("[MARKET] fetch failed: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{
		"code":  "MARKET_UNAVAILABLE",
		"error": "market data unavailable",
	})
}

// ----------------------------------------
// User
// ----------------------------------------

func (s *Server) getUser(c *gin.Context) {
	user, err := s.Store.GetUser(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ----------------------------------------
// Signals
// ----------------------------------------

func (s *Server) listSignals(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_LIMIT",
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	signals, err := s.Store.ListSignals(c.Request.Context(), CurrentUserID(c), limit)
	if err != nil {
		storeError(c, err)
		return
	}
	if signals == nil {
		signals = []db.Signal{}
	}
	c.JSON(http.StatusOK, signals)
}

func (s *Server) createSignal(c *gin.Context) {
	var req struct {
		Pair       string  `json:"pair"`
		Type       string  `json:"type"`
		Entry      string  `json:"entry"`
		TP         string  `json:"tp"`
		SL         string  `json:"sl"`
		Confidence int     `json:"confidence"`
		Leverage   int     `json:"leverage"`
		StrategyID *string `json:"strategyId"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	if req.Pair == "" || (req.Type != "LONG" && req.Type != "SHORT") {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_SIGNAL",
			"error": "pair and type (LONG/SHORT) are required",
		})
		return
	}
	for _, field := range []string{req.Entry, req.TP, req.SL} {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_PRICE",
				"error": "entry, tp and sl must be decimal strings",
			})
			return
		}
	}
	if req.Leverage < 1 {
		req.Leverage = 1
	}

	sig := db.Signal{
		ID:         uuid.NewString(),
		UserID:     CurrentUserID(c),
		StrategyID: req.StrategyID,
		Pair:       req.Pair,
		Type:       req.Type,
		Entry:      req.Entry,
		TP:         req.TP,
		SL:         req.SL,
		Confidence: req.Confidence,
		Leverage:   req.Leverage,
		Status:     db.SignalActive,
		CreatedAt:  time.Now(),
	}
	if err := s.Store.CreateSignal(c.Request.Context(), sig); err != nil {
		storeError(c, err)
		return
	}

	s.Metrics.CountSignalCreated()
	s.Bus.Publish(events.Event{Topic: events.TopicSignalCreated, UserID: sig.UserID, Payload: sig})
	c.JSON(http.StatusCreated, sig)
}

func (s *Server) updateSignal(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "status is required",
		})
		return
	}
	if req.Status == db.SignalCompleted {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_STATUS",
			"error": "signals complete through settlement, not status updates",
		})
		return
	}

	sig, err := s.Store.UpdateSignalStatus(c.Request.Context(), CurrentUserID(c), c.Param("id"), req.Status)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}

// generateSignal runs the configured evaluator over live history and
// synthesizes a persisted signal from the result.
func (s *Server) generateSignal(c *gin.Context) {
	var req struct {
		Pair       string  `json:"pair"`
		StrategyID *string `json:"strategyId"`
	}
	if err := c.BindJSON(&req); err != nil || req.Pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "pair is required",
		})
		return
	}

	ctx := c.Request.Context()
	userID := CurrentUserID(c)

	eval, err := s.Registry.Get(s.Variant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}

	var strategy *db.Strategy
	if req.StrategyID != nil && *req.StrategyID != "" {
		strategy, err = s.Store.GetStrategy(ctx, userID, *req.StrategyID)
		if err != nil {
			storeError(c, err)
			return
		}
	}

	maxLeverage := 10
	settings, err := s.Store.GetSettings(ctx, userID)
	if err == nil {
		maxLeverage = settings.MaxLeverage
	} else if !errors.Is(err, db.ErrNotFound) {
		storeError(c, err)
		return
	}

	history, err := s.Market.History(ctx, req.Pair, 100)
	if err != nil {
		marketError(c, err)
		return
	}
	price, err := s.Market.CurrentPrice(ctx, req.Pair)
	if err != nil {
		marketError(c, err)
		return
	}

	sig := s.Synth.Synthesize(signal.Request{
		Pair:        req.Pair,
		Price:       price,
		Evaluation:  eval.Evaluate(history),
		Strategy:    strategy,
		MaxLeverage: maxLeverage,
	})
	sig.ID = uuid.NewString()
	sig.UserID = userID
	sig.CreatedAt = time.Now()

	if err := s.Store.CreateSignal(ctx, sig); err != nil {
		storeError(c, err)
		return
	}

	s.Metrics.CountSignalCreated()
	s.Bus.Publish(events.Event{Topic: events.TopicSignalCreated, UserID: userID, Payload: sig})
	c.JSON(http.StatusCreated, sig)
}

func (s *Server) settleSignal(c *gin.Context) {
	var req struct {
		Result string `json:"result"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}

	outcome, err := s.Settler.Settle(c.Request.Context(), CurrentUserID(c), c.Param("id"), req.Result)
	switch {
	case errors.Is(err, settle.ErrInvalidResult):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_RESULT",
			"error": "result must be tp or sl",
		})
		return
	case errors.Is(err, settle.ErrAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{
			"code":  "ALREADY_SETTLED",
			"error": "signal already settled",
		})
		return
	case err != nil:
		storeError(c, err)
		return
	}

	s.Metrics.CountSettlement()
	c.JSON(http.StatusOK, outcome)
}

// ----------------------------------------
// Strategies
// ----------------------------------------

func (s *Server) listStrategies(c *gin.Context) {
	strategies, err := s.Store.ListStrategies(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		storeError(c, err)
		return
	}
	if strategies == nil {
		strategies = []db.Strategy{}
	}
	c.JSON(http.StatusOK, strategies)
}

func (s *Server) createStrategy(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Risk        string  `json:"risk"`
		WinRate     int     `json:"winRate"`
		AvgProfit   float64 `json:"avgProfit"`
		Active      bool    `json:"active"`
		MinLeverage int     `json:"minLeverage"`
		MaxLeverage int     `json:"maxLeverage"`
	}
	if err := c.BindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "name is required",
		})
		return
	}
	if req.WinRate < 0 || req.WinRate > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_WIN_RATE",
			"error": "winRate must be within [0,100]",
		})
		return
	}
	if req.MinLeverage < 1 {
		req.MinLeverage = 1
	}
	if req.MaxLeverage < req.MinLeverage {
		req.MaxLeverage = req.MinLeverage
	}

	strategy := db.Strategy{
		ID:          uuid.NewString(),
		UserID:      CurrentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		Risk:        req.Risk,
		WinRate:     req.WinRate,
		AvgProfit:   req.AvgProfit,
		Active:      req.Active,
		MinLeverage: req.MinLeverage,
		MaxLeverage: req.MaxLeverage,
	}
	if err := s.Store.CreateStrategy(c.Request.Context(), strategy); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, strategy)
}

func (s *Server) updateStrategy(c *gin.Context) {
	var req db.StrategyUpdate
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	if req.WinRate != nil && (*req.WinRate < 0 || *req.WinRate > 100) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_WIN_RATE",
			"error": "winRate must be within [0,100]",
		})
		return
	}

	strategy, err := s.Store.UpdateStrategy(c.Request.Context(), CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, strategy)
}

// backtestStrategy runs the synthetic simulator against the strategy's
// nominal win rate and overwrites its stored metrics with the outcome.
func (s *Server) backtestStrategy(c *gin.Context) {
	var req struct {
		Leverage int `json:"leverage"`
	}
	// Body is optional.
	_ = c.BindJSON(&req)
	if req.Leverage < 1 {
		req.Leverage = 3
	}

	ctx := c.Request.Context()
	userID := CurrentUserID(c)

	strategy, err := s.Store.GetStrategy(ctx, userID, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	result := backtest.Synthetic(strategy.WinRate, req.Leverage, rng)

	metrics := db.StrategyMetrics{
		WinRate:      int(math.Round(result.WinRate)),
		ProfitFactor: result.ProfitFactor,
		MaxDrawdown:  result.MaxDrawdown,
		AvgProfit:    result.AvgWinPercentage,
		TotalTrades:  result.TotalTrades,
	}
	if err := s.Store.OverwriteStrategyMetrics(ctx, userID, strategy.ID, metrics); err != nil {
		storeError(c, err)
		return
	}

	s.Metrics.CountBacktest()
	updated, err := s.Store.GetStrategy(ctx, userID, strategy.ID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":   result,
		"strategy": updated,
	})
}

// replayBacktest replays an evaluator over real price history.
func (s *Server) replayBacktest(c *gin.Context) {
	var req struct {
		Pair         string  `json:"pair"`
		Variant      string  `json:"variant"`
		Leverage     int     `json:"leverage"`
		RiskPerTrade float64 `json:"riskPerTrade"`
		Days         int     `json:"days"`
	}
	if err := c.BindJSON(&req); err != nil || req.Pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "pair is required",
		})
		return
	}
	if req.Variant == "" {
		req.Variant = s.Variant
	}
	if req.Leverage < 1 {
		req.Leverage = 3
	}
	if req.RiskPerTrade <= 0 {
		req.RiskPerTrade = 10
	}
	if req.Days < 1 || req.Days > 365 {
		req.Days = s.HistoryDays
	}

	eval, err := s.Registry.Get(req.Variant)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_VARIANT",
			"error": err.Error(),
		})
		return
	}

	prices, err := s.Market.History(c.Request.Context(), req.Pair, req.Days)
	if err != nil {
		marketError(c, err)
		return
	}

	result := backtest.Replay(prices, eval, req.Leverage, req.RiskPerTrade)
	s.Metrics.CountBacktest()
	c.JSON(http.StatusOK, result)
}

// ----------------------------------------
// Settings
// ----------------------------------------

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.Store.GetSettings(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSettings(c *gin.Context) {
	var req db.SettingsUpdate
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}

	// Percent fields must stay positive.
	for _, v := range []*float64{req.RiskPerTrade, req.MaxDailyDrawdown, req.DailyProfitTarget} {
		if v != nil && *v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_VALUE",
				"error": "percentage settings must be positive",
			})
			return
		}
	}
	if req.MaxLeverage != nil && *req.MaxLeverage < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_VALUE",
			"error": "maxLeverage must be at least 1",
		})
		return
	}

	settings, err := s.Store.UpdateSettings(c.Request.Context(), CurrentUserID(c), req)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ----------------------------------------
// Balance history & account reset
// ----------------------------------------

func (s *Server) getBalanceHistory(c *gin.Context) {
	limit := 7
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_LIMIT",
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	history, err := s.Store.ListBalanceHistory(c.Request.Context(), CurrentUserID(c), limit)
	if err != nil {
		storeError(c, err)
		return
	}
	if history == nil {
		history = []db.BalanceSample{}
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) resetAccount(c *gin.Context) {
	userID := CurrentUserID(c)
	if err := s.Store.ResetAccount(c.Request.Context(), userID, s.DefaultBalance); err != nil {
		storeError(c, err)
		return
	}

	s.Bus.Publish(events.Event{Topic: events.TopicBalanceUpdated, UserID: userID, Payload: map[string]any{
		"balance": s.DefaultBalance,
	}})
	c.JSON(http.StatusOK, gin.H{
		"balance": s.DefaultBalance,
		"status":  "reset",
	})
}
