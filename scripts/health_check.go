package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"signalbot/internal/market"
	"signalbot/pkg/config"
	"signalbot/pkg/db"
)

type HealthStatus struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthReport struct {
	Overall  string         `json:"overall"`
	Services []HealthStatus `json:"services"`
}

func main() {
	fmt.Println("signalbot health check")
	fmt.Println("======================")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report := HealthReport{
		Overall:  "HEALTHY",
		Services: make([]HealthStatus, 0),
	}

	report.Services = append(report.Services, checkConfig())
	report.Services = append(report.Services, checkDatabase())
	report.Services = append(report.Services, checkMarketFeed(ctx))
	report.Services = append(report.Services, checkAPIServer())

	for _, svc := range report.Services {
		if svc.Status == "UNHEALTHY" {
			report.Overall = "UNHEALTHY"
			break
		} else if svc.Status == "DEGRADED" && report.Overall != "UNHEALTHY" {
			report.Overall = "DEGRADED"
		}
	}

	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("--------")
	for _, svc := range report.Services {
		statusIcon := "✓"
		if svc.Status == "UNHEALTHY" {
			statusIcon = "✗"
		} else if svc.Status == "DEGRADED" {
			statusIcon = "⚠"
		}
		fmt.Printf("%s %-20s %s %s\n", statusIcon, svc.Service, svc.Status, svc.Message)
	}

	fmt.Println()
	fmt.Printf("Overall Status: %s\n", report.Overall)

	if len(os.Args) > 1 && os.Args[1] == "--json" {
		jsonData, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(jsonData))
	}

	if report.Overall == "UNHEALTHY" {
		os.Exit(1)
	}
}

func checkConfig() HealthStatus {
	status := HealthStatus{
		Service:   "Configuration",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	cfg, err := config.Load()
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Failed to load: %v", err)
		return status
	}

	if cfg.Port == "" {
		status.Status = "DEGRADED"
		status.Message = "Port not configured"
		return status
	}

	status.Message = fmt.Sprintf("Port=%s Variant=%s", cfg.Port, cfg.EvaluatorVariant)
	return status
}

func checkDatabase() HealthStatus {
	status := HealthStatus{
		Service:   "Database",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	cfg, _ := config.Load()
	database, err := db.New(cfg.DBPath)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Open failed: %v", err)
		return status
	}
	defer database.Close()

	if err := database.DB.Ping(); err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Ping failed: %v", err)
		return status
	}

	status.Message = "Connected"
	return status
}

func checkMarketFeed(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Service:   "Market Feed",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	cfg, _ := config.Load()
	if cfg.UseMockMarket {
		status.Status = "DEGRADED"
		status.Message = "Mock feed configured"
		return status
	}

	client := market.NewCoinGecko(cfg.CoinGeckoBaseURL)
	price, err := client.CurrentPrice(ctx, cfg.CalibrationPair)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Quote failed: %v", err)
		return status
	}

	status.Message = fmt.Sprintf("%s=%.2f", cfg.CalibrationPair, price)
	return status
}

func checkAPIServer() HealthStatus {
	status := HealthStatus{
		Service:   "API Server",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	cfg, _ := config.Load()
	url := fmt.Sprintf("http://localhost:%s/health", cfg.Port)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Not reachable: %v", err)
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Status = "DEGRADED"
		status.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return status
	}

	status.Message = "Running"
	return status
}
