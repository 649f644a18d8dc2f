// Package account handles boundary concerns around user accounts: the
// YAML strategy presets and the demo account bootstrap. The core never
// constructs identities; everything user-shaped starts here.
package account

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is one named strategy template from strategies.yaml.
type Preset struct {
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	Variant      string  `yaml:"variant"`
	Risk         string  `yaml:"risk"`
	WinRate      int     `yaml:"win_rate"`
	AvgProfit    float64 `yaml:"avg_profit"`
	Active       bool    `yaml:"active"`
	TotalTrades  int     `yaml:"total_trades"`
	ProfitFactor float64 `yaml:"profit_factor"`
	MaxDrawdown  float64 `yaml:"max_drawdown"`
	MinLeverage  int     `yaml:"min_leverage"`
	MaxLeverage  int     `yaml:"max_leverage"`
}

type presetsFile struct {
	Strategies []Preset `yaml:"strategies"`
}

// LoadPresets reads and validates the strategy presets file. validVariants
// is the evaluator registry's name list; a preset referencing an unknown
// variant is a configuration error.
func LoadPresets(path string, validVariants []string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(file.Strategies) == 0 {
		return nil, fmt.Errorf("presets file %s defines no strategies", path)
	}

	variants := make(map[string]bool, len(validVariants))
	for _, v := range validVariants {
		variants[v] = true
	}

	seen := make(map[string]bool, len(file.Strategies))
	for i := range file.Strategies {
		p := &file.Strategies[i]
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: name is required", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate preset name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Variant != "" && !variants[p.Variant] {
			return nil, fmt.Errorf("preset %q: unknown evaluator variant %q", p.Name, p.Variant)
		}
		if p.WinRate < 0 || p.WinRate > 100 {
			return nil, fmt.Errorf("preset %q: win_rate %d outside [0,100]", p.Name, p.WinRate)
		}
		if p.MinLeverage < 1 {
			p.MinLeverage = 1
		}
		if p.MaxLeverage < p.MinLeverage {
			p.MaxLeverage = p.MinLeverage
		}
	}

	return file.Strategies, nil
}
