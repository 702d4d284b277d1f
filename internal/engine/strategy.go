package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy names form a closed set. Lookup of anything else is an error,
// unlike execution modes which fall back to instant.
const (
	StrategySafeSteady = "safe_steady"
	StrategyBalanced   = "balanced"
	StrategyAggressive = "aggressive"
)

// Execution modes select which price variant a score is computed from.
const (
	ModeInstant = "instant"
	ModePatient = "patient"
)

// ErrUnknownStrategy is returned for names outside the fixed profile set.
var ErrUnknownStrategy = errors.New("engine: unknown strategy")

// StrategyProfile is a named risk posture: how strongly trend, volatility
// and ROI sway the composite score, plus the volume floor below which items
// are not ranked at all.
type StrategyProfile struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	VolatilityWeight   float64 `json:"volatility_weight"`
	TrendWeight        float64 `json:"trend_weight"`
	ROIWeight          float64 `json:"roi_weight"`
	MinVolumeThreshold int     `json:"min_volume_threshold"`
}

// StrategyTable is the fixed profile set, built once at startup and shared
// read-only by everything that scores.
type StrategyTable struct {
	profiles map[string]StrategyProfile
	order    []string
}

// NewStrategyTable returns the three fixed profiles.
func NewStrategyTable() *StrategyTable {
	t := &StrategyTable{profiles: make(map[string]StrategyProfile, 3)}
	for _, p := range []StrategyProfile{
		{
			Name:               StrategySafeSteady,
			Description:        "Steady movers only: punishes volatility hard, demands proven volume",
			VolatilityWeight:   1.5,
			TrendWeight:        0.5,
			ROIWeight:          0.8,
			MinVolumeThreshold: 50,
		},
		{
			Name:               StrategyBalanced,
			Description:        "Even hand between trend, volatility and ROI",
			VolatilityWeight:   1.0,
			TrendWeight:        1.0,
			ROIWeight:          1.0,
			MinVolumeThreshold: 20,
		},
		{
			Name:               StrategyAggressive,
			Description:        "Chases trend and ROI, tolerates churn and thin volume",
			VolatilityWeight:   0.5,
			TrendWeight:        1.5,
			ROIWeight:          1.2,
			MinVolumeThreshold: 5,
		},
	} {
		t.profiles[p.Name] = p
		t.order = append(t.order, p.Name)
	}
	return t
}

// Get resolves a strategy by name.
func (t *StrategyTable) Get(name string) (StrategyProfile, error) {
	p, ok := t.profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return StrategyProfile{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return p, nil
}

// Profiles returns the table in declaration order.
func (t *StrategyTable) Profiles() []StrategyProfile {
	out := make([]StrategyProfile, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.profiles[name])
	}
	return out
}

// ParseMode resolves an execution-mode string. Unknown or empty values fall
// back to instant; mode input is lenient where strategy input is not.
func ParseMode(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), ModePatient) {
		return ModePatient
	}
	return ModeInstant
}
