package engine

import (
	"fmt"
	"math"
)

// YearTable maps a target level onto the number of years to wait once its resources are met.
type YearTable map[int]int

// LevelConfig holds the static levelling content. Thresholds are indexed by current level:
// leaving level n needs a cumulative spend of Research[n] (or Construction[n]).
type LevelConfig struct {
	Research     []float64
	Construction []float64

	ResearchYears     YearTable
	ConstructionYears YearTable
	// SharedYears serves either track when its own table is absent.
	SharedYears YearTable
}

// EventDefinition is one raw entry of the event catalog as authored.
type EventDefinition struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Condition   string  `json:"condition" yaml:"condition"`
	Probability float64 `json:"probability" yaml:"probability"`
	Effect      string  `json:"effect" yaml:"effect"`
}

const (
	defaultLevels        = 100
	defaultBaseThreshold = 5_000_000
	defaultThresholdStep = 12_000_000
)

// DefaultLevelConfig is used whenever no level file is supplied or it cannot be read.
// Waits are listed only for levels 1, 11, 21 and so on up to 101; every other level waits zero years.
func DefaultLevelConfig() LevelConfig {
	thresholds := make([]float64, defaultLevels)
	for i := range thresholds {
		thresholds[i] = defaultBaseThreshold + float64(i)*defaultThresholdStep
	}
	years := make(YearTable, defaultLevels/10+1)
	for level := 1; level <= defaultLevels+1; level += 10 {
		years[level] = 1 + (level-1)/10
	}
	return LevelConfig{
		Research:     thresholds,
		Construction: append([]float64(nil), thresholds...),
		SharedYears:  years,
	}
}

// Thresholds returns the threshold slice for t.
func (c LevelConfig) Thresholds(t Track) []float64 {
	if t == TrackConstruction {
		return c.Construction
	}
	return c.Research
}

// Threshold returns the cumulative spend needed to leave level. ok is false once the track
// has run past its table.
func (c LevelConfig) Threshold(t Track, level int) (float64, bool) {
	th := c.Thresholds(t)
	if level < 0 || level >= len(th) {
		return 0, false
	}
	return th[level], true
}

// RequiredYears returns the wait before target may be reached on track t. Lookup is by exact
// key: a level missing from the table waits zero years. A track without a table of its own
// uses the shared table; one track never borrows the other's.
func (c LevelConfig) RequiredYears(t Track, target int) int {
	table := c.yearTable(t)
	if table == nil {
		return 0
	}
	return max(0, table[target])
}

func (c LevelConfig) yearTable(t Track) YearTable {
	own := c.ResearchYears
	if t == TrackConstruction {
		own = c.ConstructionYears
	}
	if own != nil {
		return own
	}
	return c.SharedYears
}

// Validate reports content the engine cannot run with.
func (c LevelConfig) Validate() error {
	for _, t := range AllTracks {
		th := c.Thresholds(t)
		if len(th) < 2 {
			return &ConfigurationError{Source: "levels", Reason: fmt.Sprintf("%s needs at least two thresholds, got %d", t, len(th))}
		}
		for i, v := range th {
			if v < 0 || math.IsNaN(v) {
				return &ConfigurationError{Source: "levels", Reason: fmt.Sprintf("%s threshold %d is %v", t, i, v)}
			}
		}
	}
	return nil
}

// OrDefault returns c when it validates, otherwise the default config and the reason.
func (c LevelConfig) OrDefault() (LevelConfig, error) {
	if err := c.Validate(); err != nil {
		return DefaultLevelConfig(), err
	}
	return c, nil
}
