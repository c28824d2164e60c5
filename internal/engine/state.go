package engine

import "math"

const (
	// EpochYear is the first simulated year; the first processed year is EpochYear+1.
	EpochYear = 2164
	// HorizonYears is the length of the journey; reaching it ends the game.
	HorizonYears = 2501
	// HorizonYear is the year at which the game ends regardless of other state.
	HorizonYear = EpochYear + HorizonYears

	PopulationHistoryLen = 12
	TalentCap            = 25
)

// TrackState is the levelling bookkeeping for one track.
type TrackState struct {
	Level           int
	ConsumedTotal   float64
	ResourceMetYear *int // set while Waiting
	LastUpgradeYear *int
}

// AttributeState is the whole mutable state of one running game.
type AttributeState struct {
	Year int

	PeopleSupport float64
	Security      float64
	Civilization  float64
	Resources     float64
	Population    float64

	Research     TrackState
	Construction TrackState
	TalentLevel  int

	TotalResourcesAdded float64
	IncomeCutoff        bool

	PopulationHistory      []float64
	PopulationDeclineYears int
	LastTriggeredEvents    []string
}

// NewAttributeState returns the fixed starting state.
func NewAttributeState() *AttributeState {
	return &AttributeState{
		Year:          EpochYear,
		PeopleSupport: 50,
		Security:      50,
		Civilization:  90,
		Resources:     20000000,
		Population:    1000000,
		Research:      TrackState{Level: 1, LastUpgradeYear: intPtr(EpochYear)},
		Construction:  TrackState{Level: 1, LastUpgradeYear: intPtr(EpochYear)},
		TalentLevel:   1,
	}
}

// Track returns the bookkeeping for t. Unknown tracks fall back to research.
func (s *AttributeState) Track(t Track) *TrackState {
	if t == TrackConstruction {
		return &s.Construction
	}
	return &s.Research
}

// Get reads an attribute as a float.
func (s *AttributeState) Get(a Attribute) (float64, bool) {
	switch a {
	case AttrPeopleSupport:
		return s.PeopleSupport, true
	case AttrSecurity:
		return s.Security, true
	case AttrCivilization:
		return s.Civilization, true
	case AttrResources:
		return s.Resources, true
	case AttrPopulation:
		return s.Population, true
	case AttrResearchLevel:
		return float64(s.Research.Level), true
	case AttrConstructionLevel:
		return float64(s.Construction.Level), true
	case AttrTalentLevel:
		return float64(s.TalentLevel), true
	}
	return 0, false
}

// Set writes an attribute. Levels are rounded to the nearest integer; no clamping happens here.
func (s *AttributeState) Set(a Attribute, v float64) bool {
	if a.IsLevel() {
		v = math.Round(v)
	}
	switch a {
	case AttrPeopleSupport:
		s.PeopleSupport = v
	case AttrSecurity:
		s.Security = v
	case AttrCivilization:
		s.Civilization = v
	case AttrResources:
		s.Resources = v
	case AttrPopulation:
		s.Population = v
	case AttrResearchLevel:
		s.Research.Level = int(v)
	case AttrConstructionLevel:
		s.Construction.Level = int(v)
	case AttrTalentLevel:
		s.TalentLevel = int(v)
	default:
		return false
	}
	return true
}

// Clamp forces every attribute back into its valid range.
func (s *AttributeState) Clamp() {
	s.PeopleSupport = ClampPercent(s.PeopleSupport)
	s.Security = ClampPercent(s.Security)
	s.Civilization = ClampPercent(s.Civilization)
	s.Resources = clampFloor(s.Resources, 0)
	s.Population = clampFloor(s.Population, 0)
	s.Research.Level = max(1, s.Research.Level)
	s.Construction.Level = max(1, s.Construction.Level)
	s.TalentLevel = max(1, s.TalentLevel)
}

// InRange reports whether every attribute already satisfies the clamp invariants.
func (s *AttributeState) InRange() bool {
	for _, v := range []float64{s.PeopleSupport, s.Security, s.Civilization} {
		if v < 0 || v > 100 || math.IsNaN(v) {
			return false
		}
	}
	return s.Resources >= 0 && s.Population >= 0 &&
		s.Research.Level >= 1 && s.Construction.Level >= 1 && s.TalentLevel >= 1
}

// RecordPopulation appends the current population to the bounded history and updates the
// consecutive-decline counter.
func (s *AttributeState) RecordPopulation() {
	s.PopulationHistory = append(s.PopulationHistory, s.Population)
	if len(s.PopulationHistory) > PopulationHistoryLen {
		s.PopulationHistory = append([]float64{}, s.PopulationHistory[len(s.PopulationHistory)-PopulationHistoryLen:]...)
	}
	n := len(s.PopulationHistory)
	if n < 2 {
		return
	}
	if s.PopulationHistory[n-1] < s.PopulationHistory[n-2] {
		s.PopulationDeclineYears++
	} else {
		s.PopulationDeclineYears = 0
	}
}

// Reading exposes the named values conditions may refer to.
func (s *AttributeState) Reading(name string) (float64, bool) {
	switch name {
	case "currentYear", "year":
		return float64(s.Year), true
	case "populationDeclineYears":
		return float64(s.PopulationDeclineYears), true
	case "totalResourcesAdded":
		return s.TotalResourcesAdded, true
	case "researchConsumedTotal":
		return s.Research.ConsumedTotal, true
	case "constructionConsumedTotal":
		return s.Construction.ConsumedTotal, true
	}
	if a, ok := LookupAttribute(name); ok {
		return s.Get(a)
	}
	return 0, false
}

// Clone returns a deep copy for read-only observers.
func (s *AttributeState) Clone() AttributeState {
	c := *s
	c.Research = s.Research.clone()
	c.Construction = s.Construction.clone()
	c.PopulationHistory = append([]float64(nil), s.PopulationHistory...)
	c.LastTriggeredEvents = append([]string(nil), s.LastTriggeredEvents...)
	return c
}

func (t TrackState) clone() TrackState {
	if t.ResourceMetYear != nil {
		t.ResourceMetYear = intPtr(*t.ResourceMetYear)
	}
	if t.LastUpgradeYear != nil {
		t.LastUpgradeYear = intPtr(*t.LastUpgradeYear)
	}
	return t
}

// ClampPercent clamps v into 0-100.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampFloor(v, floor float64) float64 {
	if math.IsNaN(v) || v < floor {
		return floor
	}
	return v
}

func intPtr(v int) *int { return &v }
