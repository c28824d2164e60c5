package engine

import "strings"

// Strategy is one of the governing policies. Zero multipliers are read as neutral (1).
type Strategy struct {
	ID   string
	Name string
	Tip  string

	PopulationCost   float64
	ResearchCost     float64
	ConstructionCost float64

	PeopleSupport float64
	Security      float64
	Civilization  float64

	CultivatesTalent bool
}

// DefaultStrategyID is active when a game starts.
const DefaultStrategyID = "balanced"

var strategyTable = []Strategy{
	{ID: "balanced", Name: "均衡发展", Tip: "平衡各项发展，无特殊加成"},
	{ID: "rapid", Name: "高速发展", Tip: "⚡人口/工程消耗+30%，科研消耗+100%，安全+2/年，民心-2/年",
		PopulationCost: 1.3, ConstructionCost: 1.3, ResearchCost: 2, PeopleSupport: -2, Security: 2},
	{ID: "rationing", Name: "资源调控", Tip: "🔋人口消耗-30%，民心-1/年",
		PopulationCost: 0.7, PeopleSupport: -1},
	{ID: "welfare", Name: "民生安定", Tip: "🏠人口消耗+30%，民心+1/年",
		PopulationCost: 1.3, PeopleSupport: 1},
	{ID: "engineering", Name: "工程建设", Tip: "🏗️工程消耗+30%，安全+1/年",
		ConstructionCost: 1.3, Security: 1},
	{ID: "science", Name: "科学研究", Tip: "🔬科研消耗+100%",
		ResearchCost: 2},
	{ID: "talent", Name: "人才培养", Tip: "🎓人口消耗+50%，人才等级每年提升",
		PopulationCost: 1.5, CultivatesTalent: true},
	{ID: "culture", Name: "文化发展", Tip: "📚文明+1/年，民心+0.5/年",
		Civilization: 1, PeopleSupport: 0.5},
}

// Strategies lists every strategy in display order.
func Strategies() []Strategy { return append([]Strategy(nil), strategyTable...) }

// LookupStrategy finds a strategy by id or by its in-game name.
func LookupStrategy(idOrName string) (Strategy, bool) {
	key := strings.TrimSpace(idOrName)
	for _, s := range strategyTable {
		if strings.EqualFold(s.ID, key) || s.Name == key {
			return s, true
		}
	}
	return Strategy{}, false
}

func neutral(m float64) float64 {
	if m == 0 {
		return 1
	}
	return m
}

func (s Strategy) PopulationMultiplier() float64   { return neutral(s.PopulationCost) }
func (s Strategy) ResearchMultiplier() float64     { return neutral(s.ResearchCost) }
func (s Strategy) ConstructionMultiplier() float64 { return neutral(s.ConstructionCost) }

func (s Strategy) String() string { return s.Name }
