package engine

import "testing"

func scenarioConfig() LevelConfig {
	return LevelConfig{
		Research:      []float64{0, 5000000, 9000000, 20000000},
		Construction:  []float64{0, 1000000, 2000000, 3000000},
		ResearchYears: YearTable{2: 1, 3: 2},
		SharedYears:   YearTable{2: 1, 3: 1},
	}
}

func TestResearchScenarioWaitsOneYear(t *testing.T) {
	l := Leveler{Config: scenarioConfig()}
	s := NewAttributeState()
	s.Year = 2170
	s.Research.ConsumedTotal = 5000000

	out := l.Advance(s, TrackResearch)
	if !out.Milestone || out.Phase != PhaseWaiting || s.Research.Level != 1 {
		t.Fatalf("year Y: %+v level=%d", out, s.Research.Level)
	}
	if s.Research.ResourceMetYear == nil || *s.Research.ResourceMetYear != 2170 {
		t.Fatalf("marker not stamped")
	}
	if e, ok := out.Entry(s.Year); !ok || e.Topic != TopicMilestone || e.Message != "⏳ 科研等级1资源已满足，开始升级，需用1年" {
		t.Fatalf("milestone entry = %+v", e)
	}

	s.Year++
	out = l.Advance(s, TrackResearch)
	if !out.LeveledUp || s.Research.Level != 2 {
		t.Fatalf("year Y+1: %+v level=%d", out, s.Research.Level)
	}
	if s.Research.ResourceMetYear != nil || *s.Research.LastUpgradeYear != 2171 {
		t.Fatalf("bookkeeping after level-up: %+v", s.Research)
	}
	if out.NextRequiredYears != 2 {
		t.Fatalf("next wait = %d", out.NextRequiredYears)
	}
}

func TestFallingBelowThresholdClearsMarker(t *testing.T) {
	l := Leveler{Config: scenarioConfig()}
	s := NewAttributeState()
	s.Research.ResourceMetYear = intPtr(2160)
	out := l.Advance(s, TrackResearch)
	if out.Phase != PhaseAccumulating || s.Research.ResourceMetYear != nil {
		t.Fatalf("stale marker kept: %+v", s.Research)
	}
}

func TestConstructionBlockedKeepsMarker(t *testing.T) {
	l := Leveler{Config: scenarioConfig()}
	s := NewAttributeState()
	s.Year = 2200
	s.Construction.ConsumedTotal = 1500000
	s.Construction.ResourceMetYear = intPtr(2190)

	out := l.Advance(s, TrackConstruction)
	if out.Phase != PhaseBlocked || s.Construction.Level != 1 {
		t.Fatalf("expected blocked, got %+v", out)
	}
	if s.Construction.ResourceMetYear == nil || *s.Construction.ResourceMetYear != 2190 {
		t.Fatalf("blocked turn reset the marker")
	}
	if e, ok := out.Entry(s.Year); !ok || e.Topic != TopicBlocked {
		t.Fatalf("blocked entry missing")
	}
	if st := l.Status(s, TrackConstruction); st.Phase != PhaseBlocked || st.Text() != "(需提升科研等级)" {
		t.Fatalf("status = %+v", st)
	}

	s.Research.Level = 2
	s.Year++
	out = l.Advance(s, TrackConstruction)
	if !out.LeveledUp || s.Construction.Level != 2 || s.Construction.ResourceMetYear != nil {
		t.Fatalf("expected level-up once research caught up: %+v", out)
	}
}

func TestMaxedTrackStops(t *testing.T) {
	l := Leveler{Config: scenarioConfig()}
	s := NewAttributeState()
	s.Research.Level = 4
	s.Research.ConsumedTotal = 1e12
	if out := l.Advance(s, TrackResearch); out.Phase != PhaseMaxed || s.Research.Level != 4 {
		t.Fatalf("maxed track changed: %+v", out)
	}
}

func TestStatusReportsProgress(t *testing.T) {
	l := Leveler{Config: scenarioConfig()}
	s := NewAttributeState()
	s.Research.ConsumedTotal = 2500000
	st := l.Status(s, TrackResearch)
	if st.Phase != PhaseAccumulating || st.Percent != 50 || st.Text() != "(资源进度: 50.0%)" {
		t.Fatalf("status = %+v %q", st, st.Text())
	}
	s.Research.ConsumedTotal = 5000000
	s.Research.ResourceMetYear = intPtr(s.Year)
	if st := l.Status(s, TrackResearch); st.Phase != PhaseWaiting || st.YearsRemaining != 1 {
		t.Fatalf("waiting status = %+v", st)
	}
}

func TestRequiredYearsLookup(t *testing.T) {
	def := DefaultLevelConfig()
	for target, want := range map[int]int{1: 1, 2: 0, 10: 0, 11: 2, 21: 3, 101: 11, 500: 0} {
		if got := def.RequiredYears(TrackConstruction, target); got != want {
			t.Fatalf("default RequiredYears(%d) = %d, want %d", target, got, want)
		}
	}
	onlyResearch := LevelConfig{ResearchYears: YearTable{2: 3}}
	if got := onlyResearch.RequiredYears(TrackConstruction, 2); got != 0 {
		t.Fatalf("construction borrowed the research table, got %d", got)
	}
	shared := LevelConfig{ResearchYears: YearTable{2: 3}, SharedYears: YearTable{2: 6}}
	if got := shared.RequiredYears(TrackConstruction, 2); got != 6 {
		t.Fatalf("construction should use the shared table, got %d", got)
	}
	if got := onlyResearch.RequiredYears(TrackResearch, 5); got != 0 {
		t.Fatalf("missing key should wait 0, got %d", got)
	}
	own := LevelConfig{ResearchYears: YearTable{2: 3}, ConstructionYears: YearTable{2: 5}}
	if got := own.RequiredYears(TrackConstruction, 2); got != 5 {
		t.Fatalf("construction table ignored, got %d", got)
	}
	if th, ok := def.Threshold(TrackResearch, 1); !ok || th != 17000000 {
		t.Fatalf("default threshold(1) = %v %v", th, ok)
	}
}

func TestTalentRule(t *testing.T) {
	s := NewAttributeState()
	for i := 0; i < 40; i++ {
		s.Year++
		AdvanceTalent(s, true)
	}
	if s.TalentLevel != TalentCap {
		t.Fatalf("talent = %d, want cap", s.TalentLevel)
	}
	s.Year = 2201
	AdvanceTalent(s, false)
	if s.TalentLevel != TalentCap {
		t.Fatalf("odd year should not decay")
	}
	s.Year = 2202
	AdvanceTalent(s, false)
	if s.TalentLevel != TalentCap-1 {
		t.Fatalf("even year should decay")
	}
	s.TalentLevel = 1
	AdvanceTalent(s, false)
	if s.TalentLevel != 1 {
		t.Fatalf("talent fell below 1")
	}
}
