package engine

import (
	"fmt"
	"math"
)

// LevelOutcome describes what one Advance call did to a track.
type LevelOutcome struct {
	Track Track
	Phase Phase
	Level int

	// Milestone is set on the year the resources were first met.
	Milestone bool
	LeveledUp bool

	RequiredYears     int // wait for the level currently being worked towards
	YearsRemaining    int
	NextRequiredYears int // set on level-up: wait for the level after the new one
}

// Entry returns the journal line for the outcome, if it warrants one.
func (o LevelOutcome) Entry(year int) (LogEntry, bool) {
	switch {
	case o.Milestone:
		return LogEntry{Year: year, Kind: LogWarning, Topic: TopicMilestone,
			Message: fmt.Sprintf("⏳ %s等级%d资源已满足，开始升级，需用%d年", o.Track.Label(), o.Level, o.RequiredYears)}, true
	case o.LeveledUp:
		return LogEntry{Year: year, Kind: LogWarning, Topic: TopicLevelUp,
			Message: fmt.Sprintf("🎉 %s等级提升到 %d! (下一级升级需用%d年)", o.Track.Label(), o.Level, o.NextRequiredYears)}, true
	case o.Phase == PhaseBlocked:
		return LogEntry{Year: year, Kind: LogWarning, Topic: TopicBlocked,
			Message: "⚠️ 建设等级已达到上限，请先提升科研等级！"}, true
	}
	return LogEntry{}, false
}

// Leveler runs the two-phase levelling machine against a LevelConfig.
type Leveler struct {
	Config LevelConfig
}

// Advance evaluates one track for the current year of s. While accumulating, the cumulative
// spend is compared with the threshold for the current level. Meeting it stamps the year and
// starts the wait. Once the wait has elapsed the level rises, except that construction may not
// rise past research: it then stays waiting with its stamp intact.
func (l Leveler) Advance(s *AttributeState, t Track) LevelOutcome {
	ts := s.Track(t)
	out := LevelOutcome{Track: t, Level: ts.Level}
	threshold, ok := l.Config.Threshold(t, ts.Level)
	if !ok {
		out.Phase = PhaseMaxed
		return out
	}
	if ts.ConsumedTotal < threshold {
		ts.ResourceMetYear = nil
		out.Phase = PhaseAccumulating
		return out
	}
	required := l.Config.RequiredYears(t, ts.Level+1)
	out.RequiredYears = required
	if ts.ResourceMetYear == nil {
		ts.ResourceMetYear = intPtr(s.Year)
		out.Phase = PhaseWaiting
		out.Milestone = true
		out.YearsRemaining = required
		return out
	}
	elapsed := s.Year - *ts.ResourceMetYear
	if elapsed < required {
		out.Phase = PhaseWaiting
		out.YearsRemaining = required - elapsed
		return out
	}
	if t == TrackConstruction && s.Research.Level <= ts.Level {
		out.Phase = PhaseBlocked
		return out
	}
	ts.Level++
	ts.ResourceMetYear = nil
	ts.LastUpgradeYear = intPtr(s.Year)
	out.Level = ts.Level
	out.LeveledUp = true
	out.Phase = PhaseAccumulating
	out.NextRequiredYears = l.Config.RequiredYears(t, ts.Level+1)
	return out
}

// AdvanceTalent applies the yearly talent rule.
func AdvanceTalent(s *AttributeState, cultivating bool) {
	switch {
	case cultivating:
		s.TalentLevel = min(s.TalentLevel+1, TalentCap)
	case s.Year%2 == 0:
		s.TalentLevel = max(s.TalentLevel-1, 1)
	}
}

// LevelStatus is a read-only view of a track for display.
type LevelStatus struct {
	Track          Track
	Level          int
	Phase          Phase
	Consumed       float64
	Threshold      float64
	Percent        float64 // 0-100, meaningful while accumulating
	YearsRemaining int
}

// Status reports where t stands without changing s.
func (l Leveler) Status(s *AttributeState, t Track) LevelStatus {
	ts := s.Track(t)
	st := LevelStatus{Track: t, Level: ts.Level, Consumed: ts.ConsumedTotal}
	threshold, ok := l.Config.Threshold(t, ts.Level)
	if !ok {
		st.Phase = PhaseMaxed
		st.Percent = 100
		return st
	}
	st.Threshold = threshold
	if threshold > 0 {
		st.Percent = math.Min(ts.ConsumedTotal/threshold*100, 100)
	} else {
		st.Percent = 100
	}
	if ts.ConsumedTotal < threshold {
		st.Phase = PhaseAccumulating
		return st
	}
	required := l.Config.RequiredYears(t, ts.Level+1)
	if ts.ResourceMetYear == nil {
		st.Phase = PhaseWaiting
		st.YearsRemaining = required
		return st
	}
	if elapsed := s.Year - *ts.ResourceMetYear; elapsed < required {
		st.Phase = PhaseWaiting
		st.YearsRemaining = required - elapsed
		return st
	}
	if t == TrackConstruction && s.Research.Level <= ts.Level {
		st.Phase = PhaseBlocked
		return st
	}
	st.Phase = PhaseReady
	return st
}

// Text renders the status the way the game shows it next to a level.
func (st LevelStatus) Text() string {
	switch st.Phase {
	case PhaseWaiting:
		return fmt.Sprintf("(升级中，还需 %d 年)", st.YearsRemaining)
	case PhaseBlocked:
		return "(需提升科研等级)"
	case PhaseReady:
		return "(可升级)"
	case PhaseMaxed:
		return "(已满级)"
	}
	return fmt.Sprintf("(资源进度: %.1f%%)", st.Percent)
}
