package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DrawsPerYear is the number of independent event draws made each year.
const DrawsPerYear = 2

// Event is a compiled catalog entry.
type Event struct {
	Name        string
	Description string
	Condition   Condition
	Probability float64 // clamped into [0,1]
	Effects     []EffectTerm
}

// Catalog is the immutable, ordered set of events a game draws from.
type Catalog struct {
	events []Event
}

// NewCatalog wraps already compiled events.
func NewCatalog(events ...Event) *Catalog {
	return &Catalog{events: append([]Event(nil), events...)}
}

// CompileCatalog parses every definition. An entry whose condition cannot be parsed is dropped,
// since it could never be evaluated. Bad effect terms are dropped from their entry. Every
// problem is returned so content authors see it before a run starts.
func CompileCatalog(defs []EventDefinition) (*Catalog, error) {
	var errs []error
	events := make([]Event, 0, len(defs))
	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			name = fmt.Sprintf("event #%d", i+1)
		}
		cond, err := ParseCondition(def.Condition)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		terms, err := ParseEffect(def.Effect)
		if err != nil {
			errs = append(errs, tagEffectErrors(name, err))
		}
		events = append(events, Event{
			Name:        name,
			Description: def.Description,
			Condition:   cond,
			Probability: clampProbability(def.Probability),
			Effects:     terms,
		})
	}
	return &Catalog{events: events}, errors.Join(errs...)
}

func tagEffectErrors(event string, err error) error {
	var out []error
	for _, e := range unjoin(err) {
		var me *MalformedEffectError
		if errors.As(e, &me) {
			tagged := *me
			tagged.Event = event
			out = append(out, &tagged)
			continue
		}
		out = append(out, e)
	}
	return errors.Join(out...)
}

// unjoin flattens errors.Join trees into their leaves.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	j, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range j.Unwrap() {
		out = append(out, unjoin(e)...)
	}
	return out
}

func clampProbability(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return math.Min(p, 1)
}

// Len returns the number of events in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.events)
}

// Events returns a copy of the compiled events.
func (c *Catalog) Events() []Event {
	if c == nil {
		return nil
	}
	return append([]Event(nil), c.events...)
}

// Candidates returns the events whose condition holds for s and whose probability is above
// zero, in catalog order. Conditions that fail to evaluate count as unmet and are reported.
func (c *Catalog) Candidates(s *AttributeState) ([]Event, error) {
	if c == nil {
		return nil, nil
	}
	var (
		out  []Event
		errs []error
	)
	for _, ev := range c.events {
		if ev.Probability <= 0 {
			continue
		}
		ok, err := ev.Condition.Eval(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ev.Name, err))
			continue
		}
		if ok {
			out = append(out, ev)
		}
	}
	return out, errors.Join(errs...)
}

// SelectEvent performs one draw over candidates. The first uniform value decides whether any
// event fires at all (it must fall below the summed probability, itself capped at 1). The
// second picks one candidate proportionally to its probability.
func SelectEvent(candidates []Event, rng Rand) (Event, bool) {
	if len(candidates) == 0 {
		return Event{}, false
	}
	total := 0.0
	for _, ev := range candidates {
		total += clampProbability(ev.Probability)
	}
	total = math.Min(total, 1)
	if rng.Float64() >= total {
		return Event{}, false
	}
	pick := rng.Float64() * total
	cum := 0.0
	for _, ev := range candidates {
		cum += clampProbability(ev.Probability)
		if pick <= cum {
			return ev, true
		}
	}
	// Rounding can leave pick a hair above the final sum; the draw has already fired.
	return candidates[0], true
}

// Draw filters the catalog against s and performs one selection.
func (c *Catalog) Draw(s *AttributeState, rng Rand) (Event, bool, error) {
	cands, err := c.Candidates(s)
	ev, ok := SelectEvent(cands, rng)
	return ev, ok, err
}

// ApplyEvent applies the event's effects to s, clamps, and returns the applied term texts.
func ApplyEvent(s *AttributeState, ev Event) []string {
	return ApplyEffects(s, ev.Effects)
}

// EventMessage formats the journal line for an applied event.
func EventMessage(ev Event, applied []string) string {
	msg := "【" + ev.Name + "】" + ev.Description
	if len(applied) > 0 {
		msg += " " + strings.Join(applied, "，")
	}
	return msg
}
