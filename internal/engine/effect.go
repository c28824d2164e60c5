package engine

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// EffectOp is the sign of an effect term.
type EffectOp byte

const (
	OpAdd      EffectOp = '+'
	OpSubtract EffectOp = '-'
)

// EffectTerm is one compiled "<name><+|-><int><%?>" term.
type EffectTerm struct {
	Label     string // as written, used in log text
	Target    Attribute
	Op        EffectOp
	Magnitude int
	Percent   bool
}

func (t EffectTerm) String() string {
	s := t.Label + string(t.Op) + strconv.Itoa(t.Magnitude)
	if t.Percent {
		s += "%"
	}
	return s
}

// Delta returns the signed change this term makes to current.
func (t EffectTerm) Delta(current float64) float64 {
	d := float64(t.Magnitude)
	if t.Percent {
		d = current * d / 100
	}
	if t.Op == OpSubtract {
		return -d
	}
	return d
}

var effectTermRe = regexp.MustCompile(`^([\p{Han}\w]+)([+-])(\d+)(%?)$`)

// ParseEffectTerm compiles a single term.
func ParseEffectTerm(raw string) (EffectTerm, error) {
	part := strings.TrimSpace(raw)
	m := effectTermRe.FindStringSubmatch(part)
	if m == nil {
		return EffectTerm{}, &MalformedEffectError{Term: part, Reason: "does not match <name><+|-><int>[%]"}
	}
	target, ok := LookupAttribute(m[1])
	if !ok {
		return EffectTerm{}, &MalformedEffectError{Term: part, Reason: "unknown attribute " + strconv.Quote(m[1])}
	}
	mag, err := strconv.Atoi(m[3])
	if err != nil {
		return EffectTerm{}, &MalformedEffectError{Term: part, Reason: "magnitude out of range"}
	}
	return EffectTerm{Label: m[1], Target: target, Op: EffectOp(m[2][0]), Magnitude: mag, Percent: m[4] == "%"}, nil
}

// ParseEffect splits a comma separated effect string. Valid terms are returned in order along
// with one error per rejected term.
func ParseEffect(effect string) ([]EffectTerm, error) {
	var (
		terms []EffectTerm
		errs  []error
	)
	for _, part := range strings.FieldsFunc(effect, func(r rune) bool { return r == ',' || r == '，' }) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		term, err := ParseEffectTerm(part)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		terms = append(terms, term)
	}
	return terms, errors.Join(errs...)
}

// ApplyEffects applies terms in order and clamps the state afterwards. Each percent term is
// computed from the value just before that term. It returns the text of the applied terms.
func ApplyEffects(s *AttributeState, terms []EffectTerm) []string {
	applied := make([]string, 0, len(terms))
	for _, term := range terms {
		cur, ok := s.Get(term.Target)
		if !ok {
			continue
		}
		s.Set(term.Target, cur+term.Delta(cur))
		applied = append(applied, term.String())
	}
	s.Clamp()
	return applied
}

// ApplyEffectString parses and applies an effect string in one step. Bad terms are skipped and
// reported; the others still apply.
func ApplyEffectString(s *AttributeState, effect string) ([]string, error) {
	terms, err := ParseEffect(effect)
	return ApplyEffects(s, terms), err
}
