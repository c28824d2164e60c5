package engine

import (
	"errors"
	"testing"
)

func TestApplyEffectStringRoundTrip(t *testing.T) {
	s := NewAttributeState()
	s.PeopleSupport = 50
	s.Security = 40
	applied, err := ApplyEffectString(s, "民心+10,安全-5%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PeopleSupport != 60 || s.Security != 38 {
		t.Fatalf("got support=%v security=%v", s.PeopleSupport, s.Security)
	}
	if len(applied) != 2 || applied[1] != "安全-5%" {
		t.Fatalf("applied = %v", applied)
	}
}

func TestPercentUsesPreTermValue(t *testing.T) {
	s := NewAttributeState()
	if _, err := ApplyEffectString(s, "资源+10%,资源+10%"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Resources != 24200000 {
		t.Fatalf("resources = %v, want 24200000", s.Resources)
	}
}

func TestMalformedTermsAreSkipped(t *testing.T) {
	s := NewAttributeState()
	applied, err := ApplyEffectString(s, "民心+10,bogus,安全=5,未知+3")
	if len(applied) != 1 || s.PeopleSupport != 60 {
		t.Fatalf("expected only the valid term to apply, got %v support=%v", applied, s.PeopleSupport)
	}
	var me *MalformedEffectError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedEffectError, got %v", err)
	}
	if n := len(unjoin(err)); n != 3 {
		t.Fatalf("expected 3 errors, got %d", n)
	}
}

func TestEffectsClampAndRoundLevels(t *testing.T) {
	s := NewAttributeState()
	_, _ = ApplyEffectString(s, "security+80,科研等级+2,建设等级-5,population-200%")
	if s.Security != 100 || s.Research.Level != 3 || s.Construction.Level != 1 || s.Population != 0 {
		t.Fatalf("unexpected state: %+v", s)
	}
}
