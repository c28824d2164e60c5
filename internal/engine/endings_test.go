package engine

import "testing"

func TestEndingPriority(t *testing.T) {
	s := NewAttributeState()
	s.Population = 100
	s.Resources = -5
	if !IsTerminal(s) {
		t.Fatalf("expected terminal")
	}
	if e := ResolveEnding(s); e.ID != EndingExtinct {
		t.Fatalf("got ending %d (%s), want population collapse", e.ID, e.Title)
	}
}

func TestEndingRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(s *AttributeState)
		want   int
	}{
		{"bankrupt", func(s *AttributeState) { s.Resources = 0 }, EndingBankrupt},
		{"exiled", func(s *AttributeState) { s.PeopleSupport = 0; s.Security = 0 }, EndingExiled},
		{"undefended", func(s *AttributeState) { s.Security = 0 }, EndingUndefended},
		{"inhuman", func(s *AttributeState) { s.Civilization = 0 }, EndingInhuman},
		{"horizon", func(s *AttributeState) { s.Year = HorizonYear }, EndingHomeworld},
		{"hope", func(s *AttributeState) { s.Security, s.PeopleSupport = 95, 95 }, EndingHope},
		{"silence", func(s *AttributeState) { s.Security, s.PeopleSupport = 60, 60 }, EndingSilence},
		{"fading", func(s *AttributeState) { s.Security, s.PeopleSupport = 40, 40 }, EndingFading},
		{"winter", func(s *AttributeState) { s.Security, s.PeopleSupport = 40, 60 }, EndingWinter},
		{"mutiny", func(s *AttributeState) { s.Security, s.PeopleSupport = 60, 40 }, EndingMutiny},
		{"edge-90", func(s *AttributeState) { s.Security, s.PeopleSupport = 90, 90 }, EndingUnknown},
		{"edge-50", func(s *AttributeState) { s.Security, s.PeopleSupport = 50, 50 }, EndingUnknown},
	}
	for _, tc := range cases {
		s := NewAttributeState()
		tc.mutate(s)
		if got := ResolveEnding(s); got.ID != tc.want {
			t.Fatalf("%s: got %d (%s), want %d", tc.name, got.ID, got.Title, tc.want)
		}
	}
}

func TestStartIsNotTerminal(t *testing.T) {
	s := NewAttributeState()
	if IsTerminal(s) {
		t.Fatalf("starting state is terminal")
	}
	s.Year = HorizonYear - 1
	if IsTerminal(s) {
		t.Fatalf("year before horizon is terminal")
	}
}

func TestEndingByIDUnknown(t *testing.T) {
	if e := EndingByID(99); e.ID != EndingUnknown {
		t.Fatalf("unexpected ending for missing id: %+v", e)
	}
}
