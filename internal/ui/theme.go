package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DaanHessen/undercity/internal/engine"
)

type palette struct {
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Accent   lipgloss.Color
	Border   lipgloss.Color
	Positive lipgloss.Color
	Warning  lipgloss.Color
	Event    lipgloss.Color
	BarFill  lipgloss.Color
	BarEmpty lipgloss.Color
}

const defaultTheme = "bunker"

var palettes = map[string]palette{
	"bunker": {
		Text:     lipgloss.Color("#d8dee9"),
		Muted:    lipgloss.Color("#7b8394"),
		Accent:   lipgloss.Color("#88c0d0"),
		Border:   lipgloss.Color("#4c566a"),
		Positive: lipgloss.Color("#a3be8c"),
		Warning:  lipgloss.Color("#bf616a"),
		Event:    lipgloss.Color("#ebcb8b"),
		BarFill:  lipgloss.Color("#88c0d0"),
		BarEmpty: lipgloss.Color("#3b4252"),
	},
	"furnace": {
		Text:     lipgloss.Color("#ebdbb2"),
		Muted:    lipgloss.Color("#a89984"),
		Accent:   lipgloss.Color("#fe8019"),
		Border:   lipgloss.Color("#665c54"),
		Positive: lipgloss.Color("#b8bb26"),
		Warning:  lipgloss.Color("#fb4934"),
		Event:    lipgloss.Color("#fabd2f"),
		BarFill:  lipgloss.Color("#fe8019"),
		BarEmpty: lipgloss.Color("#3c3836"),
	},
	"frost": {
		Text:     lipgloss.Color("#eceff4"),
		Muted:    lipgloss.Color("#9aa5b8"),
		Accent:   lipgloss.Color("#81a1c1"),
		Border:   lipgloss.Color("#5e81ac"),
		Positive: lipgloss.Color("#8fbcbb"),
		Warning:  lipgloss.Color("#d08770"),
		Event:    lipgloss.Color("#b48ead"),
		BarFill:  lipgloss.Color("#8fbcbb"),
		BarEmpty: lipgloss.Color("#2e3440"),
	},
	"mono": {
		Text:     lipgloss.Color("252"),
		Muted:    lipgloss.Color("244"),
		Accent:   lipgloss.Color("255"),
		Border:   lipgloss.Color("240"),
		Positive: lipgloss.Color("250"),
		Warning:  lipgloss.Color("231"),
		Event:    lipgloss.Color("248"),
		BarFill:  lipgloss.Color("250"),
		BarEmpty: lipgloss.Color("236"),
	},
}

func paletteFor(name string) palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[defaultTheme]
}

func themeNames() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func nextThemeName(current string, step int) string {
	names := themeNames()
	idx := 0
	for i, name := range names {
		if name == current {
			idx = i
			break
		}
	}
	idx = (idx + step) % len(names)
	if idx < 0 {
		idx += len(names)
	}
	return names[idx]
}

type styles struct {
	pal      palette
	title    lipgloss.Style
	muted    lipgloss.Style
	accent   lipgloss.Style
	positive lipgloss.Style
	warning  lipgloss.Style
	event    lipgloss.Style
	panel    lipgloss.Style
}

func newStyles(theme string) styles {
	p := paletteFor(theme)
	return styles{
		pal:      p,
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		muted:    lipgloss.NewStyle().Foreground(p.Muted),
		accent:   lipgloss.NewStyle().Foreground(p.Accent),
		positive: lipgloss.NewStyle().Foreground(p.Positive),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(p.Warning),
		event:    lipgloss.NewStyle().Foreground(p.Event),
		panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1),
	}
}

// entry colours a journal line by its kind.
func (s styles) entry(e engine.LogEntry) string {
	switch e.Kind {
	case engine.LogWarning:
		return s.warning.Render(e.Message)
	case engine.LogEvent:
		return s.event.Render(e.Message)
	}
	if e.Topic == engine.TopicLevelUp || e.Topic == engine.TopicEnding {
		return s.positive.Render(e.Message)
	}
	return lipgloss.NewStyle().Foreground(s.pal.Text).Render(e.Message)
}

// bar draws a 0-100 gauge.
func (s styles) bar(v float64, width int) string {
	fill := int(v/100*float64(width) + 0.5)
	fill = min(max(fill, 0), width)
	full := lipgloss.NewStyle().Foreground(s.pal.BarFill).Render(strings.Repeat("█", fill))
	empty := lipgloss.NewStyle().Foreground(s.pal.BarEmpty).Render(strings.Repeat("░", width-fill))
	return full + empty
}

