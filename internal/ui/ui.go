package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/DaanHessen/undercity/internal/engine"
	"github.com/DaanHessen/undercity/internal/text"
)

const (
	logLines    = 14
	barWidth    = 12
	defaultTick = time.Second
)

// Options configure the TUI.
type Options struct {
	City  string
	Tick  time.Duration
	Theme string
	// OnEnd is called once when the game reaches an ending.
	OnEnd func(engine.Ending, engine.AttributeState)
}

type tickMsg struct{ gen int }

var levelTracks = map[engine.Attribute]engine.Track{
	engine.AttrResearchLevel:     engine.TrackResearch,
	engine.AttrConstructionLevel: engine.TrackConstruction,
}

type model struct {
	ctx   context.Context
	game  *engine.Game
	opts  Options
	theme string
	st    styles

	paused bool
	gen    int

	quote    string
	quoteRng *engine.Stream

	ending  *engine.Ending
	summary string
	err     error

	width  int
	height int
}

func newModel(ctx context.Context, g *engine.Game, opts Options) model {
	if opts.Tick <= 0 {
		opts.Tick = defaultTick
	}
	theme := opts.Theme
	if _, ok := palettes[theme]; !ok {
		theme = defaultTheme
	}
	rng := g.Seed().Stream("quotes")
	m := model{ctx: ctx, game: g, opts: opts, theme: theme, st: newStyles(theme), quoteRng: rng}
	m.quote = text.Quote(rng)
	if e, ok := g.Ending(); ok {
		m.finish(e)
	}
	return m
}

func (m model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.opts.Tick, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m model) Init() tea.Cmd {
	if m.ending != nil {
		return nil
	}
	return m.tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		// Ticks from before a pause are dropped so resuming never doubles the pace.
		if msg.gen != m.gen || m.paused || m.ending != nil {
			return m, nil
		}
		m.step()
		if m.ending != nil {
			return m, nil
		}
		return m, m.tick()
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m model) handleKey(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "t":
		m.theme = nextThemeName(m.theme, 1)
		m.st = newStyles(m.theme)
		return m, nil
	}
	if m.ending != nil {
		return m, nil
	}
	switch k {
	case "1", "2", "3", "4", "5", "6", "7", "8":
		idx := int(k[0] - '1')
		if list := m.game.Strategies(); idx < len(list) && list[idx].ID != m.game.Strategy().ID {
			if err := m.game.SetStrategy(list[idx].ID); err != nil {
				m.err = err
			}
		}
	case "+", "=":
		m.game.SetBirthRate(m.game.BirthRate() + 1)
	case "-", "_":
		m.game.SetBirthRate(m.game.BirthRate() - 1)
	case " ", "p":
		m.paused = !m.paused
		m.gen++
		if !m.paused {
			return m, m.tick()
		}
	case "n":
		if m.paused {
			m.step()
		}
	}
	return m, nil
}

// step advances the game one year and refreshes the quote.
func (m *model) step() {
	rep, err := m.game.ProcessYear(m.ctx)
	switch {
	case errors.Is(err, engine.ErrGameOver):
	case errors.Is(err, engine.ErrReentrant):
		return
	case err != nil:
		m.err = err
		return
	}
	m.quote = text.Quote(m.quoteRng)
	if rep.Ending != nil {
		m.finish(*rep.Ending)
		return
	}
	if e, ok := m.game.Ending(); ok {
		m.finish(e)
	}
}

func (m *model) finish(e engine.Ending) {
	if m.ending != nil {
		return
	}
	m.ending = &e
	snap := m.game.Snapshot()
	md := text.Summary(m.opts.City, snap, e)
	m.summary = md
	width := m.width
	if width <= 0 {
		width = 80
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width)); err == nil {
		if out, err := r.Render(md); err == nil {
			m.summary = out
		}
	}
	if m.opts.OnEnd != nil {
		m.opts.OnEnd(e, snap)
	}
}

func (m model) View() string {
	if m.ending != nil {
		return m.summary + "\n" + m.st.muted.Render("[t] 主题  [q] 退出") + "\n"
	}
	top := m.renderTopBar()
	left := m.st.panel.Render(m.renderAttributes())
	right := m.st.panel.Render(m.renderJournal())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, top, m.st.muted.Render(m.quote), body, m.renderStrategies(), m.renderBottomBar())
}

func (m model) renderTopBar() string {
	snap := m.game.Snapshot()
	parts := []string{
		text.CityTitle(m.opts.City),
		fmt.Sprintf("%d年", snap.Year),
		fmt.Sprintf("距回家还有 %d 年", max(engine.HorizonYear-snap.Year, 0)),
		"策略：" + m.game.Strategy().Name,
		"生育率：" + text.BirthRate(m.game.BirthRate()),
	}
	if m.paused {
		parts = append(parts, "⏸ 暂停")
	}
	return m.st.title.Render(strings.Join(parts, " • "))
}

func (m model) renderAttributes() string {
	snap := m.game.Snapshot()
	rows := make([][]string, 0, len(engine.AllAttributes))
	for _, a := range engine.AllAttributes {
		v, _ := snap.Get(a)
		switch {
		case a.IsPercent():
			rows = append(rows, []string{a.Label(), fmt.Sprintf("%5.1f", v), m.st.bar(v, barWidth)})
		case a.IsLevel():
			status := ""
			if t, ok := levelTracks[a]; ok {
				status = m.game.LevelStatus(t).Text()
			}
			rows = append(rows, []string{a.Label(), fmt.Sprintf("%d", int(v)), status})
		case a == engine.AttrResources:
			rows = append(rows, []string{a.Label(), text.Compact(v), ""})
		default:
			rows = append(rows, []string{a.Label(), text.Number(v), ""})
		}
	}

	headerStyle := m.st.title.Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(m.st.pal.Text).Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(m.st.pal.Border)).
		Headers("指标", "数值", "状态").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

func (m model) renderJournal() string {
	entries := m.game.Journal()
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	var b strings.Builder
	b.WriteString(m.st.title.Render("日志") + "\n")
	if len(entries) == 0 {
		b.WriteString(m.st.muted.Render("(暂无记录)"))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		b.WriteString(m.st.entry(entries[i]) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) renderStrategies() string {
	current := m.game.Strategy()
	var parts []string
	for i, s := range m.game.Strategies() {
		label := fmt.Sprintf("[%d] %s", i+1, s.Name)
		if s.ID == current.ID {
			label = m.st.accent.Bold(true).Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ") + "\n" + m.st.muted.Render(current.Tip)
}

func (m model) renderBottomBar() string {
	line := "[1-8] 策略  [+/-] 生育率  [空格] 暂停  [n] 单步  [t] 主题  [q] 退出"
	if m.err != nil {
		line += "  " + m.st.warning.Render("错误："+m.err.Error())
	}
	return m.st.muted.Render(line)
}
