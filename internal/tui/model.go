// Package tui renders the latest analysis as a Bubble Tea dashboard for SSH
// sessions.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/notify"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const fetchTimeout = 30 * time.Second

type SignalSource interface {
	Latest(ctx context.Context) (domain.Analysis, error)
	Analyze(ctx context.Context) (domain.Analysis, error)
}

type analysisMsg struct{ analysis domain.Analysis }

type errMsg struct{ err error }

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	buyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sellStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	holdStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

type Model struct {
	source   SignalSource
	username string
	every    time.Duration

	spinner  spinner.Model
	loading  bool
	analysis *domain.Analysis
	err      error

	width, height int
}

// NewModel builds a dashboard that refreshes every interval. An interval of
// zero disables the automatic refresh.
func NewModel(source SignalSource, username string, every time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		source:   source,
		username: username,
		every:    every,
		spinner:  s,
		loading:  true,
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(false), m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetch(true))
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case analysisMsg:
		a := msg.analysis
		m.analysis = &a
		m.err = nil
		m.loading = false
	case errMsg:
		m.err = msg.err
		m.loading = false
	case tickMsg:
		cmds := []tea.Cmd{m.tick()}
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.spinner.Tick, m.fetch(false))
		}
		return m, tea.Batch(cmds...)
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	title := "signalbot"
	if m.analysis != nil {
		title = fmt.Sprintf("signalbot · %s %s", m.analysis.Symbol, m.analysis.Interval)
	}
	b.WriteString(titleStyle.Render(title))
	if m.username != "" {
		b.WriteString(dimStyle.Render("  " + m.username))
	}
	b.WriteString("\n\n")

	switch {
	case m.analysis == nil && m.loading:
		b.WriteString(m.spinner.View() + " Analyzing...\n")
	case m.analysis == nil && m.err != nil:
		b.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.analysis != nil:
		box := boxStyle
		if m.width > 4 {
			box = box.MaxWidth(m.width)
		}
		b.WriteString(box.Render(m.body(*m.analysis)) + "\n")
		if m.loading {
			b.WriteString(m.spinner.View() + " Refreshing...\n")
		} else if m.err != nil {
			b.WriteString(errStyle.Render("Refresh failed: "+m.err.Error()) + "\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("r refresh · q quit"))
	return b.String()
}

func (m Model) body(a domain.Analysis) string {
	sig := a.Signal
	if sig.Classification == domain.NoData {
		return fmt.Sprintf("Not enough data for a signal yet (%d candles).", a.CandleCount)
	}

	lines := []string{
		classificationStyle(sig.Classification).Render(notify.Label(sig.Classification)) +
			fmt.Sprintf("  %d%%", sig.Confidence),
		fmt.Sprintf("Price %.2f", sig.Price),
	}
	for _, r := range sig.Reasons {
		lines = append(lines, "• "+r)
	}
	for _, p := range sig.Patterns {
		lines = append(lines, fmt.Sprintf("◆ %s", p.Description))
	}
	lines = append(lines, dimStyle.Render(notify.IndicatorLine(sig.Indicators)))
	if !a.GeneratedAt.IsZero() {
		lines = append(lines, dimStyle.Render("Updated "+a.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")))
	}
	return strings.Join(lines, "\n")
}

func classificationStyle(c domain.Classification) lipgloss.Style {
	switch {
	case c.IsBuy():
		return buyStyle
	case c.IsSell():
		return sellStyle
	default:
		return holdStyle
	}
}

func (m Model) fetch(fresh bool) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		load := source.Latest
		if fresh {
			load = source.Analyze
		}
		a, err := load(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return analysisMsg{analysis: a}
	}
}

func (m Model) tick() tea.Cmd {
	if m.every <= 0 {
		return nil
	}
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return tickMsg(t) })
}
