package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	cl "simarket/internal/cli"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	watchMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newWatchCmd(apiBase *string) *cobra.Command {
	var every time.Duration
	var buff float64
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live advisory table (watchlist when pinned, whole session otherwise)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pinned, err := cl.LoadWatchlist()
			if err != nil {
				return err
			}
			m := newWatchModel(newClient(apiBase), pinned, every, buff)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&every, "every", 2*time.Second, "refresh interval")
	cmd.Flags().Float64Var(&buff, "buff", 0, "player sense buff in [0,1]")
	return cmd
}

type watchTickMsg time.Time

type watchDataMsg struct {
	payload rankPayload
	err     error
}

type watchModel struct {
	client  *cl.Client
	pinned  map[string]bool
	every   time.Duration
	buff    float64
	table   table.Model
	hour    int
	day     int
	lastErr error
}

func newWatchModel(client *cl.Client, pinned []string, every time.Duration, buff float64) watchModel {
	pinnedSet := make(map[string]bool, len(pinned))
	for _, id := range pinned {
		pinnedSet[id] = true
	}

	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "NAME", Width: 22},
		{Title: "PRICE", Width: 12},
		{Title: "SCORE", Width: 7},
		{Title: "TIER", Width: 18},
		{Title: "STATUS", Width: 11},
		{Title: "TREND", Width: 11},
		{Title: "RISK", Width: 5},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return watchModel{
		client: client,
		pinned: pinnedSet,
		every:  every,
		buff:   buff,
		table:  t,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.schedule())
}

func (m watchModel) schedule() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return watchTickMsg(t) })
}

func (m watchModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	raw, err := m.client.Rank(ctx, 0, m.buff, false)
	if err != nil {
		return watchDataMsg{err: err}
	}
	payload, err := decodeInto[rankPayload](raw)
	return watchDataMsg{payload: payload, err: err}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case watchTickMsg:
		return m, tea.Batch(m.fetch, m.schedule())
	case watchDataMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.hour = msg.payload.Hour
		m.day = msg.payload.Day
		m.table.SetRows(m.rowsFrom(msg.payload.Entries))
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m watchModel) rowsFrom(entries []rankEntryView) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		if len(m.pinned) > 0 && !m.pinned[e.InstrumentID] {
			continue
		}
		rows = append(rows, table.Row{
			e.InstrumentID,
			truncate(e.DisplayName, 22),
			formatPrice(e.Prediction.CurrentPrice),
			fmt.Sprintf("%.1f", e.Score),
			e.Tier,
			e.Prediction.Status,
			e.Prediction.Trend,
			fmt.Sprintf("%.2f", e.Prediction.RiskLevel),
		})
	}
	return rows
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(watchTitleStyle.Render("simarket watch"))
	b.WriteString(watchMetaStyle.Render(fmt.Sprintf("  day %d, hour %d  (q to quit)", m.day, m.hour)))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(watchErrStyle.Render("fetch failed: " + m.lastErr.Error()))
	}
	b.WriteString("\n")
	return b.String()
}
