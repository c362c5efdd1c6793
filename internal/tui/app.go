// Package tui provides the interactive task board.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/engine"
	"taskdeck/internal/models"
	"taskdeck/internal/store"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	overdueStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	dueSoonStyle = lipgloss.NewStyle().Foreground(warningColor)
	doneStyle    = lipgloss.NewStyle().Foreground(successColor)
	normalStyle  = lipgloss.NewStyle().Foreground(fgColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

var statusFilters = []engine.StatusFilter{engine.FilterAll, engine.FilterUnfinished, engine.FilterFinished}
var statusFilterNames = []string{"ALL", "UNFINISHED", "FINISHED"}

// App is the board model.
type App struct {
	store *store.Store

	tasks       []models.Task
	selectedIdx int
	search      textinput.Model
	searching   bool
	filterIdx   int
	mode        string // "list" or "detail"
	message     string
	width       int
	height      int
}

// New creates the board over a store.
func New(s *store.Store) *App {
	ti := textinput.New()
	ti.Placeholder = "search content, assignee, number..."
	ti.CharLimit = 128
	ti.Width = 40

	a := &App{store: s, search: ti, mode: "list"}
	a.refresh()
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) query() engine.Query {
	return engine.Query{
		Search: a.search.Value(),
		Status: statusFilters[a.filterIdx],
		Sort:   engine.SortDateAsc,
	}
}

func (a *App) refresh() {
	a.tasks = a.store.View(a.query())
	if a.selectedIdx >= len(a.tasks) {
		a.selectedIdx = len(a.tasks) - 1
	}
	if a.selectedIdx < 0 {
		a.selectedIdx = 0
	}
}

func (a *App) selected() (models.Task, bool) {
	if len(a.tasks) == 0 {
		return models.Task{}, false
	}
	return a.tasks[a.selectedIdx], true
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if a.searching {
			switch msg.String() {
			case "enter", "esc":
				a.searching = false
				a.search.Blur()
			default:
				var cmd tea.Cmd
				a.search, cmd = a.search.Update(msg)
				a.refresh()
				return a, cmd
			}
			a.refresh()
			return a, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "esc":
			if a.mode == "detail" {
				a.mode = "list"
			}
		case "up", "k":
			if a.selectedIdx > 0 {
				a.selectedIdx--
			}
		case "down", "j":
			if a.selectedIdx < len(a.tasks)-1 {
				a.selectedIdx++
			}
		case "enter":
			if _, ok := a.selected(); ok {
				a.mode = "detail"
			}
		case "/":
			a.searching = true
			a.search.Focus()
		case "f":
			a.filterIdx = (a.filterIdx + 1) % len(statusFilters)
			a.refresh()
		case "c":
			a.toggleComplete()
		case "+", "=":
			a.bumpProgress(10)
		case "-":
			a.bumpProgress(-10)
		}
	}
	return a, nil
}

func (a *App) toggleComplete() {
	t, ok := a.selected()
	if !ok {
		return
	}
	target := models.StatusCompleted
	if t.Status == models.StatusCompleted {
		target = models.StatusInProgress
	}
	if _, err := a.store.SetStatus(t.ID, target); err != nil {
		a.message = err.Error()
	} else {
		a.message = fmt.Sprintf("%s → %s", t.TaskNumber, target.Label())
	}
	a.refresh()
}

func (a *App) bumpProgress(delta int) {
	t, ok := a.selected()
	if !ok {
		return
	}
	p := t.Progress + delta
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if _, err := a.store.SetProgress(t.ID, p); err != nil {
		a.message = err.Error()
	} else {
		a.message = fmt.Sprintf("%s progress %d%%", t.TaskNumber, p)
	}
	a.refresh()
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	sum := a.store.Summarize()
	header := fmt.Sprintf("taskdeck — %d tasks", len(a.tasks))
	if sum.OverdueCount > 0 || sum.DueSoonCount > 0 {
		header += fmt.Sprintf("  (%s overdue, %s due soon)",
			overdueStyle.Render(fmt.Sprintf("%d", sum.OverdueCount)),
			dueSoonStyle.Render(fmt.Sprintf("%d", sum.DueSoonCount)))
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	bar := fmt.Sprintf(" filter: %s ", statusFilterNames[a.filterIdx])
	if a.search.Value() != "" || a.searching {
		bar += "| search: " + a.search.View()
	}
	b.WriteString(statusBarStyle.Render(bar))
	b.WriteString("\n\n")

	if a.mode == "detail" {
		b.WriteString(a.detailView())
	} else {
		b.WriteString(a.listView())
	}

	if a.message != "" {
		b.WriteString("\n" + helpStyle.Render(a.message))
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ move • enter detail • / search • f filter • c complete • +/- progress • q quit"))
	return b.String()
}

func (a *App) listView() string {
	if len(a.tasks) == 0 {
		return helpStyle.Render("  no tasks match")
	}
	var b strings.Builder
	for i, t := range a.tasks {
		line := fmt.Sprintf("%-8s %-10s %3d%%  %-12s %s",
			t.TaskNumber, shorten(t.Assignee, 10), t.Progress, t.Status.Label(), shorten(t.Content, 48))
		if t.TargetDate != "" {
			line += "  ⏰ " + t.TargetDate
		}
		style := styleFor(a.store.DueStatusOf(t), t.Status)
		if i == a.selectedIdx {
			style = selectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) detailView() string {
	t, ok := a.selected()
	if !ok {
		return helpStyle.Render("  nothing selected")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", t.TaskNumber, t.Content)
	fmt.Fprintf(&b, "status:    %s (%d%%)\n", t.Status.Label(), t.Progress)
	fmt.Fprintf(&b, "assignee:  %s (from %s)\n", t.Assignee, t.Assigner)
	fmt.Fprintf(&b, "system:    %s / %s\n", t.System, t.Category)
	fmt.Fprintf(&b, "priority:  %s\n", t.Priority)
	fmt.Fprintf(&b, "assigned:  %s   target: %s   completed: %s\n", t.AssignedDate, t.TargetDate, t.ActualCompletedDate)
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "tags:      %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Notes)
	}
	if len(t.Reports) > 0 {
		b.WriteString("\nreports:\n")
		for _, rep := range t.Reports {
			fmt.Fprintf(&b, "  %s  %3d%%  %s  %s\n", rep.Date, rep.Progress, rep.Reporter, rep.Content)
		}
	}
	return panelStyle.Render(b.String())
}

func styleFor(due models.DueStatus, status models.TaskStatus) lipgloss.Style {
	if status == models.StatusCompleted {
		return doneStyle
	}
	switch due {
	case models.DueOverdue:
		return overdueStyle
	case models.DueSoon:
		return dueSoonStyle
	default:
		return normalStyle
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Run starts the board.
func Run(s *store.Store) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
