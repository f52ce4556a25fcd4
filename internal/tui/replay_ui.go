package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"patchrebase.dev/patchrebase/internal/patch"
)

// Key bindings
const (
	KeyCtrlC = "ctrl+c"
	KeyQuit  = "q"
)

const (
	statusPending   = "pending"
	statusRunning   = "running"
	statusDone      = "done"
	statusSuspended = "suspended"
	statusError     = "error"
)

// ReplayItem is one patch line in the progress view
type ReplayItem struct {
	Name    string
	Status  string
	Outcome patch.Outcome
	Paths   []string
	Error   error
}

// ReplayTUIModel is the bubbletea model for replay progress
type ReplayTUIModel struct {
	items    []ReplayItem
	spinner  spinner.Model
	done     bool
	quitting bool
	styles   replayStyles
	updates  <-chan ProgressUpdate
}

type replayStyles struct {
	spinnerStyle lipgloss.Style
	doneStyle    lipgloss.Style
	changedStyle lipgloss.Style
	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewReplayTUIModel creates a progress view for the named patches, fed by updates
func NewReplayTUIModel(names []string, updates <-chan ProgressUpdate) ReplayTUIModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := make([]ReplayItem, len(names))
	for i, name := range names {
		items[i] = ReplayItem{Name: name, Status: statusPending}
	}

	return ReplayTUIModel{
		items:   items,
		spinner: s,
		updates: updates,
		styles: replayStyles{
			spinnerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
			doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			changedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

// Init initializes the bubbletea model
func (m ReplayTUIModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkForUpdates())
}

// updatesClosedMsg is sent once the session stopped sending updates
type updatesClosedMsg struct{}

// pollMsg is sent when a poll found nothing, to schedule the next one
type pollMsg struct{}

// checkForUpdates polls the update channel. Exactly one poll is pending
// at any time.
func (m ReplayTUIModel) checkForUpdates() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		select {
		case update, ok := <-m.updates:
			if !ok {
				return updatesClosedMsg{}
			}
			return update
		default:
			return pollMsg{}
		}
	})
}

// Update handles message updates for the bubbletea model
func (m ReplayTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == KeyCtrlC || msg.String() == KeyQuit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressUpdate:
		m = m.apply(msg)
		return m, m.checkForUpdates()

	case pollMsg:
		return m, m.checkForUpdates()

	case updatesClosedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// apply records one progress update. Orders are 1-based queue positions.
func (m ReplayTUIModel) apply(u ProgressUpdate) ReplayTUIModel {
	if u.Order < 1 || u.Order > len(m.items) {
		return m
	}
	items := append([]ReplayItem(nil), m.items...)
	item := &items[u.Order-1]
	switch u.Type {
	case UpdateStarted:
		item.Status = statusRunning
	case UpdateFinished:
		item.Status = statusDone
		item.Outcome = u.Outcome
	case UpdateSuspended:
		item.Status = statusSuspended
		item.Paths = u.Paths
	case UpdateFailed:
		item.Status = statusError
		item.Error = u.Error
	}
	m.items = items
	return m
}

// Done reports whether the session stopped sending updates
func (m ReplayTUIModel) Done() bool {
	return m.done
}

// Items returns the current state of every patch line
func (m ReplayTUIModel) Items() []ReplayItem {
	return m.items
}

// View renders the TUI
func (m ReplayTUIModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nReplaying patches:\n\n")
	for i, item := range m.items {
		var icon, status string
		switch item.Status {
		case statusPending:
			icon = m.styles.dimStyle.Render("○")
			status = m.styles.dimStyle.Render("pending")
		case statusRunning:
			icon = m.spinner.View()
			status = m.styles.spinnerStyle.Render("replaying...")
		case statusDone:
			icon, status = m.renderOutcome(item.Outcome)
		case statusSuspended:
			icon = m.styles.changedStyle.Render("!")
			status = m.styles.changedStyle.Render("conflict in " + strings.Join(item.Paths, ", "))
		case statusError:
			icon = m.styles.errorStyle.Render("✗")
			status = m.styles.errorStyle.Render("failed")
			if item.Error != nil {
				status += " " + m.styles.errorStyle.Render("→ "+item.Error.Error())
			}
		}
		fmt.Fprintf(&b, "  %s %d. %s %s\n", icon, i+1, item.Name, status)
	}
	return b.String()
}

func (m ReplayTUIModel) renderOutcome(o patch.Outcome) (string, string) {
	switch o {
	case patch.Untouched:
		return m.styles.doneStyle.Render("✓"), m.styles.doneStyle.Render(o.String())
	case patch.Modified:
		return m.styles.changedStyle.Render("~"), m.styles.changedStyle.Render(o.String())
	case patch.Deleted:
		return m.styles.dimStyle.Render("-"), m.styles.dimStyle.Render(o.String())
	default:
		return m.styles.errorStyle.Render("✗"), m.styles.errorStyle.Render(o.String())
	}
}

// IsTTY returns true if we can use a TTY for interactive TUI
func IsTTY() bool {
	if !((isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))) {
		return false
	}
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// RunReplayTUI shows the progress view until updates is closed
func RunReplayTUI(names []string, updates <-chan ProgressUpdate) error {
	m := NewReplayTUIModel(names, updates)
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	_, err := p.Run()
	return err
}
