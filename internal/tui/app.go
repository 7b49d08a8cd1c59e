// Package tui provides the interactive Bubble Tea dashboard for chemviz.
package tui

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/convert"
	"github.com/davrell/chemviz/internal/session"
	"github.com/davrell/chemviz/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// loginDoneMsg is sent when the login probe completes.
type loginDoneMsg struct {
	err error
}

// refreshDoneMsg is sent when a history refresh completes.
type refreshDoneMsg struct {
	err error
}

// selectDoneMsg is sent when a detail fetch completes (or is discarded).
type selectDoneMsg struct {
	err error
}

// uploadDoneMsg is sent when a CSV upload completes.
type uploadDoneMsg struct {
	rec api.Upload
	err error
}

// downloadDoneMsg is sent when a report download completes.
type downloadDoneMsg struct {
	path string
	err  error
}

type tickMsg struct{}

type loginValues struct {
	username string
	password string
}

// App is the root Bubble Tea model. All session state lives in the Session;
// the app holds only presentation state and reads fresh snapshots on render.
type App struct {
	sess        *session.Session
	downloadDir string

	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time

	width    int
	height   int
	cursor   int
	showHelp bool
	status   string // transient info line, e.g. the saved report path
	fileErr  string // local file errors that never reach the backend

	loginForm *huh.Form
	loginVals loginValues
	authError string
	loggingIn bool

	uploadPrompt bool
	uploadInput  textinput.Model

	spinner spinner.Model
}

const minTerminalWidth = 70

// NewApp creates a new TUI app model bound to an existing session.
func NewApp(sess *session.Session, username, downloadDir string, autoRefresh bool, refreshInterval time.Duration) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	if refreshInterval < 10*time.Second {
		refreshInterval = 30 * time.Second
	}

	a := App{
		sess:            sess,
		downloadDir:     downloadDir,
		autoRefresh:     autoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
	}
	a.loginVals.username = username
	a.loginForm = newLoginForm(&a.loginVals)
	return a
}

func newLoginForm(vals *loginValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&vals.username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password),
		),
	)
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.loginForm.Init(), a.spinner.Tick, tickCmd())
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	snap := a.sess.Snapshot()

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.loginForm != nil {
			a.loginForm = a.loginForm.WithWidth(msg.Width / 2)
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !snap.Authenticated {
			return a.updateLoginForm(msg)
		}

		if a.uploadPrompt {
			return a.updateUploadPrompt(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit

		case "j", "down":
			if a.cursor < len(snap.History)-1 {
				a.cursor++
				a.status = ""
				return a, a.selectCmd(snap.History[a.cursor])
			}
			return a, nil

		case "k", "up":
			if a.cursor > 0 {
				a.cursor--
				a.status = ""
				return a, a.selectCmd(snap.History[a.cursor])
			}
			return a, nil

		case "enter":
			if a.cursor < len(snap.History) {
				return a, a.selectCmd(snap.History[a.cursor])
			}
			return a, nil

		case "r":
			if !snap.Loading {
				return a, a.refreshCmd()
			}
			return a, nil

		case "R":
			a.autoRefresh = !a.autoRefresh
			return a, nil

		case "u":
			if snap.Uploading {
				return a, nil
			}
			a.uploadPrompt = true
			a.uploadInput = newUploadInput()
			return a, a.uploadInput.Cursor.BlinkCmd()

		case "d":
			if snap.Selected != nil && !snap.Downloading {
				a.status = ""
				return a, a.downloadCmd()
			}
			return a, nil

		case "s":
			a.sess.SignOut()
			a.cursor = 0
			a.status = ""
			a.authError = ""
			a.loginVals.password = ""
			a.loginForm = newLoginForm(&a.loginVals)
			return a, a.loginForm.Init()
		}
		return a, nil

	case loginDoneMsg:
		a.loggingIn = false
		if msg.err != nil {
			a.authError = a.sess.Snapshot().LastError
			a.loginVals.password = ""
			a.loginForm = newLoginForm(&a.loginVals)
			return a, a.loginForm.Init()
		}
		a.authError = ""
		a.cursor = 0
		a.lastRefresh = time.Now()
		return a, nil

	case refreshDoneMsg:
		a.lastRefresh = time.Now()
		a.clampCursor()
		return a, nil

	case selectDoneMsg:
		return a, nil

	case uploadDoneMsg:
		if msg.err == nil {
			a.cursor = 0
			a.status = "Uploaded " + msg.rec.Filename
		} else if _, ok := msg.err.(*api.Error); !ok {
			a.fileErr = msg.err.Error()
		}
		return a, nil

	case downloadDoneMsg:
		if msg.err == nil {
			a.status = "Saved " + msg.path
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if snap.Authenticated && a.autoRefresh && !snap.Loading {
			if time.Since(a.lastRefresh) >= a.refreshInterval {
				cmds = append(cmds, a.refreshCmd())
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the login form (cursor blinks, etc.)
	if !snap.Authenticated && a.loginForm != nil {
		return a.updateLoginForm(msg)
	}

	return a, nil
}

// clampCursor keeps the history cursor inside the current list bounds.
func (a *App) clampCursor() {
	n := len(a.sess.Snapshot().History)
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.loggingIn {
		return a, nil
	}

	form, cmd := a.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.loginForm = f
	}

	if a.loginForm.State == huh.StateCompleted {
		a.loggingIn = true
		a.authError = ""
		creds := api.Credentials{
			Username: strings.TrimSpace(a.loginVals.username),
			Password: a.loginVals.password,
		}
		return a, a.loginCmd(creds)
	}

	if a.loginForm.State == huh.StateAborted {
		return a, tea.Quit
	}

	return a, cmd
}

func newUploadInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "path/to/readings.csv"
	ti.Focus()
	return ti
}

func (a App) updateUploadPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(a.uploadInput.Value())
		a.uploadPrompt = false
		if path == "" {
			return a, nil
		}
		a.status = ""
		a.fileErr = ""
		return a, a.uploadCmd(path)

	case "esc":
		a.uploadPrompt = false
		return a, nil
	}

	var cmd tea.Cmd
	a.uploadInput, cmd = a.uploadInput.Update(msg)
	return a, cmd
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (a App) loginCmd(creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: a.sess.Login(context.Background(), creds)}
	}
}

func (a App) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: a.sess.RefreshHistory(context.Background())}
	}
}

func (a App) selectCmd(rec api.Upload) tea.Cmd {
	return func() tea.Msg {
		return selectDoneMsg{err: a.sess.SelectItem(context.Background(), rec)}
	}
}

func (a App) downloadCmd() tea.Cmd {
	return func() tea.Msg {
		path, err := a.sess.DownloadReport(context.Background(), a.downloadDir)
		return downloadDoneMsg{path: path, err: err}
	}
}

// uploadCmd reads and uploads a file from disk, converting workbooks to CSV
// first. Read errors surface through uploadDoneMsg like backend failures.
func (a App) uploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadDoneMsg{err: err}
		}

		filename := filepath.Base(path)
		if convert.IsWorkbook(path) {
			data, err = convert.WorkbookToCSV(bytes.NewReader(data))
			if err != nil {
				return uploadDoneMsg{err: err}
			}
			filename = convert.CSVName(path)
		}

		rec, err := a.sess.UploadFile(context.Background(), filename, bytes.NewReader(data))
		return uploadDoneMsg{rec: rec, err: err}
	}
}
