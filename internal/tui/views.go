package tui

import (
	"fmt"
	"strings"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/cli"
	"github.com/davrell/chemviz/internal/session"
	"github.com/davrell/chemviz/internal/tui/components"
	"github.com/davrell/chemviz/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	snap := a.sess.Snapshot()

	if !snap.Authenticated {
		return a.viewLogin(snap)
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain(snap)
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  chemviz needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLogin(snap session.Snapshot) string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("chemviz"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render("Sign in to view uploaded equipment data"))
	b.WriteString("\n\n")

	if a.loggingIn {
		b.WriteString(a.spinner.View())
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render(" signing in..."))
	} else if a.loginForm != nil {
		b.WriteString(a.loginForm.View())
	}

	errMsg := a.authError
	if errMsg == "" {
		errMsg = snap.LastError
	}
	if errMsg != "" && !a.loggingIn {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.Red).Render("✗ " + errMsg))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewHelp() string {
	t := theme.Active

	keyStyle := lipgloss.NewStyle().Foreground(t.Blue).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	keys := []struct{ key, desc string }{
		{"j/k, ↓/↑", "move through history and load details"},
		{"enter", "reload the highlighted upload"},
		{"u", "upload a CSV or Excel workbook"},
		{"r", "refresh the history list"},
		{"R", "toggle auto-refresh"},
		{"d", "download the PDF report for the selection"},
		{"s", "sign out"},
		{"?", "toggle this help"},
		{"q, ctrl+c", "quit"},
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render("Keys"))
	b.WriteString("\n\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", k.key)),
			descStyle.Render(k.desc)))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain(snap session.Snapshot) string {
	bodyHeight := a.height - 2 // header + status bar
	if bodyHeight < 4 {
		bodyHeight = 4
	}

	sidebarW := a.width / 3
	if sidebarW > 44 {
		sidebarW = 44
	}
	detailW := a.width - sidebarW

	sidebar := a.renderHistoryPanel(snap, sidebarW)
	detail := a.renderDetailPanel(snap, detailW)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, detail)
	body = padHeight(truncateHeight(body, bodyHeight), bodyHeight)

	var busy []string
	if snap.Uploading {
		busy = append(busy, a.spinner.View()+"uploading")
	}
	if snap.Loading {
		busy = append(busy, a.spinner.View()+"loading")
	}
	if snap.Downloading {
		busy = append(busy, a.spinner.View()+"downloading")
	}

	errMsg := snap.LastError
	if errMsg == "" {
		errMsg = a.fileErr
	}

	var b strings.Builder
	b.WriteString(a.renderHeader(snap))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(components.RenderStatusBar(a.width, snap.Username, busy, errMsg))
	return b.String()
}

func (a App) renderHeader(snap session.Snapshot) string {
	t := theme.Active

	left := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(" chemviz ")

	right := ""
	if a.status != "" {
		right = lipgloss.NewStyle().Foreground(t.Green).Render(a.status + " ")
	} else if a.autoRefresh {
		right = lipgloss.NewStyle().Foreground(t.TextDim).Render("auto-refresh on ")
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderHistoryPanel lists recent uploads with the cursor and selection marks.
func (a App) renderHistoryPanel(snap session.Snapshot, width int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(width)

	cursorStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.Accent)
	metaStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	if len(snap.History) == 0 {
		b.WriteString(metaStyle.Render("No uploads yet. Press u to upload a CSV."))
	}
	for i, rec := range snap.History {
		prefix := "  "
		if i == a.cursor {
			prefix = cursorStyle.Render("> ")
		}

		name := rec.Filename
		if maxName := innerW - 4; maxName > 3 {
			name = truncate(name, maxName)
		}
		line := nameStyle.Render(name)
		if snap.Selected != nil && snap.Selected.ID == rec.ID {
			line = selectedStyle.Render(name + " •")
		}

		b.WriteString(prefix + line + "\n")
		b.WriteString("  " + metaStyle.Render(fmt.Sprintf("#%d  %s", rec.ID, rec.CreatedAt)) + "\n")
	}

	if a.uploadPrompt {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render("File to upload (esc to cancel):"))
		b.WriteString("\n")
		b.WriteString(a.uploadInput.View())
	}

	return components.ContentCard("History", b.String(), width)
}

// renderDetailPanel shows the summary, distribution, and a data preview for
// the selected upload.
func (a App) renderDetailPanel(snap session.Snapshot, width int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(width)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	switch snap.Detail.State {
	case session.DetailEmpty:
		return components.ContentCard("Details", dimStyle.Render("Select an upload to see its summary."), width)

	case session.DetailLoading:
		return components.ContentCard("Details", a.spinner.View()+dimStyle.Render(" loading..."), width)

	case session.DetailFailed:
		msg := "detail fetch failed"
		if snap.Detail.Err != nil {
			msg = snap.Detail.Err.Message
		}
		body := lipgloss.NewStyle().Foreground(t.Red).Render("✗ " + msg)
		return components.ContentCard("Details", body, width)
	}

	d := snap.Detail
	var b strings.Builder

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)

	b.WriteString(valueStyle.Render(d.Filename))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%s rows", cli.FormatNumber(int64(d.Summary.TotalCount)))))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Averages"))
	b.WriteString("\n")
	b.WriteString(components.AverageBars(
		d.Summary.Averages.Flowrate,
		d.Summary.Averages.Pressure,
		d.Summary.Averages.Temperature,
		innerW,
	))
	b.WriteString("\n")

	if len(d.Summary.TypeDistribution) > 0 {
		b.WriteString(labelStyle.Render("Equipment types"))
		b.WriteString("\n")
		b.WriteString(components.DistributionBars(d.Summary.TypeDistribution, innerW))
		b.WriteString("\n")
	}

	if len(d.Rows) > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Data (first %d rows)", previewRows(d.Rows))))
		b.WriteString("\n")
		b.WriteString(renderRowPreview(d.Rows, innerW))
	}

	return components.ContentCard("Details", b.String(), width)
}

const maxPreviewRows = 8

func previewRows(rows []api.Row) int {
	if len(rows) < maxPreviewRows {
		return len(rows)
	}
	return maxPreviewRows
}

// renderRowPreview formats the first few data rows as fixed columns sized to
// fit the panel.
func renderRowPreview(rows []api.Row, width int) string {
	t := theme.Active
	cols := rowColumnsPreview(rows[0])
	if len(cols) == 0 {
		return ""
	}

	colW := width/len(cols) - 1
	if colW < 6 {
		colW = 6
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	trunc := func(s string) string {
		return truncate(s, colW)
	}

	var b strings.Builder
	for _, c := range cols {
		b.WriteString(headStyle.Render(fmt.Sprintf("%-*s ", colW, trunc(cli.ColumnTitle(c)))))
	}
	b.WriteString("\n")

	n := previewRows(rows)
	for _, row := range rows[:n] {
		for _, c := range cols {
			b.WriteString(cellStyle.Render(fmt.Sprintf("%-*s ", colW, trunc(cli.FormatCell(row[c])))))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func rowColumnsPreview(row api.Row) []string {
	keys := make(map[string]any, len(row))
	for k, v := range row {
		keys[k] = v
	}
	delete(keys, "id")
	return cli.SortedKeys(keys)
}

// truncate shortens s to at most max runes, ending in an ellipsis. Slicing by
// rune keeps multibyte filenames intact.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max < 2 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
