package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davrell/chemviz/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// DistributionBars renders a horizontal bar chart of category counts, one
// category per line, sorted by descending count then name.
func DistributionBars(dist map[string]int, width int) string {
	if len(dist) == 0 {
		return ""
	}
	t := theme.Active

	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(dist))
	maxCount := 0
	labelW := 0
	for name, n := range dist {
		entries = append(entries, entry{name, n})
		if n > maxCount {
			maxCount = n
		}
		if w := len([]rune(name)); w > labelW {
			labelW = w
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	if labelW > 16 {
		labelW = 16
	}
	barW := width - labelW - 8
	if barW < 5 {
		barW = 5
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	barStyle := lipgloss.NewStyle().Foreground(t.Blue)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	var b strings.Builder
	for i, e := range entries {
		name := e.name
		if r := []rune(name); len(r) > labelW {
			name = string(r[:labelW-1]) + "…"
		}
		filled := barW
		if maxCount > 0 {
			filled = e.count * barW / maxCount
		}
		if filled < 1 {
			filled = 1
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, name)))
		b.WriteString(barStyle.Render(strings.Repeat("█", filled)))
		b.WriteString(countStyle.Render(fmt.Sprintf(" %d", e.count)))
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// AverageBars renders the three parameter averages as labeled bars scaled
// against the largest of them.
func AverageBars(flowrate, pressure, temperature float64, width int) string {
	t := theme.Active

	rows := []struct {
		label string
		value float64
		color lipgloss.Color
	}{
		{"flowrate", flowrate, t.Green},
		{"pressure", pressure, t.Yellow},
		{"temperature", temperature, t.Red},
	}

	maxVal := 0.0
	for _, r := range rows {
		if r.value > maxVal {
			maxVal = r.value
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	labelW := len("temperature")
	barW := width - labelW - 12
	if barW < 5 {
		barW = 5
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	var b strings.Builder
	for i, r := range rows {
		filled := int(r.value / maxVal * float64(barW))
		if filled < 1 {
			filled = 1
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, r.label)))
		b.WriteString(lipgloss.NewStyle().Foreground(r.color).Render(strings.Repeat("█", filled)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %.2f", r.value)))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
