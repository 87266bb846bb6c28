package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"workbench/internal/budget"
	"workbench/internal/fragment"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	groupStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("240"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	checkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	redStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	yellowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// previewLines bounds the rendered fragment preview.
const previewLines = 12

func (m *appModel) View() string {
	var sb strings.Builder

	chain := m.manager.Chain()
	marker := ""
	if !chain.SelectedIsTop() {
		marker = " (older snapshot)"
	}
	sb.WriteString(headerStyle.Render(fmt.Sprintf("Workspace — snapshot %d/%d: %s%s",
		m.snapshot.Seq(), chain.Len(), m.snapshot.Action(), marker)))
	sb.WriteString("\n\n")

	index := 0
	writeGroup := func(title string, frags []fragment.Fragment) {
		if len(frags) == 0 {
			return
		}
		sb.WriteString(groupStyle.Render(title))
		sb.WriteByte('\n')
		for _, f := range frags {
			line := "  "
			if m.selected[f.ID()] {
				line = checkStyle.Render("✓ ")
			}
			line += f.Description()
			if index == m.cursor {
				line = cursorStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
			index++
		}
		sb.WriteByte('\n')
	}

	historyFrag := m.snapshot.HistoryFragment()
	if len(m.snapshot.HistoryEntries()) > 0 {
		writeGroup("Task History", []fragment.Fragment{historyFrag})
	}
	writeGroup("Read-only", m.snapshot.ReadOnly())
	writeGroup("Virtual", m.snapshot.Virtual())
	writeGroup("Editable", m.snapshot.Editable())

	if m.snapshot.IsEmpty() {
		sb.WriteString(noticeStyle.Render("Workspace is empty. Paste (v) or add files to begin."))
		sb.WriteString("\n\n")
	}

	if preview := m.renderPreview(); preview != "" {
		sb.WriteString(groupStyle.Render("Preview"))
		sb.WriteByte('\n')
		sb.WriteString(preview)
		sb.WriteString("\n")
	}

	for _, n := range m.notices {
		if n.isError {
			sb.WriteString(errorStyle.Render("! " + n.text))
		} else {
			sb.WriteString(noticeStyle.Render("• " + n.text))
		}
		sb.WriteByte('\n')
	}

	if m.instructing {
		sb.WriteByte('\n')
		sb.WriteString(m.instructions.View())
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(m.renderFooter())
	sb.WriteByte('\n')
	sb.WriteString(helpStyle.Render("↑/↓ move · space select · e edit · r read · s summarize · d drop · c copy · v paste · tab toggle · ←/→ snapshots · i instructions · q quit"))
	return sb.String()
}

// renderPreview shows the fragment under the cursor through the markdown
// renderer, truncated.
func (m *appModel) renderPreview() string {
	frags := m.snapshot.AllFragments()
	if m.cursor >= len(frags) {
		return ""
	}
	f := frags[m.cursor]
	if !f.IsText() {
		return noticeStyle.Render("(image fragment)")
	}
	text, err := f.Text()
	if err != nil {
		return errorStyle.Render("unreadable: " + err.Error())
	}
	lines := strings.Split(text, "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], "…")
	}
	out, err := glamour.Render(strings.Join(lines, "\n"), "dark")
	if err != nil {
		return strings.Join(lines, "\n")
	}
	return strings.TrimRight(out, "\n")
}

// renderFooter shows the approximate token count, the warning tier, and the
// per-model cost estimates.
func (m *appModel) renderFooter() string {
	parts := []string{fmt.Sprintf("~%d tokens", m.estimate.ApproxTokens)}

	switch m.estimate.Tier {
	case budget.TierRed:
		parts = append(parts, redStyle.Render("context nearly full"))
	case budget.TierYellow:
		parts = append(parts, yellowStyle.Render("context half full"))
	}

	names := make([]string, 0, len(m.estimate.CostsByModel))
	for name := range m.estimate.CostsByModel {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s $%.4f", name, m.estimate.CostsByModel[name]))
	}

	return noticeStyle.Render(strings.Join(parts, "  ·  "))
}
