package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/petdesk/internal/state"
)

// renderMain renders header, content and footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	if m.screen == ScreenDetail {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	tabs := make([]string, 0, 2)
	for _, t := range []Tab{TabPets, TabTutores} {
		label := " " + string(t) + " "
		if t == m.tab {
			tabs = append(tabs, styles.Selected.Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Render(label))
		}
	}

	v := m.currentList()
	badge := v.status.String()
	if v.offline {
		badge = "offline"
	}

	right := m.sessionLabel()
	left := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Logo.Render("petdesk"), "  ",
		strings.Join(tabs, " "), "  ",
		styles.StatusStyle(badge).Render(badge),
	)
	if m.width <= 0 {
		return left + "  " + right
	}
	gap := maxInt(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) sessionLabel() string {
	styles := m.theme.Styles()
	st := m.session.Status()
	if !st.Authenticated {
		return styles.DangerText.Render("sem sessão")
	}
	if st.ExpiresAt == nil {
		return styles.SuccessText.Render("conectado")
	}
	left := time.Until(*st.ExpiresAt).Round(time.Second)
	if left <= 0 {
		return styles.WarningText.Render("token expirado")
	}
	return styles.SuccessText.Render(fmt.Sprintf("token expira em %s", left))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var lines []string

	if m.confirmDelete {
		lines = append(lines, styles.WarningText.Render(fmt.Sprintf("Remover #%d? (y/n)", m.deleteID)))
	}
	v := m.currentList()
	switch {
	case m.flash != "":
		lines = append(lines, styles.WarningText.Render(m.flash))
	case v.status == state.StatusFailed && v.errMsg != "":
		lines = append(lines, styles.DangerText.Render(v.errMsg))
	}
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	styles := m.theme.Styles()
	return styles.Logo.Render("petdesk") + "\n\n" + h.View(m.keys) + "\n\n" +
		styles.MutedText.Render("Pressione qualquer tecla para fechar.")
}
