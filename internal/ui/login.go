package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/petdesk/internal/prefs"
	"github.com/five82/petdesk/internal/route"
)

type loginForm struct {
	inputs [2]textinput.Model // username, password
	focus  int
}

func newLoginForm(username string) loginForm {
	user := textinput.New()
	user.Prompt = "Usuário: "
	user.CharLimit = 64
	user.SetValue(username)

	pass := textinput.New()
	pass.Prompt = "Senha:   "
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	f := loginForm{inputs: [2]textinput.Model{user, pass}}
	if username != "" {
		f.focus = 1
	}
	f.inputs[f.focus].Focus()
	return f
}

// reset clears the password and keeps the username.
func (f loginForm) reset() loginForm {
	return newLoginForm(f.username())
}

func (f loginForm) username() string { return strings.TrimSpace(f.inputs[0].Value()) }
func (f loginForm) password() string { return f.inputs[1].Value() }

func (f loginForm) cycle() loginForm {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + 1) % len(f.inputs)
	f.inputs[f.focus].Focus()
	return f
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.login = m.login.cycle()
		return m, nil
	case "enter":
		if m.login.focus == 0 && m.login.password() == "" {
			m.login = m.login.cycle()
			return m, nil
		}
		if m.session.Status().Loading {
			return m, nil
		}
		m.session.ClearError()
		m.flash = ""
		return m, m.loginCmd(m.login.username(), m.login.password())
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.login.inputs[1].SetValue("")
		return m, nil
	}
	username := msg.username
	_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Username = username })
	m.flash = ""
	return m, m.navigate(route.Home)
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	status := m.session.Status()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("petdesk"))
	b.WriteString("\n\n")
	b.WriteString(m.login.inputs[0].View())
	b.WriteString("\n")
	b.WriteString(m.login.inputs[1].View())
	b.WriteString("\n\n")
	switch {
	case status.Loading:
		b.WriteString(styles.InfoText.Render("Entrando..."))
	case status.Error != "":
		b.WriteString(styles.DangerText.Render(status.Error))
	case m.flash != "":
		b.WriteString(styles.WarningText.Render(m.flash))
	default:
		b.WriteString(styles.MutedText.Render("enter entrar · tab trocar campo · esc sair"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 3).
		Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
