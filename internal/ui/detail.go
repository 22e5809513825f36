package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/petdesk/internal/petapi"
	"github.com/five82/petdesk/internal/state"
)

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m, m.navigate("/" + string(m.tab))
	case key.Matches(msg, m.keys.Reload):
		return m, m.fetchCmd(m.tab, m.detailID)
	case key.Matches(msg, m.keys.Delete):
		m.confirmDelete = true
		m.deleteID = m.detailID
	}
	return m, nil
}

type field struct {
	label string
	value string
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()

	var (
		fields       []field
		relatedTitle string
		related      []string
		foto         *petapi.Foto
		loaded       bool
		phase        state.Phase
	)
	if m.tab == TabTutores {
		phase = m.tutorSnap.Phase(state.OpFetchOne)
		if d := m.tutorSnap.Current; d != nil && d.ID == m.detailID {
			loaded = true
			fields = []field{
				{"Nome", d.Nome},
				{"Email", orDash(d.Email)},
				{"Telefone", orDash(d.Telefone)},
				{"Endereço", orDash(d.Endereco)},
				{"CPF", formatCPF(d.CPF)},
			}
			relatedTitle = "Pets"
			for _, p := range d.Pets {
				related = append(related, petSummary(p))
			}
			foto = d.Foto
		}
	} else {
		phase = m.petSnap.Phase(state.OpFetchOne)
		if d := m.petSnap.Current; d != nil && d.ID == m.detailID {
			loaded = true
			fields = []field{
				{"Nome", d.Nome},
				{"Raça", orDash(d.Raca)},
				{"Idade", strconv.Itoa(d.Idade)},
			}
			relatedTitle = "Tutores"
			for _, t := range d.Tutores {
				related = append(related, tutorSummary(t))
			}
			foto = d.Foto
		}
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Render(fmt.Sprintf("%s #%d", strings.TrimSuffix(string(m.tab), "s"), m.detailID)))
	b.WriteString("\n\n")
	if !loaded {
		if phase == state.PhaseRejected {
			b.WriteString(styles.DangerText.Render("Não foi possível carregar o registro."))
		} else {
			b.WriteString(styles.InfoText.Render("Carregando..."))
		}
		return b.String()
	}

	for _, f := range fields {
		b.WriteString(styles.MutedText.Render(padRight(f.label, 10)))
		b.WriteString(styles.Text.Render(f.value))
		b.WriteString("\n")
	}
	b.WriteString(styles.MutedText.Render(padRight("Foto", 10)))
	if foto != nil {
		b.WriteString(styles.Text.Render(fmt.Sprintf("%s (%s)", foto.Nome, orDash(foto.URL))))
	} else {
		b.WriteString(styles.FaintText.Render("-"))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Render(relatedTitle))
	b.WriteString("\n")
	if len(related) == 0 {
		b.WriteString(styles.FaintText.Render("  nenhum vínculo"))
		b.WriteString("\n")
	}
	for _, r := range related {
		b.WriteString(styles.Text.Render("  " + r))
		b.WriteString("\n")
	}
	return b.String()
}

// formatCPF renders an 11-digit CPF as 000.000.000-00.
func formatCPF(cpf int64) string {
	if cpf <= 0 {
		return "-"
	}
	s := fmt.Sprintf("%011d", cpf)
	if len(s) != 11 {
		return s
	}
	return s[0:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:]
}
