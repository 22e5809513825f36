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

type column struct {
	title string
	width int
}

// listView is the tab-independent shape of a collection snapshot.
type listView struct {
	columns    []column
	rows       [][]string
	ids        []int64
	pagination state.Pagination
	search     string
	status     state.Status
	errMsg     string
	offline    bool
}

func (m Model) currentList() listView {
	if m.tab == TabTutores {
		s := m.tutorSnap
		v := baseView(s)
		v.columns = []column{{"ID", 6}, {"Nome", 24}, {"Email", 28}, {"Telefone", 16}}
		for _, t := range s.Items {
			v.rows = append(v.rows, []string{strconv.FormatInt(t.ID, 10), t.Nome, orDash(t.Email), orDash(t.Telefone)})
		}
		return v
	}
	s := m.petSnap
	v := baseView(s)
	v.columns = []column{{"ID", 6}, {"Nome", 24}, {"Raça", 20}, {"Idade", 6}}
	for _, p := range s.Items {
		v.rows = append(v.rows, []string{strconv.FormatInt(p.ID, 10), p.Nome, orDash(p.Raca), strconv.Itoa(p.Idade)})
	}
	return v
}

func baseView[T, D state.Entity](s state.Snapshot[T, D]) listView {
	v := listView{
		pagination: s.Pagination,
		search:     s.SearchQuery,
		status:     s.Status,
		errMsg:     s.ErrorMessage,
		offline:    s.IsOffline(),
	}
	for _, item := range s.Items {
		v.ids = append(v.ids, item.EntityID())
	}
	return v
}

func (m *Model) clampSelection() {
	n := len(m.currentList().ids)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) selectedID() (int64, bool) {
	ids := m.currentList().ids
	if m.selected < 0 || m.selected >= len(ids) {
		return 0, false
	}
	return ids[m.selected], true
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.currentList()
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(v.ids)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = maxInt(len(v.ids)-1, 0)
	case key.Matches(msg, m.keys.NextPage):
		// The collection does not clamp; stay inside [0, PageCount).
		if v.pagination.Page+1 < v.pagination.PageCount {
			m.selected = 0
			return m, m.listCmd(m.tab, v.pagination.Page+1, v.search)
		}
	case key.Matches(msg, m.keys.PrevPage):
		if v.pagination.Page > 0 {
			m.selected = 0
			return m, m.listCmd(m.tab, v.pagination.Page-1, v.search)
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.listCmd(m.tab, v.pagination.Page, v.search)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(v.search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Open):
		if id, ok := m.selectedID(); ok {
			return m, m.navigate(fmt.Sprintf("/%s/%d", m.tab, id))
		}
	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.selectedID(); ok {
			m.confirmDelete = true
			m.deleteID = id
		}
	}
	return m, nil
}

// handleSearchKey edits the search term. Enter stores it on the collection
// and lists the first page with it.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		term := strings.TrimSpace(m.search.Value())
		if m.tab == TabTutores {
			m.tutores.SetSearchQuery(term)
		} else {
			m.pets.SetSearchQuery(term)
		}
		m.refreshSnapshots()
		m.selected = 0
		return m, m.listCmd(m.tab, 0, term)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	v := m.currentList()

	var b strings.Builder
	var header []string
	for _, c := range v.columns {
		header = append(header, padRight(c.title, c.width))
	}
	b.WriteString(styles.MutedText.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(v.rows) == 0 {
		switch v.status {
		case state.StatusLoading:
			b.WriteString(styles.InfoText.Render("Carregando..."))
		case state.StatusFailed:
			b.WriteString(styles.DangerText.Render("Falha ao carregar."))
		default:
			b.WriteString(styles.FaintText.Render("Nenhum registro."))
		}
		b.WriteString("\n")
	}
	for i, row := range v.rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			w := v.columns[j].width
			cells[j] = padRight(truncate(cell, w), w)
		}
		line := strings.Join(cells, " ")
		if i == m.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(pageLabel(v.pagination)))
	if v.search != "" {
		b.WriteString(styles.AccentText.Render("  busca: " + v.search))
	}
	if m.searching {
		b.WriteString("\n")
		b.WriteString(m.search.View())
	}
	return b.String()
}

func pageLabel(p state.Pagination) string {
	if !p.HasPages() {
		return fmt.Sprintf("%d registro(s)", p.Total)
	}
	return fmt.Sprintf("Página %d/%d · %d registro(s)", p.Page+1, p.PageCount, p.Total)
}

// tutorSummary and petSummary render the embedded related records.
func tutorSummary(t petapi.Tutor) string {
	return fmt.Sprintf("#%d %s %s", t.ID, t.Nome, orDash(t.Telefone))
}

func petSummary(p petapi.Pet) string {
	return fmt.Sprintf("#%d %s (%s)", p.ID, p.Nome, orDash(p.Raca))
}
