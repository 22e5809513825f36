package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/petdesk/internal/state"
)

// Messages

type tickMsg time.Time

// opDoneMsg reports a finished collection operation. State lives in the
// collection; the message only carries what the flash line needs.
type opDoneMsg struct {
	tab     Tab
	op      state.Op
	id      int64
	message string
	err     error
}

type loginDoneMsg struct {
	username string
	err      error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) listCmd(t Tab, page int, search string) tea.Cmd {
	ctx, size := m.ctx, m.pageSize
	pets, tutores := m.pets, m.tutores
	return func() tea.Msg {
		var err error
		if t == TabTutores {
			err = tutores.List(ctx, page, size, search)
		} else {
			err = pets.List(ctx, page, size, search)
		}
		return opDoneMsg{tab: t, op: state.OpList, err: err}
	}
}

func (m Model) fetchCmd(t Tab, id int64) tea.Cmd {
	ctx := m.ctx
	pets, tutores := m.pets, m.tutores
	return func() tea.Msg {
		var err error
		if t == TabTutores {
			err = tutores.FetchOne(ctx, id)
		} else {
			err = pets.FetchOne(ctx, id)
		}
		return opDoneMsg{tab: t, op: state.OpFetchOne, id: id, err: err}
	}
}

func (m Model) deleteCmd(t Tab, id int64) tea.Cmd {
	ctx := m.ctx
	pets, tutores := m.pets, m.tutores
	return func() tea.Msg {
		var (
			msg string
			err error
		)
		if t == TabTutores {
			msg, err = tutores.Delete(ctx, id)
		} else {
			msg, err = pets.Delete(ctx, id)
		}
		return opDoneMsg{tab: t, op: state.OpDelete, id: id, message: msg, err: err}
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	ctx, sess := m.ctx, m.session
	return func() tea.Msg {
		_, err := sess.Login(ctx, username, password)
		return loginDoneMsg{username: username, err: err}
	}
}
