package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/petdesk/internal/apperr"
	"github.com/five82/petdesk/internal/credentials"
	"github.com/five82/petdesk/internal/petapi"
	"github.com/five82/petdesk/internal/prefs"
	"github.com/five82/petdesk/internal/route"
	"github.com/five82/petdesk/internal/session"
	"github.com/five82/petdesk/internal/state"
)

// Screen is the active console screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenList
	ScreenDetail
)

// Tab selects the record collection shown.
type Tab string

const (
	TabPets    Tab = "pets"
	TabTutores Tab = "tutores"
)

const defaultTick = time.Second

// Session is what the console needs from the session controller.
type Session interface {
	Authenticated() bool
	Status() session.Status
	Login(ctx context.Context, username, password string) (credentials.Credential, error)
	Logout() error
	ClearError()
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Session  Session
	Guard    *route.Guard
	Pets     *state.Collection[petapi.Pet, petapi.PetDetail]
	Tutores  *state.TutorCollection
	PageSize int
	// SetVisible is told which collection is on screen, for the poller.
	SetVisible func(name string)
	Tick       time.Duration
	ThemeName  string
	Username   string
	PrefsPath  string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	session    Session
	guard      *route.Guard
	pets       *state.Collection[petapi.Pet, petapi.PetDetail]
	tutores    *state.TutorCollection
	pageSize   int
	setVisible func(string)
	prefsPath  string
	tick       time.Duration

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	showHelp bool
	width    int
	height   int
	screen   Screen
	tab      Tab
	flash    string

	// Data state
	petSnap   state.Snapshot[petapi.Pet, petapi.PetDetail]
	tutorSnap state.Snapshot[petapi.Tutor, petapi.TutorDetail]

	// List state
	selected  int
	searching bool
	search    textinput.Model

	// Detail state
	detailID int64

	// Delete confirmation
	confirmDelete bool
	deleteID      int64

	login loginForm
}

// New creates the console model. The first screen is decided by the guard.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	setVisible := opts.SetVisible
	if setVisible == nil {
		setVisible = func(string) {}
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "nome"
	search.CharLimit = 80

	m := Model{
		ctx:        ctx,
		session:    opts.Session,
		guard:      opts.Guard,
		pets:       opts.Pets,
		tutores:    opts.Tutores,
		pageSize:   pageSize,
		setVisible: setVisible,
		prefsPath:  prefsPath,
		tick:       tick,
		theme:      GetTheme(opts.ThemeName),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		tab:        TabPets,
		search:     search,
		login:      newLoginForm(opts.Username),
	}
	m.applyPath(m.guard.Check(route.Home))
	m.refreshSnapshots()
	return m
}

// Screen reports the active screen.
func (m Model) Screen() Screen { return m.screen }

// Tab reports the active collection tab.
func (m Model) Tab() Tab { return m.tab }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.screen == ScreenLogin {
		cmds = append(cmds, textinput.Blink)
	} else {
		cmds = append(cmds, m.listCmd(m.tab, 0, ""))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.refreshSnapshots()
		var cmd tea.Cmd
		if m.screen != ScreenLogin {
			// The session may have expired under a background refresh.
			cmd = m.navigate(m.currentPath())
		}
		return m, tea.Batch(cmd, tickCmd(m.tick))

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case opDoneMsg:
		return m.handleOpDone(msg)
	}

	if m.screen == ScreenLogin {
		var cmd tea.Cmd
		m.login, cmd = m.login.update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.screen == ScreenLogin {
		return m.renderLogin()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.screen == ScreenLogin {
		return m.handleLoginKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.confirmDelete {
		return m.handleConfirmKey(msg)
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name })
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		if err := m.session.Logout(); err != nil {
			m.flash = apperr.Message(err)
		}
		return m, m.navigate(m.currentPath())
	case key.Matches(msg, m.keys.Tab):
		next := TabTutores
		if m.tab == TabTutores {
			next = TabPets
		}
		return m, m.navigate("/" + string(next))
	}

	switch m.screen {
	case ScreenList:
		return m.handleListKey(msg)
	case ScreenDetail:
		return m.handleDetailKey(msg)
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmDelete = false
		return m, m.deleteCmd(m.tab, m.deleteID)
	case key.Matches(msg, m.keys.Cancel):
		m.confirmDelete = false
		m.deleteID = 0
	}
	return m, nil
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.refreshSnapshots()
	if msg.err != nil {
		if errors.Is(msg.err, apperr.ErrSessionExpired) {
			m.flash = "Sessão expirada. Entre novamente."
			return m, m.navigate(route.Login)
		}
		m.flash = apperr.Message(msg.err)
		return m, nil
	}

	switch msg.op {
	case state.OpDelete:
		m.flash = orDefault(msg.message, "Registro removido.")
		if m.screen == ScreenDetail && m.detailID == msg.id {
			return m, m.navigate("/" + string(m.tab))
		}
		m.clampSelection()
	case state.OpList:
		m.clampSelection()
	}
	return m, nil
}

// navigate sends path through the guard and switches screens. A detail slot
// that is left behind is cleared.
func (m *Model) navigate(path string) tea.Cmd {
	prevScreen, prevTab, prevID := m.screen, m.tab, m.detailID
	m.applyPath(m.guard.Check(path))

	if prevScreen == ScreenDetail && (m.screen != ScreenDetail || m.tab != prevTab || m.detailID != prevID) {
		m.clearCurrent(prevTab)
	}
	switch {
	case m.screen == ScreenLogin && prevScreen != ScreenLogin:
		m.searching = false
		m.confirmDelete = false
		m.login = m.login.reset()
		return textinput.Blink
	case m.screen == ScreenDetail && (prevScreen != ScreenDetail || m.detailID != prevID || m.tab != prevTab):
		return m.fetchCmd(m.tab, m.detailID)
	case m.screen == ScreenList && (prevScreen == ScreenLogin || m.tab != prevTab):
		m.selected = 0
		if m.collectionPhase(state.OpList) == state.PhaseIdle {
			return m.listCmd(m.tab, 0, "")
		}
	}
	return nil
}

// applyPath sets screen, tab and detail id from a path already checked by
// the guard.
func (m *Model) applyPath(path string) {
	if path == route.Login {
		m.screen = ScreenLogin
		return
	}
	t, id, ok := parsePath(path)
	if !ok {
		t, id = TabPets, 0
	}
	m.tab = t
	m.setVisible(string(t))
	if id > 0 {
		m.screen = ScreenDetail
		m.detailID = id
		return
	}
	m.screen = ScreenList
	m.detailID = 0
}

func (m Model) currentPath() string {
	switch m.screen {
	case ScreenLogin:
		return route.Login
	case ScreenDetail:
		return fmt.Sprintf("/%s/%d", m.tab, m.detailID)
	default:
		return "/" + string(m.tab)
	}
}

func parsePath(path string) (Tab, int64, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	t := Tab(parts[0])
	if t != TabPets && t != TabTutores {
		return "", 0, false
	}
	if len(parts) == 1 {
		return t, 0, true
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 || len(parts) > 2 {
		return "", 0, false
	}
	return t, id, true
}

func (m *Model) refreshSnapshots() {
	if m.pets != nil {
		m.petSnap = m.pets.Snapshot()
	}
	if m.tutores != nil {
		m.tutorSnap = m.tutores.Snapshot()
	}
}

func (m *Model) clearCurrent(t Tab) {
	if t == TabTutores {
		m.tutores.ClearCurrent()
	} else {
		m.pets.ClearCurrent()
	}
	m.refreshSnapshots()
}

func (m Model) collectionPhase(op state.Op) state.Phase {
	if m.tab == TabTutores {
		return m.tutorSnap.Phase(op)
	}
	return m.petSnap.Phase(op)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
