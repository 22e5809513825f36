package ui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/petdesk/internal/apperr"
	"github.com/five82/petdesk/internal/credentials"
	"github.com/five82/petdesk/internal/petapi"
	"github.com/five82/petdesk/internal/prefs"
	"github.com/five82/petdesk/internal/route"
	"github.com/five82/petdesk/internal/session"
	"github.com/five82/petdesk/internal/state"
)

type fakeSession struct {
	authed bool
	err    string
}

func (f *fakeSession) Authenticated() bool { return f.authed }

func (f *fakeSession) Status() session.Status {
	return session.Status{Authenticated: f.authed, Error: f.err}
}

func (f *fakeSession) Login(ctx context.Context, username, password string) (credentials.Credential, error) {
	if password != "b" {
		f.err = "Usuário ou senha inválidos"
		return credentials.Credential{}, apperr.ErrAuthenticationRejected
	}
	f.authed = true
	return credentials.Credential{AccessToken: "T1", RefreshToken: "R1"}, nil
}

func (f *fakeSession) Logout() error {
	f.authed = false
	return nil
}

func (f *fakeSession) ClearError() { f.err = "" }

type fakePetAPI struct {
	pets      []petapi.Pet
	pageCount int
	queries   []petapi.ListQuery
	listErr   error
}

func (f *fakePetAPI) List(ctx context.Context, q petapi.ListQuery) (petapi.Page[petapi.Pet], error) {
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return petapi.Page[petapi.Pet]{}, f.listErr
	}
	return petapi.Page[petapi.Pet]{Content: f.pets, Page: q.Page, Size: q.Size, Total: len(f.pets), PageCount: f.pageCount}, nil
}

func (f *fakePetAPI) Get(ctx context.Context, id int64) (petapi.PetDetail, error) {
	for _, p := range f.pets {
		if p.ID == id {
			return petapi.PetDetail{Pet: p, Tutores: []petapi.Tutor{{ID: 2, Nome: "Ana"}}}, nil
		}
	}
	return petapi.PetDetail{}, apperr.ErrNotFound
}

func (f *fakePetAPI) Create(ctx context.Context, p petapi.Pet) (petapi.Pet, error) { return p, nil }

func (f *fakePetAPI) Update(ctx context.Context, id int64, p petapi.Pet) (petapi.Pet, error) {
	return p, nil
}

func (f *fakePetAPI) Delete(ctx context.Context, id int64) (string, error) {
	return "Pet removido", nil
}

func (f *fakePetAPI) UploadPhoto(ctx context.Context, id int64, filename string, content io.Reader) (petapi.Foto, error) {
	return petapi.Foto{}, nil
}

func (f *fakePetAPI) DeletePhoto(ctx context.Context, id, fotoID int64) error { return nil }

type fakeTutorAPI struct{}

func (fakeTutorAPI) List(ctx context.Context, q petapi.ListQuery) (petapi.Page[petapi.Tutor], error) {
	return petapi.Page[petapi.Tutor]{Content: []petapi.Tutor{{ID: 2, Nome: "Ana", Email: "ana@example.com"}}, Total: 1, PageCount: 1}, nil
}

func (fakeTutorAPI) Get(ctx context.Context, id int64) (petapi.TutorDetail, error) {
	return petapi.TutorDetail{Tutor: petapi.Tutor{ID: id, Nome: "Ana", CPF: 12345678901}}, nil
}

func (fakeTutorAPI) Create(ctx context.Context, t petapi.Tutor) (petapi.Tutor, error) { return t, nil }

func (fakeTutorAPI) Update(ctx context.Context, id int64, t petapi.Tutor) (petapi.Tutor, error) {
	return t, nil
}

func (fakeTutorAPI) Delete(ctx context.Context, id int64) (string, error) { return "", nil }

func (fakeTutorAPI) UploadPhoto(ctx context.Context, id int64, filename string, content io.Reader) (petapi.Foto, error) {
	return petapi.Foto{}, nil
}

func (fakeTutorAPI) DeletePhoto(ctx context.Context, id, fotoID int64) error { return nil }

func (fakeTutorAPI) LinkPet(ctx context.Context, tutorID, petID int64) (string, error) {
	return "", nil
}

func (fakeTutorAPI) UnlinkPet(ctx context.Context, tutorID, petID int64) (string, error) {
	return "", nil
}

type harness struct {
	sess    *fakeSession
	petAPI  *fakePetAPI
	pets    *state.Collection[petapi.Pet, petapi.PetDetail]
	tutores *state.TutorCollection
	visible []string
	prefs   string
}

func newHarness(t *testing.T, authed bool) (*harness, Model) {
	t.Helper()
	h := &harness{
		sess: &fakeSession{authed: authed},
		petAPI: &fakePetAPI{
			pets:      []petapi.Pet{{ID: 1, Nome: "Rex", Raca: "Labrador"}, {ID: 3, Nome: "Luna"}},
			pageCount: 1,
		},
		prefs: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	h.pets = state.NewPetCollection(h.petAPI)
	h.tutores = state.NewTutorCollection(fakeTutorAPI{})
	m := New(Options{
		Session:    h.sess,
		Guard:      route.NewGuard(h.sess),
		Pets:       h.pets,
		Tutores:    h.tutores,
		PageSize:   10,
		SetVisible: func(name string) { h.visible = append(h.visible, name) },
		PrefsPath:  h.prefs,
	})
	return h, m
}

// step feeds msg to m and then drains the returned commands, feeding back
// any console messages they produce.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	out, ok := runCmd(cmd)
	if !ok {
		return m
	}
	switch out := out.(type) {
	case tea.BatchMsg:
		for _, c := range out {
			m = drain(t, m, c)
		}
	case opDoneMsg, loginDoneMsg:
		m = step(t, m, out)
	}
	return m
}

// runCmd runs cmd, giving up on timers such as ticks and cursor blinks.
func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(50 * time.Millisecond):
		return nil, false
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, s string) Model {
	for _, r := range s {
		m = step(t, m, keyRunes(string(r)))
	}
	return m
}

func TestNew_UnauthenticatedStartsAtLogin(t *testing.T) {
	_, m := newHarness(t, false)
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "petdesk")
}

func TestLogin_NavigatesHomeAndLists(t *testing.T) {
	h, m := newHarness(t, false)

	m = typeText(t, m, "a")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "b")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, ScreenList, m.Screen())
	assert.Equal(t, TabPets, m.Tab())
	require.Len(t, h.petAPI.queries, 1)
	assert.Equal(t, petapi.ListQuery{Page: 0, Size: 10}, h.petAPI.queries[0])
	assert.Contains(t, m.View(), "Rex")
	assert.Equal(t, "a", prefs.Load(h.prefs).Username)
}

func TestLogin_FailureStaysOnLoginWithError(t *testing.T) {
	h, m := newHarness(t, false)

	m = typeText(t, m, "a")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "wrong")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.False(t, h.sess.authed)
	assert.Contains(t, m.View(), "Usuário ou senha inválidos")
	assert.Empty(t, m.login.password())
}

func TestSearch_SetsQueryThenLists(t *testing.T) {
	h, m := newHarness(t, true)
	m = step(t, m, tickMsg{})

	m = step(t, m, keyRunes("/"))
	require.True(t, m.searching)
	m = typeText(t, m, "Rex")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.searching)
	assert.Equal(t, "Rex", h.pets.Snapshot().SearchQuery)
	last := h.petAPI.queries[len(h.petAPI.queries)-1]
	assert.Equal(t, petapi.ListQuery{Page: 0, Size: 10, Nome: "Rex"}, last)
}

func TestPaging_StaysInsidePageRange(t *testing.T) {
	h, m := newHarness(t, true)
	h.petAPI.pageCount = 2
	m = step(t, m, keyRunes("r"))
	calls := len(h.petAPI.queries)

	m = step(t, m, keyRunes("["))
	assert.Len(t, h.petAPI.queries, calls, "no page before the first")

	m = step(t, m, keyRunes("]"))
	require.Len(t, h.petAPI.queries, calls+1)
	assert.Equal(t, 1, h.petAPI.queries[calls].Page)

	_ = step(t, m, keyRunes("]"))
	assert.Len(t, h.petAPI.queries, calls+1, "no page after the last")
}

func TestDetail_OpensAndClearsOnLeave(t *testing.T) {
	h, m := newHarness(t, true)
	m = step(t, m, keyRunes("r"))

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ScreenDetail, m.Screen())
	require.NotNil(t, h.pets.Snapshot().Current)
	view := m.View()
	assert.Contains(t, view, "Labrador")
	assert.Contains(t, view, "Ana")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ScreenList, m.Screen())
	assert.Nil(t, h.pets.Snapshot().Current)
}

func TestDelete_AsksThenRemoves(t *testing.T) {
	h, m := newHarness(t, true)
	m = step(t, m, keyRunes("r"))

	m = step(t, m, keyRunes("j"))
	m = step(t, m, keyRunes("d"))
	require.True(t, m.confirmDelete)
	assert.Contains(t, m.View(), "Remover #3?")

	m = step(t, m, keyRunes("y"))
	assert.False(t, m.confirmDelete)
	items := h.pets.Snapshot().Items
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Pet removido", m.flash)
	assert.Equal(t, 0, m.selected)
}

func TestSessionExpiredNavigatesToLogin(t *testing.T) {
	h, m := newHarness(t, true)
	h.petAPI.listErr = fmt.Errorf("list pets: %w", apperr.ErrSessionExpired)
	h.sess.authed = false

	m = step(t, m, keyRunes("r"))
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Sessão expirada")
}

func TestTick_RedirectsWhenSessionDisappears(t *testing.T) {
	h, m := newHarness(t, true)
	m = step(t, m, tickMsg{})
	require.Equal(t, ScreenList, m.Screen())

	h.sess.authed = false
	m = step(t, m, tickMsg{})
	assert.Equal(t, ScreenLogin, m.Screen())
}

func TestTab_SwitchesCollectionAndTellsPoller(t *testing.T) {
	h, m := newHarness(t, true)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabTutores, m.Tab())
	assert.Equal(t, "tutores", h.visible[len(h.visible)-1])
	assert.Contains(t, m.View(), "ana@example.com")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ScreenDetail, m.Screen())
	assert.Contains(t, m.View(), "123.456.789-01")
}

func TestLogout_ReturnsToLogin(t *testing.T) {
	h, m := newHarness(t, true)
	m = step(t, m, keyRunes("L"))
	assert.False(t, h.sess.authed)
	assert.Equal(t, ScreenLogin, m.Screen())
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		tab  Tab
		id   int64
		ok   bool
	}{
		{"/pets", TabPets, 0, true},
		{"/tutores/12", TabTutores, 12, true},
		{"/pets/x", "", 0, false},
		{"/pets/1/fotos", "", 0, false},
		{"/outro", "", 0, false},
	}
	for _, tt := range tests {
		tab, id, ok := parsePath(tt.path)
		if tab != tt.tab || id != tt.id || ok != tt.ok {
			t.Errorf("parsePath(%q) = %q, %d, %v; want %q, %d, %v", tt.path, tab, id, ok, tt.tab, tt.id, tt.ok)
		}
	}
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "123.456.789-01", formatCPF(12345678901))
	assert.Equal(t, "012.345.678-90", formatCPF(1234567890))
	assert.Equal(t, "-", formatCPF(0))
	assert.True(t, strings.HasPrefix(pageLabel(state.Pagination{Page: 1, PageCount: 3, Total: 25}), "Página 2/3"))
}

func TestLoginView_RendersUnderEveryTheme(t *testing.T) {
	_, m := newHarness(t, false)
	require.Equal(t, ScreenLogin, m.Screen())
	for _, name := range ThemeNames() {
		m.theme = GetTheme(name)
		view := m.View()
		assert.Contains(t, view, "petdesk", name)
		assert.Contains(t, view, "enter entrar", name)
	}
}
