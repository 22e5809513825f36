package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/petdesk/internal/petapi"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer T1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /autenticacao/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "T1", "refresh_token": "R1", "expires_in": 300})
	})
	mux.HandleFunc("GET /v1/pets", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"content":[{"id":1,"nome":"Rex"}],"page":%s,"size":%s,"total":1,"pageCount":1}`,
			r.URL.Query().Get("page"), r.URL.Query().Get("size"))
	}))
	mux.HandleFunc("GET /v1/pets/1", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"nome":"Rex","tutores":[{"id":2,"nome":"Ana"}]}`))
	}))
	mux.HandleFunc("POST /v1/pets", authed(func(w http.ResponseWriter, r *http.Request) {
		var p petapi.Pet
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.ID = 9
		_ = json.NewEncoder(w).Encode(p)
	}))
	mux.HandleFunc("POST /v1/tutores/2/pets/1", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"Pet vinculado"`))
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testEnv writes a config that keeps credentials in a TOML file so they
// survive between command invocations.
func testEnv(t *testing.T, apiURL string) []string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PETDESK_API_URL", "")
	cfg := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("api_url = %q\ncredential_backend = \"file\"\ncredential_path = %q\nlog_file = %q\n",
		apiURL, filepath.Join(dir, "credentials.toml"), filepath.Join(dir, "petdesk.log"))
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return []string{"--config", cfg, "--prefs", filepath.Join(dir, "prefs.toml")}
}

func execute(t *testing.T, global []string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(append([]string{}, global...), args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsRequireLogin(t *testing.T) {
	global := testEnv(t, fakeAPI(t).URL)

	_, err := execute(t, global, "", "pets", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginListAndLogout(t *testing.T) {
	global := testEnv(t, fakeAPI(t).URL)

	out, err := execute(t, global, "secret\n", "login", "--username", "admin", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin")

	out, err = execute(t, global, "", "pets", "list", "--size", "5")
	require.NoError(t, err)
	var page struct {
		Content []petapi.Pet `json:"content"`
		Size    int          `json:"size"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Rex", page.Content[0].Nome)
	assert.Equal(t, 5, page.Size)

	out, err = execute(t, global, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "authenticated: true")

	_, err = execute(t, global, "", "logout")
	require.NoError(t, err)
	_, err = execute(t, global, "", "pets", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginRejected(t *testing.T) {
	global := testEnv(t, fakeAPI(t).URL)

	_, err := execute(t, global, "wrong\n", "login", "-u", "admin", "--password-stdin")
	require.Error(t, err)

	out, err := execute(t, global, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "authenticated: false")
}

func TestGetCreateAndLink(t *testing.T) {
	global := testEnv(t, fakeAPI(t).URL)
	_, err := execute(t, global, "secret\n", "login", "-u", "admin", "--password-stdin")
	require.NoError(t, err)

	out, err := execute(t, global, "", "pets", "get", "1")
	require.NoError(t, err)
	var detail petapi.PetDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "Rex", detail.Nome)
	require.Len(t, detail.Tutores, 1)

	out, err = execute(t, global, `{"nome":"Luna","raca":"SRD","idade":2}`, "pets", "create", "--data", "-")
	require.NoError(t, err)
	var created petapi.Pet
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, "Luna", created.Nome)

	out, err = execute(t, global, "", "tutores", "link", "2", "1")
	require.NoError(t, err)
	assert.Equal(t, "Pet vinculado\n", out)
}

func TestParseID(t *testing.T) {
	id, err := parseID("pet", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		_, err := parseID("pet", raw)
		assert.Error(t, err, raw)
	}
}

func TestPromptPasswordUsesTerminalReader(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) { return []byte("hunter2"), nil }

	var out bytes.Buffer
	pw, err := promptPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)
	assert.Contains(t, out.String(), "Password: ")
}

func TestLogsFiltersByLevel(t *testing.T) {
	global := testEnv(t, fakeAPI(t).URL)
	logPath := filepath.Join(os.Getenv("HOME"), "petdesk.log")
	require.NoError(t, os.WriteFile(logPath, []byte("level=INFO msg=a\nlevel=WARN msg=b\nlevel=ERROR msg=c\n"), 0o600))

	out, err := execute(t, global, "", "logs", "--level", "warn", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, "level=WARN msg=b\nlevel=ERROR msg=c\n", out)

	_, err = execute(t, global, "", "logs", "--level", "loud")
	assert.Error(t, err)
}
