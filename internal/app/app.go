package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/five82/petdesk/internal/config"
	"github.com/five82/petdesk/internal/credentials"
	"github.com/five82/petdesk/internal/kv"
	"github.com/five82/petdesk/internal/logging"
	"github.com/five82/petdesk/internal/petapi"
	"github.com/five82/petdesk/internal/prefs"
	"github.com/five82/petdesk/internal/route"
	"github.com/five82/petdesk/internal/session"
	"github.com/five82/petdesk/internal/state"
	"github.com/five82/petdesk/internal/transport"
	"github.com/five82/petdesk/internal/ui"
)

// Options configure the petdesk application.
type Options struct {
	ConfigPath string
	APIURL     string // overrides the config file and environment
	PrefsPath  string // empty uses default ~/.config/petdesk/prefs.toml
	// LogOutput receives logs. Nil means the log_file from config.
	LogOutput io.Writer
}

// App is the wired object graph shared by the CLI and the console.
type App struct {
	Config  config.Config
	Log     logging.Logger
	Session *session.Controller
	Guard   *route.Guard
	API     *petapi.Client
	Pets    *state.Collection[petapi.Pet, petapi.PetDetail]
	Tutores *state.TutorCollection

	visible atomic.Value // string, collection name shown by the console
	closers []io.Closer
}

// New loads configuration and wires credentials, session, pipeline,
// accessors and collections.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(opts.APIURL) != "" {
		cfg.APIURL = strings.TrimSpace(opts.APIURL)
	}
	baseURL, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg}
	a.visible.Store("pets")

	out := opts.LogOutput
	if out == nil {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		out = f
	}
	a.Log = logging.New(out, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	backing, closer, err := openBackend(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	creds, err := credentials.NewStore(backing)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open credentials: %w", err)
	}

	plain := &http.Client{Timeout: cfg.Timeout}
	auth := session.NewHTTPAuthenticator(baseURL, plain)
	a.Session = session.NewController(creds, auth, session.WithLogger(a.Log.With("component", "session")))
	a.Guard = route.NewGuard(a.Session)

	pipeline := transport.New(a.Session, transport.WithLogger(a.Log.With("component", "pipeline")))
	a.API, err = petapi.NewClient(baseURL, pipeline.Client(plain))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Pets = state.NewPetCollection(a.API.Pets, state.WithLogger(a.Log))
	a.Tutores = state.NewTutorCollection(a.API.Tutores, state.WithLogger(a.Log))
	return a, nil
}

// Close releases the log file and the credential backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// SetVisible records which collection the console is showing.
func (a *App) SetVisible(name string) {
	a.visible.Store(name)
}

// Refresh re-lists the visible collection at its current page and search.
func (a *App) Refresh(ctx context.Context) error {
	name, _ := a.visible.Load().(string)
	if name == "tutores" {
		snap := a.Tutores.Snapshot()
		return a.Tutores.List(ctx, snap.Pagination.Page, a.Config.PageSize, snap.SearchQuery)
	}
	snap := a.Pets.Snapshot()
	return a.Pets.List(ctx, snap.Pagination.Page, a.Config.PageSize, snap.SearchQuery)
}

// Run boots the console until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	a, err := New(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	userPrefs := prefs.Load(opts.PrefsPath)

	if a.Config.RefreshInterval > 0 {
		StartPoller(ctx, a, a.Session, a.Config.RefreshInterval, a.Log.With("component", "poller"))
	}

	a.Log.Info(ctx, "console starting", "api_url", a.Config.APIURL, "authenticated", a.Session.Authenticated())
	return ui.Run(ui.Options{
		Context:    ctx,
		Session:    a.Session,
		Guard:      a.Guard,
		Pets:       a.Pets,
		Tutores:    a.Tutores,
		PageSize:   a.Config.PageSize,
		SetVisible: a.SetVisible,
		ThemeName:  userPrefs.Theme,
		Username:   userPrefs.Username,
		PrefsPath:  opts.PrefsPath,
	})
}

func openBackend(cfg config.Config) (kv.Store, io.Closer, error) {
	switch cfg.CredentialBackend {
	case config.BackendMemory:
		return kv.NewMemoryStore(), nil, nil
	case config.BackendSQLite:
		s, err := kv.OpenSQLite(cfg.CredentialPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite credentials: %w", err)
		}
		return s, s, nil
	case config.BackendRedis:
		s := kv.NewRedisStore(cfg.RedisAddr, "")
		return s, s, nil
	default:
		s, err := kv.OpenFile(cfg.CredentialPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open credentials file: %w", err)
		}
		return s, nil, nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
