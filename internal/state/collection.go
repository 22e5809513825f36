package state

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/five82/petdesk/internal/apperr"
	"github.com/five82/petdesk/internal/logging"
	"github.com/five82/petdesk/internal/petapi"
)

// Entity is anything with a server-assigned integer id.
type Entity interface {
	EntityID() int64
}

// Accessor is the remote side of a collection. petapi.Resource satisfies it.
type Accessor[T, D Entity] interface {
	List(ctx context.Context, q petapi.ListQuery) (petapi.Page[T], error)
	Get(ctx context.Context, id int64) (D, error)
	Create(ctx context.Context, payload T) (T, error)
	Update(ctx context.Context, id int64, payload T) (T, error)
	Delete(ctx context.Context, id int64) (string, error)
	UploadPhoto(ctx context.Context, id int64, filename string, content io.Reader) (petapi.Foto, error)
	DeletePhoto(ctx context.Context, id, fotoID int64) error
}

// Status is the collection-wide status shared by every operation.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Op names an operation kind.
type Op string

const (
	OpList        Op = "list"
	OpFetchOne    Op = "fetchOne"
	OpCreate      Op = "create"
	OpUpdate      Op = "update"
	OpDelete      Op = "delete"
	OpUpload      Op = "uploadAttachment"
	OpDeletePhoto Op = "deleteAttachment"
	OpLink        Op = "linkEntity"
	OpUnlink      Op = "unlinkEntity"
)

// Phase is the life-cycle of the latest call of one operation kind.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseFulfilled
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseFulfilled:
		return "fulfilled"
	case PhaseRejected:
		return "rejected"
	default:
		return "idle"
	}
}

// Pagination mirrors the envelope of the last successful list.
type Pagination struct {
	Page      int
	Size      int
	Total     int
	PageCount int
}

// HasPages reports whether paging controls mean anything.
func (p Pagination) HasPages() bool { return p.PageCount > 1 }

// Snapshot is a copy of a collection's state.
type Snapshot[T, D Entity] struct {
	Items        []T
	Pagination   Pagination
	SearchQuery  string
	Status       Status
	ErrorMessage string
	LastError    error
	Current      *D
	Phases       map[Op]Phase
	LastUpdated  time.Time

	// Consecutive failed lists; reset by a successful one.
	ConsecutiveFailures int
}

// IsOffline returns true when listing has failed several times in a row.
func (s Snapshot[T, D]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Phase returns the phase of op, PhaseIdle if it never ran.
func (s Snapshot[T, D]) Phase(op Op) Phase {
	return s.Phases[op]
}

// Collection is the in-memory state of one record type. Operations call the
// accessor without holding the lock and record their outcome on return. They
// also return the error, so callers may react to apperr.ErrSessionExpired.
type Collection[T, D Entity] struct {
	name     string
	accessor Accessor[T, D]
	log      logging.Logger
	now      func() time.Time

	mu       sync.RWMutex
	snap     Snapshot[T, D]
	listSeq  uint64
	wantedID int64
	fetchSeq uint64
}

// Option configures a Collection.
type Option func(*options)

type options struct {
	log logging.Logger
	now func() time.Time
}

// WithLogger sets the collection's logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewCollection builds an empty collection named name over accessor.
func NewCollection[T, D Entity](name string, accessor Accessor[T, D], opts ...Option) *Collection[T, D] {
	o := options{log: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T, D]{
		name:     name,
		accessor: accessor,
		log:      o.log.With("collection", name),
		now:      o.now,
		snap:     Snapshot[T, D]{Phases: map[Op]Phase{}},
	}
}

// Name returns the collection's name.
func (c *Collection[T, D]) Name() string { return c.name }

// Snapshot returns a copy of the current state.
func (c *Collection[T, D]) Snapshot() Snapshot[T, D] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.snap
	snap.Items = slices.Clone(c.snap.Items)
	snap.Phases = make(map[Op]Phase, len(c.snap.Phases))
	for op, p := range c.snap.Phases {
		snap.Phases[op] = p
	}
	if c.snap.Current != nil {
		cur := *c.snap.Current
		snap.Current = &cur
	}
	if c.snap.LastError != nil {
		snap.LastError = fmt.Errorf("%w", c.snap.LastError)
	}
	return snap
}

// SetSearchQuery records term. It does not fetch.
func (c *Collection[T, D]) SetSearchQuery(term string) {
	c.mu.Lock()
	c.snap.SearchQuery = term
	c.mu.Unlock()
}

// ClearError drops the recorded failure message.
func (c *Collection[T, D]) ClearError() {
	c.mu.Lock()
	c.snap.ErrorMessage = ""
	c.snap.LastError = nil
	if c.snap.Status == StatusFailed {
		c.snap.Status = StatusIdle
	}
	c.mu.Unlock()
}

// List fetches one page. On success items and pagination are replaced
// wholesale; on failure they are kept. A response that is overtaken by a
// later List is dropped.
func (c *Collection[T, D]) List(ctx context.Context, page, size int, search string) error {
	c.mu.Lock()
	c.listSeq++
	seq := c.listSeq
	c.beginLocked(OpList)
	c.mu.Unlock()

	result, err := c.accessor.List(ctx, petapi.ListQuery{Page: page, Size: size, Nome: search})

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.listSeq {
		c.log.Debug(ctx, "discarding superseded list", "page", page, "search", search)
		return err
	}
	if err != nil {
		c.snap.ConsecutiveFailures++
		c.failLocked(ctx, OpList, err)
		return err
	}
	c.snap.Items = slices.Clone(result.Content)
	c.snap.Pagination = Pagination{
		Page:      result.Page,
		Size:      result.Size,
		Total:     result.Total,
		PageCount: result.PageCount,
	}
	c.snap.ConsecutiveFailures = 0
	c.succeedLocked(OpList)
	return nil
}

// FetchOne loads the detail record for id into the current slot. The result
// is dropped if ClearCurrent or another FetchOne ran in the meantime.
func (c *Collection[T, D]) FetchOne(ctx context.Context, id int64) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.wantedID = id
	if c.snap.Current != nil && (*c.snap.Current).EntityID() != id {
		c.snap.Current = nil
	}
	c.beginLocked(OpFetchOne)
	c.mu.Unlock()

	detail, err := c.accessor.Get(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.fetchSeq || c.wantedID != id {
		c.log.Debug(ctx, "discarding stale detail", "id", id, "error", err)
		return nil
	}
	if err != nil {
		c.failLocked(ctx, OpFetchOne, err)
		return err
	}
	c.snap.Current = &detail
	c.succeedLocked(OpFetchOne)
	return nil
}

// ClearCurrent empties the detail slot. Any detail still in flight is dropped
// and its pending phase returns to idle.
func (c *Collection[T, D]) ClearCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchSeq++
	c.wantedID = 0
	c.snap.Current = nil
	if c.snap.Phases[OpFetchOne] == PhasePending {
		c.snap.Phases[OpFetchOne] = PhaseIdle
		c.settleLocked()
	}
}

// Create posts payload and appends the server's entity to items.
func (c *Collection[T, D]) Create(ctx context.Context, payload T) (T, error) {
	c.begin(OpCreate)
	created, err := c.accessor.Create(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked(ctx, OpCreate, err)
		return created, err
	}
	c.snap.Items = append(c.snap.Items, created)
	c.succeedLocked(OpCreate)
	return created, nil
}

// Update replaces the entity with the same id in items. An id not in items
// is left alone.
func (c *Collection[T, D]) Update(ctx context.Context, id int64, payload T) (T, error) {
	c.begin(OpUpdate)
	updated, err := c.accessor.Update(ctx, id, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked(ctx, OpUpdate, err)
		return updated, err
	}
	if i := c.indexLocked(id); i >= 0 {
		c.snap.Items[i] = updated
	}
	c.succeedLocked(OpUpdate)
	return updated, nil
}

// Delete removes id remotely and from items. The service's message is
// returned.
func (c *Collection[T, D]) Delete(ctx context.Context, id int64) (string, error) {
	c.begin(OpDelete)
	msg, err := c.accessor.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked(ctx, OpDelete, err)
		return "", err
	}
	if i := c.indexLocked(id); i >= 0 {
		c.snap.Items = slices.Delete(c.snap.Items, i, i+1)
	}
	c.succeedLocked(OpDelete)
	return msg, nil
}

// UploadAttachment sends a photo for id. Items are not touched; re-fetch to
// see the new reference.
func (c *Collection[T, D]) UploadAttachment(ctx context.Context, id int64, filename string, content io.Reader) (petapi.Foto, error) {
	c.begin(OpUpload)
	foto, err := c.accessor.UploadPhoto(ctx, id, filename, content)
	return foto, c.finish(ctx, OpUpload, err)
}

// DeleteAttachment removes photo fotoID from id. Items are not touched.
func (c *Collection[T, D]) DeleteAttachment(ctx context.Context, id, fotoID int64) error {
	c.begin(OpDeletePhoto)
	return c.finish(ctx, OpDeletePhoto, c.accessor.DeletePhoto(ctx, id, fotoID))
}

func (c *Collection[T, D]) begin(op Op) {
	c.mu.Lock()
	c.beginLocked(op)
	c.mu.Unlock()
}

// finish records the outcome of an operation that does not touch items.
func (c *Collection[T, D]) finish(ctx context.Context, op Op, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked(ctx, op, err)
		return err
	}
	c.succeedLocked(op)
	return nil
}

func (c *Collection[T, D]) beginLocked(op Op) {
	c.snap.Phases[op] = PhasePending
	c.snap.Status = StatusLoading
}

func (c *Collection[T, D]) succeedLocked(op Op) {
	c.snap.Phases[op] = PhaseFulfilled
	c.snap.Status = StatusReady
	c.snap.ErrorMessage = ""
	c.snap.LastError = nil
	c.snap.LastUpdated = c.now()
}

func (c *Collection[T, D]) failLocked(ctx context.Context, op Op, err error) {
	c.snap.Phases[op] = PhaseRejected
	c.snap.Status = StatusFailed
	c.snap.ErrorMessage = apperr.Message(err)
	c.snap.LastError = err
	c.snap.LastUpdated = c.now()
	c.log.Warn(ctx, "operation failed", "op", string(op), "error", err)
}

// settleLocked recomputes Status after an operation was abandoned.
func (c *Collection[T, D]) settleLocked() {
	for _, p := range c.snap.Phases {
		if p == PhasePending {
			c.snap.Status = StatusLoading
			return
		}
	}
	switch {
	case c.snap.LastError != nil:
		c.snap.Status = StatusFailed
	case !c.snap.LastUpdated.IsZero():
		c.snap.Status = StatusReady
	default:
		c.snap.Status = StatusIdle
	}
}

func (c *Collection[T, D]) indexLocked(id int64) int {
	return slices.IndexFunc(c.snap.Items, func(item T) bool { return item.EntityID() == id })
}
