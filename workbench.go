// Package etymolog implements the conlang workbench engine: a
// single-writer facade over a layered writing-system model (glyphs
// compose into graphemes, graphemes carry phonemes, lexicon entries
// have an ordered spelling plus an etymological DAG) and the phrase
// translator that renders text through it.
//
// Engine is the root type. Construct one with NewEngine over a
// server/dao.Store, then call Init and wait for it to signal readiness
// before issuing any other call; every operation returns server/serr
// errors NOT_READY-typed until then.
package etymolog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/etymolog/etymolog/internal/ancestry"
	"github.com/etymolog/etymolog/internal/settings"
	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/serr"
)

// Engine is the process-wide, single-writer workbench state machine:
// {init -> ready -> (many operations) -> close}. It holds the
// persistent store, the settings bag, and an in-memory materialization
// of the ancestry transitive closure kept in sync with every ancestry
// mutation.
type Engine struct {
	store    dao.Store
	settings *settings.Bag

	mu            sync.RWMutex
	ready         bool
	initErr       error
	closure       *ancestry.Closure
	lastPersisted *time.Time
}

// NewEngine returns an Engine backed by store. The engine is not ready
// until Init completes successfully.
func NewEngine(store dao.Store) *Engine {
	return &Engine{
		store:    store,
		settings: settings.NewBag(),
		closure:  ancestry.NewClosure(),
	}
}

// Init runs the one-shot asynchronous initialization - loading the
// persisted settings bag and rebuilding the in-memory ancestry closure
// - in a new goroutine and returns a channel that receives the result
// exactly once. If initialization fails, the engine remains not-ready
// and every other operation fails with NOT_READY until Init is called
// again.
func (e *Engine) Init(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := e.init(ctx)
		e.mu.Lock()
		e.ready = err == nil
		e.initErr = err
		e.mu.Unlock()
		done <- err
	}()
	return done
}

func (e *Engine) init(ctx context.Context) error {
	raw, err := e.store.Settings().Load(ctx)
	if err != nil {
		return serr.OperationFailed("loading settings", err)
	}
	if raw != "" && raw != "{}" {
		var s settings.Settings
		if jsonErr := json.Unmarshal([]byte(raw), &s); jsonErr == nil {
			e.settings.Update(func(settings.Settings) settings.Settings { return s })
		}
	}
	return e.rebuildAncestryClosure(ctx)
}

// Ready reports whether Init has completed successfully.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *Engine) requireReady() error {
	if !e.Ready() {
		return serr.NotReady()
	}
	return nil
}

func (e *Engine) touchPersisted() {
	now := time.Now()
	e.mu.Lock()
	e.lastPersisted = &now
	e.mu.Unlock()
}

func (e *Engine) rebuildAncestryClosure(ctx context.Context) error {
	edges, err := e.store.Lexicon().AllEdges(ctx)
	if err != nil {
		return serr.OperationFailed("loading ancestry edges", err)
	}
	closureEdges := make([]ancestry.Edge, len(edges))
	for i, ed := range edges {
		closureEdges[i] = toAncestryEdge(ed)
	}
	e.mu.Lock()
	e.closure.Rebuild(closureEdges)
	e.mu.Unlock()
	return nil
}

func toAncestryEdge(ed dao.AncestryEdge) ancestry.Edge {
	return ancestry.Edge{Child: ed.LexiconID, Parent: ed.AncestorID, Position: ed.Position, Type: string(ed.Type)}
}

// mapDaoErr translates a server/dao sentinel into the matching
// server/serr taxonomy code. A nil err maps to nil.
func mapDaoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dao.ErrNotFound):
		return serr.NotFound(err.Error())
	case errors.Is(err, dao.ErrConstraintViolation):
		return serr.ConstraintViolation(err.Error())
	case errors.Is(err, dao.ErrDecodingFailure):
		return serr.OperationFailed("decoding stored data", err)
	default:
		return serr.OperationFailed("storage operation failed", err)
	}
}

// Status is the Database API's getStatus payload.
type Status struct {
	Initialized   bool
	GlyphCount    int
	GraphemeCount int
	LexiconCount  int
	LastPersisted *time.Time
}

// GetStatus reports engine readiness plus lightweight per-table counts.
func (e *Engine) GetStatus(ctx context.Context) (Status, error) {
	if !e.Ready() {
		return Status{Initialized: false}, nil
	}
	st, err := e.store.Status(ctx)
	if err != nil {
		return Status{}, serr.OperationFailed("reading status", err)
	}
	e.mu.RLock()
	lastPersisted := e.lastPersisted
	e.mu.RUnlock()
	return Status{
		Initialized:   st.Initialized,
		GlyphCount:    st.GlyphCount,
		GraphemeCount: st.GraphemeCount,
		LexiconCount:  st.LexiconCount,
		LastPersisted: lastPersisted,
	}, nil
}

// Clear truncates every table, preserving schema, and resets the
// in-memory ancestry closure and settings bag to defaults.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Clear(ctx); err != nil {
		return serr.OperationFailed("clearing store", err)
	}
	e.settings.Reset()
	e.mu.Lock()
	e.closure = ancestry.NewClosure()
	e.mu.Unlock()
	e.touchPersisted()
	return nil
}

// Reset is Clear followed by persisting the default settings bag, i.e.
// drop and recreate in terms of observable state.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.Clear(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(e.settings.Get())
	if err != nil {
		return serr.OperationFailed("marshaling default settings", err)
	}
	if err := e.store.Settings().Save(ctx, string(raw)); err != nil {
		return serr.OperationFailed("persisting default settings", err)
	}
	e.touchPersisted()
	return nil
}

// Close releases the underlying store's resources.
func (e *Engine) Close() error {
	return e.store.Close()
}
