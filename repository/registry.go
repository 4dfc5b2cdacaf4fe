package repository

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"

	"go.uber.org/zap"
)

// ErrRegistryClosed is returned for requests submitted after Close.
var ErrRegistryClosed = errors.New("registry closed")

// ErrNoChange may be returned by a Mutation that decided nothing needs to
// be written. Update then returns nil without saving.
var ErrNoChange = errors.New("registry unchanged")

const defaultMaxAttempts = 5

// Mutation changes the document in place. Returning an error discards every
// change made in that cycle. A mutation may run more than once when another
// writer to the same backend wins a version race, so it must not have side
// effects outside doc.
type Mutation func(doc *models.Registry) error

type request struct {
	ctx    context.Context
	fn     Mutation
	write  bool
	result chan error
}

// Registry owns every access to the Store. A single goroutine processes one
// load-mutate-save cycle at a time, so read-modify-write races between
// requests in this process cannot drop updates. Version checks in the Store
// cover writers in other processes.
type Registry struct {
	store       Store
	logger      *zap.Logger
	maxAttempts int

	requests  chan *request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewRegistry starts the owner goroutine. Call Close to stop it.
func NewRegistry(store Store, logger *zap.Logger, maxAttempts int) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	r := &Registry{
		store:       store,
		logger:      logger,
		maxAttempts: maxAttempts,
		requests:    make(chan *request),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go r.run()
	return r
}

// Update loads the document, applies fn and saves the result as one
// serialized unit. Once the cycle has started it runs to completion even if
// ctx is cancelled.
func (r *Registry) Update(ctx context.Context, fn Mutation) error {
	return r.submit(ctx, fn, true)
}

// View loads the current document and passes it to fn without saving.
func (r *Registry) View(ctx context.Context, fn func(doc *models.Registry) error) error {
	return r.submit(ctx, Mutation(fn), false)
}

// Close stops accepting requests and waits for the in-flight cycle.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		<-r.stopped
	})
}

func (r *Registry) submit(ctx context.Context, fn Mutation, write bool) error {
	req := &request{ctx: ctx, fn: fn, write: write, result: make(chan error, 1)}
	select {
	case r.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrRegistryClosed
	}
	return <-req.result
}

func (r *Registry) run() {
	defer close(r.stopped)
	for {
		select {
		case req := <-r.requests:
			req.result <- r.process(req)
		case <-r.done:
			return
		}
	}
}

func (r *Registry) process(req *request) error {
	if err := req.ctx.Err(); err != nil {
		return err
	}
	// Cancellation must not interrupt a save half way.
	ctx := context.WithoutCancel(req.ctx)

	for attempt := 1; ; attempt++ {
		doc, version, err := r.store.Load(ctx)
		if err != nil {
			r.logger.Error("Registry load failed", zap.Error(err))
			return apperrors.Wrap(apperrors.ErrStorageFault, err)
		}

		if err := req.fn(doc); err != nil {
			if errors.Is(err, ErrNoChange) {
				return nil
			}
			return err
		}
		if !req.write {
			return nil
		}

		_, err = r.store.Save(ctx, doc, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			r.logger.Error("Registry save failed", zap.Error(err))
			return apperrors.Wrap(apperrors.ErrStorageFault, err)
		}
		if attempt >= r.maxAttempts {
			r.logger.Error("Registry save kept conflicting", zap.Int("attempts", attempt))
			return apperrors.Wrap(apperrors.ErrStorageFault, err)
		}
		r.logger.Warn("Registry changed underneath update, retrying", zap.Int("attempt", attempt))
	}
}
