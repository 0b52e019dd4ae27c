package prefetch

import (
	"context"
	"log/slog"
	"sync"

	"framecut/internal/batch"
	"framecut/internal/logging"
	"framecut/internal/media"
	"framecut/internal/services"
)

// Prefetcher runs look-ahead preparation for the batch store.
type Prefetcher struct {
	store    *batch.Store
	preparer media.Preparer
	logger   *slog.Logger
	progress func(media.Progress)

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// New builds a prefetcher over the given store and preparer. The progress
// callback may be nil.
func New(store *batch.Store, preparer media.Preparer, progress func(media.Progress), logger *slog.Logger) *Prefetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prefetcher{
		store:    store,
		preparer: preparer,
		logger:   logging.NewComponentLogger(logger, "prefetch"),
		progress: progress,
		inflight: make(map[string]chan struct{}),
	}
}

// Arm starts preparation for up to window pending tasks after the active
// one. Tasks already prepared, already loading, or terminal are left alone.
func (p *Prefetcher) Arm(ctx context.Context, window int) {
	if window < 1 {
		window = 1
	}
	for _, task := range p.store.Upcoming(window) {
		if task.Status != batch.StatusPending || task.Prepared != nil {
			continue
		}
		p.start(ctx, task.Path)
	}
	p.logger.Debug("armed", logging.Int("window", window))
}

// Await returns prepared data for the given path, which is about to become
// active. A prefetch in flight is waited on rather than duplicated. If no
// usable result exists afterwards the preparation runs synchronously, so a
// failed prefetch turns into an on-demand retry.
func (p *Prefetcher) Await(ctx context.Context, path string) (*media.PreparedData, error) {
	if prepared, ok := p.preparedFor(path); ok {
		return prepared, nil
	}

	p.mu.Lock()
	done := p.inflight[path]
	p.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if prepared, ok := p.preparedFor(path); ok {
			return prepared, nil
		}
	}

	// Prefetch failed or never started. Prepare inline.
	if !p.store.BeginPreparation(path) {
		// Another flight claimed the task between checks. Wait it out once.
		p.mu.Lock()
		done = p.inflight[path]
		p.mu.Unlock()
		if done != nil {
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if prepared, ok := p.preparedFor(path); ok {
			return prepared, nil
		}
		if !p.store.BeginPreparation(path) {
			return nil, services.Wrap(services.ErrPreparation, "prefetch", "await", "task not preparable", nil)
		}
	}

	prepared, err := p.preparer.PrepareTask(ctx, path, p.progress)
	if err != nil {
		p.store.FailPreparation(path, err)
		return nil, services.Wrap(services.ErrPreparation, "prefetch", "prepare", path, err)
	}
	if err := p.store.CompletePreparation(path, prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

// InFlight reports whether a preparation is currently running for path.
func (p *Prefetcher) InFlight(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inflight[path]
	return ok
}

// Wait blocks until every in-flight preparation has finished.
func (p *Prefetcher) Wait() {
	for {
		p.mu.Lock()
		var done chan struct{}
		for _, ch := range p.inflight {
			done = ch
			break
		}
		p.mu.Unlock()
		if done == nil {
			return
		}
		<-done
	}
}

func (p *Prefetcher) preparedFor(path string) (*media.PreparedData, bool) {
	task, ok := p.store.TaskByPath(path)
	if !ok || task.Prepared == nil {
		return nil, false
	}
	return task.Prepared, true
}

// start launches a single-flight preparation goroutine for path. The store's
// Pending to Loading transition is the claim; losing it means another flight
// owns the path.
func (p *Prefetcher) start(ctx context.Context, path string) {
	p.mu.Lock()
	if _, ok := p.inflight[path]; ok {
		p.mu.Unlock()
		return
	}
	if !p.store.BeginPreparation(path) {
		p.mu.Unlock()
		return
	}
	done := make(chan struct{})
	p.inflight[path] = done
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.inflight, path)
			p.mu.Unlock()
			close(done)
		}()

		prepared, err := p.preparer.PrepareTask(ctx, path, p.progress)
		if err != nil {
			p.store.FailPreparation(path, err)
			return
		}
		if err := p.store.CompletePreparation(path, prepared); err != nil {
			// The task moved on while we prepared, most likely postponed.
			// Cache the result anyway so it is not thrown away.
			p.store.AttachPrepared(path, prepared)
			p.logger.Debug("cached out-of-window preparation",
				logging.String("path", path))
		}
	}()
}
