package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/internal/types"
	"github.com/xhad/blogsearch/pkg/store"
)

// Event ops.
const (
	OpGenerate = "generate"
	OpDelete   = "delete"
)

// Event is one content mutation the blog application emits. Delivery is
// at-least-once; handlers must be idempotent.
type Event struct {
	DocumentID string `json:"documentId"`
	Op         string `json:"op"`
}

type WorkerConfig struct {
	Concurrency int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Worker runs embedding jobs for mutation events. Jobs for different
// posts run concurrently up to the configured limit; jobs for the same
// post are serialized so two rapid edits cannot interleave their
// delete/insert phases.
type Worker struct {
	config  WorkerConfig
	indexer types.Indexer
	posts   types.PostStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewWithConfig(config WorkerConfig, indexer types.Indexer, posts types.PostStore) *Worker {
	if config.Concurrency == 0 {
		config.Concurrency = 5
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 2 * time.Second
	}

	return &Worker{
		config:  config,
		indexer: indexer,
		posts:   posts,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Run consumes events until the channel closes or the context is
// cancelled. It never returns a job error; exhausted retries are logged
// so a dead event cannot wedge the stream.
func (w *Worker) Run(ctx context.Context, events <-chan Event) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)

	for {
		select {
		case <-ctx.Done():
			g.Wait()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				w.process(ctx, ev)
				return nil
			})
		}
	}
}

func (w *Worker) process(ctx context.Context, ev Event) {
	if ev.DocumentID == "" {
		log.Printf("jobs: dropping event with empty document id")
		return
	}

	lock := w.lockFor(ev.DocumentID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 1; attempt <= w.config.MaxAttempts; attempt++ {
		err := w.handle(ctx, ev)
		if err == nil {
			return
		}

		if models.IsValidationError(err) {
			log.Printf("jobs: %s %s rejected: %v", ev.Op, ev.DocumentID, err)
			return
		}

		if attempt == w.config.MaxAttempts {
			log.Printf("jobs: %s %s failed after %d attempts: %v", ev.Op, ev.DocumentID, attempt, err)
			return
		}

		log.Printf("jobs: %s %s attempt %d failed, retrying: %v", ev.Op, ev.DocumentID, attempt, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
		}
	}
}

func (w *Worker) handle(ctx context.Context, ev Event) error {
	switch ev.Op {
	case OpDelete:
		return w.indexer.DeleteDocumentEmbeddings(ctx, ev.DocumentID)
	case OpGenerate, "":
		post, err := w.posts.FetchPost(ctx, ev.DocumentID)
		if errors.Is(err, store.ErrPostNotFound) {
			// Deleted between the mutation and this job running.
			return w.indexer.DeleteDocumentEmbeddings(ctx, ev.DocumentID)
		}
		if err != nil {
			return err
		}
		return w.indexer.UpdateDocumentEmbeddings(ctx, post)
	default:
		return models.NewValidationError("op", "unknown event op: "+ev.Op)
	}
}

func (w *Worker) lockFor(documentID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, ok := w.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[documentID] = lock
	}
	return lock
}
