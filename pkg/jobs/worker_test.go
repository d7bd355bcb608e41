package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/pkg/jobs"
	"github.com/xhad/blogsearch/pkg/store"
)

type fakeIndexer struct {
	mu          sync.Mutex
	updates     map[string]int
	deletes     map[string]int
	failFirstN  int
	failWith    error
	updateCalls int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{
		updates: make(map[string]int),
		deletes: make(map[string]int),
	}
}

func (f *fakeIndexer) GenerateDocumentEmbeddings(ctx context.Context, post models.Post) error {
	return f.UpdateDocumentEmbeddings(ctx, post)
}

func (f *fakeIndexer) UpdateDocumentEmbeddings(ctx context.Context, post models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateCalls <= f.failFirstN {
		return f.failWith
	}
	f.updates[post.ID]++
	return nil
}

func (f *fakeIndexer) DeleteDocumentEmbeddings(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes[id]++
	return nil
}

type fakePosts struct {
	posts map[string]models.Post
}

func (f *fakePosts) FetchPost(ctx context.Context, id string) (models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return models.Post{}, store.ErrPostNotFound
	}
	return post, nil
}

func (f *fakePosts) FindPostsByIDs(ctx context.Context, ids []string, onlyPublished bool) ([]models.Post, error) {
	return nil, errors.New("not used")
}

func (f *fakePosts) ListPosts(ctx context.Context) ([]models.Post, error) {
	return nil, errors.New("not used")
}

func runWorker(t *testing.T, w *jobs.Worker, events []jobs.Event) {
	t.Helper()
	ch := make(chan jobs.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	require.NoError(t, w.Run(context.Background(), ch))
}

func fastConfig() jobs.WorkerConfig {
	return jobs.WorkerConfig{
		Concurrency: 5,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}
}

func TestWorker_GenerateEvent(t *testing.T) {
	ix := newFakeIndexer()
	posts := &fakePosts{posts: map[string]models.Post{
		"p1": {ID: "p1", Title: "Caching"},
	}}
	w := jobs.NewWithConfig(fastConfig(), ix, posts)

	runWorker(t, w, []jobs.Event{{DocumentID: "p1", Op: jobs.OpGenerate}})
	assert.Equal(t, 1, ix.updates["p1"])
}

func TestWorker_DeleteEvent(t *testing.T) {
	ix := newFakeIndexer()
	w := jobs.NewWithConfig(fastConfig(), ix, &fakePosts{})

	runWorker(t, w, []jobs.Event{{DocumentID: "p1", Op: jobs.OpDelete}})
	assert.Equal(t, 1, ix.deletes["p1"])
}

func TestWorker_MissingPostTreatedAsDeleted(t *testing.T) {
	ix := newFakeIndexer()
	w := jobs.NewWithConfig(fastConfig(), ix, &fakePosts{posts: map[string]models.Post{}})

	runWorker(t, w, []jobs.Event{{DocumentID: "gone", Op: jobs.OpGenerate}})
	assert.Equal(t, 1, ix.deletes["gone"])
	assert.Zero(t, ix.updates["gone"])
}

func TestWorker_RetriesTransientFailures(t *testing.T) {
	ix := newFakeIndexer()
	ix.failFirstN = 2
	ix.failWith = errors.New("rate limited")
	posts := &fakePosts{posts: map[string]models.Post{"p1": {ID: "p1", Title: "T"}}}
	w := jobs.NewWithConfig(fastConfig(), ix, posts)

	runWorker(t, w, []jobs.Event{{DocumentID: "p1"}})

	// Third attempt succeeds.
	assert.Equal(t, 3, ix.updateCalls)
	assert.Equal(t, 1, ix.updates["p1"])
}

func TestWorker_ExhaustedRetriesGiveUp(t *testing.T) {
	ix := newFakeIndexer()
	ix.failFirstN = 100
	ix.failWith = errors.New("still down")
	posts := &fakePosts{posts: map[string]models.Post{"p1": {ID: "p1", Title: "T"}}}
	w := jobs.NewWithConfig(fastConfig(), ix, posts)

	runWorker(t, w, []jobs.Event{{DocumentID: "p1"}})
	assert.Equal(t, 3, ix.updateCalls)
	assert.Zero(t, ix.updates["p1"])
}

func TestWorker_ValidationErrorNotRetried(t *testing.T) {
	ix := newFakeIndexer()
	ix.failFirstN = 100
	ix.failWith = models.NewValidationError("title", "post title must not be empty")
	posts := &fakePosts{posts: map[string]models.Post{"p1": {ID: "p1"}}}
	w := jobs.NewWithConfig(fastConfig(), ix, posts)

	runWorker(t, w, []jobs.Event{{DocumentID: "p1"}})
	assert.Equal(t, 1, ix.updateCalls)
}

func TestWorker_UnknownOpDropped(t *testing.T) {
	ix := newFakeIndexer()
	w := jobs.NewWithConfig(fastConfig(), ix, &fakePosts{})

	runWorker(t, w, []jobs.Event{{DocumentID: "p1", Op: "compact"}})
	assert.Zero(t, ix.updateCalls)
	assert.Empty(t, ix.deletes)
}

func TestWorker_ManyEvents(t *testing.T) {
	ix := newFakeIndexer()
	posts := &fakePosts{posts: map[string]models.Post{}}
	var events []jobs.Event
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		posts.posts[id] = models.Post{ID: id, Title: "T"}
		events = append(events, jobs.Event{DocumentID: id})
	}
	w := jobs.NewWithConfig(fastConfig(), ix, posts)

	runWorker(t, w, events)
	for id := range posts.posts {
		assert.Equal(t, 1, ix.updates[id])
	}
}
