package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/blogsearch/internal/models"
	cfgPkg "github.com/xhad/blogsearch/pkg/config"
	"github.com/xhad/blogsearch/pkg/jobs"
	"github.com/xhad/blogsearch/server"
)

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("posts"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// runReindex regenerates embeddings for every post in the blog. Failed
// posts are reported at the end rather than aborting the walk.
func runReindex(comps *components) error {
	ctx := context.Background()

	posts, err := comps.posts.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list posts: %v", err)
	}
	if len(posts) == 0 {
		color.Yellow("no posts to index")
		return nil
	}

	color.Blue("\nReindexing %d posts\n", len(posts))
	bar := getProgressBar(len(posts), "Generating embeddings...")

	var failed []string
	for _, post := range posts {
		if err := comps.indexer.UpdateDocumentEmbeddings(ctx, post); err != nil {
			log.Printf("reindex %s: %v", post.ID, err)
			failed = append(failed, post.ID)
		}
		bar.Add(1)
	}
	bar.Finish()

	if len(failed) > 0 {
		color.Red("\n✗ %d of %d posts failed: %v\n", len(failed), len(posts), failed)
		return fmt.Errorf("reindex incomplete")
	}

	color.Green("\n✓ Reindexed %d posts\n", len(posts))
	return nil
}

func runSearch(comps *components, query string) error {
	resp := comps.search.SearchDocuments(context.Background(), query, models.SearchParams{})
	if !resp.Success {
		color.Red("search failed: %s", resp.Error)
		return fmt.Errorf("search failed")
	}

	if resp.TotalCount == 0 {
		color.Yellow("no matches for %q", query)
		return nil
	}

	color.Blue("%d matches (page %d of %d)\n", resp.TotalCount, resp.CurrentPage, resp.TotalPages)
	for i, result := range resp.Posts {
		color.Green("%2d. %s  (%.3f)", i+1, result.Post.Title, result.Similarity)
		fmt.Printf("    %s\n", result.Snippet)
	}

	return nil
}

// runServe runs the HTTP search API next to the notify listener and the
// embedding worker, the full online footprint of the search core.
func runServe(cfg *cfgPkg.Config, comps *components) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := jobs.NewListener(ctx, jobs.ListenerConfig{
		ConnString: cfg.Database.URL,
		Channel:    cfg.Jobs.Channel,
	})
	if err != nil {
		return err
	}
	defer listener.Close(context.Background())

	worker := jobs.NewWithConfig(jobs.WorkerConfig{
		Concurrency: cfg.Jobs.Concurrency,
		MaxAttempts: cfg.Jobs.MaxAttempts,
	}, comps.indexer, comps.posts)

	events := make(chan jobs.Event, 64)

	errCh := make(chan error, 3)
	go func() {
		errCh <- listener.Listen(ctx, events)
	}()
	go func() {
		errCh <- worker.Run(ctx, events)
	}()
	go func() {
		srv := server.NewServer(server.Config{Addr: cfg.Server.Addr}, comps.search)
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Println("shutting down")
		return nil
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
