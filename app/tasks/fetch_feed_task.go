package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedtriage/feedtriage/app/database"
	"github.com/feedtriage/feedtriage/app/feed"
	"github.com/feedtriage/feedtriage/app/rule"
)

// FetchFeedTask downloads a feed, stores the new entries and queues rule
// application for them.
type FetchFeedTask struct {
	Task
	FeedConfig *feed.Config
	httpClient *http.Client
	parser     *feed.Parser
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
	engine     *rule.Engine
	scheduler  TaskSchedulerInterface
	ownerID    string
	userAgent  string
}

func NewFetchFeedTask(feedName string, feedConfig *feed.Config, httpClient *http.Client,
	parser *feed.Parser, feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	engine *rule.Engine, scheduler TaskSchedulerInterface, ownerID, userAgent string) *FetchFeedTask {
	return &FetchFeedTask{
		Task:       NewTask(TaskTypeFetchFeed, feedName),
		FeedConfig: feedConfig,
		httpClient: httpClient,
		parser:     parser,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
		engine:     engine,
		scheduler:  scheduler,
		ownerID:    ownerID,
		userAgent:  userAgent,
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	data, err := t.fetchFeed(ctx, t.FeedConfig.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	nextFetch := time.Now().UTC().Add(time.Duration(t.FeedConfig.Settings.RefreshInterval) * time.Second)
	if err := t.feedRepo.UpdateFeedFetched(ctx, t.FeedName, metadata.Title, nextFetch); err != nil {
		return fmt.Errorf("failed to update feed fetch state: %w", err)
	}

	newIDs, err := t.storeItems(ctx, items)
	if err != nil {
		return fmt.Errorf("failed to store items: %w", err)
	}

	slog.Info("Task completed",
		"type", "FetchFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", len(items),
		"new", len(newIDs))

	if len(newIDs) > 0 {
		applyTask := NewApplyRulesTask(t.FeedName, t.engine, t.itemRepo, t.ownerID, newIDs)
		if err := t.scheduler.EnqueueTask(applyTask); err != nil {
			slog.Warn("Failed to enqueue ApplyRulesTask", "feed", t.FeedName, "error", err)
		}
	}

	return nil
}

func (t *FetchFeedTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (t *FetchFeedTask) storeItems(ctx context.Context, items []feed.Item) ([]string, error) {
	var newIDs []string

	for _, item := range items {
		incoming := database.IncomingItem{
			GUID:        item.GUID,
			Link:        item.Link,
			Title:       item.Title,
			Content:     item.Content,
			Author:      item.Author,
			Tags:        item.Tags,
			PublishedAt: item.PublishedAt,
			ContentHash: item.ContentHash,
		}

		id, isNew, err := t.itemRepo.UpsertItem(ctx, t.FeedName, incoming)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert item: %w", err)
		}
		if isNew {
			newIDs = append(newIDs, id)
		}
	}

	return newIDs, nil
}
