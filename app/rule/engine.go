package rule

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultWorkerCount = 4
	DefaultSampleCount = 100
	MaxSampleCount     = 500

	persistAttempts = 3
	persistBackoff  = 100 * time.Millisecond
)

// RuleStore is the engine's read/write boundary to persisted rules. The
// engine reads one ordered snapshot per run and only ever writes match
// statistics back.
type RuleStore interface {
	ListEnabledOrdered(ctx context.Context, ownerID string) ([]Rule, error)
	GetRule(ctx context.Context, ownerID, id string) (*Rule, error)
	// IncrementMatch must be atomic at the storage level; concurrent
	// runs bump the same counter.
	IncrementMatch(ctx context.Context, ruleID string, count int, when time.Time) error
}

// ItemStore is the engine's boundary to persisted items.
type ItemStore interface {
	// PersistTriage writes back the mutated triage fields of one item.
	PersistTriage(ctx context.Context, item Item) error
	// SampleItems returns a bounded sample of existing items for test mode.
	SampleItems(ctx context.Context, limit int) ([]Item, error)
}

// Engine orchestrates rule runs: it takes a single rule snapshot, walks
// items across a bounded worker pool, runs Matcher and Executor per
// (item, rule) pair in strict position order, and assembles a report.
// A run never returns an error for per-item failures; only a failed
// snapshot load aborts before any item is processed.
type Engine struct {
	rules       RuleStore
	items       ItemStore
	evaluator   *Evaluator
	matcher     *Matcher
	executor    *Executor
	workerCount int
}

func NewEngine(rules RuleStore, items ItemStore, categories CategoryProvider, workerCount int) *Engine {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	evaluator := NewEvaluator()
	return &Engine{
		rules:       rules,
		items:       items,
		evaluator:   evaluator,
		matcher:     NewMatcher(evaluator),
		executor:    NewExecutor(categories),
		workerCount: workerCount,
	}
}

// Apply runs all enabled rules, ordered by position, against the given
// items and persists item mutations and rule statistics. Mid-run edits to
// the rule set do not affect an in-flight run. Cancelling ctx aborts the
// batch between items; items already picked up complete as a unit and
// their results are kept.
func (e *Engine) Apply(ctx context.Context, ownerID string, items []Item) *ExecutionReport {
	report := newExecutionReport(ModeApply)
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	snapshot, err := e.rules.ListEnabledOrdered(ctx, ownerID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("loading rule snapshot: %v", err))
		report.Aborted = true
		return report
	}

	e.runBatch(ctx, snapshot, items, report)
	return report
}

// ApplyRule runs a single rule against a caller-selected item set (the
// manual "run rule" action). The rule runs even if currently disabled;
// the caller asked for it explicitly.
func (e *Engine) ApplyRule(ctx context.Context, ownerID, ruleID string, items []Item) *ExecutionReport {
	report := newExecutionReport(ModeApply)
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	r, err := e.rules.GetRule(ctx, ownerID, ruleID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("loading rule: %v", err))
		report.Aborted = true
		return report
	}
	if r == nil {
		report.Errors = append(report.Errors, fmt.Sprintf("rule %s not found", ruleID))
		report.Aborted = true
		return report
	}

	e.runBatch(ctx, []Rule{*r}, items, report)
	return report
}

// Test evaluates a draft rule against an ephemeral copy of a bounded
// sample of existing items. Nothing is persisted: no item fields, no
// matchedCount, no lastMatchedAt. Each condition is additionally
// evaluated on its own so a UI can show which condition narrows the
// match set.
func (e *Engine) Test(ctx context.Context, draft Rule, sampleCount int) (*TestReport, error) {
	if sampleCount <= 0 {
		sampleCount = DefaultSampleCount
	}
	if sampleCount > MaxSampleCount {
		sampleCount = MaxSampleCount
	}

	sample, err := e.items.SampleItems(ctx, sampleCount)
	if err != nil {
		return nil, fmt.Errorf("loading sample items: %w", err)
	}

	report := &TestReport{
		SampleSize:       len(sample),
		ConditionMatches: make([]ConditionMatches, len(draft.Conditions)),
	}
	for i, cond := range draft.Conditions {
		report.ConditionMatches[i] = ConditionMatches{Condition: cond}
	}

	for _, sampled := range sample {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, "test run aborted: "+err.Error())
			break
		}

		item := sampled.Clone()

		for i, cond := range draft.Conditions {
			if ok, err := e.evaluator.Evaluate(item, cond); err == nil && ok {
				report.ConditionMatches[i].Matches++
			}
		}

		matched, errs := e.matcher.Matches(item, draft)
		for _, err := range errs {
			report.Errors = append(report.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
		}
		if !matched {
			continue
		}

		report.Matched++
		outcomes := e.executor.Apply(ctx, &item, draft)
		report.Results = append(report.Results, ItemResult{
			ItemID:   item.ID,
			Matched:  []string{draft.ID},
			Outcomes: outcomes,
		})
	}

	return report, nil
}

func (e *Engine) runBatch(ctx context.Context, rules []Rule, items []Item, report *ExecutionReport) {
	if len(rules) == 0 || len(items) == 0 {
		return
	}

	results := make([]ItemResult, len(items))
	processed := make([]bool, len(items))
	matchTotals := make(map[string]int)
	var mu sync.Mutex

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result, matches, warnings := e.processItem(ctx, rules, items[idx])
				mu.Lock()
				results[idx] = result
				processed[idx] = true
				for id, n := range matches {
					matchTotals[id] += n
				}
				report.Errors = append(report.Errors, warnings...)
				mu.Unlock()
			}
		}()
	}

	aborted := false
feed:
	for idx := range items {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		select {
		case <-ctx.Done():
			aborted = true
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	for idx, res := range results {
		if !processed[idx] {
			continue
		}
		report.Results = append(report.Results, res)
		report.ItemsProcessed++
		if res.Failed {
			report.ItemsFailed++
		}
	}

	if aborted {
		report.Aborted = true
		report.Errors = append(report.Errors, "run aborted: "+ctx.Err().Error())
	}

	for id, n := range matchTotals {
		report.RuleMatches[id] = n
	}
	e.flushMatchStats(ctx, matchTotals, report)
}

// processItem runs every rule, in order, against one item. The item's
// pass completes as a unit even during shutdown, so the executor and the
// final write use a non-cancellable context.
func (e *Engine) processItem(ctx context.Context, rules []Rule, item Item) (ItemResult, map[string]int, []string) {
	itemCtx := context.WithoutCancel(ctx)

	result := ItemResult{ItemID: item.ID}
	matches := make(map[string]int)
	var warnings []string

	mutated := false
	for _, r := range rules {
		matched, errs := e.matcher.Matches(item, r)
		for _, err := range errs {
			warnings = append(warnings, fmt.Sprintf("item %s, rule %q: %v", item.ID, r.Name, err))
		}
		if !matched {
			continue
		}

		matches[r.ID]++
		result.Matched = append(result.Matched, r.ID)

		// Mutations land on the local copy so later rules in this pass
		// observe them before anything is persisted.
		outcomes := e.executor.Apply(itemCtx, &item, r)
		result.Outcomes = append(result.Outcomes, outcomes...)
		for _, o := range outcomes {
			if o.Status == OutcomeApplied {
				mutated = true
			}
		}
	}

	if mutated {
		if err := e.persistItem(itemCtx, item); err != nil {
			// In-memory mutations are discarded wholesale; the item is
			// never partially persisted.
			result.Failed = true
			result.Error = (&PersistenceError{Op: "persist item", Err: err}).Error()
		}
	}

	return result, matches, warnings
}

func (e *Engine) persistItem(ctx context.Context, item Item) error {
	var err error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = e.items.PersistTriage(ctx, item); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * persistBackoff)
	}
	return err
}

// flushMatchStats merges the per-rule counters accumulated during the run
// into storage with one atomic increment per rule.
func (e *Engine) flushMatchStats(ctx context.Context, totals map[string]int, report *ExecutionReport) {
	if len(totals) == 0 {
		return
	}

	now := time.Now().UTC()
	flushCtx := context.WithoutCancel(ctx)

	for ruleID, count := range totals {
		var err error
		for attempt := 1; attempt <= persistAttempts; attempt++ {
			if err = e.rules.IncrementMatch(flushCtx, ruleID, count, now); err == nil {
				break
			}
			time.Sleep(time.Duration(attempt) * persistBackoff)
		}
		if err != nil {
			report.Errors = append(report.Errors,
				(&PersistenceError{Op: "rule statistics for " + ruleID, Err: err}).Error())
		}
	}
}
