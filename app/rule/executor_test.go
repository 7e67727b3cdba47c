package rule

import (
	"context"
	"errors"
	"testing"
)

type stubCategories struct {
	categories map[string]*Category
	err        error
}

func (s *stubCategories) GetCategory(ctx context.Context, id string) (*Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.categories[id], nil
}

func newTestExecutor() *Executor {
	return NewExecutor(&stubCategories{
		categories: map[string]*Category{
			"cat-1": {ID: "cat-1", Name: "Technology"},
		},
	})
}

func TestExecutorFlagActions(t *testing.T) {
	executor := newTestExecutor()
	ctx := context.Background()

	item := Item{ID: "i1"}
	r := Rule{ID: "r1", Actions: []Action{{Type: ActionMarkRead}, {Type: ActionStar}, {Type: ActionArchive}}}

	outcomes := executor.Apply(ctx, &item, r)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != OutcomeApplied {
			t.Errorf("action %s: expected applied, got %s", o.Action, o.Status)
		}
	}
	if !item.IsRead || !item.IsStarred || !item.IsArchived {
		t.Errorf("expected all flags set, got read=%v starred=%v archived=%v", item.IsRead, item.IsStarred, item.IsArchived)
	}
}

func TestExecutorIdempotentActionsAreSkipped(t *testing.T) {
	executor := newTestExecutor()
	ctx := context.Background()

	item := Item{ID: "i1", IsRead: true, Tags: []string{"Golang"}}
	r := Rule{ID: "r1", Actions: []Action{
		{Type: ActionMarkRead},
		{Type: ActionAddTag, Tag: "golang"},
		{Type: ActionRemoveTag, Tag: "missing"},
	}}

	outcomes := executor.Apply(ctx, &item, r)

	for _, o := range outcomes {
		if o.Status != OutcomeSkipped {
			t.Errorf("action %s: expected skipped, got %s", o.Action, o.Status)
		}
	}
	if len(item.Tags) != 1 {
		t.Errorf("expected tags untouched, got %v", item.Tags)
	}
}

func TestExecutorTagActions(t *testing.T) {
	executor := newTestExecutor()
	ctx := context.Background()

	item := Item{ID: "i1", Tags: []string{"news", "Sports"}}
	r := Rule{ID: "r1", Actions: []Action{
		{Type: ActionAddTag, Tag: "follow-up"},
		{Type: ActionRemoveTag, Tag: "sports"},
	}}

	outcomes := executor.Apply(ctx, &item, r)

	if outcomes[0].Status != OutcomeApplied || outcomes[1].Status != OutcomeApplied {
		t.Fatalf("expected both tag actions applied, got %v", outcomes)
	}
	if len(item.Tags) != 2 || item.Tags[0] != "news" || item.Tags[1] != "follow-up" {
		t.Errorf("unexpected tags: %v", item.Tags)
	}
}

func TestExecutorAssignCategory(t *testing.T) {
	executor := newTestExecutor()
	ctx := context.Background()

	item := Item{ID: "i1", CategoryID: "cat-0", Category: "Old"}
	r := Rule{ID: "r1", Actions: []Action{{Type: ActionAssignCategory, CategoryID: "cat-1"}}}

	outcomes := executor.Apply(ctx, &item, r)

	if outcomes[0].Status != OutcomeApplied {
		t.Fatalf("expected applied, got %s (%s)", outcomes[0].Status, outcomes[0].Detail)
	}
	if item.CategoryID != "cat-1" || item.Category != "Technology" {
		t.Errorf("expected category id and name refreshed, got %s/%s", item.CategoryID, item.Category)
	}

	// Re-assigning the same category is a no-op
	outcomes = executor.Apply(ctx, &item, r)
	if outcomes[0].Status != OutcomeSkipped {
		t.Errorf("expected skipped for same category, got %s", outcomes[0].Status)
	}
}

func TestExecutorAssignMissingCategoryFailsButContinues(t *testing.T) {
	executor := newTestExecutor()
	ctx := context.Background()

	item := Item{ID: "i1"}
	r := Rule{ID: "r1", Actions: []Action{
		{Type: ActionAssignCategory, CategoryID: "gone"},
		{Type: ActionMarkRead},
	}}

	outcomes := executor.Apply(ctx, &item, r)

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Status != OutcomeFailed {
		t.Errorf("expected failed for missing category, got %s", outcomes[0].Status)
	}
	if outcomes[0].Detail == "" {
		t.Errorf("expected failure detail naming the missing category")
	}
	if outcomes[1].Status != OutcomeApplied {
		t.Errorf("expected the following action to still run, got %s", outcomes[1].Status)
	}
	if item.CategoryID != "" {
		t.Errorf("item category must stay untouched on failure, got %s", item.CategoryID)
	}
}

func TestExecutorCategoryLookupError(t *testing.T) {
	executor := NewExecutor(&stubCategories{err: errors.New("connection refused")})
	ctx := context.Background()

	item := Item{ID: "i1"}
	r := Rule{ID: "r1", Actions: []Action{{Type: ActionAssignCategory, CategoryID: "cat-1"}}}

	outcomes := executor.Apply(ctx, &item, r)
	if outcomes[0].Status != OutcomeFailed {
		t.Errorf("expected failed on lookup error, got %s", outcomes[0].Status)
	}
}

func TestExecutorSkipTerminatesRemainingActions(t *testing.T) {
	executor := newTestExecutor()
	ctx := context.Background()

	item := Item{ID: "i1"}
	r := Rule{ID: "r1", Actions: []Action{
		{Type: ActionStar},
		{Type: ActionSkip},
		{Type: ActionMarkRead},
	}}

	outcomes := executor.Apply(ctx, &item, r)

	if len(outcomes) != 2 {
		t.Fatalf("expected execution to stop at skip, got %d outcomes", len(outcomes))
	}
	if !item.IsStarred {
		t.Errorf("actions before skip must still apply")
	}
	if item.IsRead {
		t.Errorf("actions after skip must not run")
	}
}
