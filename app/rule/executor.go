package rule

import (
	"context"
)

// CategoryProvider is the external category lookup used to validate
// assignCategory targets. A nil result with a nil error means the
// category does not exist.
type CategoryProvider interface {
	GetCategory(ctx context.Context, id string) (*Category, error)
}

type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// ActionOutcome records what happened to one action of one rule against
// one item.
type ActionOutcome struct {
	RuleID string        `json:"rule_id"`
	Action ActionType    `json:"action"`
	Status OutcomeStatus `json:"status"`
	Detail string        `json:"detail,omitempty"`
}

// Executor applies a rule's ordered action list to one item, mutating it
// in place. Each action sees the effects of the actions before it. The
// category existence check is the only operation here that does I/O.
type Executor struct {
	categories CategoryProvider
}

func NewExecutor(categories CategoryProvider) *Executor {
	return &Executor{categories: categories}
}

// Apply executes r.Actions strictly in list order. A failed action (e.g.
// assignCategory to a deleted category) does not abort the remaining
// actions; the skip action does, by definition.
func (ex *Executor) Apply(ctx context.Context, item *Item, r Rule) []ActionOutcome {
	outcomes := make([]ActionOutcome, 0, len(r.Actions))

	for _, act := range r.Actions {
		outcome := ActionOutcome{RuleID: r.ID, Action: act.Type}

		switch act.Type {
		case ActionMarkRead:
			outcome.Status = setFlag(&item.IsRead, true)
		case ActionMarkUnread:
			outcome.Status = setFlag(&item.IsRead, false)
		case ActionStar:
			outcome.Status = setFlag(&item.IsStarred, true)
		case ActionUnstar:
			outcome.Status = setFlag(&item.IsStarred, false)
		case ActionArchive:
			outcome.Status = setFlag(&item.IsArchived, true)
		case ActionUnarchive:
			outcome.Status = setFlag(&item.IsArchived, false)
		case ActionAssignCategory:
			outcome = ex.assignCategory(ctx, item, r, act)
		case ActionAddTag:
			outcome.Status = addTag(item, act.Tag)
		case ActionRemoveTag:
			outcome.Status = removeTag(item, act.Tag)
		case ActionSkip:
			// Terminates the remaining actions of this rule only.
			outcome.Status = OutcomeApplied
			outcomes = append(outcomes, outcome)
			return outcomes
		default:
			outcome.Status = OutcomeFailed
			outcome.Detail = "unknown action type"
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (ex *Executor) assignCategory(ctx context.Context, item *Item, r Rule, act Action) ActionOutcome {
	outcome := ActionOutcome{RuleID: r.ID, Action: act.Type}

	if item.CategoryID == act.CategoryID {
		outcome.Status = OutcomeSkipped
		return outcome
	}

	category, err := ex.categories.GetCategory(ctx, act.CategoryID)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = err.Error()
		return outcome
	}
	if category == nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = (&ReferenceError{Resource: "category", ID: act.CategoryID}).Error()
		return outcome
	}

	// Refresh the name too, so later rules' category conditions observe
	// the change within the same pass.
	item.CategoryID = category.ID
	item.Category = category.Name
	outcome.Status = OutcomeApplied
	return outcome
}

func setFlag(flag *bool, value bool) OutcomeStatus {
	if *flag == value {
		return OutcomeSkipped
	}
	*flag = value
	return OutcomeApplied
}

func addTag(item *Item, tag string) OutcomeStatus {
	if hasTag(item, tag) {
		return OutcomeSkipped
	}
	item.Tags = append(item.Tags, tag)
	return OutcomeApplied
}

func removeTag(item *Item, tag string) OutcomeStatus {
	folded := fold(tag)
	kept := item.Tags[:0]
	removed := false
	for _, t := range item.Tags {
		if fold(t) == folded {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	item.Tags = kept
	if !removed {
		return OutcomeSkipped
	}
	return OutcomeApplied
}

func hasTag(item *Item, tag string) bool {
	folded := fold(tag)
	for _, t := range item.Tags {
		if fold(t) == folded {
			return true
		}
	}
	return false
}
