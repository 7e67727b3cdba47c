package rule

import (
	"testing"
)

func TestMatcherAllConditionsMustHold(t *testing.T) {
	matcher := NewMatcher(NewEvaluator())

	item := Item{Title: "Go 1.24 released", Author: "The Go Team"}

	r := Rule{
		ID: "r1",
		Conditions: []Condition{
			{Field: FieldTitle, Operator: OpContains, Value: "go"},
			{Field: FieldAuthor, Operator: OpContains, Value: "team"},
		},
	}

	matched, errs := matcher.Matches(item, r)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !matched {
		t.Errorf("expected rule to match when all conditions hold")
	}

	r.Conditions = append(r.Conditions, Condition{Field: FieldTitle, Operator: OpContains, Value: "rust"})
	matched, _ = matcher.Matches(item, r)
	if matched {
		t.Errorf("expected rule not to match when one condition fails")
	}
}

func TestMatcherZeroConditionsIsCatchAll(t *testing.T) {
	matcher := NewMatcher(NewEvaluator())

	matched, errs := matcher.Matches(Item{Title: "anything at all"}, Rule{ID: "r1"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !matched {
		t.Errorf("a rule with zero conditions must match every item")
	}
}

func TestMatcherErroringConditionIsNonMatch(t *testing.T) {
	matcher := NewMatcher(NewEvaluator())

	item := Item{Title: "Go 1.24 released"}

	r := Rule{
		ID: "r1",
		Conditions: []Condition{
			{Field: FieldTitle, Operator: OpContains, Value: "go"},
			{Field: FieldTitle, Operator: OpMatches, Value: "[unclosed"},
		},
	}

	matched, errs := matcher.Matches(item, r)
	if matched {
		t.Errorf("a rule with an erroring condition must not match")
	}
	if len(errs) != 1 {
		t.Errorf("expected 1 collected error, got %d", len(errs))
	}
}
