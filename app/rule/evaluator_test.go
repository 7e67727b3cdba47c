package rule

import (
	"errors"
	"testing"
)

func TestEvaluatorContainsCaseInsensitive(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Title: "Breaking News: Go 1.24 Released"}

	cases := []struct {
		value   string
		matched bool
	}{
		{"breaking news", true},
		{"BREAKING", true},
		{"go 1.24", true},
		{"rust", false},
	}

	for _, tc := range cases {
		ok, err := evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: OpContains, Value: tc.value})
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.value, err)
		}
		if ok != tc.matched {
			t.Errorf("contains %q: expected %v, got %v", tc.value, tc.matched, ok)
		}
	}
}

func TestEvaluatorEqualsUnicodeFolding(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Author: "Straße"}

	ok, err := evaluator.Evaluate(item, Condition{Field: FieldAuthor, Operator: OpEquals, Value: "STRASSE"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected case folding to match Straße against STRASSE")
	}
}

func TestEvaluatorNotContains(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Title: "Weekly sports roundup"}

	ok, err := evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: OpNotContains, Value: "politics"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected notContains to hold when the value is absent")
	}

	ok, err = evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: OpNotContains, Value: "Sports"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("expected notContains to fail when the value is present (case-insensitively)")
	}
}

func TestEvaluatorTagFieldIsMultiValued(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Tags: []string{"golang", "Databases"}}

	ok, err := evaluator.Evaluate(item, Condition{Field: FieldTag, Operator: OpEquals, Value: "databases"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected equals on tag to match any tag")
	}

	ok, err = evaluator.Evaluate(item, Condition{Field: FieldTag, Operator: OpIn, Values: []string{"rust", "GOLANG"}})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected in on tag to match any tag against any candidate")
	}
}

func TestEvaluatorMatchesRegex(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Title: "Release v1.23.4 is out"}

	ok, err := evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: OpMatches, Value: `v\d+\.\d+`})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected regex to match version string")
	}

	// Patterns are case-insensitive like every other operator
	ok, err = evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: OpMatches, Value: `RELEASE`})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected regex match to be case-insensitive")
	}
}

func TestEvaluatorInvalidRegexReturnsEvaluationError(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Title: "anything"}

	ok, err := evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: OpMatches, Value: "[unclosed"})
	if ok {
		t.Errorf("invalid regex must never match")
	}
	if err == nil {
		t.Fatal("expected an error for an invalid regex")
	}

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Errorf("expected EvaluationError, got %T", err)
	}
}

func TestEvaluatorNumericOperatorsRejected(t *testing.T) {
	evaluator := NewEvaluator()

	item := Item{Title: "anything"}

	for _, op := range []Operator{OpGreaterThan, OpLessThan} {
		ok, err := evaluator.Evaluate(item, Condition{Field: FieldTitle, Operator: op, Value: "5"})
		if ok {
			t.Errorf("operator %s must never match", op)
		}
		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) {
			t.Errorf("operator %s: expected EvaluationError, got %T", op, err)
		}
	}
}

func TestEvaluatorUnknownField(t *testing.T) {
	evaluator := NewEvaluator()

	_, err := evaluator.Evaluate(Item{}, Condition{Field: "publishedAt", Operator: OpContains, Value: "x"})
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestEvaluatorEmptyFieldValue(t *testing.T) {
	evaluator := NewEvaluator()

	// Item with no author; equals "" is not expressible (validation requires
	// a value), but contains must simply not match.
	ok, err := evaluator.Evaluate(Item{}, Condition{Field: FieldAuthor, Operator: OpContains, Value: "smith"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("contains on an empty field must not match")
	}
}
