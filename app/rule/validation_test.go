package rule

import (
	"strings"
	"testing"
)

func validRule() Rule {
	return Rule{
		Name: "Mark sports as read",
		Conditions: []Condition{
			{Field: FieldTitle, Operator: OpContains, Value: "sports"},
		},
		Actions: []Action{{Type: ActionMarkRead}},
	}
}

func TestValidateRuleAccepted(t *testing.T) {
	r := validRule()
	if err := ValidateRule(&r); err != nil {
		t.Fatalf("expected rule to validate, got %v", err)
	}
}

func TestValidateRuleCatchAllIsValid(t *testing.T) {
	r := validRule()
	r.Conditions = nil

	if err := ValidateRule(&r); err != nil {
		t.Fatalf("a rule with zero conditions must be valid, got %v", err)
	}
	if !IsCatchAll(&r) {
		t.Errorf("expected IsCatchAll to report true")
	}
}

func TestValidateRuleRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Rule)
		problem string
	}{
		{
			name:    "missing name",
			mutate:  func(r *Rule) { r.Name = "  " },
			problem: "name is required",
		},
		{
			name:    "no actions",
			mutate:  func(r *Rule) { r.Actions = nil },
			problem: "at least one action is required",
		},
		{
			name: "unknown field",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: "publishedAt", Operator: OpContains, Value: "x"}}
			},
			problem: "unknown field",
		},
		{
			name: "unknown operator",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTitle, Operator: "startsWith", Value: "x"}}
			},
			problem: "unknown operator",
		},
		{
			name: "contains without value",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTitle, Operator: OpContains}}
			},
			problem: "requires a value",
		},
		{
			name: "contains with a list",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTitle, Operator: OpContains, Value: "x", Values: []string{"y"}}}
			},
			problem: "takes a single value",
		},
		{
			name: "matches with invalid regex",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTitle, Operator: OpMatches, Value: "[unclosed"}}
			},
			problem: "invalid regular expression",
		},
		{
			name: "in without values",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTag, Operator: OpIn}}
			},
			problem: "requires a non-empty list",
		},
		{
			name: "in with single value",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTag, Operator: OpIn, Value: "x", Values: []string{"y"}}}
			},
			problem: "takes a list",
		},
		{
			name: "gt rejected",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTitle, Operator: OpGreaterThan, Value: "5"}}
			},
			problem: "reserved for a future numeric field",
		},
		{
			name: "lt rejected",
			mutate: func(r *Rule) {
				r.Conditions = []Condition{{Field: FieldTitle, Operator: OpLessThan, Value: "5"}}
			},
			problem: "reserved for a future numeric field",
		},
		{
			name: "assignCategory without category",
			mutate: func(r *Rule) {
				r.Actions = []Action{{Type: ActionAssignCategory}}
			},
			problem: "requires categoryId",
		},
		{
			name: "addTag without tag",
			mutate: func(r *Rule) {
				r.Actions = []Action{{Type: ActionAddTag, Tag: " "}}
			},
			problem: "requires a tag",
		},
		{
			name: "markRead with stray parameter",
			mutate: func(r *Rule) {
				r.Actions = []Action{{Type: ActionMarkRead, Tag: "x"}}
			},
			problem: "takes no parameters",
		},
		{
			name: "unknown action type",
			mutate: func(r *Rule) {
				r.Actions = []Action{{Type: "explode"}}
			},
			problem: "unknown action type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)

			err := ValidateRule(&r)
			if err == nil {
				t.Fatal("expected validation to fail")
			}

			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}

			found := false
			for _, p := range vErr.Problems {
				if strings.Contains(p, tt.problem) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected a problem containing %q, got %v", tt.problem, vErr.Problems)
			}
		})
	}
}

func TestValidateRuleCollectsAllProblems(t *testing.T) {
	r := Rule{
		Conditions: []Condition{
			{Field: "bogus", Operator: "bogus"},
			{Field: FieldTitle, Operator: OpContains},
		},
	}

	err := ValidateRule(&r)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	vErr := err.(*ValidationError)
	if len(vErr.Problems) < 4 {
		t.Errorf("expected all problems collected, got %d: %v", len(vErr.Problems), vErr.Problems)
	}
}
