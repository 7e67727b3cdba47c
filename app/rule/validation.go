package rule

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateRule checks the shape of a rule's conditions and actions at
// save time so evaluation never has to. A rule with zero conditions is
// valid (explicit catch-all); the API flags it so a UI can warn.
func ValidateRule(r *Rule) error {
	var problems []string

	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}

	for i, cond := range r.Conditions {
		problems = append(problems, validateCondition(i, cond)...)
	}

	if len(r.Actions) == 0 {
		problems = append(problems, "at least one action is required")
	}
	for i, act := range r.Actions {
		problems = append(problems, validateAction(i, act)...)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateCondition(i int, cond Condition) []string {
	var problems []string

	if !cond.Field.Valid() {
		problems = append(problems, fmt.Sprintf("condition %d: unknown field %q", i, cond.Field))
	}
	if !cond.Operator.Valid() {
		problems = append(problems, fmt.Sprintf("condition %d: unknown operator %q", i, cond.Operator))
		return problems
	}

	switch cond.Operator {
	case OpContains, OpNotContains, OpEquals, OpNotEquals:
		if cond.Value == "" {
			problems = append(problems, fmt.Sprintf("condition %d: operator %q requires a value", i, cond.Operator))
		}
		if len(cond.Values) > 0 {
			problems = append(problems, fmt.Sprintf("condition %d: operator %q takes a single value, not a list", i, cond.Operator))
		}
	case OpMatches:
		if cond.Value == "" {
			problems = append(problems, fmt.Sprintf("condition %d: operator %q requires a pattern", i, cond.Operator))
		} else if _, err := regexp.Compile("(?i)" + cond.Value); err != nil {
			problems = append(problems, fmt.Sprintf("condition %d: invalid regular expression: %v", i, err))
		}
		if len(cond.Values) > 0 {
			problems = append(problems, fmt.Sprintf("condition %d: operator %q takes a single pattern, not a list", i, cond.Operator))
		}
	case OpIn:
		if len(cond.Values) == 0 {
			problems = append(problems, fmt.Sprintf("condition %d: operator %q requires a non-empty list", i, cond.Operator))
		}
		if cond.Value != "" {
			problems = append(problems, fmt.Sprintf("condition %d: operator %q takes a list, not a single value", i, cond.Operator))
		}
	case OpGreaterThan, OpLessThan:
		problems = append(problems, fmt.Sprintf(
			"condition %d: operator %q is reserved for a future numeric field and cannot be used with %q", i, cond.Operator, cond.Field))
	}

	return problems
}

func validateAction(i int, act Action) []string {
	var problems []string

	if !act.Type.Valid() {
		problems = append(problems, fmt.Sprintf("action %d: unknown action type %q", i, act.Type))
		return problems
	}

	switch act.Type {
	case ActionAssignCategory:
		if act.CategoryID == "" {
			problems = append(problems, fmt.Sprintf("action %d: assignCategory requires categoryId", i))
		}
	case ActionAddTag, ActionRemoveTag:
		if strings.TrimSpace(act.Tag) == "" {
			problems = append(problems, fmt.Sprintf("action %d: %s requires a tag", i, act.Type))
		}
	default:
		if act.CategoryID != "" || act.Tag != "" {
			problems = append(problems, fmt.Sprintf("action %d: %s takes no parameters", i, act.Type))
		}
	}

	return problems
}

// IsCatchAll reports whether the rule matches every item because it has
// no conditions.
func IsCatchAll(r *Rule) bool {
	return len(r.Conditions) == 0
}
