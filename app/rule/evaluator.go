package rule

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// fold normalizes a string for caseless comparison. Unicode case folding
// rather than ASCII lowercasing, so "Straße" and "STRASSE" compare equal.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Evaluator decides whether a single condition holds for an item. It is
// pure: no side effects, no I/O. Compiled regular expressions are cached
// per pattern; Go's regexp is RE2, so user-supplied patterns evaluate in
// linear time and cannot backtrack catastrophically.
type Evaluator struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Evaluate never mutates item. A returned error means the condition could
// not be evaluated (malformed regex, reserved operator); callers must
// treat that as a non-match, not as a batch failure.
func (e *Evaluator) Evaluate(item Item, cond Condition) (bool, error) {
	if !cond.Field.Valid() {
		return false, &EvaluationError{Field: cond.Field, Operator: cond.Operator, Reason: "unknown field"}
	}

	switch cond.Operator {
	case OpContains:
		return e.contains(item, cond), nil
	case OpNotContains:
		return !e.contains(item, cond), nil
	case OpEquals:
		return e.equals(item, cond), nil
	case OpNotEquals:
		return !e.equals(item, cond), nil
	case OpMatches:
		return e.matches(item, cond)
	case OpIn:
		return e.in(item, cond), nil
	case OpGreaterThan, OpLessThan:
		return false, &EvaluationError{Field: cond.Field, Operator: cond.Operator,
			Reason: "numeric comparison is not supported for any current field"}
	default:
		return false, &EvaluationError{Field: cond.Field, Operator: cond.Operator, Reason: "unknown operator"}
	}
}

func (e *Evaluator) contains(item Item, cond Condition) bool {
	needle := fold(cond.Value)
	for _, v := range fieldValues(item, cond.Field) {
		if strings.Contains(fold(v), needle) {
			return true
		}
	}
	return false
}

func (e *Evaluator) equals(item Item, cond Condition) bool {
	want := fold(cond.Value)
	for _, v := range fieldValues(item, cond.Field) {
		if fold(v) == want {
			return true
		}
	}
	return false
}

func (e *Evaluator) in(item Item, cond Condition) bool {
	for _, v := range fieldValues(item, cond.Field) {
		folded := fold(v)
		for _, candidate := range cond.Values {
			if folded == fold(candidate) {
				return true
			}
		}
	}
	return false
}

func (e *Evaluator) matches(item Item, cond Condition) (bool, error) {
	re, err := e.compile(cond.Value)
	if err != nil {
		return false, &EvaluationError{Field: cond.Field, Operator: cond.Operator,
			Reason: "invalid regular expression", Err: err}
	}
	for _, v := range fieldValues(item, cond.Field) {
		if re.MatchString(v) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.RLock()
	re, ok := e.patterns[pattern]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}

	// Case-insensitive like every other operator.
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.patterns[pattern] = re
	e.mu.Unlock()

	return re, nil
}

// fieldValues returns the string values a field contributes to matching.
// The tag field is multi-valued: a condition holds if it holds for any tag.
func fieldValues(item Item, field Field) []string {
	switch field {
	case FieldTitle:
		return []string{item.Title}
	case FieldContent:
		return []string{item.Content}
	case FieldAuthor:
		return []string{item.Author}
	case FieldCategory:
		return []string{item.Category}
	case FieldTag:
		return item.Tags
	case FieldFeedTitle:
		return []string{item.FeedTitle}
	default:
		return nil
	}
}
