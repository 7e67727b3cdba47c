package rule

// Matcher evaluates a rule's condition list against one item. All
// conditions must hold (logical AND). Every condition is evaluated even
// after a miss so evaluation errors still surface in the report; an
// erroring condition counts as a non-match, never as a rule failure.
type Matcher struct {
	evaluator *Evaluator
}

func NewMatcher(evaluator *Evaluator) *Matcher {
	return &Matcher{evaluator: evaluator}
}

// Matches returns whether the rule matches plus any evaluation errors
// encountered. A rule with zero conditions matches every item.
func (m *Matcher) Matches(item Item, r Rule) (bool, []error) {
	matched := true
	var errs []error

	for _, cond := range r.Conditions {
		ok, err := m.evaluator.Evaluate(item, cond)
		if err != nil {
			errs = append(errs, err)
			matched = false
			continue
		}
		if !ok {
			matched = false
		}
	}

	return matched, errs
}
