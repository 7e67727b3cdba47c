package rule

import (
	"time"
)

type Mode string

const (
	ModeApply Mode = "apply"
	ModeTest  Mode = "test"
)

// ItemResult is the per-item record of one engine run: which rules
// matched (in execution order) and what each of their actions did.
type ItemResult struct {
	ItemID   string          `json:"item_id"`
	Matched  []string        `json:"matched_rules,omitempty"`
	Outcomes []ActionOutcome `json:"outcomes,omitempty"`
	Failed   bool            `json:"failed,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ExecutionReport is the structured result of one engine run. The engine
// never returns an error from a run; every failure lands here.
type ExecutionReport struct {
	Mode           Mode           `json:"mode"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	ItemsProcessed int            `json:"items_processed"`
	ItemsFailed    int            `json:"items_failed"`
	RuleMatches    map[string]int `json:"rule_matches"`
	Results        []ItemResult   `json:"results"`
	Errors         []string       `json:"errors,omitempty"`
	Aborted        bool           `json:"aborted,omitempty"`
}

func newExecutionReport(mode Mode) *ExecutionReport {
	return &ExecutionReport{
		Mode:        mode,
		StartedAt:   time.Now().UTC(),
		RuleMatches: make(map[string]int),
	}
}

// ConditionMatches reports, for test mode, how many sampled items a
// single condition would match on its own.
type ConditionMatches struct {
	Condition Condition `json:"condition"`
	Matches   int       `json:"matches"`
}

// TestReport is the result of a dry run of one draft rule against a
// bounded sample of existing items. Nothing is persisted.
type TestReport struct {
	SampleSize       int                `json:"sample_size"`
	Matched          int                `json:"matched"`
	Results          []ItemResult       `json:"results,omitempty"`
	ConditionMatches []ConditionMatches `json:"condition_matches"`
	Errors           []string           `json:"errors,omitempty"`
}
