package rule

import (
	"slices"
	"time"
)

// Field identifies the item attribute a condition inspects.
type Field string

const (
	FieldTitle     Field = "title"
	FieldContent   Field = "content"
	FieldAuthor    Field = "author"
	FieldCategory  Field = "category"
	FieldTag       Field = "tag"
	FieldFeedTitle Field = "feedTitle"
)

var validFields = map[Field]bool{
	FieldTitle:     true,
	FieldContent:   true,
	FieldAuthor:    true,
	FieldCategory:  true,
	FieldTag:       true,
	FieldFeedTitle: true,
}

func (f Field) Valid() bool {
	return validFields[f]
}

// Operator is the predicate a condition applies to its field.
type Operator string

const (
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpMatches     Operator = "matches"
	OpIn          Operator = "in"
	// OpGreaterThan and OpLessThan are reserved for a future numeric
	// field; validation rejects them for every current field.
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
)

var validOperators = map[Operator]bool{
	OpContains:    true,
	OpNotContains: true,
	OpEquals:      true,
	OpNotEquals:   true,
	OpMatches:     true,
	OpIn:          true,
	OpGreaterThan: true,
	OpLessThan:    true,
}

func (op Operator) Valid() bool {
	return validOperators[op]
}

// ActionType identifies the mutation an action performs on a matched item.
type ActionType string

const (
	ActionMarkRead       ActionType = "markRead"
	ActionMarkUnread     ActionType = "markUnread"
	ActionStar           ActionType = "star"
	ActionUnstar         ActionType = "unstar"
	ActionArchive        ActionType = "archive"
	ActionUnarchive      ActionType = "unarchive"
	ActionAssignCategory ActionType = "assignCategory"
	ActionAddTag         ActionType = "addTag"
	ActionRemoveTag      ActionType = "removeTag"
	ActionSkip           ActionType = "skip"
)

var validActionTypes = map[ActionType]bool{
	ActionMarkRead:       true,
	ActionMarkUnread:     true,
	ActionStar:           true,
	ActionUnstar:         true,
	ActionArchive:        true,
	ActionUnarchive:      true,
	ActionAssignCategory: true,
	ActionAddTag:         true,
	ActionRemoveTag:      true,
	ActionSkip:           true,
}

func (a ActionType) Valid() bool {
	return validActionTypes[a]
}

// Condition is a single predicate over one item field. Value carries the
// operand for single-valued operators, Values for the "in" operator;
// validation guarantees the right one is set for the operator.
type Condition struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// Action is a single state mutation applied to a matched item. CategoryID
// is required for assignCategory, Tag for addTag/removeTag.
type Action struct {
	Type       ActionType `json:"type"`
	CategoryID string     `json:"categoryId,omitempty"`
	Tag        string     `json:"tag,omitempty"`
}

// Rule pairs an ordered condition list (logical AND) with an ordered
// action list. Position determines execution order within an owner's rule
// set; the store keeps positions unique and compact.
type Rule struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"-"`
	Name          string      `json:"name"`
	Enabled       bool        `json:"enabled"`
	Position      int         `json:"position"`
	Conditions    []Condition `json:"conditions"`
	Actions       []Action    `json:"actions"`
	MatchedCount  int64       `json:"matched_count"`
	LastMatchedAt *time.Time  `json:"last_matched_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Item is the engine's view of a content entry. The engine never creates
// or deletes items; it only mutates the triage fields (IsRead, IsStarred,
// IsArchived, CategoryID/Category, Tags).
type Item struct {
	ID         string   `json:"id"`
	FeedTitle  string   `json:"feed_title"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	Category   string   `json:"category"`
	CategoryID string   `json:"category_id,omitempty"`
	Tags       []string `json:"tags"`
	IsRead     bool     `json:"is_read"`
	IsStarred  bool     `json:"is_starred"`
	IsArchived bool     `json:"is_archived"`
}

// Clone returns a deep copy; test mode mutates copies only.
func (it Item) Clone() Item {
	it.Tags = slices.Clone(it.Tags)
	return it
}

// Category is the external category resource assignCategory references.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
