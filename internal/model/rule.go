package model

import "time"

// RuleSource indicates how a rule was created.
type RuleSource string

const (
	// RuleSourceUser indicates a rule the user authored explicitly.
	RuleSourceUser RuleSource = "user"
	// RuleSourceLearned indicates a rule synthesized from feedback.
	RuleSourceLearned RuleSource = "learned"
)

// ConditionOperator is the comparison applied by a single rule condition.
type ConditionOperator string

// Condition operator constants.
const (
	OpEquals ConditionOperator = "eq"
	OpIn     ConditionOperator = "in"
	OpRange  ConditionOperator = "range"
)

// Condition fields a rule may match against.
const (
	FieldPeer      = "peer"
	FieldItem      = "item"
	FieldCategory  = "category"
	FieldType      = "type"
	FieldAmount    = "amount"
	FieldTimeOfDay = "time_of_day" // Minutes since midnight
)

// Condition is a single field comparison. All conditions within a rule
// combine by logical AND.
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
	Values   []string          `json:"values,omitempty"`
	Min      *float64          `json:"min,omitempty"`
	Max      *float64          `json:"max,omitempty"`
}

// Rule maps transactions matching its conditions to a target account.
// Rules are soft-deleted: a rule that has been applied is deactivated,
// never removed, so historical classifications stay resolvable.
type Rule struct {
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Account    string      `json:"account"`
	Source     RuleSource  `json:"source"`
	Conditions []Condition `json:"conditions"`
	Confidence float64     `json:"confidence"`
	IsActive   bool        `json:"is_active"`
}

// ClampConfidence forces a confidence score into [0, 1]. Out-of-range
// scores from providers or stored rules are clamped rather than rejected.
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
