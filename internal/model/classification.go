// Package model defines the core domain models used throughout the application.
package model

import "time"

// ClassificationSource indicates where a classification decision came from.
type ClassificationSource string

// Classification source constants.
const (
	SourceRule         ClassificationSource = "rule"
	SourceAI           ClassificationSource = "ai"
	SourceUserOverride ClassificationSource = "user-override"
)

// Classification is the result of resolving one transaction to an account.
// Exactly one classification per transaction is current at any time;
// superseded classifications are retained as history.
type Classification struct {
	CreatedAt     time.Time
	TransactionID string
	Account       string
	Rationale     string
	RuleID        string // Set when Source is rule
	Source        ClassificationSource
	Confidence    float64
	IsCurrent     bool
}
