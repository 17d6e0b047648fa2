package model

import "time"

// FeedbackAction is the user's verdict on a classification.
type FeedbackAction string

// Feedback action constants.
const (
	ActionAccept FeedbackAction = "accept"
	ActionReject FeedbackAction = "reject"
	ActionModify FeedbackAction = "modify"
)

// Feedback records a user confirming or correcting a classification.
// Feedback is append-only; every correction is a distinct fact.
type Feedback struct {
	CreatedAt        time.Time
	ID               string
	TransactionID    string
	OriginalAccount  string
	CorrectedAccount string
	Action           FeedbackAction
}
