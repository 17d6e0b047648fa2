package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType indicates the direction of money movement.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// Transaction represents a single financial event imported from a
// payment-platform export. Transactions are immutable after import.
type Transaction struct {
	Time     time.Time
	Raw      map[string]string // Provider-specific fields preserved verbatim
	ID       string
	Peer     string // Counterparty
	Item     string // Item or description
	Category string // Category hint from the source export
	Currency string
	Provider string // Source provider tag (e.g., alipay, wechat)
	Hash     string
	Type     TransactionType
	Amount   float64
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s:%s",
		t.Time.Format("2006-01-02 15:04:05"),
		t.Amount,
		t.Peer,
		t.Item,
		t.Provider)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
