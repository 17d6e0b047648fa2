package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHash(t *testing.T) {
	txn := Transaction{
		Time:     time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC),
		Peer:     "Corner Coffee",
		Item:     "latte",
		Amount:   28.5,
		Provider: "alipay",
	}

	hash := txn.GenerateHash()
	assert.NotEmpty(t, hash)
	assert.Equal(t, hash, txn.GenerateHash(), "hashing is deterministic")

	// Identity fields do not participate; content fields do.
	withNewID := txn
	withNewID.ID = "different"
	assert.Equal(t, hash, withNewID.GenerateHash())

	changed := txn
	changed.Amount = 29.0
	assert.NotEqual(t, hash, changed.GenerateHash())

	otherProvider := txn
	otherProvider.Provider = "wechat"
	assert.NotEqual(t, hash, otherProvider.GenerateHash())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.5))
	assert.Equal(t, 0.0, ClampConfidence(0))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
	assert.Equal(t, 1.0, ClampConfidence(1))
	assert.Equal(t, 1.0, ClampConfidence(3.7))
}
