package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
)

// SaveTransactions persists imported transactions, skipping duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (id, hash, time, peer, item, category, type, amount, currency, provider, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		var raw []byte
		if txn.Raw != nil {
			raw, err = json.Marshal(txn.Raw)
			if err != nil {
				return fmt.Errorf("failed to marshal raw payload for %s: %w", txn.ID, err)
			}
		}

		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.Hash, txn.Time, txn.Peer, txn.Item, txn.Category,
			string(txn.Type), txn.Amount, txn.Currency, txn.Provider, string(raw),
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, time, peer, item, category, type, amount, currency, provider, raw
		FROM transactions WHERE id = ?
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, hash, time, peer, item, category, type, amount, currency, provider, raw
		FROM transactions
	`
	var clauses []string
	var args []any

	if filter.StartDate != nil {
		clauses = append(clauses, "time >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		clauses = append(clauses, "time <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, filter.Provider)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY time DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetTransactionsToResolve retrieves transactions without a current classification.
func (s *SQLiteStorage) GetTransactionsToResolve(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT t.id, t.hash, t.time, t.peer, t.item, t.category, t.type, t.amount, t.currency, t.provider, t.raw
		FROM transactions t
		LEFT JOIN classifications c ON c.transaction_id = t.id AND c.is_current = 1
		WHERE c.id IS NULL
		ORDER BY t.time ASC
	`

	return s.queryTransactions(ctx, query)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txnType string
	var item, category, provider, raw sql.NullString
	var txnTime time.Time

	if err := row.Scan(
		&txn.ID, &txn.Hash, &txnTime, &txn.Peer, &item, &category,
		&txnType, &txn.Amount, &txn.Currency, &provider, &raw,
	); err != nil {
		return nil, err
	}

	txn.Time = txnTime
	txn.Item = item.String
	txn.Category = category.String
	txn.Provider = provider.String
	txn.Type = model.TransactionType(txnType)

	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &txn.Raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw payload: %w", err)
		}
	}

	return &txn, nil
}
