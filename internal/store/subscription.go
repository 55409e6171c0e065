package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/larder/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var s model.Subscription
	err := scanner.Scan(&s.ID, &s.Name, &s.SecretHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const subscriptionCols = `id, name, secret_hash, created_at`

// Create stores a new subscription whose API secret is kept as a bcrypt hash.
func (s *SubscriptionStore) Create(ctx context.Context, name, secret string) (*model.Subscription, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (name, secret_hash) VALUES (?, ?)`,
		name, string(hash),
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SubscriptionStore) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionCols+` FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Verify returns the subscription when secret matches its stored hash, and
// nil when the subscription does not exist or the secret is wrong.
func (s *SubscriptionStore) Verify(ctx context.Context, id int64, secret string) (*model.Subscription, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil || sub == nil {
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(sub.SecretHash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compare secret: %w", err)
	}
	return sub, nil
}
