package database

import (
	"context"
	"fmt"
)

// SubscriberRepository persists the set of known broadcast recipients so it
// survives restarts.
type SubscriberRepository struct{}

// NewSubscriberRepository creates a new repository instance
func NewSubscriberRepository() *SubscriberRepository {
	return &SubscriberRepository{}
}

// Add registers a user. Adding an already known user is a no-op.
func (r *SubscriberRepository) Add(ctx context.Context, userID int64) error {
	query := DB.Rebind(`INSERT OR IGNORE INTO subscribers (user_id) VALUES (?)`)
	if DB.DriverName() == "postgres" {
		query = DB.Rebind(`INSERT INTO subscribers (user_id) VALUES (?) ON CONFLICT DO NOTHING`)
	}

	_, err := DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to add subscriber: %v", err)
	}
	return nil
}

// List returns all known user IDs.
func (r *SubscriberRepository) List(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := DB.SelectContext(ctx, &ids, `SELECT user_id FROM subscribers ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %v", err)
	}
	return ids, nil
}
