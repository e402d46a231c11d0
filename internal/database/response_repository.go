package database

import (
	"context"
	"fmt"

	"github.com/example/pepelbot/pkg/models"
)

// ResponseRepository handles database operations for check-in responses.
// The responses table is append-only: rows are never updated or deleted.
type ResponseRepository struct{}

// NewResponseRepository creates a new repository instance
func NewResponseRepository() *ResponseRepository {
	return &ResponseRepository{}
}

// Create appends a response and fills in its generated ID. The write is
// committed before Create returns.
func (r *ResponseRepository) Create(ctx context.Context, resp *models.Response) error {
	query := DB.Rebind(`
		INSERT INTO responses (user_id, username, level, timestamp)
		VALUES (?, ?, ?, ?)
	`)

	// lib/pq does not support LastInsertId
	if DB.DriverName() == "postgres" {
		query = DB.Rebind(`
			INSERT INTO responses (user_id, username, level, timestamp)
			VALUES (?, ?, ?, ?) RETURNING id
		`)
		err := DB.QueryRowContext(ctx, query,
			resp.UserID, resp.Username, resp.Level, resp.Timestamp,
		).Scan(&resp.ID)
		if err != nil {
			return fmt.Errorf("failed to create response: %v", err)
		}
		return nil
	}

	result, err := DB.ExecContext(ctx, query,
		resp.UserID, resp.Username, resp.Level, resp.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create response: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	resp.ID = id

	return nil
}

// RecentByUser returns up to limit responses for a user, newest first.
// Ties on timestamp fall back to insertion order.
func (r *ResponseRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]models.Response, error) {
	query := DB.Rebind(`
		SELECT id, user_id, username, level, timestamp
		FROM responses
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`)

	var responses []models.Response
	err := DB.SelectContext(ctx, &responses, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent responses: %v", err)
	}
	return responses, nil
}

// CountsByLevel returns how many responses exist per level. Levels nobody
// has reported are absent from the map.
func (r *ResponseRepository) CountsByLevel(ctx context.Context) (map[int]int, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT level, COUNT(*) FROM responses GROUP BY level
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count responses by level: %v", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var level, count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan level count: %v", err)
		}
		counts[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count responses by level: %v", err)
	}

	return counts, nil
}

// All returns the whole response log in insertion order. Used by the
// admin export.
func (r *ResponseRepository) All(ctx context.Context) ([]models.Response, error) {
	var responses []models.Response
	err := DB.SelectContext(ctx, &responses, `
		SELECT id, user_id, username, level, timestamp
		FROM responses
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %v", err)
	}
	return responses, nil
}
