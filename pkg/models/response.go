package models

// Response represents a single burnout check-in answer
type Response struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Username  string `db:"username"`
	Level     int    `db:"level"`
	Timestamp string `db:"timestamp"` // UTC, RFC3339
}

// DefaultUsername is stored when the transport does not supply a username
const DefaultUsername = "Без ника"
