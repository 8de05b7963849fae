package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports liveness and, when a database is attached, its reachability.
type Service struct {
	DB Pinger
}

// NewService constructs a new health service. db may be nil for in-memory runs.
func NewService(db Pinger) *Service {
	return &Service{DB: db}
}

// Status returns the health payload and whether every dependency is up.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	body := map[string]any{"ok": true, "database": "memory"}
	if s == nil || s.DB == nil {
		return body, true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		body["ok"] = false
		body["database"] = "down"
		return body, false
	}
	body["database"] = "up"
	return body, true
}
