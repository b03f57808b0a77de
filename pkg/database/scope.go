package database

import (
	"context"
)

// Scope pins a request to a single pooled connection so that a transaction
// begun by one component is observed by every repository call in the same
// request.
type Scope struct {
	Conn Conn
}

// Close releases the underlying connection back to the pool, when there is
// one to release. Scopes built around test pools have nothing to release.
func (s *Scope) Close() {
	if r, ok := s.Conn.(releaser); ok {
		r.Release()
	}
}

type releaser interface {
	Release()
}

// Acquire takes a connection from the pool and wraps it in a Scope.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Scope{Conn: conn}, nil
}
