package inject

import "context"

// Disposable is implemented by instances that hold resources a lifetime
// scope should release when it is disposed.
//
// Example:
//
//	type DatabaseConnection struct {
//	    conn *sql.DB
//	}
//
//	func (dc *DatabaseConnection) Close() error {
//	    return dc.conn.Close()
//	}
type Disposable interface {
	// Close releases the resource.
	Close() error
}

// DisposableWithContext allows disposal with a context for graceful
// shutdown. Implementations should respect context cancellation.
type DisposableWithContext interface {
	// Close releases the resource, honoring the provided context.
	Close(ctx context.Context) error
}

// contextDisposable adapts a Disposable to DisposableWithContext.
type contextDisposable struct {
	disposable Disposable
}

func (d contextDisposable) Close(context.Context) error {
	return d.disposable.Close()
}
