package txsignals

import (
	"context"
	"errors"
)

type EventKind int

const (
	PreEnter EventKind = iota
	PostEnter
	PreExit
	PostExit
)

func (this EventKind) String() string {
	switch this {
	case PreEnter:
		return "pre-enter"
	case PostEnter:
		return "post-enter"
	case PreExit:
		return "pre-exit"
	case PostExit:
		return "post-exit"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind EventKind

	// Indicates the scope is not nested inside another active scope on the same connection.
	Outermost bool

	// Indicates the scope is implemented using a savepoint nested inside an enclosing
	// transaction rather than a full transaction of its own. Outermost scopes and scopes
	// merged into their parent report false.
	Savepoint bool

	// Indicates whether the scope is committing or rolling back. Only meaningful on PreExit
	// and PostExit events; always false on enter events.
	Successful bool

	// The connection the scope belongs to.
	ConnectionID string
}

type Listener interface {
	Notify(ctx context.Context, event Event) error
}

// TransactionManager supplies the transaction behavior the interceptor delegates to,
// tracking per-connection state keyed by connection ID.
type TransactionManager interface {
	BeginTransaction(ctx context.Context, connectionID string) error
	Commit(ctx context.Context, connectionID string) error
	Rollback(ctx context.Context, connectionID string) error

	CreateSavepoint(ctx context.Context, connectionID string) (name string, err error)
	ReleaseSavepoint(ctx context.Context, connectionID, name string) error
	RollbackToSavepoint(ctx context.Context, connectionID, name string) error

	// RollbackRequested reports whether a rollback has been demanded for the connection's
	// current transaction, e.g. by a failed inner scope that had no savepoint of its own.
	RollbackRequested(connectionID string) bool
	SetRollbackRequested(connectionID string, value bool)

	// AutocommitEnabled reports whether the connection commits statements individually.
	// When false, the connection already sits inside an externally managed transaction and
	// an outermost scope joins that transaction instead of beginning its own.
	AutocommitEnabled(connectionID string) bool
}

type logger interface {
	Printf(format string, args ...any)
}

const DefaultConnection = "default"

var (
	ErrNotEntered = errors.New("no active transaction scope on this connection")

	errNilContext   = errors.New("context must not be nil")
	errBodyPanicked = errors.New("transaction scope body panicked")
)
