package sqltx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smarty/txsignals"
)

func New(handle *sql.DB, options ...option) *Manager {
	config := configuration{Databases: map[string]*sql.DB{txsignals.DefaultConnection: handle}}

	for _, item := range Options.defaults(options...) {
		item(&config)
	}

	return newManager(config)
}

type configuration struct {
	Databases      map[string]*sql.DB
	ReadOnly       bool
	IsolationLevel sql.IsolationLevel
	Logger         logger
	Monitor        monitor
}

var Options singleton

type singleton struct{}
type option func(*configuration)

// Database binds an additional *sql.DB under the given connection ID.
func (singleton) Database(connectionID string, handle *sql.DB) option {
	return func(this *configuration) { this.Databases[connectionID] = handle }
}

func (singleton) ReadOnly(value bool) option {
	return func(this *configuration) { this.ReadOnly = value }
}
func (singleton) IsolationLevel(value sql.IsolationLevel) option {
	return func(this *configuration) { this.IsolationLevel = value }
}
func (singleton) Logger(value logger) option {
	return func(this *configuration) { this.Logger = value }
}
func (singleton) Monitor(value monitor) option {
	return func(this *configuration) { this.Monitor = value }
}

func (singleton) defaults(options ...option) []option {
	return append([]option{
		Options.ReadOnly(false),
		Options.IsolationLevel(sql.LevelDefault),
		Options.Logger(&nop{}),
		Options.Monitor(&nop{}),
	}, options...)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type monitor interface {
	TransactionStarted(error)
	TransactionCommitted(error)
	TransactionRolledBack(error)
	SavepointCreated(error)
	SavepointReleased(error)
	SavepointRolledBack(error)
}
type logger interface {
	Printf(format string, args ...any)
}

// Queryer is the execution surface of a session: the open *sql.Tx while a transaction is
// active, otherwise the bound *sql.DB.
type Queryer interface {
	ExecContext(ctx context.Context, statement string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, statement string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, statement string, args ...any) *sql.Row
}

var (
	ErrUnknownConnection = errors.New("no database bound to this connection ID")
	ErrNoTransaction     = errors.New("no open transaction on this connection")
	ErrTransactionOpen   = errors.New("transaction already open on this connection")

	errMalformedSavepoint = errors.New("malformed savepoint name")
)

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type nop struct{}

func (*nop) Printf(_ string, _ ...any) {}

func (*nop) TransactionStarted(_ error)    {}
func (*nop) TransactionCommitted(_ error)  {}
func (*nop) TransactionRolledBack(_ error) {}
func (*nop) SavepointCreated(_ error)      {}
func (*nop) SavepointReleased(_ error)     {}
func (*nop) SavepointRolledBack(_ error)   {}
