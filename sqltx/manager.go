package sqltx

import (
	"context"
	"crypto/rand"
	"database/sql"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Manager tracks one transactional session per bound connection ID over database/sql.
// Operations on a single connection ID must be driven from one goroutine at a time;
// distinct connection IDs are independent.
type Manager struct {
	logger    logger
	monitor   monitor
	txOptions *sql.TxOptions
	databases map[string]*sql.DB

	mutex    sync.Mutex
	sessions map[string]*session
}

type session struct {
	tx                *sql.Tx
	rollbackRequested bool
	manual            bool
}

func newManager(config configuration) *Manager {
	return &Manager{
		logger:    config.Logger,
		monitor:   config.Monitor,
		txOptions: &sql.TxOptions{Isolation: config.IsolationLevel, ReadOnly: config.ReadOnly},
		databases: config.Databases,
		sessions:  map[string]*session{},
	}
}

func (this *Manager) BeginTransaction(ctx context.Context, connectionID string) error {
	current, err := this.resolve(connectionID)
	if err != nil {
		return err
	}
	if current.tx != nil {
		return ErrTransactionOpen
	}
	return this.begin(ctx, connectionID, current)
}
func (this *Manager) begin(ctx context.Context, connectionID string, current *session) error {
	tx, err := this.databases[connectionID].BeginTx(ctx, this.txOptions)
	if err != nil {
		this.logger.Printf("[WARN] Unable to begin transaction [%s].", err)
	}
	this.monitor.TransactionStarted(err)
	if err != nil {
		return err
	}

	current.tx = tx
	return nil
}

func (this *Manager) Commit(_ context.Context, connectionID string) error {
	current, err := this.resolve(connectionID)
	if err != nil {
		return err
	}
	if current.tx == nil {
		return ErrNoTransaction
	}

	err = current.tx.Commit()
	if err != nil {
		this.logger.Printf("[%s] Unable to commit transaction [%s].", logSeverity(err), err)
		_ = current.tx.Rollback()
	}
	this.monitor.TransactionCommitted(err)
	current.tx = nil
	return err
}

func (this *Manager) Rollback(_ context.Context, connectionID string) error {
	current, err := this.resolve(connectionID)
	if err != nil {
		return err
	}
	if current.tx == nil {
		return ErrNoTransaction
	}

	err = current.tx.Rollback()
	if err != nil {
		this.logger.Printf("[WARN] Unable to roll back transaction [%s].", err)
	}
	this.monitor.TransactionRolledBack(err)
	current.tx = nil
	return err
}

func (this *Manager) CreateSavepoint(ctx context.Context, connectionID string) (string, error) {
	current, err := this.resolve(connectionID)
	if err != nil {
		return "", err
	}
	if err = this.ensureTransaction(ctx, connectionID, current); err != nil {
		return "", err
	}
	if current.tx == nil {
		return "", ErrNoTransaction
	}

	name := savepointName()
	_, err = current.tx.ExecContext(ctx, "SAVEPOINT "+name)
	if err != nil {
		this.logger.Printf("[WARN] Unable to create savepoint [%s]: [%s]", name, err)
	}
	this.monitor.SavepointCreated(err)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (this *Manager) ReleaseSavepoint(ctx context.Context, connectionID, name string) error {
	current, err := this.resolve(connectionID)
	if err != nil {
		return err
	}
	if current.tx == nil {
		return ErrNoTransaction
	}
	if !validSavepointName(name) {
		return errMalformedSavepoint
	}

	_, err = current.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	if err != nil {
		this.logger.Printf("[WARN] Unable to release savepoint [%s]: [%s]", name, err)
	}
	this.monitor.SavepointReleased(err)
	return err
}

func (this *Manager) RollbackToSavepoint(ctx context.Context, connectionID, name string) error {
	current, err := this.resolve(connectionID)
	if err != nil {
		return err
	}
	if current.tx == nil {
		return ErrNoTransaction
	}
	if !validSavepointName(name) {
		return errMalformedSavepoint
	}

	_, err = current.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
	if err != nil {
		this.logger.Printf("[WARN] Unable to roll back to savepoint [%s]: [%s]", name, err)
	}
	this.monitor.SavepointRolledBack(err)
	return err
}

func (this *Manager) RollbackRequested(connectionID string) bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if current, contains := this.sessions[connectionID]; contains {
		return current.rollbackRequested
	}
	return false
}
func (this *Manager) SetRollbackRequested(connectionID string, value bool) {
	this.track(connectionID).rollbackRequested = value
}

// AutocommitEnabled reports whether statements on the connection commit individually
// right now: no open transaction and not in manual mode.
func (this *Manager) AutocommitEnabled(connectionID string) bool {
	current := this.track(connectionID)
	return !current.manual && current.tx == nil
}

// SetAutocommit turns manual transaction management on (false) or off (true) for the
// connection. In manual mode the manager opens transactions implicitly as statements
// require them and never commits on its own; the application concludes each transaction
// through Commit or Rollback. Restoring autocommit requires any open transaction to have
// been concluded first.
func (this *Manager) SetAutocommit(connectionID string, value bool) error {
	current, err := this.resolve(connectionID)
	if err != nil {
		return err
	}
	if !value {
		current.manual = true
		return nil
	}
	if current.tx != nil {
		return ErrTransactionOpen
	}
	current.manual = false
	return nil
}

// Handle exposes the connection's current execution surface so application statements run
// inside whatever transaction is active.
func (this *Manager) Handle(ctx context.Context, connectionID string) (Queryer, error) {
	current, err := this.resolve(connectionID)
	if err != nil {
		return nil, err
	}
	if err = this.ensureTransaction(ctx, connectionID, current); err != nil {
		return nil, err
	}
	if current.tx != nil {
		return current.tx, nil
	}
	return this.databases[connectionID], nil
}

// Close rolls back any transactions left open by their sessions.
func (this *Manager) Close() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	for _, current := range this.sessions {
		if current.tx != nil {
			_ = current.tx.Rollback()
			current.tx = nil
		}
	}
	return nil
}

// manual mode opens transactions implicitly, one batch of statements at a time
func (this *Manager) ensureTransaction(ctx context.Context, connectionID string, current *session) error {
	if current.tx != nil || !current.manual {
		return nil
	}
	return this.begin(ctx, connectionID, current)
}

func (this *Manager) resolve(connectionID string) (*session, error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if current, contains := this.sessions[connectionID]; contains {
		return current, nil
	}
	if _, contains := this.databases[connectionID]; !contains {
		return nil, ErrUnknownConnection
	}
	current := &session{}
	this.sessions[connectionID] = current
	return current, nil
}

// track never fails; rollback flags and mode are plain in-memory state
func (this *Manager) track(connectionID string) *session {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if current, contains := this.sessions[connectionID]; contains {
		return current
	}
	current := &session{}
	this.sessions[connectionID] = current
	return current
}

func logSeverity(err error) string {
	switch err {
	case context.Canceled, context.DeadlineExceeded:
		return "INFO"
	default:
		return "WARN"
	}
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var (
	entropyMutex sync.Mutex
	entropy      = ulid.Monotonic(rand.Reader, 0)
)

func savepointName() string {
	entropyMutex.Lock()
	defer entropyMutex.Unlock()
	return "sp_" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func validSavepointName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, character := range name {
		switch {
		case character >= 'a' && character <= 'z':
		case character >= 'A' && character <= 'Z':
		case character >= '0' && character <= '9':
		case character == '_':
		default:
			return false
		}
	}
	return true
}
