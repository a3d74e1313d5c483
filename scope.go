package txsignals

import (
	"context"
	"sync"
)

// Interceptor brackets transaction scopes around a TransactionManager, emitting lifecycle
// events through its dispatcher at each transition. Scopes on a single connection must be
// driven from one goroutine at a time; distinct connections are independent.
type Interceptor struct {
	manager TransactionManager
	signals *Dispatcher
	logger  logger

	mutex       sync.Mutex
	connections map[string][]frame
}

type frame struct {
	outermost bool
	savepoint bool
	joined    bool
	handle    string
}

// Scope mints an entry handle for the configured connection. The handle carries
// configuration only; all nesting state lives with the connection, so the same value may
// be entered repeatedly, even within itself.
func (this *Interceptor) Scope(options ...scopeOption) *Scope {
	scope := &Scope{interceptor: this}
	ScopeOptions.apply(options...)(scope)
	return scope
}

// InScope reports whether any scope is currently active on the connection.
func (this *Interceptor) InScope(connectionID string) bool {
	return this.depth(connectionID) > 0
}

func (this *Interceptor) enter(ctx context.Context, connectionID string, savepointRequested bool) error {
	if ctx == nil {
		panic(errNilContext)
	}

	outermost := this.depth(connectionID) == 0
	if outermost {
		// fresh scope tree, fresh disposition
		this.manager.SetRollbackRequested(connectionID, false)
	}

	// No savepoint while a rollback is pending; the scope merges so it cannot mask the
	// rollback already demanded of its ancestors.
	savepoint := savepointRequested && !outermost && !this.manager.RollbackRequested(connectionID)

	event := Event{Kind: PreEnter, Outermost: outermost, Savepoint: savepoint, ConnectionID: connectionID}
	if err := this.signals.Emit(ctx, event); err != nil {
		return err
	}

	current := frame{outermost: outermost, savepoint: savepoint}
	if err := this.begin(ctx, connectionID, &current); err != nil {
		this.logger.Printf("[WARN] Unable to enter transaction scope on connection [%s]: [%s]", connectionID, err)
		return err
	}

	this.push(connectionID, current)

	event.Kind = PostEnter
	return this.signals.Emit(ctx, event)
}
func (this *Interceptor) begin(ctx context.Context, connectionID string, current *frame) (err error) {
	switch {
	case current.outermost && this.manager.AutocommitEnabled(connectionID):
		err = this.manager.BeginTransaction(ctx, connectionID)
	case current.outermost:
		// the connection already sits in an externally managed transaction; join it behind
		// a guard savepoint so this scope can still unwind its own work
		current.joined = true
		current.handle, err = this.manager.CreateSavepoint(ctx, connectionID)
	case current.savepoint:
		current.handle, err = this.manager.CreateSavepoint(ctx, connectionID)
	}
	return err
}

func (this *Interceptor) exit(ctx context.Context, connectionID string, bodyErr error) error {
	if ctx == nil {
		panic(errNilContext)
	}

	current, active := this.peek(connectionID)
	if !active {
		return ErrNotEntered
	}

	successful := bodyErr == nil && !this.manager.RollbackRequested(connectionID)

	event := Event{Kind: PreExit, Outermost: current.outermost, Savepoint: current.savepoint, Successful: successful, ConnectionID: connectionID}
	if err := this.signals.Emit(ctx, event); err != nil {
		return err // nothing resolved yet; the scope remains active
	}

	var resolveErr error
	if successful {
		resolveErr = this.commitScope(ctx, connectionID, current)
	} else {
		resolveErr = this.rollbackScope(ctx, connectionID, current)
	}
	this.pop(connectionID)

	event.Kind = PostExit
	emitErr := this.signals.Emit(ctx, event)
	if resolveErr != nil {
		return resolveErr
	}
	return emitErr
}
func (this *Interceptor) commitScope(ctx context.Context, connectionID string, current frame) error {
	switch {
	case current.outermost && !current.joined:
		if err := this.manager.Commit(ctx, connectionID); err != nil {
			this.logger.Printf("[WARN] Unable to commit transaction on connection [%s]: [%s]", connectionID, err)
			return err
		}
	case current.handle != "":
		if err := this.manager.ReleaseSavepoint(ctx, connectionID, current.handle); err != nil {
			this.logger.Printf("[WARN] Unable to release savepoint [%s] on connection [%s]: [%s]", current.handle, connectionID, err)
			if rollbackErr := this.manager.RollbackToSavepoint(ctx, connectionID, current.handle); rollbackErr != nil {
				this.manager.SetRollbackRequested(connectionID, true)
			}
			return err
		}
	}
	return nil
}
func (this *Interceptor) rollbackScope(ctx context.Context, connectionID string, current frame) error {
	this.manager.SetRollbackRequested(connectionID, false)

	switch {
	case current.outermost && !current.joined:
		if err := this.manager.Rollback(ctx, connectionID); err != nil {
			this.logger.Printf("[WARN] Unable to roll back transaction on connection [%s]: [%s]", connectionID, err)
			return err
		}
	case current.handle != "":
		if err := this.manager.RollbackToSavepoint(ctx, connectionID, current.handle); err != nil {
			this.logger.Printf("[WARN] Unable to roll back to savepoint [%s] on connection [%s]: [%s]", current.handle, connectionID, err)
			this.manager.SetRollbackRequested(connectionID, true)
			return err
		}
	default:
		// merged scope; the nearest ancestor with a real savepoint or transaction rolls back
		this.manager.SetRollbackRequested(connectionID, true)
	}
	return nil
}

func (this *Interceptor) depth(connectionID string) int {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return len(this.connections[connectionID])
}
func (this *Interceptor) push(connectionID string, current frame) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.connections[connectionID] = append(this.connections[connectionID], current)
}
func (this *Interceptor) pop(connectionID string) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	stack := this.connections[connectionID]
	if len(stack) <= 1 {
		delete(this.connections, connectionID)
		return
	}
	this.connections[connectionID] = stack[:len(stack)-1]
}
func (this *Interceptor) peek(connectionID string) (frame, bool) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	stack := this.connections[connectionID]
	if len(stack) == 0 {
		return frame{}, false
	}
	return stack[len(stack)-1], true
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

// Scope is a reusable description of one way into the interceptor: which connection, and
// whether nested uses should request a savepoint.
type Scope struct {
	interceptor  *Interceptor
	connectionID string
	savepoint    bool
}

func (this *Scope) Enter(ctx context.Context) error {
	return this.interceptor.enter(ctx, this.connectionID, this.savepoint)
}

// Exit concludes the innermost active scope on the connection. A non-nil bodyErr marks the
// scope as failed; the caller still owns that error, Exit never returns it.
func (this *Scope) Exit(ctx context.Context, bodyErr error) error {
	return this.interceptor.exit(ctx, this.connectionID, bodyErr)
}

// Do runs body inside the scope: exactly one Enter/Exit pair surrounds it, a body error or
// panic exits the scope as failed, and the body error is returned unchanged once the exit
// sequence completes. When the body succeeds, any exit error is returned instead.
func (this *Scope) Do(ctx context.Context, body func(context.Context) error) error {
	if err := this.Enter(ctx); err != nil {
		return err
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = this.Exit(ctx, errBodyPanicked)
			panic(recovered)
		}
	}()

	if bodyErr := body(ctx); bodyErr != nil {
		_ = this.Exit(ctx, bodyErr)
		return bodyErr
	}
	return this.Exit(ctx, nil)
}
