package txsignals

func New(manager TransactionManager, signals *Dispatcher, options ...option) *Interceptor {
	var config configuration
	Options.apply(options...)(&config)
	return &Interceptor{
		manager:     manager,
		signals:     signals,
		logger:      config.Logger,
		connections: make(map[string][]frame),
	}
}

type configuration struct {
	Logger logger
}

var Options singleton

type singleton struct{}
type option func(*configuration)

func (singleton) Logger(value logger) option {
	return func(this *configuration) { this.Logger = value }
}

func (singleton) apply(options ...option) option {
	return func(this *configuration) {
		for _, item := range Options.defaults(options...) {
			item(this)
		}
	}
}
func (singleton) defaults(options ...option) []option {
	return append([]option{
		Options.Logger(nop{}),
	}, options...)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var ScopeOptions scopeSingleton

type scopeSingleton struct{}
type scopeOption func(*Scope)

// Connection names the connection the scope operates on; DefaultConnection when omitted.
func (scopeSingleton) Connection(value string) scopeOption {
	return func(this *Scope) { this.connectionID = value }
}

// Savepoint controls whether a nested use of the scope requests its own savepoint. When
// false the scope merges into its parent and shares the parent's fate. Defaults to true.
func (scopeSingleton) Savepoint(value bool) scopeOption {
	return func(this *Scope) { this.savepoint = value }
}

func (scopeSingleton) apply(options ...scopeOption) scopeOption {
	return func(this *Scope) {
		for _, item := range ScopeOptions.defaults(options...) {
			item(this)
		}
	}
}
func (scopeSingleton) defaults(options ...scopeOption) []scopeOption {
	return append([]scopeOption{
		ScopeOptions.Connection(DefaultConnection),
		ScopeOptions.Savepoint(true),
	}, options...)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type nop struct{}

func (nop) Printf(string, ...any) {}
