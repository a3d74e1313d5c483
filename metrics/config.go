package metrics

import "github.com/prometheus/client_golang/prometheus"

func NewListener(options ...option) *Listener {
	var config configuration

	for _, item := range Options.defaults(options...) {
		item(&config)
	}

	return newListener(config)
}

func NewMonitor(options ...option) *Monitor {
	var config configuration

	for _, item := range Options.defaults(options...) {
		item(&config)
	}

	return newMonitor(config)
}

type configuration struct {
	Namespace  string
	Registerer prometheus.Registerer
}

var Options singleton

type singleton struct{}
type option func(*configuration)

func (singleton) Namespace(value string) option {
	return func(this *configuration) { this.Namespace = value }
}
func (singleton) Registerer(value prometheus.Registerer) option {
	return func(this *configuration) { this.Registerer = value }
}

func (singleton) defaults(options ...option) []option {
	return append([]option{
		Options.Namespace("txsignals"),
		Options.Registerer(prometheus.DefaultRegisterer),
	}, options...)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

func newCounterVec(registerer prometheus.Registerer, namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)

	err := registerer.Register(counter)
	if err == nil {
		return counter
	}
	if existing, contains := err.(prometheus.AlreadyRegisteredError); contains {
		return existing.ExistingCollector.(*prometheus.CounterVec)
	}
	panic(err)
}
