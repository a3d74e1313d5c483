package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smarty/txsignals"
)

// Listener counts scope lifecycle events. Notify never fails, so the listener cannot
// disturb the scopes it observes.
type Listener struct {
	enters *prometheus.CounterVec
	exits  *prometheus.CounterVec
}

func newListener(config configuration) *Listener {
	return &Listener{
		enters: newCounterVec(config.Registerer, config.Namespace, "scope", "enter_events_total",
			"Scope enter events observed, by kind and shape.",
			[]string{"kind", "outermost", "savepoint"}),
		exits: newCounterVec(config.Registerer, config.Namespace, "scope", "exit_events_total",
			"Scope exit events observed, by kind, shape, and outcome.",
			[]string{"kind", "outermost", "savepoint", "successful"}),
	}
}

func (this *Listener) Notify(_ context.Context, event txsignals.Event) error {
	outermost := strconv.FormatBool(event.Outermost)
	savepoint := strconv.FormatBool(event.Savepoint)

	switch event.Kind {
	case txsignals.PreEnter, txsignals.PostEnter:
		this.enters.WithLabelValues(event.Kind.String(), outermost, savepoint).Inc()
	case txsignals.PreExit, txsignals.PostExit:
		successful := strconv.FormatBool(event.Successful)
		this.exits.WithLabelValues(event.Kind.String(), outermost, savepoint, successful).Inc()
	}
	return nil
}
