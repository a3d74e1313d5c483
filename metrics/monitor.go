package metrics

import "github.com/prometheus/client_golang/prometheus"

// Monitor satisfies the sqltx monitor contract, counting manager operations by outcome.
type Monitor struct {
	transactions *prometheus.CounterVec
	savepoints   *prometheus.CounterVec
}

func newMonitor(config configuration) *Monitor {
	return &Monitor{
		transactions: newCounterVec(config.Registerer, config.Namespace, "manager", "transactions_total",
			"Transaction operations performed, by outcome.",
			[]string{"operation", "result"}),
		savepoints: newCounterVec(config.Registerer, config.Namespace, "manager", "savepoints_total",
			"Savepoint operations performed, by outcome.",
			[]string{"operation", "result"}),
	}
}

func (this *Monitor) TransactionStarted(err error) {
	this.transactions.WithLabelValues("begin", result(err)).Inc()
}
func (this *Monitor) TransactionCommitted(err error) {
	this.transactions.WithLabelValues("commit", result(err)).Inc()
}
func (this *Monitor) TransactionRolledBack(err error) {
	this.transactions.WithLabelValues("rollback", result(err)).Inc()
}
func (this *Monitor) SavepointCreated(err error) {
	this.savepoints.WithLabelValues("create", result(err)).Inc()
}
func (this *Monitor) SavepointReleased(err error) {
	this.savepoints.WithLabelValues("release", result(err)).Inc()
}
func (this *Monitor) SavepointRolledBack(err error) {
	this.savepoints.WithLabelValues("rollback", result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
