package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smarty/assertions/should"
	"github.com/smarty/gunit"
)

func TestMonitorFixture(t *testing.T) {
	gunit.Run(new(MonitorFixture), t)
}

type MonitorFixture struct {
	*gunit.Fixture

	registry *prometheus.Registry
	monitor  *Monitor
}

func (this *MonitorFixture) Setup() {
	this.registry = prometheus.NewRegistry()
	this.monitor = NewMonitor(Options.Registerer(this.registry))
}

var errDatabaseDown = errors.New("database down")

func (this *MonitorFixture) TestTransactionOperations() {
	this.monitor.TransactionStarted(nil)
	this.monitor.TransactionStarted(errDatabaseDown)
	this.monitor.TransactionCommitted(nil)
	this.monitor.TransactionRolledBack(errDatabaseDown)

	this.So(testutil.ToFloat64(this.monitor.transactions.WithLabelValues("begin", "ok")), should.Equal, 1)
	this.So(testutil.ToFloat64(this.monitor.transactions.WithLabelValues("begin", "error")), should.Equal, 1)
	this.So(testutil.ToFloat64(this.monitor.transactions.WithLabelValues("commit", "ok")), should.Equal, 1)
	this.So(testutil.ToFloat64(this.monitor.transactions.WithLabelValues("rollback", "error")), should.Equal, 1)
}
func (this *MonitorFixture) TestSavepointOperations() {
	this.monitor.SavepointCreated(nil)
	this.monitor.SavepointReleased(nil)
	this.monitor.SavepointReleased(errDatabaseDown)
	this.monitor.SavepointRolledBack(errDatabaseDown)

	this.So(testutil.ToFloat64(this.monitor.savepoints.WithLabelValues("create", "ok")), should.Equal, 1)
	this.So(testutil.ToFloat64(this.monitor.savepoints.WithLabelValues("release", "ok")), should.Equal, 1)
	this.So(testutil.ToFloat64(this.monitor.savepoints.WithLabelValues("release", "error")), should.Equal, 1)
	this.So(testutil.ToFloat64(this.monitor.savepoints.WithLabelValues("rollback", "error")), should.Equal, 1)
}
func (this *MonitorFixture) TestMetricNamesCarryTheManagerSubsystem() {
	this.monitor.TransactionStarted(nil)
	this.monitor.SavepointCreated(nil)

	transactions, err := testutil.GatherAndCount(this.registry, "txsignals_manager_transactions_total")
	this.So(err, should.BeNil)
	this.So(transactions, should.Equal, 1)

	savepoints, err := testutil.GatherAndCount(this.registry, "txsignals_manager_savepoints_total")
	this.So(err, should.BeNil)
	this.So(savepoints, should.Equal, 1)
}
