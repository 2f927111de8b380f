package operations

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

func newTestMeter() metric.Meter {
	return noop.NewMeterProvider().Meter("operations-test")
}
