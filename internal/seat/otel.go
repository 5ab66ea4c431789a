package seat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/OCAP2/seatsync/internal/seat"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type seatMetrics struct {
	transitions metric.Int64Counter
	shown       metric.Int64Counter
}

// newSeatMetrics uses the global meter and falls back to no-op instruments
// if one cannot be created.
func newSeatMetrics() seatMetrics {
	m := meter()
	var (
		sm  seatMetrics
		err error
	)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	sm.transitions, err = m.Int64Counter(
		"seat.mode.transitions",
		metric.WithDescription("Display mode transitions by kind"),
	)
	if err != nil {
		sm.transitions, _ = fallback.Int64Counter("seat.mode.transitions")
	}

	sm.shown, err = m.Int64Counter(
		"seat.observers.shown",
		metric.WithDescription("Show sequences completed by perspective"),
	)
	if err != nil {
		sm.shown, _ = fallback.Int64Counter("seat.observers.shown")
	}
	return sm
}

func (m seatMetrics) transition(seat string, t Transition) {
	m.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("seat", seat),
		attribute.String("kind", t.String()),
	))
}

func (m seatMetrics) observerShown(p perspective) {
	m.shown.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("perspective", p.String()),
	))
}
