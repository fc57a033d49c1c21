package app

import (
	"context"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "hutraz"

type metrics struct {
	setsCompleted    metric.Int64Counter
	workoutsFinished metric.Int64Counter
	newRecords       metric.Int64Counter
	restTakenSeconds metric.Int64Histogram
}

// newMetrics uses the global meter provider, a no-op unless telemetry was initialized.
func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)
	m := &metrics{}
	var err error
	if m.setsCompleted, err = meter.Int64Counter("hutraz.sets.completed",
		metric.WithDescription("Sets marked completed")); err != nil {
		return nil, err
	}
	if m.workoutsFinished, err = meter.Int64Counter("hutraz.workouts.finished",
		metric.WithDescription("Workouts written to history")); err != nil {
		return nil, err
	}
	if m.newRecords, err = meter.Int64Counter("hutraz.records.new",
		metric.WithDescription("Personal records set by finished workouts")); err != nil {
		return nil, err
	}
	if m.restTakenSeconds, err = meter.Int64Histogram("hutraz.rest.taken_seconds",
		metric.WithDescription("Rest actually taken between sets"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) setCompleted() {
	m.setsCompleted.Add(context.Background(), 1)
}

func (m *metrics) restTaken(seconds int) {
	m.restTakenSeconds.Record(context.Background(), int64(seconds))
}

func (m *metrics) workoutFinished(ctx context.Context, s domain.Summary) {
	fromTemplate := s.Workout.TemplateName != nil
	m.workoutsFinished.Add(ctx, 1, metric.WithAttributes(attribute.Bool("from_template", fromTemplate)))
	if n := len(s.NewRecords); n > 0 {
		m.newRecords.Add(ctx, int64(n))
	}
}
