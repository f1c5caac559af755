package blender

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records bridge invocations. A nil *Metrics records nothing.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics creates the bridge collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geompack",
			Subsystem: "blender",
			Name:      "invocations_total",
			Help:      "Blender invocations by operation and result.",
		}, []string{"operation", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geompack",
			Subsystem: "blender",
			Name:      "duration_seconds",
			Help:      "Wall-clock time of Blender invocations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"operation"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Invocations, m.Duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind Kind, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Invocations.WithLabelValues(kind.String(), resultLabel(err)).Inc()
	if elapsed > 0 {
		m.Duration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrToolNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExecutionFailed):
		return "exec_error"
	case errors.Is(err, ErrMalformedOutput):
		return "bad_output"
	}
	return "error"
}
