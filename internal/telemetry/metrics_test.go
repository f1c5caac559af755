package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesBridgeMetrics(t *testing.T) {
	reg, m, err := Registry()
	require.NoError(t, err)

	m.Invocations.WithLabelValues("voxel-remesh", "ok").Inc()
	m.Duration.WithLabelValues("voxel-remesh").Observe(1.5)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `geompack_blender_invocations_total{operation="voxel-remesh",result="ok"} 1`)
	assert.Contains(t, body, "geompack_blender_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}
