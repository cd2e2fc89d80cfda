package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(selectionOutcomes.WithLabelValues("committed"))
	IncSelection("committed")
	IncSelection("committed")
	assert.Equal(t, before+2, testutil.ToFloat64(selectionOutcomes.WithLabelValues("committed")))

	IncBackendError("get_post")
	assert.GreaterOrEqual(t, testutil.ToFloat64(backendErrors.WithLabelValues("get_post")), 1.0)

	IncView("reservations", "empty")
	assert.Equal(t, 1.0, testutil.ToFloat64(viewResults.WithLabelValues("reservations", "empty")))

	IncEvent("like_toggled")
	assert.Equal(t, 1.0, testutil.ToFloat64(events.WithLabelValues("like_toggled")))
}
