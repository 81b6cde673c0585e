package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(MutationsTotal.WithLabelValues("category", "create", "ok"))
	MutationCompleted("category", "create", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(MutationsTotal.WithLabelValues("category", "create", "ok")))

	before = testutil.ToFloat64(FetchesTotal.WithLabelValues("products", "stale"))
	FetchCompleted("products", "stale")
	assert.Equal(t, before+1, testutil.ToFloat64(FetchesTotal.WithLabelValues("products", "stale")))

	before = testutil.ToFloat64(APICallsTotal.WithLabelValues("images", "POST", "ok"))
	APICall("images", "POST", "ok", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APICallsTotal.WithLabelValues("images", "POST", "ok")))

	before = testutil.ToFloat64(LookupFailuresTotal.WithLabelValues("category names"))
	LookupFailed("category names")
	assert.Equal(t, before+1, testutil.ToFloat64(LookupFailuresTotal.WithLabelValues("category names")))
}
