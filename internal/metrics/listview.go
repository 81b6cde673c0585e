package metrics

import "time"

// APICall records one backend round trip.
func APICall(resource, method, outcome string, duration time.Duration) {
	APICallsTotal.WithLabelValues(resource, method, outcome).Inc()
	APICallDuration.WithLabelValues(resource, method).Observe(duration.Seconds())
}

// APIRetried records a retry attempt against a resource.
func APIRetried(resource string) {
	APIRetriesTotal.WithLabelValues(resource).Inc()
}

// FetchCompleted records a collection fetch outcome.
func FetchCompleted(entity, outcome string) {
	FetchesTotal.WithLabelValues(entity, outcome).Inc()
}

// LookupFailed records a soft-failed lookup.
func LookupFailed(lookup string) {
	LookupFailuresTotal.WithLabelValues(lookup).Inc()
}

// MutationCompleted records a mutation result; status is "ok", "invalid" or "failed".
func MutationCompleted(entity, op, status string) {
	MutationsTotal.WithLabelValues(entity, op, status).Inc()
}

// UploadCompleted records an upload result.
func UploadCompleted(status string) {
	UploadsTotal.WithLabelValues(status).Inc()
}
