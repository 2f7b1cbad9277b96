package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"resourcedesk/internal/lifecycle"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/v1/{kind}/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := value(t, apiRequests.WithLabelValues("/v1/{kind}/records/{id}", "4xx"))
	req := httptest.NewRequest(http.MethodGet, "/v1/booking/records/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := value(t, apiRequests.WithLabelValues("/v1/{kind}/records/{id}", "4xx"))
	require.Equal(t, before+1, after)
}

func TestStaleDiscardedCounts(t *testing.T) {
	before := value(t, staleDiscarded.WithLabelValues("vehicle"))
	StaleDiscarded(lifecycle.KindVehicle)
	require.Equal(t, before+1, value(t, staleDiscarded.WithLabelValues("vehicle")))
}

func TestResultLabel(t *testing.T) {
	require.Equal(t, "2xx", ResultLabel(204))
	require.Equal(t, "4xx", ResultLabel(409))
	require.Equal(t, "5xx", ResultLabel(502))
}
