package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordFrame("/dev/ttyUSB0", ResultClassification, 78)
	RecordFrame("/dev/ttyUSB0", ResultMalformed, 0)
	RecordReconnect("/dev/ttyUSB0")
	RecordTrapState(true)
	RecordTrapState(false)
	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
}

func TestDebugServerHealthAndMetrics(t *testing.T) {
	s := NewDebugServer("127.0.0.1:0", nil, zerolog.Nop(), nil)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != 200 {
			t.Fatalf("GET %s: status %d", path, rec.Code)
		}
	}
}
