package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeonflight/pkg/logging"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Run Finished",
			in:   `time=2026-10-15T06:50:46.074+01:00 level=INFO msg="Simulation finished" component=controller run_id=5f0c1d2e-8a7b-4c3d-9e1f-0a2b3c4d5e6f ticks=3512 arrived=true elapsed=2m55.612345678s`,
			want: "06:50:46 Simulation finished (arrived=true, elapsed=2m55.612345678s, run_id=5f0c1d2e, ticks=3512)",
		},
		{
			name: "Long Values Dropped",
			in:   `time=2026-10-15T06:50:46Z level=WARN msg="Precache failed" asset=/index.html error="api error: status 404 for http://localhost/index.html"`,
			want: "06:50:46 Precache failed (asset=/index.html)",
		},
		{
			name: "No Params",
			in:   `time=2026-10-15T06:50:46Z level=INFO msg=ready`,
			want: "06:50:46 ready",
		},
		{
			name: "Not A Log Line",
			in:   "plain text",
			want: "plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatLogLine(tt.in))
		})
	}
}

func TestHandleLatestLog(t *testing.T) {
	_, err := logging.GlobalLogCapture.Write([]byte(`time=2026-10-15T06:50:46Z level=INFO msg="Server listening" addr=localhost:1925` + "\n"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handleLatestLog(rec, httptest.NewRequest(http.MethodGet, "/api/log/latest", nil))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "06:50:46 Server listening (addr=localhost:1925)", body["log"])
}
