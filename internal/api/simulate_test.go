package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeonflight/pkg/config"
	"pigeonflight/pkg/core"
	"pigeonflight/pkg/model"
	"pigeonflight/pkg/sim"
	"pigeonflight/pkg/terrain"
	"pigeonflight/pkg/tracker"
)

const shortHop = `{"type":"init","start":{"lat":31,"lng":30},"end":{"lat":31.01,"lng":30}}`

func newSimServer(t *testing.T, cfg config.SimConfig, manual bool) (*httptest.Server, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New()
	ctrl := core.NewController(cfg, terrain.Synthetic{}, tr)
	if manual {
		ctrl.SetTickSource(func() sim.TickSource { return sim.ManualTicks{} })
	}
	srv := httptest.NewServer(NewMux(Handlers{Simulate: NewSimulateHandler(ctrl, cfg, tr)}, nil))
	t.Cleanup(srv.Close)
	return srv, tr
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/simulate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type   model.MessageType `json:"type"`
	Path   json.RawMessage   `json:"path"`
	Speed  float64           `json:"speed"`
	Energy float64           `json:"energy"`
	Error  string            `json:"error"`
}

// readAll reads until the server closes and returns the messages plus the close error.
func readAll(t *testing.T, conn *websocket.Conn) ([]wireMessage, *websocket.CloseError) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msgs []wireMessage
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return msgs, ce
			}
			t.Fatalf("read failed without close frame: %v", err)
		}
		var m wireMessage
		require.NoError(t, json.Unmarshal(data, &m))
		msgs = append(msgs, m)
	}
}

func TestSimulate_Run(t *testing.T) {
	srv, tr := newSimServer(t, config.SimConfig{MaxTicks: 10000, UpdateBuffer: 256}, true)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(shortHop)))
	msgs, ce := readAll(t, conn)

	assert.Equal(t, websocket.CloseNormalClosure, ce.Code)
	require.Greater(t, len(msgs), 1)
	assert.Equal(t, model.TypePath, msgs[0].Type)
	assert.NotEqual(t, "null", string(msgs[0].Path))
	for _, m := range msgs[1:] {
		require.Equal(t, model.TypeUpdate, m.Type)
		assert.GreaterOrEqual(t, m.Speed, sim.MinGround)
	}
	assert.Less(t, msgs[len(msgs)-1].Energy, sim.InitialEnergy)

	assert.Eventually(t, func() bool {
		return tr.Snapshot().Runs.Arrived == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, len(msgs)-1, tr.Snapshot().Runs.Ticks)
}

func TestSimulate_InvalidInit(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"Malformed", `{"type":"init",`, "message"},
		{"Missing Start", `{"type":"init","end":{"lat":31,"lng":30}}`, "start"},
		{"Wrong Type", `{"type":"update","start":{"lat":31,"lng":30},"end":{"lat":31,"lng":30}}`, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, tr := newSimServer(t, config.SimConfig{}, true)
			conn := dial(t, srv)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
			msgs, ce := readAll(t, conn)

			assert.Equal(t, websocket.CloseUnsupportedData, ce.Code)
			require.Len(t, msgs, 1, "only an error, never a path")
			assert.Equal(t, model.TypeError, msgs[0].Type)
			assert.Contains(t, msgs[0].Error, tt.want)
			assert.EqualValues(t, 1, tr.Snapshot().Runs.Rejected)
			assert.Zero(t, tr.Snapshot().Runs.Started)
		})
	}
}

func TestSimulate_RateLimited(t *testing.T) {
	srv, tr := newSimServer(t, config.SimConfig{StartsPerSecond: 0.001, StartsBurst: 1, UpdateBuffer: 256}, true)

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(shortHop)))
	_, ce := readAll(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, ce.Code)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/simulate"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.EqualValues(t, 1, tr.Snapshot().Runs.Rejected)
}

func TestSimulate_ClientDisconnectCancels(t *testing.T) {
	cfg := config.SimConfig{TickInterval: config.Duration(5 * time.Millisecond), UpdateBuffer: 256}
	srv, tr := newSimServer(t, cfg, false)
	conn := dial(t, srv)

	long := `{"type":"init","start":{"lat":31,"lng":30},"end":{"lat":31.5,"lng":30}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(long)))

	for i := 0; i < 4; i++ {
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}
	conn.Close()

	assert.Eventually(t, func() bool {
		return tr.Snapshot().Runs.Canceled == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, tr.Snapshot().Runs.Arrived)
}
