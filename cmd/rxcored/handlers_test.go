package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/rxcore/pkg/client"
	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/engine"
	"github.com/dougsko/rxcore/pkg/hardware"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/storage"
	"github.com/dougsko/rxcore/pkg/timing"
)

// startDaemon runs a core engine on mock hardware and returns a daemon
// whose handlers talk to it over the socket.
func startDaemon(t *testing.T) *Daemon {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "rxcored-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := storage.NewRecordStore(filepath.Join(tempDir, "rxcore.db"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.API.UnixSocket = filepath.Join(tempDir, "rxcore.sock")

	core := engine.NewCoreEngineWithOptions(engine.Options{
		Config: cfg,
		Backends: radio.Backends{
			radio.BackendTransceiver: hardware.NewMockBackend(radio.BackendTransceiver),
		},
		Battery:    hardware.NewStaticBattery(80, 790, false),
		Clock:      timing.NewManualClock(0),
		Store:      store,
		SocketPath: cfg.API.UnixSocket,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- core.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	d := newDaemon(cfg, core, client.NewSocketClient(cfg.API.UnixSocket))
	require.Eventually(t, d.socketClient.IsConnected, 2*time.Second, 10*time.Millisecond)
	return d
}

func request(t *testing.T, d *Daemon, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	d.webServer.Handler.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestHandlers(t *testing.T) {
	d := startDaemon(t)

	t.Run("Status", func(t *testing.T) {
		w, out := request(t, d, http.MethodGet, "/api/v1/status", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), out["vfo_count"])
		assert.Equal(t, engine.Version, out["version"])
	})

	t.Run("Set Param", func(t *testing.T) {
		w, out := request(t, d, http.MethodPut, "/api/v1/params/frequency", map[string]interface{}{"value": 14600000})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, radio.FormatFrequency(14600000), out["display"])

		w, _ = request(t, d, http.MethodPut, "/api/v1/params/frequency", map[string]interface{}{"value": 1})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w, _ = request(t, d, http.MethodPut, "/api/v1/params/frequency", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("VFO Switch", func(t *testing.T) {
		w, _ := request(t, d, http.MethodPut, "/api/v1/vfos/0/active", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = request(t, d, http.MethodPut, "/api/v1/vfos/5/active", nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		w, _ = request(t, d, http.MethodPut, "/api/v1/vfos/x/active", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("TX", func(t *testing.T) {
		w, out := request(t, d, http.MethodPost, "/api/v1/tx", map[string]interface{}{"on": true})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, radio.TxOn.String(), out["tx_state"])

		w, _ = request(t, d, http.MethodPost, "/api/v1/tx", map[string]interface{}{"on": false})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Scan", func(t *testing.T) {
		w, out := request(t, d, http.MethodPost, "/api/v1/scan", map[string]interface{}{"action": "start"})
		assert.Equal(t, http.StatusOK, w.Code)
		scan, ok := out["scan"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "sweep", scan["mode"])

		w, _ = request(t, d, http.MethodGet, "/api/v1/scan/cps", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = request(t, d, http.MethodPost, "/api/v1/scan", map[string]interface{}{"action": "stop"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Keys", func(t *testing.T) {
		w, _ := request(t, d, http.MethodPost, "/api/v1/keys", map[string]interface{}{"key": "EXIT"})
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = request(t, d, http.MethodPost, "/api/v1/keys", map[string]interface{}{"key": "NOPE"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
