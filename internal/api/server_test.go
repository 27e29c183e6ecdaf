// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/netreset/internal/controller"
	"github.com/ManuGH/netreset/internal/device"
	"github.com/ManuGH/netreset/internal/mockdevice"
)

type stubController struct {
	mu       sync.Mutex
	state    controller.DisplayState
	resetErr error
	resets   int
	updates  chan controller.DisplayState
}

func newStub(state controller.DisplayState) *stubController {
	return &stubController{state: state, updates: make(chan controller.DisplayState, 8)}
}

func (s *stubController) State() controller.DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubController) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	if s.resetErr != nil {
		return s.resetErr
	}
	s.state = controller.DisplayState{Kind: controller.KindResetting, SecondsLeft: s.state.SecondsLeft}
	return nil
}

func (s *stubController) Subscribe(int) (<-chan controller.DisplayState, func()) {
	s.updates <- s.State()
	return s.updates, func() {}
}

func TestHandleState(t *testing.T) {
	stub := newStub(controller.DisplayState{Kind: controller.KindCounting, SecondsLeft: 42, CanReset: true})
	srv := New(Config{}, stub, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathState, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"kind":"counting","secondsLeft":42,"canReset":true}`, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestHandleReset(t *testing.T) {
	tests := []struct {
		name     string
		resetErr error
		want     int
		wantCode string
	}{
		{name: "accepted", want: http.StatusAccepted},
		{name: "in flight", resetErr: controller.ErrResetInFlight, want: http.StatusConflict, wantCode: "reset_in_flight"},
		{name: "already reset", resetErr: controller.ErrAlreadyReset, want: http.StatusConflict, wantCode: "already_reset"},
		{name: "not ready", resetErr: controller.ErrNotReady, want: http.StatusServiceUnavailable, wantCode: "not_ready"},
		{name: "closed", resetErr: controller.ErrClosed, want: http.StatusServiceUnavailable, wantCode: "shutting_down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub(controller.DisplayState{Kind: controller.KindCounting, SecondsLeft: 9, CanReset: true})
			stub.resetErr = tt.resetErr
			srv := New(Config{}, stub, nil)

			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, PathReset, nil))

			require.Equal(t, tt.want, w.Code)
			if tt.wantCode == "" {
				var ds controller.DisplayState
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
				assert.Equal(t, controller.KindResetting, ds.Kind)
				return
			}
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestHandleReset_RateLimited(t *testing.T) {
	stub := newStub(controller.DisplayState{Kind: controller.KindExpired, CanReset: true})
	stub.resetErr = controller.ErrAlreadyReset
	srv := New(Config{ResetRateLimit: 2}, stub, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, PathReset, nil)
		req.RemoteAddr = "10.0.0.7:5000"
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusConflict, http.StatusConflict, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, stub.resets)
}

func TestResetRequiresPost(t *testing.T) {
	srv := New(Config{}, newStub(controller.DisplayState{Kind: controller.KindLoading}), nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathReset, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReadyz_FollowsController(t *testing.T) {
	stub := newStub(controller.DisplayState{Kind: controller.KindLoading})
	srv := New(Config{}, stub, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	stub.mu.Lock()
	stub.state = controller.DisplayState{Kind: controller.KindCounting, SecondsLeft: 3, CanReset: true}
	stub.mu.Unlock()

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(Config{}, newStub(controller.DisplayState{Kind: controller.KindLoading}), nil)

	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, PathState, nil))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "netreset_http_request_duration_seconds")
}

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + PathStream
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStream_PushesUpdatesUntilClose(t *testing.T) {
	stub := newStub(controller.DisplayState{Kind: controller.KindCounting, SecondsLeft: 5, CanReset: true})
	srv := New(Config{}, stub, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialStream(t, ts)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ds controller.DisplayState
	require.NoError(t, conn.ReadJSON(&ds))
	assert.Equal(t, 5, ds.SecondsLeft)

	stub.updates <- controller.DisplayState{Kind: controller.KindCounting, SecondsLeft: 4, CanReset: true}
	require.NoError(t, conn.ReadJSON(&ds))
	assert.Equal(t, 4, ds.SecondsLeft)

	srv.Close()
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestStream_RefusedOnceClosing(t *testing.T) {
	srv := New(Config{}, newStub(controller.DisplayState{Kind: controller.KindLoading}), nil)

	var wg sync.WaitGroup
	codes := make(chan int, 16)
	for i := 0; i < cap(codes); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathStream, nil))
			codes <- w.Code
		}()
	}
	srv.Close()
	wg.Wait()
	close(codes)

	for code := range codes {
		// Plain GETs fail the upgrade before Close and are refused after it.
		assert.Contains(t, []int{http.StatusBadRequest, http.StatusServiceUnavailable}, code)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathStream, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "shutting_down", resp.Error)
}

func TestStream_RejectsForeignOrigin(t *testing.T) {
	srv := New(Config{CORSOrigins: []string{"http://ap.local"}}, newStub(controller.DisplayState{}), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	header := http.Header{"Origin": {"http://evil.example"}}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + PathStream
	_, res, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, res)
	defer res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

// TestEndToEnd_ResetAgainstMockDevice drives a real controller through the HTTP device
// client against the simulated device.
func TestEndToEnd_ResetAgainstMockDevice(t *testing.T) {
	mock := mockdevice.NewServer(mockdevice.NewStore(mockdevice.Config{TimerSeed: 120, FailReset: true}))
	deviceTS := httptest.NewServer(mock)
	defer deviceTS.Close()

	ctrl := controller.New(device.New(deviceTS.URL, device.WithTimeout(2*time.Second)))
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Close()

	srv := New(Config{}, ctrl, nil)
	defer srv.Close()
	apiTS := httptest.NewServer(srv.Handler())
	defer apiTS.Close()

	getState := func() controller.DisplayState {
		res, err := http.Get(apiTS.URL + PathState)
		require.NoError(t, err)
		defer res.Body.Close()
		var ds controller.DisplayState
		require.NoError(t, json.NewDecoder(res.Body).Decode(&ds))
		return ds
	}
	postReset := func() int {
		res, err := http.Post(apiTS.URL+PathReset, "application/json", nil)
		require.NoError(t, err)
		defer res.Body.Close()
		return res.StatusCode
	}

	require.Eventually(t, func() bool { return getState().Kind == controller.KindCounting }, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, http.StatusAccepted, postReset())
	require.Eventually(t, func() bool { return getState().Kind == controller.KindError }, 3*time.Second, 20*time.Millisecond)
	ds := getState()
	assert.Equal(t, controller.FaultReset, ds.Fault)
	assert.Equal(t, "Internal Server Error", ds.Message)
	assert.True(t, ds.CanReset)

	falseVal := false
	mock.Store().Update(mockdevice.Patch{FailReset: &falseVal})
	assert.Equal(t, http.StatusAccepted, postReset())
	require.Eventually(t, func() bool { return getState().Kind == controller.KindSuccess }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusConflict, postReset())
	assert.Equal(t, 2, mock.CallCount(device.PathReset))
}
