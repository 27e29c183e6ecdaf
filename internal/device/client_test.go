// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package device

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(base string) *Client {
	return New(base, WithHTTPClient(&http.Client{Timeout: 500 * time.Millisecond}))
}

func TestFetchCountdown(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "plain", body: "300", want: 300},
		{name: "trailing newline", body: "42\n", want: 42},
		{name: "zero", body: "0", want: 0},
		{name: "negative clamps to zero", body: "-5", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, PathCountdown, r.URL.Path)
				w.Header().Set("Content-Type", "text/plain")
				_, _ = io.WriteString(w, tt.body)
			}))
			defer s.Close()

			got, err := newTestClient(s.URL).FetchCountdown(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchCountdown_StatusTextIsCause(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer s.Close()

	_, err := newTestClient(s.URL).FetchCountdown(context.Background())
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.ErrorIs(t, err, ErrUpstreamStatus)
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Equal(t, "Internal Server Error", gwErr.Cause)
	assert.Equal(t, "Internal Server Error", Cause(err))
}

func TestFetchCountdown_InvalidBody(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "soon")
	}))
	defer s.Close()

	_, err := newTestClient(s.URL).FetchCountdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestFetchCountdown_TransportFailure(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	base := s.URL
	s.Close()

	_, err := newTestClient(base).FetchCountdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotEmpty(t, Cause(err))
}

func TestTriggerReset_Success(t *testing.T) {
	var gotMethod, gotContentType string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		assert.Equal(t, PathReset, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer s.Close()

	before := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues(opTriggerReset, "success"))

	require.NoError(t, newTestClient(s.URL).TriggerReset(context.Background()))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)

	after := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues(opTriggerReset, "success"))
	assert.Equal(t, before+1, after)
}

func TestTriggerReset_Non200(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}))
	defer s.Close()

	err := newTestClient(s.URL).TriggerReset(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamStatus)
	assert.Equal(t, "Method Not Allowed", Cause(err))
}

func TestTriggerReset_TimeoutCause(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer s.Close()
	defer close(release)

	c := New(s.URL, WithTimeout(50*time.Millisecond))
	err := c.TriggerReset(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "timeout", Cause(err))
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://192.168.42.1", New("http://192.168.42.1/").BaseURL())
}
