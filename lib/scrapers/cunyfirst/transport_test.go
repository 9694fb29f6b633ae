package cunyfirst

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransportRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	tr := newTransport(transportOptions{})
	res, err := tr.get(context.Background(), NewSession(nil), server.URL, nil)
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())
	require.Equal(t, int32(2), hits.Load())
}

func TestTransportGivesUpAfterBoundedRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tr := newTransport(transportOptions{})
	_, err := tr.get(context.Background(), NewSession(nil), server.URL, nil)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, server.URL, transportErr.URL)
	require.Equal(t, int32(maxTransportAttempts), hits.Load())
}

func TestTransportClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tr := newTransport(transportOptions{})
	_, err := tr.get(context.Background(), NewSession(nil), server.URL, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, int32(1), hits.Load())
}

func TestTransportDoesNotFollowRedirects(t *testing.T) {
	var followed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "hop", Value: "1"})
		w.Header().Set("Location", "/next")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/next", func(http.ResponseWriter, *http.Request) {
		followed.Store(true)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tr := newTransport(transportOptions{})
	res, err := tr.get(context.Background(), NewSession(nil), server.URL+"/start", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode())
	require.Equal(t, "/next", res.Header().Get("Location"))
	require.Len(t, res.Cookies(), 1)
	require.False(t, followed.Load())
}

func TestTransportSendsSessionState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("sess")
		require.NoError(t, err)
		require.Equal(t, "abc", cookie.Value)
		require.Equal(t, "CUNY/1.0", r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	session := NewSession(defaultHeaders())
	session.Merge([]*http.Cookie{{Name: "sess", Value: "abc"}})

	tr := newTransport(transportOptions{})
	_, err := tr.get(context.Background(), session, server.URL, nil)
	require.NoError(t, err)
}

func TestTransportPostsForms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "1249", r.FormValue("term"))
		require.Equal(t, "CSCI 101,MATH 201", r.FormValue("itemnames"))
	}))
	defer server.Close()

	tr := newTransport(transportOptions{})
	_, err := tr.postForm(context.Background(), NewSession(nil), server.URL, map[string]string{
		"term":      "1249",
		"itemnames": "CSCI 101,MATH 201",
	})
	require.NoError(t, err)
}
