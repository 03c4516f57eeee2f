package erp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"challan-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func testTransport(t testing.TB, tel telemetry.API) *Transport {
	t.Helper()
	return newTransport(NewJar(), transportOptions{
		roundTripper: http.DefaultTransport.(*http.Transport).Clone(),
		timeout:      5 * time.Second,
		attempts:     3,
		step:         time.Millisecond,
	}, tel)
}

func dropConnection(w http.ResponseWriter) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err != nil {
		panic(err)
	}
	conn.Close()
}

func TestTransportRetriesNetworkFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			dropConnection(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "s1"})
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tel := &telemetry.MemoryAPI{}
	transport := testTransport(t, tel)

	res, err := transport.Do(context.Background(), http.MethodPost, srv.URL, Header{"Content-Type": contentTypeForm}, "a=1")
	require.NoError(t, err)
	require.Equal(t, "ok", res.Text())
	require.EqualValues(t, 3, atomic.LoadInt32(&hits))

	retries := 0
	for _, r := range tel.Reports("warning") {
		if r.Id == report_transport_retry {
			retries++
		}
	}
	require.Equal(t, 2, retries)
	require.Equal(t, "PHPSESSID=s1", transport.jar.Header())
}

func TestTransportGivesUp(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		dropConnection(w)
	}))
	defer srv.Close()

	transport := testTransport(t, &telemetry.MemoryAPI{})
	_, err := transport.Do(context.Background(), http.MethodPost, srv.URL, nil, "a=1")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, 3, transportErr.Attempts)
	require.Equal(t, srv.URL, transportErr.URL)
	require.True(t, errors.Is(err, ErrDownstreamUnavailable))
	require.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestTransportDoesNotRetryStatusCodes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := testTransport(t, &telemetry.MemoryAPI{}).Do(context.Background(), http.MethodGet, srv.URL, nil, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, res.Status)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestTransportDoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/elsewhere" {
			t.Error("redirect was followed")
		}
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	res, err := testTransport(t, &telemetry.MemoryAPI{}).Do(context.Background(), http.MethodGet, srv.URL+"/login.php", nil, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.Status)
	require.Equal(t, "/elsewhere", res.Header.Get("Location"))
}

func TestTransportStopsOnDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testTransport(t, &telemetry.MemoryAPI{}).Do(ctx, http.MethodGet, srv.URL, nil, "")
	require.ErrorIs(t, err, ErrDownstreamUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
