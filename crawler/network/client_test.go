package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_HeadersAndQuery(t *testing.T) {
	var gotUA, gotCookie, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		gotQuery = r.URL.Query().Get("iid")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "test-agent"})
	body, err := c.Get(context.Background(), srv.URL, url.Values{"iid": {"42"}}, map[string]string{"Cookie": "cna=0;"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "cna=0;", gotCookie)
	assert.Equal(t, "42", gotQuery)
}

func TestGet_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(Options{}).Get(context.Background(), srv.URL, nil, nil)
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusInternalServerError, ne.StatusCode)
	assert.Equal(t, "HTTP 500: "+srv.URL, ne.Error())
}

func TestGet_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewClient(Options{Timeout: time.Second}).Get(context.Background(), addr, nil, nil)
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Zero(t, ne.StatusCode)
	assert.NotEmpty(t, ne.Error())
	assert.NotNil(t, ne.Unwrap())
}

func TestGetBatch_OrderAndFailures(t *testing.T) {
	var inflight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inflight, 1)
		defer atomic.AddInt32(&inflight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}

		i, _ := strconv.Atoi(r.URL.Query().Get("i"))
		// 让后发的请求先返回
		time.Sleep(time.Duration(10-i) * 5 * time.Millisecond)
		if i%3 == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("body-" + strconv.Itoa(i)))
	}))
	defer srv.Close()

	const n = 10
	urls := make([]string, n)
	queries := make([]url.Values, n)
	for i := 0; i < n; i++ {
		urls[i] = srv.URL
		queries[i] = url.Values{"i": {strconv.Itoa(i)}}
	}

	results := NewClient(Options{Workers: 3}).GetBatch(context.Background(), urls, queries)
	require.Len(t, results, n)
	for i, r := range results {
		if i%3 == 1 {
			assert.Contains(t, r.Err, "502", "index %d", i)
			assert.Nil(t, r.Body)
			continue
		}
		assert.Empty(t, r.Err, "index %d", i)
		assert.Equal(t, "body-"+strconv.Itoa(i), string(r.Body))
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestGetBatch_Empty(t *testing.T) {
	assert.Empty(t, NewClient(Options{}).GetBatch(context.Background(), nil, nil))
}

func TestGetBatch_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewClient(Options{}).GetBatch(ctx, []string{srv.URL, srv.URL}, nil)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Err)
	}
}

func TestNewClient_RateLimit(t *testing.T) {
	c := NewClient(Options{RatePerSecond: 0.5})
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())

	assert.Nil(t, NewClient(Options{}).limiter)
}
