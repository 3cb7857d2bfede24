package upstream_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/upstream"
)

func TestGet_SendsQueryAndHeaders(t *testing.T) {
	var gotQuery url.Values
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.UserAgent()
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`[{"lat":"40.41"}]`))
	}))
	defer srv.Close()

	c := upstream.New("nominatim", time.Second, "geoplan-test/1.0")
	resp, err := c.Get(context.Background(), srv.URL+"/search", url.Values{"q": {"museo del prado"}, "format": {"jsonv2"}})
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, `[{"lat":"40.41"}]`, string(resp.Body))
	assert.Equal(t, "museo del prado", gotQuery.Get("q"))
	assert.Equal(t, "jsonv2", gotQuery.Get("format"))
	assert.Equal(t, "geoplan-test/1.0", gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "nominatim", c.Provider())
}

func TestPostJSON_SendsBody(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := upstream.New("gemini", time.Second, "")
	resp, err := c.PostJSON(context.Background(), srv.URL, nil, []byte(`{"prompt":"hola"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, `{"prompt":"hola"}`, gotBody)
	assert.Equal(t, "application/json", gotType)
}

func TestGet_NonSuccessStatusIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	resp, err := upstream.New("osrm", time.Second, "").Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	assert.Contains(t, string(resp.Body), "slow down")
}

func TestGet_NetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		url  string
	}{
		{"unreachable", context.Background(), addr},
		{"cancelled context", cancelled, "http://127.0.0.1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := upstream.New("osrm", time.Second, "").Get(tt.ctx, tt.url, nil)
			require.Error(t, err)
			assert.Equal(t, "network", domain.Kind(err))
		})
	}
}

func TestGet_TimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	started := time.Now()
	_, err := upstream.New("osrm", 50*time.Millisecond, "").Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, "network", domain.Kind(err))
	assert.Less(t, time.Since(started), 2*time.Second)
}
