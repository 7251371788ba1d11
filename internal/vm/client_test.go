package vm

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/era5wind/internal/wind"
)

var testRecs = []wind.Record{
	{Timestamp: 946684800000, Latitude: 55.6, Longitude: 7.9, Height: 100, Speed: 7.25, Direction: 270},
	{Timestamp: 946688400000, Latitude: 55.6, Longitude: 7.9, Height: 100, Speed: math.NaN(), Direction: 90},
	{Timestamp: 946692000000, Latitude: 55.6, Longitude: 7.9, Height: 100, Speed: 3, Direction: 182.5},
}

type request struct {
	path  string
	query url.Values
	body  string
}

// recorder is a fake Victoria Metrics insert endpoint.
type recorder struct {
	mu       sync.Mutex
	status   int
	requests []request
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, request{path: req.URL.Path, query: req.URL.Query(), body: string(body)})
	r.mu.Unlock()
	w.WriteHeader(r.status)
}

func newServer(t *testing.T, status int) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{status: status}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestInsert_InfluxDB(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent)
	cli, err := NewClient(slog.Default(), srv.URL+"/influx/write", 2, "era5wind")
	require.NoError(t, err)

	require.NoError(t, cli.Insert(context.Background(), testRecs))
	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, "/influx/write", req.path)
	assert.Equal(t, "ms", req.query.Get("precision"))
	assert.Equal(t, ""+
		"era5wind,la=55.6000,lo=7.9000,h=100 speed=7.25,dir=270 946684800000\n"+
		"era5wind,la=55.6000,lo=7.9000,h=100 speed=3,dir=182.5 946692000000\n",
		req.body)
}

func TestInsert_CSV(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent)
	cli, err := NewClient(slog.Default(), srv.URL+"/api/v1/import/csv", 2, "site1")
	require.NoError(t, err)

	require.NoError(t, cli.Insert(context.Background(), testRecs[:1]))
	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, "1:time:unix_ms,2:label:la,3:label:lo,4:label:h,5:metric:site1_speed,6:metric:site1_dir", req.query.Get("format"))
	assert.Equal(t, "946684800000,55.6000,7.9000,100,7.25,270\n", req.body)
}

func TestInsert_UnexpectedStatus(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest)
	cli, err := NewClient(slog.Default(), srv.URL+"/api/v2/write", 1, "era5wind")
	require.NoError(t, err)
	assert.ErrorContains(t, cli.Insert(context.Background(), testRecs), "unexpected status 400")
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(slog.Default(), "http://localhost:8428/api/v1/write", 1, "era5wind")
	assert.ErrorContains(t, err, "not supported")

	_, err = NewClient(slog.Default(), "http://localhost:8428/write", 1, "era5-wind")
	assert.ErrorContains(t, err, "does not match")

	_, err = NewClient(slog.Default(), "http://[::1", 1, "era5wind")
	assert.Error(t, err)
}

func TestEncode_SkipsNonFinite(t *testing.T) {
	c := &Client{metricPrefix: "era5wind", proto: protocols["/api/v1/import/csv"]}
	buf := c.encode([]wind.Record{
		{Speed: math.Inf(1), Direction: 0},
		{Speed: 1, Direction: math.NaN()},
	})
	assert.Equal(t, 0, buf.Len())
}

func TestInsert_Canceled(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent)
	cli, err := NewClient(slog.Default(), srv.URL+"/write", 1, "era5wind")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = cli.Insert(ctx, testRecs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.requests)
}
