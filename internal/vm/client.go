// Package vm exports point wind series to Victoria Metrics.
package vm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rtm0/era5wind/internal/wind"
)

// Client is a Victoria Metrics client capable of inserting wind records via
// the InfluxDB line protocol or the CSV import API.
type Client struct {
	logger       *slog.Logger
	httpCli      *http.Client
	insertURL    string
	metricPrefix string
	proto        protocol
}

var metricPrefixRE = regexp.MustCompile("^[a-zA-Z0-9]+$")

// protocol is an insert API: the query parameters it needs and how it
// encodes a record.
type protocol struct {
	params func(metricPrefix string) url.Values
	encode func(w io.Writer, r *wind.Record, metricPrefix string)
}

var influxDB = protocol{params: influxDBParams, encode: encodeInfluxDB}

var protocols = map[string]protocol{
	"/influx/write":        influxDB,
	"/influx/api/v2/write": influxDB,
	"/write":               influxDB,
	"/api/v2/write":        influxDB,
	"/api/v1/import/csv":   {params: csvParams, encode: encodeCSV},
}

// NewClient creates a new VM client. The insert API is chosen by the path of
// insertURL.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix string) (*Client, error) {
	u, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}
	if !metricPrefixRE.MatchString(metricPrefix) {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, metricPrefixRE)
	}
	proto, ok := protocols[u.Path]
	if !ok {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	q := u.Query()
	for name, values := range proto.params(metricPrefix) {
		for _, v := range values {
			q.Add(name, v)
		}
	}
	u.RawQuery = q.Encode()

	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		insertURL:    u.String(),
		metricPrefix: metricPrefix,
		proto:        proto,
	}, nil
}

// Insert sends wind records to Victoria Metrics in a single request. Records
// with a non-finite speed or direction are skipped.
func (c *Client) Insert(ctx context.Context, recs []wind.Record) error {
	body := c.encode(recs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.insertURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	res, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("could not post data: %w", err)
	}
	defer res.Body.Close()
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		c.logger.Warn("Failed to drain response body", "err", err)
	}
	if res.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}

func (c *Client) encode(recs []wind.Record) *bytes.Buffer {
	var buf bytes.Buffer
	for i := range recs {
		r := &recs[i]
		if !finite(r.Speed) || !finite(r.Direction) {
			continue
		}
		c.proto.encode(&buf, r, c.metricPrefix)
		buf.WriteByte('\n')
	}
	return &buf
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Timestamps are unix milliseconds.
func influxDBParams(string) url.Values {
	return url.Values{"precision": {"ms"}}
}

func csvParams(metricPrefix string) url.Values {
	return url.Values{"format": {fmt.Sprintf(""+
		"1:time:unix_ms,"+
		"2:label:la,"+
		"3:label:lo,"+
		"4:label:h,"+
		"5:metric:%[1]s_speed,"+
		"6:metric:%[1]s_dir", metricPrefix)}}
}

const influxDBFmt = "%s,la=%.4f,lo=%.4f,h=%g speed=%g,dir=%g %d"

// encodeInfluxDB writes a wind record in InfluxDB line protocol.
func encodeInfluxDB(w io.Writer, r *wind.Record, metricPrefix string) {
	fmt.Fprintf(w, influxDBFmt,
		metricPrefix,
		r.Latitude,
		r.Longitude,
		r.Height,
		r.Speed,
		r.Direction,
		r.Timestamp,
	)
}

const csvFmt = "%d,%.4f,%.4f,%g,%g,%g"

// encodeCSV writes a wind record as a CSV line matching the format of
// csvParams.
func encodeCSV(w io.Writer, r *wind.Record, _ string) {
	fmt.Fprintf(w, csvFmt,
		r.Timestamp,
		r.Latitude,
		r.Longitude,
		r.Height,
		r.Speed,
		r.Direction,
	)
}
