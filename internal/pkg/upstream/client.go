// Package upstream is the outbound HTTP client shared by the geocoding,
// routing and planner adapters.
package upstream

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
	"github.com/samirrijal/geoplan/internal/pkg/telemetry"
)

var tracer = telemetry.Tracer("upstream")

// Response is a fully read provider response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client performs requests against one provider with a fixed per-call timeout.
type Client struct {
	http      *fasthttp.Client
	provider  string
	userAgent string
	timeout   time.Duration
}

// New creates a client labelled provider in metrics and errors.
func New(provider string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		http: &fasthttp.Client{
			Name:                     userAgent,
			NoDefaultUserAgentHeader: userAgent == "",
			MaxConnsPerHost:          64,
			MaxIdleConnDuration:      30 * time.Second,
		},
		provider:  provider,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Provider returns the metrics label of the client.
func (c *Client) Provider() string {
	return c.provider
}

// Get issues a GET to rawURL with query appended.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return c.do(ctx, fasthttp.MethodGet, rawURL, query, nil)
}

// PostJSON issues a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, query url.Values, body []byte) (*Response, error) {
	return c.do(ctx, fasthttp.MethodPost, rawURL, query, body)
}

func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body []byte) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Network(c.provider, err)
	}

	uri := rawURL
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.userAgent != "" {
		req.Header.SetUserAgent(c.userAgent)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_, span := tracer.Start(ctx, "upstream."+c.provider,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.AttrProvider.String(c.provider)))
	defer span.End()

	started := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	metrics.ObserveUpstream(c.provider, started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "network")
		metrics.UpstreamErrors.WithLabelValues(c.provider, "network").Inc()
		return nil, domain.Network(c.provider, err)
	}

	out := &Response{
		Status: resp.StatusCode(),
		Body:   append([]byte(nil), resp.Body()...),
	}
	if !out.OK() {
		span.SetStatus(codes.Error, "status "+strconv.Itoa(out.Status))
		metrics.UpstreamErrors.WithLabelValues(c.provider, "status").Inc()
	}
	return out, nil
}
