// Package gateway is the same-origin proxy between devices and the ledger
// endpoint. It holds no state: every request is forwarded and the upstream
// answer relayed as-is.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmdatafocus/dispatch_forms/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("dispatch-gateway")

// UpstreamResponse is what the ledger answered.
type UpstreamResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forwarder sends requests to the fixed ledger endpoint.
type Forwarder struct {
	endpoint string
	client   *http.Client
}

func NewForwarder(endpoint string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Get forwards a lookup. suffix and rawQuery are appended to the endpoint
// unchanged.
func (f *Forwarder) Get(ctx context.Context, suffix string, rawQuery string) (*UpstreamResponse, error) {
	target := f.endpoint + suffix
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return f.do(req)
}

// Post forwards a JSON body to the endpoint itself.
func (f *Forwarder) Post(ctx context.Context, body []byte) (*UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func (f *Forwarder) do(req *http.Request) (*UpstreamResponse, error) {
	ctx, span := tracer.Start(req.Context(), "ledger.forward",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", req.Method)),
	)
	defer span.End()

	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		req.Header.Set("x-correlation-id", cid)
		span.SetAttributes(attribute.String("correlation_id", cid))
	}

	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream request failed")
		return nil, fmt.Errorf("forward %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read upstream body")
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return &UpstreamResponse{
		Status:      resp.StatusCode,
		ContentType: relayContentType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

// relayContentType collapses the upstream content type to JSON or plain text.
func relayContentType(upstream string) string {
	if strings.Contains(strings.ToLower(upstream), "json") {
		return "application/json"
	}
	return "text/plain"
}
