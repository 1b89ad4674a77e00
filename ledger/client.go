// Package ledger talks to the remote ledger through the same-origin gateway.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/utils"
	"github.com/sirupsen/logrus"
)

// DefaultPrefix is the gateway path that forwards to the ledger.
const DefaultPrefix = "/api"

type Client struct {
	endpoint string
	http     *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient targets gatewayURL + DefaultPrefix. No request timeout is set;
// the transport's own dial and TLS timeouts apply.
func NewClient(gatewayURL string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(gatewayURL, "/") + DefaultPrefix,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string { return c.endpoint }

// Submit posts the record's payload and returns the success envelope.
func (c *Client) Submit(ctx context.Context, rec models.DraftRecord) (*models.LedgerEnvelope, error) {
	body, err := json.Marshal(rec.Payload())
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Lookup fetches the ledger's record for kind on date identified by the
// kind's lookup field. It returns the envelope's data object.
func (c *Client) Lookup(ctx context.Context, kind models.FormKind, date string, identifier string) (map[string]any, error) {
	spec := kind.Spec()
	if spec == nil {
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}
	params := url.Values{}
	params.Set("date", date)
	params.Set(spec.LookupField, identifier)
	params.Set("type", spec.LedgerType)

	ctx = utils.SetFormKindInContext(ctx, string(kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, ErrNotFound
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: data is not an object: %v", ErrMalformedResponse, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

func (c *Client) do(req *http.Request) (*models.LedgerEnvelope, error) {
	req.Header.Set("Accept", "application/json")
	ctx := req.Context()
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		req.Header.Set("x-correlation-id", cid)
	}
	sessionId, _ := utils.GetSessionIdFromContext(ctx)
	kind, _ := utils.GetFormKindFromContext(ctx)
	attemptId, _ := utils.GetAttemptIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"session_id": sessionId,
		"form_kind":  kind,
		"attempt_id": attemptId,
		"method":     req.Method,
	}).Debug("ledger request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return parseEnvelope(resp.StatusCode, body)
}

// parseEnvelope classifies a gateway response body.
func parseEnvelope(httpStatus int, body []byte) (*models.LedgerEnvelope, error) {
	var env models.LedgerEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == nil {
		var gwErr models.GatewayError
		if json.Unmarshal(body, &gwErr) == nil && gwErr.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrTransport, gwErr.Error)
		}
		return nil, fmt.Errorf("%w: http %d: %s", ErrMalformedResponse, httpStatus, snippet(body))
	}
	if !env.OK() {
		return nil, &ApplicationError{Status: *env.Status, Message: env.Message, HTTPStatus: httpStatus}
	}
	if httpStatus < 200 || httpStatus >= 300 {
		return nil, fmt.Errorf("%w: success envelope with http %d", ErrMalformedResponse, httpStatus)
	}
	return &env, nil
}

// normalizeDate accepts full timestamps from the ledger and keeps the day.
func normalizeDate(v string) string {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(models.DateLayout)
	}
	return v
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// LookupToRecord maps a lookup data object onto a draft of kind. Keys the
// kind does not declare are ignored; scalars are rendered as form text.
func LookupToRecord(kind models.FormKind, base models.DraftRecord, data map[string]any) models.DraftRecord {
	rec := base.Clone()
	spec := kind.Spec()
	if spec == nil {
		return rec
	}
	for _, f := range spec.Fields {
		if v, ok := data[f.Name]; ok {
			value := utils.JSONScalarToString(v)
			if f.Input == models.InputDate {
				value = normalizeDate(value)
			}
			rec.Fields[f.Name] = value
		}
	}
	for _, q := range spec.Quantities {
		if v, ok := data[q.Key]; ok {
			rec.Quantities[q.Key] = utils.JSONScalarToString(v)
		}
	}
	return rec
}
