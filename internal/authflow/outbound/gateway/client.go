// Package gateway talks to the remote identity service over HTTP/JSON.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/aegis/internal/authflow/entity"
	"github.com/shandysiswandi/aegis/internal/pkg/goerror"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HeaderUserID carries the session identity on provisioning requests.
	HeaderUserID = "X-User-Id"

	pathEnroll  = "/mfa/enroll"
	pathConfirm = "/mfa/confirm"
	pathVerify  = "/mfa/verify"

	maxResponseBytes = 1 << 20
)

type codeRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Client implements the identity service contract. It never retries and
// adds no timeout of its own; both are left to the http.Client and the
// caller's context.
type Client struct {
	baseURL string
	http    *http.Client
	ins     instrument.Instrumentation
}

// NewClient returns a Client for the service at baseURL. A nil httpClient
// uses a client without timeout.
func NewClient(baseURL string, httpClient *http.Client, ins instrument.Instrumentation) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		ins:     ins,
	}
}

func (c *Client) startSpan(ctx context.Context, name, path string) (context.Context, trace.Span) {
	return c.ins.Tracer("authflow.outbound.gateway").Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.route", path)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RequestProvisioning asks the service to start enrollment for identity and
// returns the QR artifact from its answer.
func (c *Client) RequestProvisioning(ctx context.Context, identity string) (artifact entity.Artifact, err error) {
	ctx, span := c.startSpan(ctx, "Gateway.RequestProvisioning", pathEnroll)
	defer func() { endSpan(span, err) }()

	header := http.Header{}
	header.Set(HeaderUserID, identity)

	body, err := c.post(ctx, pathEnroll, header, nil)
	if err != nil {
		return entity.Artifact{}, err
	}

	artifact, err = entity.ParseArtifact(body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read provisioning artifact", "error", err)
		return entity.Artifact{}, goerror.NewServer(err)
	}

	return artifact, nil
}

// Confirm submits the first code after provisioning.
func (c *Client) Confirm(ctx context.Context, identity, code string) (err error) {
	ctx, span := c.startSpan(ctx, "Gateway.Confirm", pathConfirm)
	defer func() { endSpan(span, err) }()

	_, err = c.post(ctx, pathConfirm, nil, codeRequest{UserID: identity, Code: code})
	return err
}

// Verify submits a code for an enrolled identity.
func (c *Client) Verify(ctx context.Context, identity, code string) (err error) {
	ctx, span := c.startSpan(ctx, "Gateway.Verify", pathVerify)
	defer func() { endSpan(span, err) }()

	_, err = c.post(ctx, pathVerify, nil, codeRequest{UserID: identity, Code: code})
	return err
}

// post sends a POST and returns the body of a 2xx answer. Transport
// failures become server errors; other statuses become business errors
// carrying the service's message, if any.
func (c *Client) post(ctx context.Context, path string, header http.Header, payload any) ([]byte, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, goerror.NewServer(err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, goerror.NewServer(err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "identity service unreachable", "path", path, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.WarnContext(ctx, "identity service rejected request", "path", path, "status", resp.StatusCode)
		return nil, &StatusError{
			Status: resp.StatusCode,
			err:    goerror.NewBusiness(serverMessage(body), goerror.CodeFromStatus(resp.StatusCode)),
		}
	}

	return body, nil
}

// serverMessage returns the "message" field of a JSON error body.
func serverMessage(body []byte) string {
	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return ""
	}
	return strings.TrimSpace(msg.Message)
}

// StatusError reports a non-2xx answer. It unwraps to a *goerror.Error of
// business type.
type StatusError struct {
	Status int
	err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity service answered %d: %v", e.Status, e.err)
}

func (e *StatusError) Unwrap() error {
	return e.err
}

