package beak

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"time"
)

// defaultRequestTimeout bounds a single upstream call when the request does
// not carry its own timeout.
const defaultRequestTimeout = 30 * time.Second

// httpDoer is the transport surface the engine needs; satisfied by
// *stealth.BrowserClient.
type httpDoer interface {
	DoWithHeaderOrder(method, url string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error)
}

// FetchRequest describes one upstream GraphQL call.
type FetchRequest struct {
	// Operation is the logical operation name; the engine resolves its
	// current query ID through the registry at send time, so a retry after
	// a registry refresh automatically picks up the new binding.
	Operation string

	Variables    map[string]any
	FieldToggles map[string]any

	// Cursor, when set, is passed through as the "cursor" variable.
	Cursor string

	// Referer overrides the default referer header (the compose box and
	// status pages send page-specific referers).
	Referer string

	// Timeout bounds this call; zero means the engine default.
	Timeout time.Duration
}

// LegacyRequest is a form-encoded call to a 1.1 REST endpoint, used as the
// failover target for write operations the GraphQL path rejects.
type LegacyRequest struct {
	Operation string // logical name, for classification and logs
	URL       string
	Form      url.Values
	Timeout   time.Duration
}

// Engine issues single upstream calls and classifies their responses.
// It never retries; recovery policy lives in Router.
type Engine struct {
	client    httpDoer
	cred      *Credential
	registry  *Registry
	timeout   time.Duration
	userAgent string

	clientUUID string
	deviceID   string
	newTxnID   func() string

	// clientUserID is filled after the first CurrentUser call and echoed in
	// a header the web app always sends once logged in.
	clientUserID string
}

// NewEngine wires a transport, credential, and registry into an engine.
func NewEngine(client httpDoer, cred *Credential, registry *Registry, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Engine{
		client:     client,
		cred:       cred,
		registry:   registry,
		timeout:    timeout,
		userAgent:  defaultUserAgent,
		clientUUID: newClientUUID(),
		deviceID:   newClientUUID(),
		newTxnID:   newTransactionID,
	}
}

// SetClientUserID records the authenticated user's id for the
// x-twitter-client-user-id header.
func (e *Engine) SetClientUserID(id string) { e.clientUserID = id }

// Send issues one GraphQL call and classifies the outcome. Requests
// requiring auth fail fast with a transport-level result when the
// credential is incomplete.
func (e *Engine) Send(ctx context.Context, req FetchRequest) Result {
	if !e.cred.Valid() {
		return Result{Kind: KindTransportError, Operation: req.Operation, cause: ErrNoCredentials}
	}

	ep, ok := Endpoints[req.Operation]
	if !ok {
		return Result{Kind: KindTransportError, Operation: req.Operation, cause: ErrUnknownOperation}
	}
	queryID, err := e.registry.Get(req.Operation)
	if err != nil {
		return Result{Kind: KindTransportError, Operation: req.Operation, cause: err}
	}

	variables := req.Variables
	if req.Cursor != "" {
		variables = make(map[string]any, len(req.Variables)+1)
		for k, v := range req.Variables {
			variables[k] = v
		}
		variables["cursor"] = req.Cursor
	}

	headers := e.headers()
	if req.Referer != "" {
		headers["referer"] = req.Referer
	}

	var (
		callURL string
		body    io.Reader
	)
	if ep.Method == "POST" {
		callURL = operationURL(queryID, req.Operation)
		payload, merr := json.Marshal(map[string]any{
			"variables": variables,
			"features":  ep.Features,
			"queryId":   queryID,
		})
		if merr != nil {
			return Result{Kind: KindTransportError, Operation: req.Operation, cause: merr}
		}
		body = bytes.NewReader(payload)
	} else {
		callURL = addGraphQLParams(operationURL(queryID, req.Operation), variables, ep.Features, req.FieldToggles)
	}

	respBody, respHdrs, status, err := e.do(ctx, ep.Method, callURL, headers, body, req.Timeout)
	if err != nil {
		return Result{Kind: KindTransportError, Operation: req.Operation, cause: err}
	}
	return classify(req.Operation, status, respHdrs, respBody, ep.Write)
}

// SendLegacy issues one form-encoded 1.1 REST call and classifies it the
// same way (write semantics: 226 still means rejection).
func (e *Engine) SendLegacy(ctx context.Context, req LegacyRequest) Result {
	if !e.cred.Valid() {
		return Result{Kind: KindTransportError, Operation: req.Operation, cause: ErrNoCredentials}
	}
	headers := e.headers()
	headers["content-type"] = "application/x-www-form-urlencoded"

	body := strings.NewReader(req.Form.Encode())
	respBody, respHdrs, status, err := e.do(ctx, "POST", req.URL, headers, body, req.Timeout)
	if err != nil {
		return Result{Kind: KindTransportError, Operation: req.Operation, cause: err}
	}
	return classify(req.Operation, status, respHdrs, respBody, true)
}

// SendRaw issues a GET to an absolute URL with the authenticated headers.
// Used for the non-GraphQL endpoints (account settings, legacy user lists).
func (e *Engine) SendRaw(ctx context.Context, operation, rawURL string) Result {
	if !e.cred.Valid() {
		return Result{Kind: KindTransportError, Operation: operation, cause: ErrNoCredentials}
	}
	respBody, respHdrs, status, err := e.do(ctx, "GET", rawURL, e.headers(), nil, 0)
	if err != nil {
		return Result{Kind: KindTransportError, Operation: operation, cause: err}
	}
	return classify(operation, status, respHdrs, respBody, false)
}

// do executes the call with the timeout applied. The transport has no
// context plumbing, so the call runs in a goroutine and the caller is
// released on deadline; a timed-out call surfaces as a transport error.
func (e *Engine) do(ctx context.Context, method, callURL string, headers map[string]string, body io.Reader, timeout time.Duration) ([]byte, map[string]string, int, error) {
	if timeout <= 0 {
		timeout = e.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type response struct {
		body   []byte
		hdrs   map[string]string
		status int
		err    error
	}
	ch := make(chan response, 1)
	go func() {
		b, h, s, err := e.client.DoWithHeaderOrder(method, callURL, headers, body, graphqlHeaderOrder)
		ch <- response{b, h, s, err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, 0, ctx.Err()
	case resp := <-ch:
		return resp.body, resp.hdrs, resp.status, resp.err
	}
}

func (e *Engine) headers() map[string]string {
	h := graphqlHeaders(e.cred, e.userAgent)
	h["x-client-uuid"] = e.clientUUID
	h["x-twitter-client-deviceid"] = e.deviceID
	h["x-client-transaction-id"] = e.newTxnID()
	if e.clientUserID != "" {
		h["x-twitter-client-user-id"] = e.clientUserID
	}
	return h
}

// addGraphQLParams builds the full GET URL with variables, features, and
// optional fieldToggles blobs.
func addGraphQLParams(callURL string, variables, features, fieldToggles map[string]any) string {
	v, _ := json.Marshal(variables)
	f, _ := json.Marshal(features)
	sep := "?"
	if strings.Contains(callURL, "?") {
		sep = "&"
	}
	result := callURL + sep + "variables=" + jsonEscape(v)
	if len(features) > 0 {
		result += "&features=" + jsonEscape(f)
	}
	if len(fieldToggles) > 0 {
		ft, _ := json.Marshal(fieldToggles)
		result += "&fieldToggles=" + jsonEscape(ft)
	}
	return result
}

// jsonEscape percent-encodes a JSON blob for a query parameter. Spaces must
// come out as %20, not +, or the upstream rejects the variables blob.
func jsonEscape(b []byte) string {
	var result strings.Builder
	for _, ch := range string(b) {
		switch ch {
		case ' ':
			result.WriteString("%20")
		case '"':
			result.WriteString("%22")
		case '{':
			result.WriteString("%7B")
		case '}':
			result.WriteString("%7D")
		case '[':
			result.WriteString("%5B")
		case ']':
			result.WriteString("%5D")
		case ':':
			result.WriteString("%3A")
		case ',':
			result.WriteString("%2C")
		case '\'':
			result.WriteString("%27")
		case '|':
			result.WriteString("%7C")
		default:
			result.WriteRune(ch)
		}
	}
	return result.String()
}
