package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Request represents a generic HTTP request for serverless functions
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	Body        []byte            `json:"body"`
	PathParams  map[string]string `json:"path_params"`
}

// Response represents a generic HTTP response for serverless functions
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}

// HandlerFunc is a framework-agnostic handler interface
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// FromAPIGateway converts an API Gateway proxy event
func FromAPIGateway(event events.APIGatewayProxyRequest) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode request body: %w", err)
		}
		body = decoded
	}

	query := make(map[string]string, len(event.QueryStringParameters))
	for k, v := range event.QueryStringParameters {
		query[k] = v
	}
	// multi-value parameters carry repeated keys such as store=a&store=b
	for k, vs := range event.MultiValueQueryStringParameters {
		query[k] = strings.Join(vs, ",")
	}

	return &Request{
		Method:      event.HTTPMethod,
		Path:        event.Path,
		Headers:     event.Headers,
		QueryParams: query,
		Body:        body,
		PathParams:  event.PathParameters,
	}, nil
}

// HTTPRequest builds the net/http request that r describes
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	u := url.URL{Path: r.Path}
	if len(r.QueryParams) > 0 {
		q := url.Values{}
		for k, v := range r.QueryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if ip := r.Headers["X-Forwarded-For"]; ip != "" {
		req.RemoteAddr = strings.TrimSpace(strings.Split(ip, ",")[0]) + ":0"
	}
	return req, nil
}

// APIGateway converts r into a proxy response. Bodies that are not text
// are base64 encoded.
func (r *Response) APIGateway() events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
	}
	if isText(r.Headers["Content-Type"]) {
		resp.Body = string(r.Body)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(r.Body)
		resp.IsBase64Encoded = true
	}
	return resp
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "image/svg+xml")
}

// HandlerFor serves requests through an http.Handler such as the gin router
func HandlerFor(h http.Handler) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		httpReq, err := req.HTTPRequest(ctx)
		if err != nil {
			return nil, err
		}

		w := newResponseWriter()
		h.ServeHTTP(w, httpReq)
		return w.response(), nil
	}
}

// responseWriter buffers a handler's output
type responseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) response() *Response {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	headers := make(map[string]string, len(w.header))
	for k, v := range w.header {
		headers[k] = strings.Join(v, ",")
	}
	return &Response{StatusCode: status, Headers: headers, Body: w.body.Bytes()}
}

// JSONError builds a JSON error response
func JSONError(status int, message string) *Response {
	return &Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(fmt.Sprintf(`{"error":%q}`, message)),
	}
}
