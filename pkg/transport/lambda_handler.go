package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// LambdaHandler adapta eventos do API Gateway para um http.Handler.
type LambdaHandler struct {
	handler http.Handler
}

// NewLambdaHandler cria uma nova instância do adaptador.
func NewLambdaHandler(h http.Handler) *LambdaHandler {
	return &LambdaHandler{handler: h}
}

// Handle processa a requisição Lambda.
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	httpReq, err := toHTTPRequest(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	rec := newLambdaResponse()
	h.handler.ServeHTTP(rec, httpReq)

	resp := events.APIGatewayProxyResponse{
		StatusCode:        rec.status,
		Headers:           make(map[string]string, len(rec.header)),
		MultiValueHeaders: make(map[string][]string, len(rec.header)),
		Body:              rec.body.String(),
	}
	for k, v := range rec.header {
		resp.MultiValueHeaders[k] = v
		if len(v) > 0 {
			resp.Headers[k] = v[0]
		}
	}
	return resp, nil
}

func toHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: decode lambda body: %w", err)
		}
		body = decoded
	}

	query := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	path := req.Path
	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path, RawQuery: query.Encode()}

	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	for k, vs := range req.MultiValueHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if httpReq.Header.Get(k) == "" {
			httpReq.Header.Set(k, v)
		}
	}
	if httpReq.Header.Get(HeaderCorrelationID) == "" {
		id := req.RequestContext.RequestID
		if id == "" {
			id = uuid.NewString()
		}
		httpReq.Header.Set(HeaderCorrelationID, id)
	}
	httpReq.RemoteAddr = req.RequestContext.Identity.SourceIP
	if host := req.Headers["Host"]; host != "" {
		httpReq.Host = host
	}
	httpReq.RequestURI = u.RequestURI()

	return httpReq, nil
}

// lambdaResponse acumula a resposta do handler em memória.
type lambdaResponse struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newLambdaResponse() *lambdaResponse {
	return &lambdaResponse{header: make(http.Header), status: http.StatusOK}
}

func (l *lambdaResponse) Header() http.Header {
	return l.header
}

func (l *lambdaResponse) WriteHeader(code int) {
	if l.wroteHeader {
		return
	}
	l.status = code
	l.wroteHeader = true
}

func (l *lambdaResponse) Write(b []byte) (int, error) {
	if !l.wroteHeader {
		l.WriteHeader(http.StatusOK)
	}
	return l.body.Write(b)
}
