// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package mscall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/moov-io/accountprocess/pkg/session"

	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/moov-io/base"
	"github.com/moov-io/base/k8s"
	"github.com/moov-io/base/log"
	"github.com/pkg/errors"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Call describes one request to another platform service.
type Call struct {
	Service   string
	Namespace string
	Method    string

	Body   interface{}
	Query  url.Values
	Params map[string]string
}

// Response is what the remote service answered, whatever its status code.
type Response struct {
	StatusCode int
	Header     http.Header

	// Body holds the raw response body, nil when the service sent none.
	Body json.RawMessage
}

// Decode reads the response body into v.
func (r *Response) Decode(v interface{}) error {
	if r == nil || len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// OK returns true for 2xx responses.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

type Client interface {
	Ping() error

	// SafeCall performs the call and returns the remote response even when it
	// carries a non-2xx status. An error is only returned when no response
	// was received.
	SafeCall(ctx context.Context, sess *session.Session, call Call) (*Response, error)
}

var (
	callDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Name: "mscall_duration_seconds",
		Help: "Histogram representing the duration of calls to other services",
	}, []string{"service", "method"})

	callResponses = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "mscall_responses",
		Help: "Counter of responses received from other services",
	}, []string{"service", "method", "status"})
)

var methodVerbs = map[string]string{
	"get":    http.MethodGet,
	"list":   http.MethodGet,
	"create": http.MethodPost,
	"update": http.MethodPut,
	"patch":  http.MethodPatch,
	"remove": http.MethodDelete,
}

type requestIDKey struct{}

// WithRequestID attaches the X-Request-Id to forward on calls made with ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return base.ID()
}

type moovClient struct {
	logger     log.Logger
	httpClient *http.Client
	services   []string
	endpoints  map[string]string
	debug      bool
}

func (c *moovClient) basePath(service string) string {
	if endpoint, ok := c.endpoints[service]; ok && endpoint != "" {
		return strings.TrimSuffix(endpoint, "/")
	}
	if k8s.Inside() {
		return fmt.Sprintf("http://%s.apps.svc.cluster.local:8080", service)
	}
	return "http://localhost:8080"
}

// pingTargets returns the /ping address of every known service, sorted by service name.
func (c *moovClient) pingTargets() []string {
	seen := make(map[string]bool)
	var services []string
	for _, service := range c.services {
		if !seen[service] {
			seen[service] = true
			services = append(services, service)
		}
	}
	for service := range c.endpoints {
		if !seen[service] {
			seen[service] = true
			services = append(services, service)
		}
	}
	sort.Strings(services)

	out := make([]string, 0, len(services))
	for _, service := range services {
		out = append(out, c.basePath(service)+"/ping")
	}
	return out
}

func (c *moovClient) Ping() error {
	// create a context just for this so ping requests don't require the setup of one
	ctx, cancelFn := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancelFn()

	for _, target := range c.pingTargets() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("ping %s: %v", target, err)
		}
		resp, err := c.httpClient.Do(req)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if resp == nil {
			return fmt.Errorf("ping %s failed: %v", target, err)
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("ping %s got status: %s", target, resp.Status)
		}
	}
	return nil
}

func (c *moovClient) buildRequest(ctx context.Context, sess *session.Session, call Call) (*http.Request, error) {
	verb, ok := methodVerbs[strings.ToLower(call.Method)]
	if !ok {
		return nil, fmt.Errorf("unknown method %q", call.Method)
	}
	if call.Service == "" || call.Namespace == "" {
		return nil, errors.New("missing service or namespace")
	}

	u := fmt.Sprintf("%s/api/%s", c.basePath(call.Service), url.PathEscape(call.Namespace))
	if id := call.Params["id"]; id != "" {
		u += "/" + url.PathEscape(id)
	}
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		bs, err := json.Marshal(call.Body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding body")
		}
		body = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, verb, u, body)
	if err != nil {
		return nil, err
	}
	for k, v := range sess.Headers() {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID(ctx))
	return req, nil
}

func (c *moovClient) SafeCall(ctx context.Context, sess *session.Session, call Call) (*Response, error) {
	req, err := c.buildRequest(ctx, sess, call)
	if err != nil {
		return nil, errors.Wrapf(err, "mscall: %s %s/%s", call.Service, call.Namespace, call.Method)
	}

	logger := c.logger.With(log.Fields{
		"service":   log.String(call.Service),
		"namespace": log.String(call.Namespace),
		"method":    log.String(call.Method),
		"requestID": log.String(req.Header.Get("X-Request-Id")),
	})
	if c.debug {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			logger.Logf("request:\n%s", dump)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	callDuration.With("service", call.Service, "method", call.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.Wrapf(err, "mscall: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if c.debug {
		if dump, err := httputil.DumpResponse(resp, false); err == nil {
			logger.Logf("response:\n%s", dump)
		}
	}

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "mscall: reading %s response", call.Service)
	}
	callResponses.With("service", call.Service, "method", call.Method, "status", strconv.Itoa(resp.StatusCode)).Add(1)

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if len(bytes.TrimSpace(bs)) > 0 {
		out.Body = json.RawMessage(bs)
	}
	if !out.OK() {
		logger.Logf("%s responded with status %d", call.Service, resp.StatusCode)
	}
	return out, nil
}

var (
	httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}
)

// NewClient returns a Client which calls other services of the platform.
//
// services are the platform services checked by Ping. endpoints maps a service
// name to its base address. Services without an entry are reached through
// moov's standard Kubernetes DNS records, or localhost when running outside
// of a cluster.
// Example: {"commerce": "http://commerce.apps.svc.cluster.local:8080"}
func NewClient(logger log.Logger, services []string, endpoints map[string]string, timeout time.Duration, debug bool) Client {
	hc := httpClient
	if timeout > 0 {
		hc = &http.Client{Timeout: timeout}
	}

	logger = logger.Set("package", log.String("mscall"))
	for service, endpoint := range endpoints {
		logger.Logf("using %s for %s address", endpoint, service)
	}

	return &moovClient{
		logger:     logger,
		httpClient: hc,
		services:   services,
		endpoints:  endpoints,
		debug:      debug,
	}
}
