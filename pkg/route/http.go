// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/moov-io/accountprocess/pkg/process"
	"github.com/moov-io/accountprocess/pkg/session"

	"github.com/go-kit/kit/metrics/prometheus"
	moovhttp "github.com/moov-io/base/http"
	"github.com/moov-io/base/log"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	routeHistogram = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Name: "http_response_duration_seconds",
		Help: "Histogram representing the http response durations",
	}, []string{"route"})
)

func Responder(logger log.Logger, w http.ResponseWriter, r *http.Request) *ResponseWriter {
	route := fmt.Sprintf("%s-%s", strings.ToLower(r.Method), cleanMetricsPath(r.URL.Path))
	return Wrap(logger, routeHistogram.With("route", route), w, r)
}

var objectIDRegex = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// cleanMetricsPath takes a URL path and formats it for Prometheus metrics
//
// This method replaces /'s with -'s and clean out ID's (which are numeric).
// This method also strips out account IDs from URL path slugs.
func cleanMetricsPath(path string) string {
	parts := strings.Split(path, "/")
	var out []string
	for i := range parts {
		if n, _ := strconv.Atoi(parts[i]); n > 0 || parts[i] == "" {
			continue // numeric ID
		}
		if objectIDRegex.MatchString(parts[i]) {
			continue // account ID
		}
		out = append(out, parts[i])
	}
	return strings.Join(out, "-")
}

// GetSession reads the caller's session from request headers, nil when the
// request carries none.
func GetSession(r *http.Request) *session.Session {
	return session.FromHeaders(r.Header)
}

// Problem writes err as a JSON error response. Request validation errors are
// sent as 400 Bad Request with their code in the X-Error-Code header.
func Problem(w http.ResponseWriter, err error) {
	var perr *process.Error
	if errors.As(err, &perr) {
		w.Header().Set("X-Error-Code", strconv.Itoa(int(perr.Code)))
	}
	moovhttp.Problem(w, err)
}
