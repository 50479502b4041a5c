// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/moov-io/accountprocess/pkg/mscall"
	"github.com/moov-io/accountprocess/pkg/process"
	"github.com/moov-io/accountprocess/pkg/route"

	"github.com/gorilla/mux"
	"github.com/moov-io/base/log"
)

func addProcessRoutes(logger log.Logger, r *mux.Router, sender *process.Sender) {
	r.Methods("PUT").Path("/accounts/{accountID}/process").HandlerFunc(sendProcessStatus(logger, sender))
	r.Methods("GET").Path("/statuses").HandlerFunc(listStatuses(logger))
}

type sendProcessRequest struct {
	Process string          `json:"process"`
	Status  string          `json:"status"`
	Content json.RawMessage `json:"content,omitempty"`
	Options json.RawMessage `json:"options,omitempty"`
}

func sendProcessStatus(logger log.Logger, sender *process.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w = route.Responder(logger, w, r)

		var req sendProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			route.Problem(w, fmt.Errorf("unable to read request: %v", err))
			return
		}

		// unknown statuses are left as the zero value so Send reports them in order
		var status process.Status
		if s, err := process.LiftStatus(req.Status); err == nil {
			status = *s
		}

		ctx := r.Context()
		if requestID := route.GetRequestID(r); requestID != "" {
			ctx = mscall.WithRequestID(ctx, requestID)
		}

		accountID := mux.Vars(r)["accountID"]
		resp, err := sender.Send(ctx, route.GetSession(r), accountID, req.Process, status, req.Content, req.Options)
		if err == nil && resp == nil {
			err = errors.New("no response from commerce")
		}
		if err != nil {
			var perr *process.Error
			if errors.As(err, &perr) {
				route.Problem(w, err)
				return
			}
			logger.Set("accountID", log.String(accountID)).LogErrorf("problem relaying process status: %v", err)

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else if len(resp.Body) > 0 {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Body)
	}
}

func listStatuses(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w = route.Responder(logger, w, r)

		statuses := process.Statuses()
		out := make([]string, 0, len(statuses))
		for i := range statuses {
			out = append(out, statuses[i].String())
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(out)
	}
}
