// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/moov-io/accountprocess/pkg/mscall"
	"github.com/moov-io/accountprocess/pkg/process"

	"github.com/gorilla/mux"
	"github.com/moov-io/base/log"
	"github.com/stretchr/testify/require"
)

const validAccountID = "5dea9fc691240d00084083f8"

func setupRouter(t *testing.T, client *mscall.MockClient) *mux.Router {
	t.Helper()

	sender, err := process.NewSender(log.NewNopLogger(), client, "orders")
	require.NoError(t, err)

	router := mux.NewRouter()
	addPingRoute(router)
	addProcessRoutes(log.NewNopLogger(), router, sender)
	return router
}

func sendProcess(router *mux.Router, accountID, body string, withSession bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest("PUT", "/accounts/"+accountID+"/process", strings.NewReader(body))
	req.Header.Set("X-Request-Id", "request-1")
	if withSession {
		req.Header.Set("Janis-Client", "defaultClient")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcess__Relay(t *testing.T) {
	client := &mscall.MockClient{
		Response: &mscall.Response{
			StatusCode: http.StatusOK,
			Body:       json.RawMessage(`{"id":"5dea9fc691240d0008408300"}`),
		},
	}
	router := setupRouter(t, client)

	w := sendProcess(router, validAccountID, `{"process": "test-process", "status": "pending", "content": {"message": "Ok"}, "options": {"startDate": true}}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":"5dea9fc691240d0008408300"}`, w.Body.String())

	calls := client.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, map[string]string{"id": validAccountID}, calls[0].Params)

	payload, ok := calls[0].Body.(process.Payload)
	require.True(t, ok)
	require.Equal(t, "test-process", payload.Process)
	require.Equal(t, process.StatusPending, payload.Status)
	require.NotNil(t, payload.StartDate)
	require.Nil(t, payload.EndDate)
}

func TestProcess__RelayErrorStatus(t *testing.T) {
	client := &mscall.MockClient{
		Response: &mscall.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       json.RawMessage(`{"message":"Account not found"}`),
		},
	}
	router := setupRouter(t, client)

	w := sendProcess(router, validAccountID, `{"process": "test-process", "status": "success"}`, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"message":"Account not found"}`, w.Body.String())
}

func TestProcess__Invalid(t *testing.T) {
	cases := []struct {
		name        string
		accountID   string
		body        string
		withSession bool
		code        process.Code
	}{
		{"no session", validAccountID, `{"process": "test-process", "status": "pending"}`, false, process.SessionMissing},
		{"bad account", "1", `{"process": "test-process", "status": "pending"}`, true, process.InvalidAccountID},
		{"no process", validAccountID, `{"status": "pending"}`, true, process.InvalidProcessName},
		{"bad status", validAccountID, `{"process": "test-process", "status": "testing"}`, true, process.InvalidStatus},
		{"upper case status", validAccountID, `{"process": "test-process", "status": "PENDING"}`, true, process.InvalidStatus},
		{"bad content", validAccountID, `{"process": "test-process", "status": "pending", "content": "Message"}`, true, process.InvalidContent},
		{"bad options", validAccountID, `{"process": "test-process", "status": "pending", "options": true}`, true, process.InvalidOptions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &mscall.MockClient{}
			router := setupRouter(t, client)

			w := sendProcess(router, tc.accountID, tc.body, tc.withSession)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, strconv.Itoa(int(tc.code)), w.Header().Get("X-Error-Code"))
			require.Equal(t, tc.code.String(), strings.SplitN(decodeError(t, w), ":", 2)[0])
			require.Len(t, client.Calls(), 0)
		})
	}
}

func TestProcess__MalformedJSON(t *testing.T) {
	client := &mscall.MockClient{}
	router := setupRouter(t, client)

	w := sendProcess(router, validAccountID, `{"process":`, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, w.Header().Get("X-Error-Code"))
	require.Len(t, client.Calls(), 0)
}

func TestProcess__TransportError(t *testing.T) {
	client := &mscall.MockClient{Err: errors.New("connection refused")}
	router := setupRouter(t, client)

	w := sendProcess(router, validAccountID, `{"process": "test-process", "status": "error"}`, true)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, decodeError(t, w), "connection refused")
}

func TestProcess__Statuses(t *testing.T) {
	router := setupRouter(t, &mscall.MockClient{})

	req := httptest.NewRequest("GET", "/statuses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `["pending","processing","success","error"]`, w.Body.String())
}

func TestPing(t *testing.T) {
	router := setupRouter(t, &mscall.MockClient{})

	req := httptest.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "PONG", w.Body.String())
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}
