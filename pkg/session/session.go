// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package session

import (
	"net/http"
	"strings"
)

const (
	ClientHeader      = "janis-client"
	UserHeader        = "janis-user"
	ServiceNameHeader = "janis-service-name"
)

// Session identifies who a remote call is made on behalf of. It's created by
// the caller's authentication layer and is only read by this module.
type Session struct {
	ClientCode  string
	UserID      string
	ServiceName string
}

// Headers returns the HTTP headers which carry the Session to another service.
func (s *Session) Headers() http.Header {
	h := make(http.Header)
	if s == nil {
		return h
	}
	if s.ClientCode != "" {
		h.Set(ClientHeader, s.ClientCode)
	}
	if s.UserID != "" {
		h.Set(UserHeader, s.UserID)
	}
	if s.ServiceName != "" {
		h.Set(ServiceNameHeader, s.ServiceName)
	}
	return h
}

// WithServiceName returns a copy of the Session which identifies the calling service.
func (s *Session) WithServiceName(name string) *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.ServiceName = name
	return &out
}

// FromHeaders reads a Session from inbound request headers. A nil Session is
// returned when no client code was sent.
func FromHeaders(h http.Header) *Session {
	client := strings.TrimSpace(h.Get(ClientHeader))
	if client == "" {
		return nil
	}
	return &Session{
		ClientCode:  client,
		UserID:      strings.TrimSpace(h.Get(UserHeader)),
		ServiceName: strings.TrimSpace(h.Get(ServiceNameHeader)),
	}
}
