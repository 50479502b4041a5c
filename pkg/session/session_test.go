// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package session

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession__Headers(t *testing.T) {
	sess := &Session{ClientCode: "defaultClient", UserID: "user-1"}

	h := sess.Headers()
	require.Equal(t, "defaultClient", h.Get(ClientHeader))
	require.Equal(t, "user-1", h.Get(UserHeader))
	require.Empty(t, h.Get(ServiceNameHeader))

	h = sess.WithServiceName("orders").Headers()
	require.Equal(t, "orders", h.Get(ServiceNameHeader))
	require.Empty(t, sess.ServiceName, "original session must not change")

	var nilSession *Session
	require.Len(t, nilSession.Headers(), 0)
	require.Nil(t, nilSession.WithServiceName("orders"))
}

func TestSession__FromHeaders(t *testing.T) {
	h := make(http.Header)
	require.Nil(t, FromHeaders(h))

	h.Set(ClientHeader, " defaultClient ")
	h.Set(UserHeader, "user-1")

	sess := FromHeaders(h)
	require.NotNil(t, sess)
	require.Equal(t, "defaultClient", sess.ClientCode)
	require.Equal(t, "user-1", sess.UserID)
	require.Empty(t, sess.ServiceName)
}
