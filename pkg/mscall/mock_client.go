// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package mscall

import (
	"context"
	"sync"

	"github.com/moov-io/accountprocess/pkg/session"
)

type MockClient struct {
	Response *Response
	Err      error

	mu    sync.Mutex
	calls []Call
}

func (c *MockClient) Ping() error {
	return c.Err
}

func (c *MockClient) SafeCall(_ context.Context, _ *session.Session, call Call) (*Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	return c.Response, nil
}

// Calls returns every Call received so far.
func (c *MockClient) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}
