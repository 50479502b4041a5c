// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package process

import (
	"context"
	"strings"
	"time"

	"github.com/moov-io/accountprocess/pkg/mscall"
	"github.com/moov-io/accountprocess/pkg/session"

	"github.com/moov-io/base/log"
)

const (
	serviceName      = "commerce"
	serviceNamespace = "account-process"
	serviceMethod    = "update"
)

// Caller performs the remote call to the account-process service.
// mscall.Client satisfies it.
type Caller interface {
	SafeCall(ctx context.Context, sess *session.Session, call mscall.Call) (*mscall.Response, error)
}

// Sender reports process statuses of accounts to the commerce service.
type Sender struct {
	logger      log.Logger
	caller      Caller
	serviceName string

	now func() time.Time
}

// NewSender returns a Sender which identifies itself as callingService on
// every request.
func NewSender(logger log.Logger, caller Caller, callingService string) (*Sender, error) {
	callingService = strings.TrimSpace(callingService)
	if callingService == "" {
		return nil, newError(ServiceNameMissing, nil)
	}
	return &Sender{
		logger:      logger.Set("package", log.String("process")),
		caller:      caller,
		serviceName: callingService,
		now:         time.Now,
	}, nil
}

// Send reports that accountID reached status in processName.
//
// content is optional extra data and must be a JSON object when set. options
// holds the startDate and endDate for the report, see Options.
//
// Requests which fail validation return an *Error and nothing is sent. The
// commerce response is returned as received, including non-2xx statuses.
// Errors from the remote call are returned unchanged.
func (s *Sender) Send(ctx context.Context, sess *session.Session, accountID, processName string, status Status, content, options interface{}) (*mscall.Response, error) {
	cont, opts, err := validateParams(sess, accountID, processName, status, content, options)
	if err != nil {
		return nil, err
	}

	resp, err := s.caller.SafeCall(ctx, sess.WithServiceName(s.serviceName), mscall.Call{
		Service:   serviceName,
		Namespace: serviceNamespace,
		Method:    serviceMethod,
		Body:      formatRequestData(processName, status, cont, opts, s.now()),
		Params:    map[string]string{"id": accountID},
	})
	if err != nil {
		s.logger.Set("accountID", log.String(accountID)).LogErrorf("problem sending %s status of %s: %v", status, processName, err)
		return nil, err
	}
	if resp != nil && !resp.OK() {
		s.logger.Set("accountID", log.String(accountID)).Logf("%s status of %s got response status %d", status, processName, resp.StatusCode)
	}
	return resp, nil
}
