// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package process

import (
	"fmt"
)

// Code identifies why a request was refused before reaching the remote service.
type Code int

const (
	SessionMissing Code = iota + 1
	InvalidAccountID
	InvalidProcessName
	InvalidStatus
	InvalidContent
	InvalidOptions
	ServiceNameMissing
)

var codeMessages = map[Code]string{
	SessionMissing:     "no session found",
	InvalidAccountID:   "invalid account id",
	InvalidProcessName: "invalid process name",
	InvalidStatus:      "invalid status",
	InvalidContent:     "invalid content",
	InvalidOptions:     "invalid options",
	ServiceNameMissing: "calling service name is missing",
}

func (c Code) String() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is returned by Sender when a request can not be built.
// Errors are matched by Code, so errors.Is(err, ErrInvalidStatus) holds
// for any Error carrying the InvalidStatus code.
type Error struct {
	Code Code
	Err  error
}

var (
	ErrSessionMissing     = &Error{Code: SessionMissing}
	ErrInvalidAccountID   = &Error{Code: InvalidAccountID}
	ErrInvalidProcessName = &Error{Code: InvalidProcessName}
	ErrInvalidStatus      = &Error{Code: InvalidStatus}
	ErrInvalidContent     = &Error{Code: InvalidContent}
	ErrInvalidOptions     = &Error{Code: InvalidOptions}
	ErrServiceNameMissing = &Error{Code: ServiceNameMissing}
)

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
