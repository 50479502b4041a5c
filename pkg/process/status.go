// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package process

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state reported for an account's process.
type Status int

const (
	// StatusPending is reported when the process is registered but not started.
	StatusPending Status = iota + 1
	// StatusProcessing is reported while the process runs.
	StatusProcessing
	// StatusSuccess is reported when the process finished correctly.
	StatusSuccess
	// StatusError is reported when the process finished with a failure.
	StatusError
)

var (
	statusStrings = []string{"pending", "processing", "success", "error"}
)

// Statuses returns every valid Status in its reporting order.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusSuccess, StatusError}
}

// Validate returns an error when the Status is not one of the known values.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusProcessing, StatusSuccess, StatusError:
		return nil
	default:
		return fmt.Errorf("Status(%d) is invalid", s)
	}
}

func (s Status) String() string {
	if s < StatusPending || s > StatusError {
		return "unknown"
	}
	return statusStrings[int(s)-1]
}

func (s Status) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	s.fromString(str)
	return s.Validate()
}

func (s *Status) fromString(str string) {
	for i := range statusStrings {
		if str == statusStrings[i] {
			*s = Status(i + 1)
			return
		}
	}
	*s = Status(-1)
}

// LiftStatus will attempt to return an enum value of Status after reading
// the string value.
func LiftStatus(str string) (*Status, error) {
	var s Status
	s.fromString(str)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
