// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package process

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/moov-io/accountprocess/pkg/session"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/mapstructure"
)

// Options controls the dates reported along with a status.
//
// A date set to true is replaced by the time of the call. Any other non-zero
// value (a time.Time, a formatted string) is sent unchanged and zero values
// are left out of the request.
type Options struct {
	StartDate interface{} `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate   interface{} `json:"endDate,omitempty" mapstructure:"endDate"`
}

// Payload is the body sent to the account-process service.
type Payload struct {
	Process   string      `json:"process"`
	Status    Status      `json:"status"`
	Content   interface{} `json:"content,omitempty"`
	StartDate interface{} `json:"startDate,omitempty"`
	EndDate   interface{} `json:"endDate,omitempty"`
}

// validateParams checks every parameter in order and returns the first
// failure. content and options are returned in the form used for the payload.
func validateParams(sess *session.Session, accountID, processName string, status Status, content, options interface{}) (interface{}, *Options, error) {
	if sess == nil {
		return nil, nil, newError(SessionMissing, nil)
	}
	if err := validation.Validate(accountID, validation.Required, is.MongoID); err != nil {
		return nil, nil, newError(InvalidAccountID, err)
	}
	if err := validation.Validate(processName, validation.Required); err != nil {
		return nil, nil, newError(InvalidProcessName, err)
	}
	if err := validation.Validate(status, validation.Required); err != nil {
		return nil, nil, newError(InvalidStatus, err)
	}

	cont, err := readContent(content)
	if err != nil {
		return nil, nil, newError(InvalidContent, err)
	}
	opts, err := readOptions(options)
	if err != nil {
		return nil, nil, newError(InvalidOptions, err)
	}
	return cont, opts, nil
}

func formatRequestData(processName string, status Status, content interface{}, opts *Options, now time.Time) Payload {
	payload := Payload{
		Process: processName,
		Status:  status,
		Content: content,
	}
	if opts != nil {
		payload.StartDate = resolveDate(opts.StartDate, now)
		payload.EndDate = resolveDate(opts.EndDate, now)
	}
	return payload
}

// resolveDate returns nil for values which should not be sent.
func resolveDate(v interface{}, now time.Time) interface{} {
	if v == nil || reflect.ValueOf(v).IsZero() {
		return nil
	}
	if b, ok := v.(bool); ok && b {
		return now
	}
	return v
}

var errNotObject = errors.New("must be an object")

// rawObject returns the JSON object in bs, or nil when bs is empty or null.
func rawObject(bs []byte) (json.RawMessage, error) {
	bs = bytes.TrimSpace(bs)
	if len(bs) == 0 || bytes.Equal(bs, []byte("null")) {
		return nil, nil
	}
	if bs[0] != '{' || !json.Valid(bs) {
		return nil, errNotObject
	}
	return json.RawMessage(bs), nil
}

func readContent(content interface{}) (interface{}, error) {
	switch v := content.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return nilIfEmpty(rawObject(v))
	case []byte:
		return nilIfEmpty(rawObject(v))
	}

	rv := reflect.ValueOf(content)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings, found %s", rv.Type().Key())
		}
		if rv.IsNil() {
			return nil, nil
		}
		return content, nil
	case reflect.Struct:
		return content, nil
	}
	return nil, fmt.Errorf("%T %w", content, errNotObject)
}

// nilIfEmpty keeps an empty json.RawMessage from becoming a non-nil interface.
func nilIfEmpty(raw json.RawMessage, err error) (interface{}, error) {
	if err != nil || raw == nil {
		return nil, err
	}
	return raw, nil
}

func readOptions(options interface{}) (*Options, error) {
	switch v := options.(type) {
	case nil:
		return nil, nil
	case Options:
		return &v, nil
	case *Options:
		return v, nil
	case json.RawMessage:
		return decodeRawOptions(v)
	case []byte:
		return decodeRawOptions(v)
	}

	rv := reflect.ValueOf(options)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%T %w", options, errNotObject)
	}
	if rv.IsNil() {
		return nil, nil
	}
	return decodeOptions(options)
}

func decodeRawOptions(bs []byte) (*Options, error) {
	raw, err := rawObject(bs)
	if err != nil || raw == nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return decodeOptions(m)
}

var optionKeys = []string{"startDate", "endDate"}

// decodeOptions reads the known option keys from a string keyed map. Keys
// must match exactly, anything else is ignored.
func decodeOptions(input interface{}) (*Options, error) {
	rv := reflect.ValueOf(input)
	known := make(map[string]interface{}, len(optionKeys))
	for _, key := range optionKeys {
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if v.IsValid() {
			known[key] = v.Interface()
		}
	}

	opts := &Options{}
	if err := mapstructure.Decode(known, opts); err != nil {
		return nil, fmt.Errorf("unable to read options: %v", err)
	}
	return opts, nil
}
