// Copyright 2017 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package internal contains functionality that is only accessible from within the Admin SDK.
package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"google.golang.org/api/option"
	transport "google.golang.org/api/transport/http"
)

// Entity represents a request body capable of serializing itself and
// declaring its own content type.
type Entity interface {
	Bytes() ([]byte, error)
	Mime() string
}

type jsonEntity struct {
	data interface{}
}

func (e *jsonEntity) Bytes() ([]byte, error) {
	return json.Marshal(e.data)
}

func (e *jsonEntity) Mime() string {
	return "application/json"
}

// NewJSONEntity wraps an arbitrary value as a JSON request Entity.
func NewJSONEntity(data interface{}) Entity {
	return &jsonEntity{data: data}
}

// HTTPOption mutates an outgoing *http.Request before it is sent.
type HTTPOption func(*http.Request)

// WithHeader sets a single header on the outgoing request.
func WithHeader(key, value string) HTTPOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithQueryParam adds a single query string parameter.
func WithQueryParam(key, value string) HTTPOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		q.Add(key, value)
		r.URL.RawQuery = q.Encode()
	}
}

// WithQueryParams adds a set of query string parameters.
func WithQueryParams(qp map[string]string) HTTPOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		for k, v := range qp {
			q.Add(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
}

// Request describes an outgoing HTTP call.
type Request struct {
	Method string
	URL    string
	Body   Entity
	Opts   []HTTPOption

	// SuccessFn and CreateErrFn, when set, override the HTTPClient-level
	// defaults of the same name for this Request only.
	SuccessFn   func(*Response) bool
	CreateErrFn func(*Response) error
}

func (r *Request) buildHTTPRequest() (*http.Request, error) {
	var body io.Reader
	var mime string
	if r.Body != nil {
		b, err := r.Body.Bytes()
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		mime = r.Body.Mime()
	}

	req, err := http.NewRequest(r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	if mime != "" {
		req.Header.Set("Content-Type", mime)
	}
	for _, opt := range r.Opts {
		opt(req)
	}
	return req, nil
}

// Response is the parsed result of an HTTP call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	lowLevel *http.Response
}

// LowLevelResponse exposes the underlying *http.Response for diagnostics.
// Its Body is an independently re-readable copy of Response.Body.
func (r *Response) LowLevelResponse() *http.Response {
	return r.lowLevel
}

// CheckStatus reports an error built by NewFirebaseErrorOnePlatform unless
// the response status equals want.
func (r *Response) CheckStatus(want int) error {
	if r.Status == want {
		return nil
	}
	return NewFirebaseErrorOnePlatform(r)
}

// Unmarshal checks the response status against want, then unmarshals the
// JSON body into v.
func (r *Response) Unmarshal(want int, v interface{}) error {
	if err := r.CheckStatus(want); err != nil {
		return err
	}
	return json.Unmarshal(r.Body, v)
}

// HasSuccessStatus reports whether resp carries a 2xx status code. It is
// the default SuccessFn used by HTTPClient when none is configured.
func HasSuccessStatus(resp *Response) bool {
	return resp.Status >= http.StatusOK && resp.Status < http.StatusMultipleChoices
}

// RetryConfig specifies how HTTPClient.Do retries a Request that fails with
// a retry-eligible network error or HTTP status code.
type RetryConfig struct {
	// MaxRetries caps the number of retry attempts (not counting the
	// initial attempt).
	MaxRetries int

	// ExpBackoffFactor scales the exponential backoff delay between
	// attempts. A value of 0 disables the exponential component (delay
	// is then governed solely by any Retry-After header).
	ExpBackoffFactor float64

	// MaxDelay caps the delay between retries. A Retry-After value that
	// exceeds MaxDelay aborts the retry entirely, rather than being
	// clamped, since honoring a shorter wait than the server asked for
	// can make an outage worse.
	MaxDelay *time.Duration

	// CheckForRetry, when set, marks additional HTTP statuses (beyond the
	// standard 500-511 server-error range) as retry-eligible.
	CheckForRetry func(resp *http.Response) bool
}

// retryEligible reports whether another attempt should be made, ignoring
// delay/backoff considerations.
func (rc *RetryConfig) retryEligible(attempt int, resp *http.Response, err error) bool {
	if rc == nil || attempt >= rc.MaxRetries {
		return false
	}
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode <= http.StatusNetworkAuthenticationRequired {
		return true
	}
	if rc.CheckForRetry != nil {
		return rc.CheckForRetry(resp)
	}
	return false
}

// backoffDelay returns the exponential backoff component for the given
// attempt number. The first attempt (0) never waits; delay doubles on each
// subsequent attempt, scaled by ExpBackoffFactor.
func (rc *RetryConfig) backoffDelay(attempt int) time.Duration {
	if attempt <= 0 || rc.ExpBackoffFactor == 0 {
		return 0
	}
	seconds := rc.ExpBackoffFactor * math.Pow(2, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

// retryDelay reports how long to wait before the next attempt, and whether
// a retry should be attempted at all. A Retry-After header takes precedence
// over the exponential backoff delay, except that it aborts the retry
// (rather than being capped) when it alone exceeds MaxDelay.
func (rc *RetryConfig) retryDelay(attempt int, resp *http.Response, err error) (time.Duration, bool) {
	if !rc.retryEligible(attempt, resp, err) {
		return 0, false
	}

	delay := rc.backoffDelay(attempt)
	if resp != nil {
		if headerDelay, ok := parseRetryAfter(resp.Header); ok {
			if rc.MaxDelay != nil && headerDelay > *rc.MaxDelay {
				return 0, false
			}
			if headerDelay > delay {
				delay = headerDelay
			}
			return delay, true
		}
	}
	if rc.MaxDelay != nil && delay > *rc.MaxDelay {
		delay = *rc.MaxDelay
	}
	return delay, true
}

// retryTimeClock is consulted when interpreting an HTTP-date Retry-After
// header. Tests may override it with a fixed clock.
var retryTimeClock Clock = SystemClock{}

// MockClock is a Clock that always reports a fixed time, for tests.
type MockClock struct {
	Timestamp time.Time
}

// Now returns the fixed time the MockClock was built with.
func (c *MockClock) Now() time.Time {
	return c.Timestamp
}

func parseRetryAfter(header http.Header) (time.Duration, bool) {
	v := header.Get("retry-after")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := time.Parse(http.TimeFormat, v); err == nil {
		d := t.Sub(retryTimeClock.Now())
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// attemptResult carries the delay to observe before the next retry attempt.
type attemptResult struct {
	delay time.Duration
}

// waitForRetry blocks for the configured delay, or returns ctx.Err() if ctx
// is cancelled first.
func (a *attemptResult) waitForRetry(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.delay):
		return nil
	}
}

// HTTPClient wraps a *http.Client with request/response plumbing common to
// every Identity Toolkit call: header injection, retry, success-status
// classification, and error translation.
type HTTPClient struct {
	Client *http.Client

	// Opts are applied to every outgoing request, ahead of per-call opts.
	Opts []HTTPOption

	// SuccessFn classifies a Response as successful. When nil, Do performs
	// no status-based classification at all and simply returns the raw
	// Response; callers are expected to use Response.CheckStatus or
	// Response.Unmarshal themselves. Retry eligibility based on status
	// code is independent of SuccessFn.
	SuccessFn func(*Response) bool

	// CreateErrFn builds the error returned for a Response that SuccessFn
	// rejected. Defaults to NewFirebaseErrorOnePlatform when nil.
	CreateErrFn func(*Response) error

	// RetryConfig governs retry behavior for network errors and
	// retry-eligible HTTP statuses. A nil RetryConfig disables retries.
	RetryConfig *RetryConfig
}

// NewHTTPClient builds an HTTPClient backed by an authenticated transport
// constructed from opts, along with the resolved API endpoint. It installs
// a default RetryConfig (exponential backoff, plus 429 as an additional
// retry-eligible status).
func NewHTTPClient(ctx context.Context, opts ...option.ClientOption) (*HTTPClient, string, error) {
	httpClient, endpoint, err := transport.NewClient(ctx, opts...)
	if err != nil {
		return nil, "", err
	}
	return &HTTPClient{
		Client: httpClient,
		RetryConfig: &RetryConfig{
			MaxRetries:       4,
			ExpBackoffFactor: 0.5,
			CheckForRetry: func(resp *http.Response) bool {
				return resp.StatusCode == http.StatusTooManyRequests
			},
		},
	}, endpoint, nil
}

type timeouter interface {
	Timeout() bool
}

func classifyNetworkError(err error) *FirebaseError {
	if te, ok := err.(timeouter); ok && te.Timeout() {
		return wrapError(&FirebaseError{
			ErrorCode: DeadlineExceeded,
			Code:      string(DeadlineExceeded),
			String:    fmt.Sprintf("timed out while making an http call: %v", err),
			Ext:       make(map[string]interface{}),
		}, err)
	}

	if isConnectionError(err) {
		return wrapError(&FirebaseError{
			ErrorCode: Unavailable,
			Code:      string(Unavailable),
			String:    fmt.Sprintf("failed to establish a connection: %v", err),
			Ext:       make(map[string]interface{}),
		}, err)
	}

	return wrapError(&FirebaseError{
		ErrorCode: Unknown,
		Code:      string(Unknown),
		String:    fmt.Sprintf("unknown error while making an http call: %v", err),
		Ext:       make(map[string]interface{}),
	}, err)
}

func isConnectionError(err error) bool {
	if strings.Contains(err.Error(), syscall.ECONNREFUSED.Error()) {
		return true
	}
	if ue, ok := err.(*url.Error); ok {
		err = ue.Err
	}
	for {
		opErr, ok := err.(*net.OpError)
		if !ok {
			return false
		}
		if opErr.Op == "dial" || opErr.Op == "read" {
			return true
		}
		err = opErr.Err
	}
}

// Do sends req, retrying as configured by c.RetryConfig on transport errors,
// response-read errors, and retry-eligible statuses, and returns the
// resulting Response. Transport-level errors (failed connections, timeouts)
// are always translated into a classified *FirebaseError. Status-code based
// classification only happens when a SuccessFn is configured (on the client
// or the request); otherwise the raw Response is returned regardless of its
// status, leaving CheckStatus/Unmarshal to classify it.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.buildHTTPRequest()
	if err != nil {
		return nil, err
	}

	opts := append(append([]HTTPOption{}, c.Opts...), req.Opts...)
	for _, opt := range opts {
		opt(httpReq)
	}

	var transportErr, readErr error
	var lowLevel *http.Response
	var body []byte

	for attempt := 0; ; attempt++ {
		sendReq := httpReq
		if attempt > 0 {
			sendReq, err = req.buildHTTPRequest()
			if err != nil {
				return nil, err
			}
			for _, opt := range opts {
				opt(sendReq)
			}
		}

		transportErr, readErr, lowLevel, body = nil, nil, nil, nil

		resp, doErr := c.Client.Do(sendReq.WithContext(ctx))
		if doErr != nil {
			transportErr = doErr
		} else {
			b, rErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if rErr != nil {
				readErr = rErr
			} else {
				resp.Body = io.NopCloser(bytes.NewReader(b))
				lowLevel = resp
				body = b
				if !c.RetryConfig.retryEligible(attempt, resp, nil) {
					return c.classify(req, &Response{Status: resp.StatusCode, Header: resp.Header, Body: body, lowLevel: lowLevel})
				}
			}
		}

		var delay time.Duration
		var retry bool
		switch {
		case transportErr != nil:
			delay, retry = c.RetryConfig.retryDelay(attempt, nil, transportErr)
		case readErr != nil:
			delay, retry = c.RetryConfig.retryDelay(attempt, nil, readErr)
		default:
			delay, retry = c.RetryConfig.retryDelay(attempt, lowLevel, nil)
		}
		if !retry {
			break
		}
		if werr := (&attemptResult{delay: delay}).waitForRetry(ctx); werr != nil {
			return nil, werr
		}
	}

	switch {
	case transportErr != nil:
		return nil, classifyNetworkError(transportErr)
	case readErr != nil:
		return nil, fmt.Errorf("error while making http call: %v", readErr)
	default:
		return c.classify(req, &Response{Status: lowLevel.StatusCode, Header: lowLevel.Header, Body: body, lowLevel: lowLevel})
	}
}

// classify applies SuccessFn/CreateErrFn (request-level taking precedence
// over client-level) to resp.
func (c *HTTPClient) classify(req *Request, resp *Response) (*Response, error) {
	success := req.SuccessFn
	if success == nil {
		success = c.SuccessFn
	}
	if success == nil {
		return resp, nil
	}
	if success(resp) {
		return resp, nil
	}

	createErr := req.CreateErrFn
	if createErr == nil {
		createErr = c.CreateErrFn
	}
	if createErr == nil {
		createErr = func(r *Response) error { return NewFirebaseErrorOnePlatform(r) }
	}
	return nil, createErr(resp)
}

// DoAndUnmarshal sends req, fails with a translated error on a transport
// failure or a non-successful response (per SuccessFn/CreateErrFn), and
// otherwise unmarshals the JSON body into v (when non-nil).
func (c *HTTPClient) DoAndUnmarshal(ctx context.Context, req *Request, v interface{}) (*Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if v != nil {
		if len(resp.Body) == 0 {
			return nil, Errorf(string(Internal), "unexpected response with an empty body")
		}
		if err := json.Unmarshal(resp.Body, v); err != nil {
			return nil, fmt.Errorf("error while parsing response: %v", err)
		}
	}
	return resp, nil
}
