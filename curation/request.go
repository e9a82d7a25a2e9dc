package curation

import (
	"errors"
	"fmt"
	"sync"
)

type RequestState string

const (
	RequestIdle      RequestState = "idle"
	RequestInFlight  RequestState = "in_flight"
	RequestSucceeded RequestState = "succeeded"
	RequestFailed    RequestState = "failed"
)

var ErrRequestInFlight = errors.New("a request is already in flight")

// Request is the lifecycle of one kind of user action (generate or save). At most one
// instance of it is outstanding at a time.
type Request struct {
	name  string
	mu    sync.Mutex
	state RequestState
	err   error
}

func NewRequest(name string) *Request {
	return &Request{name: name, state: RequestIdle}
}

func (r *Request) State() RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err is the failure of the last finished attempt.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Begin moves to in_flight from any other state.
func (r *Request) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RequestInFlight {
		return fmt.Errorf("%s: %w", r.name, ErrRequestInFlight)
	}
	r.state = RequestInFlight
	r.err = nil
	return nil
}

// Finish records the outcome of the in-flight attempt.
func (r *Request) Finish(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RequestInFlight {
		return fmt.Errorf("%s: %w: finish from %s", r.name, ErrInvalidTransition, r.state)
	}
	if err != nil {
		r.state = RequestFailed
		r.err = err
		return nil
	}
	r.state = RequestSucceeded
	return nil
}

// Do runs fn as one attempt.
func (r *Request) Do(fn func() error) error {
	if err := r.Begin(); err != nil {
		return err
	}
	err := fn()
	_ = r.Finish(err)
	return err
}
