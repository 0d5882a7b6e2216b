package api

import (
	"context"
	"net/http"
)

// Outcome is the result of one Step: either Continue or Halt.
type Outcome interface {
	outcome()
}

// Continue lets the request proceed with Ctx, which may carry values the
// step resolved.
type Continue struct {
	Ctx context.Context
}

// Halt stops the pipeline. Err is written as the response.
type Halt struct {
	Err *APIError
}

func (Continue) outcome() {}
func (Halt) outcome()     {}

// Step inspects a request and decides whether it may go further.
type Step func(r *http.Request) Outcome

// Pipeline is an ordered list of steps run before a handler.
type Pipeline []Step

// Run executes the steps in order. It returns the request carrying the
// accumulated context and true, or writes the halting error and returns
// false. Steps after a Halt never run.
func (p Pipeline) Run(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	for _, step := range p {
		switch out := step(r).(type) {
		case Continue:
			if out.Ctx != nil {
				r = r.WithContext(out.Ctx)
			}
		case Halt:
			e := out.Err
			if e == nil {
				e = errServer()
			}
			writeError(w, e)
			return r, false
		default:
			writeError(w, errServer())
			return r, false
		}
	}
	return r, true
}

// Then wraps next so it only runs after every step continued.
func (p Pipeline) Then(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, ok := p.Run(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware adapts the pipeline to chi's r.Use / r.With.
func (p Pipeline) Middleware() func(http.Handler) http.Handler {
	return p.Then
}
