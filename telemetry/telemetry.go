// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry accumulates per-request traversal statistics the same
// way analytics accumulates per-request analytics hits: a context-scoped
// slice built up during the request, flushed once the handler returns.
// Instead of uploading hits to Google Analytics, the accumulated counts are
// handed to a caller-supplied flush function; cmd/jst-server's flush logs
// them (bytes served, windows emitted, positions resolved) via the standard
// log package.
package telemetry

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Stat is a single named count recorded during a request, e.g. "nodes
// visited" or "windows emitted".
type Stat struct {
	Name  string
	Count int
}

type contextKey int

const statsKey contextKey = 1

// requestState is the per-request accumulator stored in the context.
type requestState struct {
	traceID string
	stats   []Stat
}

// TrackingHandler wraps handler, preparing the request's context for use
// with Recorder and invoking flush with the accumulated stats and a trace
// ID once the handler completes.
func TrackingHandler(handler http.Handler, flush func(traceID string, stats []Stat)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		state := &requestState{traceID: uuid.New().String()}
		ctx := context.WithValue(req.Context(), statsKey, state)
		handler.ServeHTTP(w, req.WithContext(ctx))
		flush(state.traceID, state.stats)
	})
}

// Recorder returns a function that appends a named count to the request's
// accumulated stats. Outside of a TrackingHandler-wrapped request, the
// returned function is a no-op.
func Recorder(ctx context.Context) func(name string, count int) {
	if state, ok := ctx.Value(statsKey).(*requestState); ok {
		return func(name string, count int) {
			state.stats = append(state.stats, Stat{Name: name, Count: count})
		}
	}
	return func(string, int) {}
}

// TraceID returns the trace ID stamped on ctx by TrackingHandler, or the
// empty string outside of a tracked request.
func TraceID(ctx context.Context) string {
	if state, ok := ctx.Value(statsKey).(*requestState); ok {
		return state.traceID
	}
	return ""
}
