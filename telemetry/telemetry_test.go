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

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrackingHandlerFlushesRecordedStats(t *testing.T) {
	var gotTraceID string
	var gotStats []Stat

	inner := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		record := Recorder(req.Context())
		record("nodes visited", 3)
		record("windows emitted", 1)
	})
	handler := TrackingHandler(inner, func(traceID string, stats []Stat) {
		gotTraceID = traceID
		gotStats = stats
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotTraceID == "" {
		t.Fatalf("flush received empty trace ID")
	}
	if len(gotStats) != 2 {
		t.Fatalf("flush received %d stats, want 2", len(gotStats))
	}
	if gotStats[0].Name != "nodes visited" || gotStats[0].Count != 3 {
		t.Fatalf("gotStats[0] = %+v, want {nodes visited 3}", gotStats[0])
	}
}

func TestRecorderOutsideTrackedRequestIsNoOp(t *testing.T) {
	record := Recorder(context.Background())
	record("should not panic", 1)
	if got := TraceID(context.Background()); got != "" {
		t.Fatalf("TraceID() = %q, want empty string outside of a tracked request", got)
	}
}
