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

package memory

import (
	"context"
	"testing"

	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/event"
)

func TestLoaderReturnsConstructedValues(t *testing.T) {
	cov := coverage.FromSamples(2, []int{0})
	events := []event.Event{{Position: 1, Kind: event.Substitution, Length: 1, Payload: []byte("T"), Coverage: cov}}
	l := New([]byte("ACGT"), events, 2)
	ctx := context.Background()

	ref, err := l.LoadReference(ctx)
	if err != nil {
		t.Fatalf("LoadReference() = %v", err)
	}
	if got, want := string(ref), "ACGT"; got != want {
		t.Fatalf("LoadReference() = %q, want %q", got, want)
	}

	got, err := l.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("LoadEvents() returned %d events, want 1", len(got))
	}

	n, err := l.SampleCount(ctx)
	if err != nil {
		t.Fatalf("SampleCount() = %v", err)
	}
	if n != 2 {
		t.Fatalf("SampleCount() = %d, want 2", n)
	}
}
