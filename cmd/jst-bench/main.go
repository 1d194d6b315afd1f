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

// This binary builds a synthetic reference and event set at a requested
// scale, runs a full windowed traversal under CPU or memory profiling, and
// reports windows-emitted throughput.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/pkg/profile"

	"github.com/vartree/jst/jst"
	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/event"
)

var (
	refLength   = flag.Int("ref_length", 100000, "synthetic reference length in bytes")
	eventCount  = flag.Int("events", 1000, "number of synthetic substitution events to scatter across the reference")
	sampleCount = flag.Int("samples", 64, "number of samples each event's coverage is drawn from")
	window      = flag.Int("window", 31, "context window size")

	mode = flag.String("mode", "cpu", "profiling mode: cpu, mem, or none")
)

func main() {
	flag.Parse()

	switch *mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	case "none":
	default:
		log.Fatalf("unknown -mode %q, want cpu, mem, or none", *mode)
	}

	ref, events := syntheticScenario(*refLength, *eventCount, *sampleCount)
	store, err := event.NewStore(events)
	if err != nil {
		log.Fatalf("Building event store: %v", err)
	}

	start := time.Now()
	tree := jst.Build(ref, store, *sampleCount)
	pipelined, err := tree.WithPipeline(*window)
	if err != nil {
		log.Fatalf("WithPipeline: %v", err)
	}
	windows := pipelined.Windows()
	elapsed := time.Since(start)

	log.Printf("reference=%d events=%d samples=%d window=%d -> %d windows in %s (%.0f windows/sec)",
		*refLength, *eventCount, *sampleCount, *window, len(windows), elapsed, float64(len(windows))/elapsed.Seconds())
}

// syntheticScenario scatters eventCount single-byte substitutions evenly
// across a refLength-byte reference, each covering one sample in round-robin
// order, so every sample carries a distinct subset of events.
func syntheticScenario(refLength, eventCount, sampleCount int) ([]byte, []event.Event) {
	ref := make([]byte, refLength)
	bases := []byte{'A', 'C', 'G', 'T'}
	for i := range ref {
		ref[i] = bases[i%len(bases)]
	}

	events := make([]event.Event, 0, eventCount)
	stride := refLength / (eventCount + 1)
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < eventCount; i++ {
		pos := uint64((i + 1) * stride)
		if int(pos) >= refLength {
			break
		}
		sample := i % sampleCount
		payload := bases[(i+1)%len(bases)]
		events = append(events, event.Event{
			Position: pos,
			Kind:     event.Substitution,
			Length:   1,
			Payload:  []byte{payload},
			Coverage: coverage.FromSamples(sampleCount, []int{sample}),
		})
	}
	return ref, events
}
