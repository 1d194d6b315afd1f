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

package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vartree/jst/jst"
	"github.com/vartree/jst/event"
	"github.com/vartree/jst/telemetry"
	"github.com/vartree/jst/tree"
)

func eventStore(events []event.Event) (*event.Store, error) {
	return event.NewStore(events)
}

// newSequenceHandler returns a handler for GET /sequence/:sample?from=&to=,
// which serves SequenceRangeAt as a raw byte response.
func newSequenceHandler(tree *jst.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		sample, err := strconv.Atoi(c.Param("sample"))
		if err != nil {
			c.String(400, "invalid sample id")
			return
		}
		from, err := strconv.ParseUint(c.DefaultQuery("from", "0"), 10, 64)
		if err != nil {
			c.String(400, "invalid from")
			return
		}
		to, err := strconv.ParseUint(c.Query("to"), 10, 64)
		if err != nil {
			c.String(400, "invalid to")
			return
		}

		seq, err := tree.SequenceRangeAt(sample, from, to)
		if err != nil {
			c.String(400, "%v", err)
			return
		}
		telemetry.Recorder(c.Request.Context())("bytes served", len(seq))
		c.Data(200, "application/octet-stream", seq)
	}
}

// newContextsHandler returns a handler for GET /contexts?window=N, which
// streams every distinct window the pipelined tree produces as
// newline-delimited JSON.
func newContextsHandler(tree *jst.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := strconv.Atoi(c.DefaultQuery("window", "0"))
		if err != nil || w <= 0 {
			c.String(400, "invalid window")
			return
		}

		pipelined, err := tree.WithPipeline(w)
		if err != nil {
			c.String(400, "%v", err)
			return
		}

		record := telemetry.Recorder(c.Request.Context())
		c.Status(200)
		c.Header("Content-Type", "application/x-ndjson")

		enumerator := pipelined.ContextEnumerator()
		var emitted int
		for {
			window, ok := enumerator.Next()
			if !ok {
				break
			}
			emitted++
			line, err := json.Marshal(struct {
				Bytes     string `json:"bytes"`
				Reference uint64 `json:"reference_position"`
				Label     int    `json:"label"`
				Samples   []int  `json:"samples"`
			}{
				Bytes:     string(window.Bytes),
				Reference: window.Coordinate.ReferencePosition,
				Label:     window.Coordinate.Label,
				Samples:   window.Coverage.Samples(),
			})
			if err != nil {
				continue
			}
			c.Writer.Write(line)
			c.Writer.Write([]byte("\n"))
		}
		record("windows emitted", emitted)
	}
}

// newPositionsHandler returns a handler for GET
// /positions/:coordinate?window=N, which resolves a coordinate previously
// handed out by /contexts?window=N back into the derived-sequence offset
// it occupies in every sample whose path passes through it. :coordinate is
// encoded "<reference_position>-<label>", matching the reference_position
// and label fields /contexts emits. window must be the same window size
// that produced the coordinate: a coordinate is only meaningful against
// the pipelined tree that produced it (see PipelinedTree.SequencePositionsAt).
func newPositionsHandler(t *jst.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		coord, err := parseCoordinate(c.Param("coordinate"))
		if err != nil {
			c.String(400, "invalid coordinate: %v", err)
			return
		}
		w, err := strconv.Atoi(c.Query("window"))
		if err != nil || w <= 0 {
			c.String(400, "invalid window")
			return
		}

		pipelined, err := t.WithPipeline(w)
		if err != nil {
			c.String(400, "%v", err)
			return
		}

		positions, err := pipelined.SequencePositionsAt(coord)
		if err != nil {
			c.String(404, "%v", err)
			return
		}

		record := telemetry.Recorder(c.Request.Context())
		record("positions resolved", len(positions))

		out := make([]struct {
			Sample int `json:"sample"`
			Offset int `json:"offset"`
		}, len(positions))
		for i, p := range positions {
			out[i].Sample = p.Sample
			out[i].Offset = p.Offset
		}
		c.JSON(200, out)
	}
}

func parseCoordinate(s string) (tree.Coordinate, error) {
	ref, label, ok := strings.Cut(s, "-")
	if !ok {
		return tree.Coordinate{}, &coordinateFormatError{s}
	}
	refPos, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return tree.Coordinate{}, err
	}
	lbl, err := strconv.Atoi(label)
	if err != nil {
		return tree.Coordinate{}, err
	}
	return tree.Coordinate{ReferencePosition: refPos, Label: lbl}, nil
}

type coordinateFormatError struct{ value string }

func (e *coordinateFormatError) Error() string {
	return "expected \"<reference_position>-<label>\", got " + e.value
}
