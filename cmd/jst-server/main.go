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

// This binary serves a journaled sequence tree over HTTP, backed either by
// a local manifest directory or a GCS manifest object.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vartree/jst/jst"
	"github.com/vartree/jst/journal"
	"github.com/vartree/jst/source"
	"github.com/vartree/jst/source/file"
	"github.com/vartree/jst/source/gcs"
	"github.com/vartree/jst/telemetry"
)

var (
	port = flag.Int("port", 8080, "HTTP service port")

	directory = flag.String("directory", "", "directory containing a manifest.json")
	gcsBucket = flag.String("gcs-bucket", "", "GCS bucket holding the manifest object")
	gcsObject = flag.String("gcs-object", "manifest.json", "GCS object name within -gcs-bucket")

	trackUsage = flag.Bool("track_usage", false, "log aggregate per-request traversal stats")
	debugCheck = flag.Bool("debug_checks", true, "run O(n) journal invariant checks on every mutation")
)

func main() {
	flag.Parse()
	journal.Debug = *debugCheck

	loader, err := newLoader(context.Background())
	if err != nil {
		log.Fatalf("Configuring source: %v", err)
	}

	tree, err := buildTree(loader)
	if err != nil {
		log.Fatalf("Building tree: %v", err)
	}

	router := gin.Default()
	router.GET("/sequence/:sample", newSequenceHandler(tree))
	router.GET("/contexts", newContextsHandler(tree))
	router.GET("/positions/:coordinate", newPositionsHandler(tree))

	handler := http.Handler(router)
	if *trackUsage {
		log.Printf("Enabling aggregate usage tracking")
		handler = telemetry.TrackingHandler(handler, func(traceID string, stats []telemetry.Stat) {
			log.Printf("request %s: %v", traceID, stats)
		})
	}

	address := ":" + strconv.Itoa(*port)
	if err := http.ListenAndServe(address, handler); err != nil {
		log.Fatalf("HTTP server returned an error: %v", err)
	}
}

func newLoader(ctx context.Context) (source.Loader, error) {
	switch {
	case *directory != "":
		return file.New(*directory), nil
	case *gcsBucket != "":
		return gcs.NewPublicLoader(ctx, *gcsBucket, *gcsObject)
	default:
		log.Fatalf("You must specify either -directory or -gcs-bucket.")
		return nil, nil
	}
}

func buildTree(loader source.Loader) (*jst.Tree, error) {
	ctx := context.Background()

	ref, err := loader.LoadReference(ctx)
	if err != nil {
		return nil, err
	}
	events, err := loader.LoadEvents(ctx)
	if err != nil {
		return nil, err
	}
	n, err := loader.SampleCount(ctx)
	if err != nil {
		return nil, err
	}

	store, err := eventStore(events)
	if err != nil {
		return nil, err
	}
	return jst.Build(ref, store, n), nil
}
