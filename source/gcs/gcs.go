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

// Package gcs implements a source.Loader that reads a reference+event
// manifest from a single Google Cloud Storage object. It mirrors
// api.NewPublicClient/api.NewClientFromBearerToken's split between anonymous
// and bearer-token access, but serves the jst core's manifest format rather
// than genomic read blocks.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/vartree/jst/event"
	"github.com/vartree/jst/source"
)

// Loader is a source.Loader backed by a single GCS object holding a JSON
// source.Manifest.
type Loader struct {
	client *storage.Client
	bucket string
	object string

	once     sync.Once
	manifest *source.Manifest
	loadErr  error
}

// NewPublicLoader returns a Loader that reads bucket/object using anonymous,
// unauthenticated requests. It can only read publicly-readable objects.
func NewPublicLoader(ctx context.Context, bucket, object string) (*Loader, error) {
	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("creating public storage client: %v", err)
	}
	return &Loader{client: client, bucket: bucket, object: object}, nil
}

// NewLoaderWithBearerToken returns a Loader that authenticates its requests
// with the given OAuth2 bearer token, mirroring
// api.NewClientFromBearerToken's token-source wiring.
func NewLoaderWithBearerToken(ctx context.Context, bucket, object, token string) (*Loader, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Bearer", AccessToken: token})
	client, err := storage.NewClient(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating storage client with token source: %v", err)
	}
	return &Loader{client: client, bucket: bucket, object: object}, nil
}

func (l *Loader) load(ctx context.Context) (*source.Manifest, error) {
	l.once.Do(func() {
		r, err := l.client.Bucket(l.bucket).Object(l.object).NewReader(ctx)
		if err != nil {
			l.loadErr = fmt.Errorf("opening gs://%s/%s: %v", l.bucket, l.object, err)
			return
		}
		defer r.Close()

		body, err := io.ReadAll(r)
		if err != nil {
			l.loadErr = fmt.Errorf("reading gs://%s/%s: %v", l.bucket, l.object, err)
			return
		}

		var m source.Manifest
		if err := json.Unmarshal(body, &m); err != nil {
			l.loadErr = fmt.Errorf("decoding manifest gs://%s/%s: %v", l.bucket, l.object, err)
			return
		}
		l.manifest = &m
	})
	return l.manifest, l.loadErr
}

// LoadReference implements source.Loader.
func (l *Loader) LoadReference(ctx context.Context) ([]byte, error) {
	m, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(m.Reference), nil
}

// LoadEvents implements source.Loader.
func (l *Loader) LoadEvents(ctx context.Context) ([]event.Event, error) {
	m, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return m.ToEvents()
}

// SampleCount implements source.Loader.
func (l *Loader) SampleCount(ctx context.Context) (int, error) {
	m, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	return m.SampleCount, nil
}
