// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Snapshotter uploads journal snapshots to a Google Cloud Storage
// bucket for off-host backup
type Snapshotter struct {
	client          *storage.Client
	bucket          *storage.BucketHandle
	bucketName      string
	credentialsFile string
}

// SnapshotterOptionFunc is a type representing functional Snapshotter
// options
type SnapshotterOptionFunc func(*Snapshotter)

// WithBucket sets the destination bucket
func WithBucket(bucketName string) SnapshotterOptionFunc {
	return func(s *Snapshotter) {
		s.bucketName = bucketName
	}
}

// WithCredentialsFile sets an explicit service account credentials file.
// Application default credentials are used when unset.
func WithCredentialsFile(credentialsFile string) SnapshotterOptionFunc {
	return func(s *Snapshotter) {
		s.credentialsFile = credentialsFile
	}
}

// NewSnapshotter creates a Snapshotter using options
func NewSnapshotter(opts ...SnapshotterOptionFunc) (*Snapshotter, error) {
	s := &Snapshotter{}
	for _, opt := range opts {
		opt(s)
	}
	if s.bucketName == "" {
		return nil, errors.New("snapshot: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var clientOpts []option.ClientOption
	clientOpts = append(clientOpts, storage.WithDisabledClientMetrics())
	if s.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(s.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf(
			"snapshot: failed in creating storage client: %w",
			err,
		)
	}
	s.client = client
	s.bucket = client.Bucket(s.bucketName)
	return s, nil
}

// Close closes the GCS client
func (s *Snapshotter) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Snapshot streams a full journal backup into a timestamped object in
// the configured bucket and returns the object name
func (s *Snapshotter) Snapshot(
	ctx context.Context,
	db *Database,
) (string, error) {
	objectName := fmt.Sprintf(
		"journal-%s.bak",
		time.Now().UTC().Format("20060102T150405Z"),
	)
	writer := s.bucket.Object(objectName).NewWriter(ctx)
	if _, err := db.Journal().Backup(writer, 0); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("snapshot: journal backup failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("snapshot: object write failed: %w", err)
	}
	return objectName, nil
}
