// Copyright 2024 The Cockroach Authors
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
//
// SPDX-License-Identifier: Apache-2.0

// Package s3 provides access to files stored in S3-compatible buckets.
package s3

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/mcslender97/textjson/internal/source/textio/bucket"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// DirDelim is the directory delimiter used in S3.
	DirDelim = "/"
)

// Config has the parameters used to connect to S3.
type Config struct {
	AccessKey    string // AWS Access Key
	Bucket       string // The name of the bucket.
	Endpoint     string // Alternative server to use, for other S3 providers.
	Insecure     bool   // For testing against self hosted S3 providers.
	Region       string // Optional bucket region.
	SecretKey    string // Secret associated to the Access Key
	SessionToken string // Optional token for temporary credentials.
}

// s3Access defines the functions we are using to interact with the minio SDK.
// Mainly used for testing to implement a mock component.
type s3Access interface {
	// GetObject returns the content of the named object.
	GetObject(ctx context.Context, bucketName string, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	// ListObjects scans the entries in the bucket.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// New returns a bucket reader backed by a S3 provider.
func New(config *Config) (bucket.Reader, error) {
	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentialsFor(config),
		Region: config.Region,
		Secure: !config.Insecure,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not create client for %s", config.Endpoint)
	}
	return &s3Bucket{
		client: &client{ref: minioClient},
		bucket: config.Bucket,
	}, nil
}

// credentialsFor uses static credentials when an access key was
// provided, or falls back to the environment and the instance
// metadata service.
func credentialsFor(config *Config) *credentials.Credentials {
	if config.AccessKey != "" {
		return credentials.NewStaticV4(config.AccessKey, config.SecretKey, config.SessionToken)
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

type s3Bucket struct {
	client s3Access
	bucket string
}

var _ bucket.Reader = &s3Bucket{}

// Iter implements bucket.Reader
func (b *s3Bucket) Iter(
	ctx context.Context, dir string, f func(string) error, options bucket.IterOptions,
) error {
	// Ensure the object name actually ends with a dir suffix. Otherwise we'll just iterate the
	// object itself as one prefix item.
	if dir != "" && dir != "." {
		dir = strings.TrimSuffix(dir, DirDelim) + DirDelim
	} else {
		dir = ""
	}
	opts := minio.ListObjectsOptions{
		Prefix:    dir,
		Recursive: options.Recursive,
	}
	log.WithField("bucket", b.bucket).Debugf("listing %q", dir)
	for object := range b.client.ListObjects(ctx, b.bucket, opts) {
		if object.Err != nil {
			return classify(object.Err)
		}
		// Skip the directory itself and common prefixes.
		if object.Key == "" || strings.HasSuffix(object.Key, DirDelim) {
			continue
		}
		if err := f(object.Key); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Get implements bucket.Reader
func (b *s3Bucket) Get(ctx context.Context, file string) (io.ReadCloser, error) {
	log.WithField("bucket", b.bucket).Tracef("get %q", file)
	ret, err := b.client.GetObject(ctx, b.bucket, file, minio.GetObjectOptions{})
	return ret, classify(err)
}

// classify marks throttling, server-side and network errors as
// transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return bucket.Transient(err)
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.Code == "SlowDown":
		return bucket.Transient(err)
	default:
		return err
	}
}
