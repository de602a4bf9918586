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

package textio

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mcslender97/textjson/internal/source/textio/providers/local"
	"github.com/mcslender97/textjson/internal/source/textio/providers/s3"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var (
	defaultRetryInitialInterval = 100 * time.Millisecond
	defaultRetryMaxTime         = 30 * time.Second
)

// Provider identifies the type of storage holding the input files.
//
//go:generate go run golang.org/x/tools/cmd/stringer -type=Provider -linecomment
type Provider int

const (
	// UnknownStorage identifies other storage not currently supported.
	UnknownStorage Provider = iota // unknown
	// LocalStorage identifies files on the local filesystem.
	LocalStorage // file
	// S3Storage identifies files in an AWS S3 (or compatible) bucket.
	S3Storage // s3
	// GCSStorage identifies files in a Google Cloud Storage bucket,
	// accessed through the S3-compatible XML API.
	GCSStorage // gs
)

// Providers maps a URL scheme to a Provider.
var Providers = map[string]Provider{
	"":     LocalStorage,
	"file": LocalStorage,
	"gs":   GCSStorage,
	"s3":   S3Storage,
}

const gcsEndpoint = "https://storage.googleapis.com"

// Config contains the configuration necessary for reading the input
// files.
type Config struct {
	BufferSize           int
	InputFilePattern     string
	RetryInitialInterval time.Duration
	RetryMaxTime         time.Duration

	// The following are computed.
	base     string // The longest prefix of the pattern free of metacharacters.
	glob     string // The remainder of the pattern, relative to base.
	local    *local.Config
	provider Provider
	s3       *s3.Config
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.IntVar(&c.BufferSize, "bufferSize", 0,
		"if positive, the maximum length in bytes of a line in the input files; "+
			"longer lines are rejected as too_long parse errors")
	f.StringVar(&c.InputFilePattern, "inputFilePattern", "",
		"the file pattern to read records from (e.g. gs://bucket/file-*.json, s3://bucket/**/*.json, /data/*.json)")
	f.DurationVar(&c.RetryInitialInterval, "retryInitial", defaultRetryInitialInterval,
		"initial time to wait before retrying a storage operation that failed because of a transient error")
	f.DurationVar(&c.RetryMaxTime, "retryMax", defaultRetryMaxTime,
		"maximum time allowed for retrying a storage operation that failed because of a transient error")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight() error {
	if c.InputFilePattern == "" {
		return errors.New("inputFilePattern must be set")
	}
	if c.BufferSize < 0 {
		return errors.New("bufferSize must not be negative")
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = defaultRetryInitialInterval
	}
	if c.RetryMaxTime < 0 {
		return errors.New("retryMax must not be negative")
	}
	return c.preflight()
}

func (c *Config) preflight() error {
	var scheme string
	var pattern string
	var u *url.URL
	if strings.Contains(c.InputFilePattern, "://") {
		var err error
		u, err = url.Parse(c.InputFilePattern)
		if err != nil {
			return errors.Wrapf(err, "could not parse inputFilePattern %q", c.InputFilePattern)
		}
		scheme = strings.ToLower(u.Scheme)
		pattern = u.Path
	} else {
		pattern = filepath.ToSlash(c.InputFilePattern)
	}

	c.provider = Providers[scheme]
	switch c.provider {
	case LocalStorage:
		if u != nil && u.Host != "" && u.Host != "localhost" {
			return errors.Errorf("file URLs must not name a host: %q", c.InputFilePattern)
		}
		if u == nil && !filepath.IsAbs(c.InputFilePattern) {
			abs, err := filepath.Abs(c.InputFilePattern)
			if err != nil {
				return errors.Wrapf(err, "could not resolve inputFilePattern %q", c.InputFilePattern)
			}
			pattern = filepath.ToSlash(abs)
		}
		root := "."
		if strings.HasPrefix(pattern, "/") {
			root = "/"
			pattern = strings.TrimLeft(pattern, "/")
		}
		c.local = &local.Config{Directory: root}

	case S3Storage, GCSStorage:
		if u.Host == "" {
			return errors.Errorf("missing bucket name in URL. Must be %s://bucket/pattern", scheme)
		}
		pattern = strings.TrimPrefix(pattern, "/")
		cfg, err := c.bucketConfig(u)
		if err != nil {
			return err
		}
		c.s3 = cfg

	default:
		return errors.Errorf("unknown scheme %s", u.Scheme)
	}

	if pattern == "" {
		return errors.Errorf("inputFilePattern %q does not name any files", c.InputFilePattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return errors.Errorf("invalid inputFilePattern %q", c.InputFilePattern)
	}
	c.base, c.glob = doublestar.SplitPattern(pattern)
	c.base = path.Clean(c.base)
	if c.base == "." {
		c.base = ""
	}
	if c.glob == "" {
		return errors.Errorf("inputFilePattern %q names a directory, not files", c.InputFilePattern)
	}
	return nil
}

// bucketConfig extracts the provider configuration from the URL. Values
// not present in the URL are taken from the environment.
func (c *Config) bucketConfig(u *url.URL) (*s3.Config, error) {
	params := u.Query()
	var endpointURL string
	ret := &s3.Config{Bucket: u.Host}
	switch c.provider {
	case S3Storage:
		endpointURL = paramValue(params, "AWS_ENDPOINT")
		// The minio API requires an endpoint to be set.
		// We will be using AWS S3 as the default.
		if endpointURL == "" {
			endpointURL = "https://s3.amazonaws.com"
		}
		ret.AccessKey = paramValue(params, "AWS_ACCESS_KEY_ID")
		ret.SecretKey = paramValue(params, "AWS_SECRET_ACCESS_KEY")
		ret.SessionToken = paramValue(params, "AWS_SESSION_TOKEN")
		ret.Region = paramValue(params, "AWS_REGION")
	case GCSStorage:
		endpointURL = paramValue(params, "GCS_ENDPOINT")
		if endpointURL == "" {
			endpointURL = gcsEndpoint
		}
		ret.AccessKey = paramValue(params, "GCS_ACCESS_KEY_ID")
		ret.SecretKey = paramValue(params, "GCS_SECRET_ACCESS_KEY")
		if ret.AccessKey == "" || ret.SecretKey == "" {
			return nil, errors.New("gs:// patterns require GCS_ACCESS_KEY_ID and GCS_SECRET_ACCESS_KEY HMAC keys")
		}
	}
	endpoint, err := url.Parse(endpointURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse endpoint %q", endpointURL)
	}
	if endpoint.Host == "" {
		return nil, errors.Errorf("endpoint %q must include a scheme and host", endpointURL)
	}
	ret.Endpoint = endpoint.Host
	ret.Insecure = endpoint.Scheme == "http"
	return ret, nil
}

// location returns a user-facing name for an object key.
func (c *Config) location(key string) string {
	switch c.provider {
	case S3Storage, GCSStorage:
		return c.provider.String() + "://" + path.Join(c.s3.Bucket, key)
	default:
		if c.local != nil && c.local.Directory == "/" {
			return "/" + key
		}
		return key
	}
}

// paramValue gets the value for the specified parameter from the URL.
// If not present in the URL, it retrieves a value from the environment.
func paramValue(params url.Values, key string) string {
	value := params.Get(key)
	if value != "" {
		return value
	}
	return os.Getenv(key)
}
