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

// Package textio lists and reads the newline-delimited input files
// named by a file pattern.
//
// A pattern is split into a static base directory (or object prefix)
// and a glob. The base is listed through a [bucket.Reader] and each
// name is matched against the glob, which supports the doublestar
// syntax, including ** to match across directories.
package textio

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/mcslender97/textjson/internal/source/textio/bucket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoMatch is returned by Match when the pattern matches no files.
var ErrNoMatch = errors.New("no files match the input file pattern")

// Source provides access to the files matched by the configured
// pattern.
type Source struct {
	// Access to the storage.
	bucket bucket.Reader
	// The source configuration. Preflight must have been called.
	config *Config
}

// New constructs a Source.
func New(config *Config, reader bucket.Reader) *Source {
	return &Source{bucket: reader, config: config}
}

// Match returns the keys of all files matching the pattern, in lexical
// order. ErrNoMatch is returned if there are none.
func (s *Source) Match(ctx context.Context) ([]string, error) {
	start := time.Now()
	glob := s.config.glob
	options := bucket.IterOptions{
		Recursive: strings.Contains(glob, "/") || strings.Contains(glob, "**"),
	}
	var ret []string
	operation := func() error {
		ret = ret[:0]
		return s.bucket.Iter(ctx, s.config.base, func(name string) error {
			rel := name
			if s.config.base != "" {
				rel = strings.TrimPrefix(name, s.config.base+"/")
			}
			ok, err := doublestar.Match(glob, rel)
			if err != nil {
				return errors.Wrapf(err, "matching %q", name)
			}
			if ok {
				ret = append(ret, name)
			}
			return nil
		}, options)
	}
	if err := s.retry(ctx, operation, "match"); err != nil {
		return nil, errors.Wrapf(err, "could not list files for %q", s.config.InputFilePattern)
	}
	matchDuration.WithLabelValues(s.config.provider.String()).
		Observe(time.Since(start).Seconds())
	if len(ret) == 0 {
		return nil, errors.Wrap(ErrNoMatch, s.config.InputFilePattern)
	}
	sort.Strings(ret)
	log.WithFields(log.Fields{
		"files":   len(ret),
		"pattern": s.config.InputFilePattern,
	}).Debug("matched input files")
	return ret, nil
}

// Open returns the decompressed contents of the file.
func (s *Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	open := func() error {
		var err error
		rc, err = s.bucket.Get(ctx, key)
		return err
	}
	if err := s.retry(ctx, open, "open"); err != nil {
		return nil, errors.Wrapf(err, "could not open %s", s.Location(key))
	}
	filesOpened.WithLabelValues(s.config.provider.String()).Inc()
	ret, err := decompress(key, rc)
	if err != nil {
		_ = rc.Close()
		return nil, errors.Wrapf(err, "could not decompress %s", s.Location(key))
	}
	return ret, nil
}

// Location returns a user-facing name for a key returned by Match.
func (s *Source) Location(key string) string {
	return s.config.location(key)
}

// Provider returns the type of storage being read.
func (s *Source) Provider() Provider {
	return s.config.provider
}

// retry calls the operation and retries if we get a transient error.
func (s *Source) retry(ctx context.Context, operation backoff.Operation, label string) error {
	retryOp := func() error {
		err := operation()
		if err != nil && !errors.Is(err, bucket.ErrTransient) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		retryCount.WithLabelValues(label).Inc()
		log.WithError(err).Warnf("%s failed; retrying in %s", label, delay)
	}
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if s.config.RetryMaxTime > 0 {
		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.MaxElapsedTime = s.config.RetryMaxTime
		expBackoff.InitialInterval = s.config.RetryInitialInterval
		policy = expBackoff
	}
	return backoff.RetryNotify(retryOp, backoff.WithContext(policy, ctx), notify)
}
