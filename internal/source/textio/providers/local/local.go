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

// Package local provides access to files on the local filesystem.
package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/mcslender97/textjson/internal/source/textio/bucket"
	"github.com/pkg/errors"
)

// Config specifies the parameters required to create a bucket reader.
type Config struct {
	Directory string // Root directory
}

// New creates a bucket reader for a local filesystem.
func New(config *Config) (bucket.Reader, error) {
	info, err := os.Stat(config.Directory)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", config.Directory)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", config.Directory)
	}
	return &localBucket{
		filesystem: os.DirFS(config.Directory),
	}, nil
}

// localBucket is a bucket backed by a filesystem.
type localBucket struct {
	filesystem fs.FS
}

var _ bucket.Reader = &localBucket{}

// Iter implements bucket.Reader
func (b *localBucket) Iter(
	ctx context.Context, dir string, f func(string) error, options bucket.IterOptions,
) error {
	if dir == "" {
		dir = "."
	}
	return b.iter(ctx, path.Clean(dir), f, options)
}

// Get implements bucket.Reader
func (b *localBucket) Get(_ context.Context, file string) (io.ReadCloser, error) {
	return b.filesystem.Open(path.Clean(file))
}

// iter recursively scans the entries in the filesystem, calling the f
// function for each regular file.
func (b *localBucket) iter(
	ctx context.Context, dir string, f func(string) error, options bucket.IterOptions,
) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	info, err := fs.Stat(b.filesystem, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return nil
	}
	files, err := fs.ReadDir(b.filesystem, dir)
	if err != nil {
		return errors.WithStack(err)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})
	for _, file := range files {
		name := path.Join(dir, file.Name())
		if file.IsDir() {
			if options.Recursive {
				if err := b.iter(ctx, name, f, options); err != nil {
					return err
				}
			}
			continue
		}
		if !file.Type().IsRegular() {
			continue
		}
		if err := f(name); err != nil {
			return err
		}
	}
	return nil
}
