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

package publish

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// filePublisher writes one message per line. Messages with attributes
// are written as a JSON object with data and attributes fields so that
// nothing is lost.
type filePublisher struct {
	closer io.Closer // Nil for stdout.

	mu struct {
		sync.Mutex
		w *bufio.Writer
	}
}

var _ Publisher = (*filePublisher)(nil)

// fileLine is the representation of a message that has attributes.
type fileLine struct {
	Attributes map[string]string `json:"attributes"`
	Data       string            `json:"data"`
}

func openFile(t *Topic) (*filePublisher, error) {
	if t.Path == "" {
		return newFilePublisher(os.Stdout, nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	f, err := os.OpenFile(t.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", t.Path)
	}
	return newFilePublisher(f, f), nil
}

func newFilePublisher(w io.Writer, closer io.Closer) *filePublisher {
	ret := &filePublisher{closer: closer}
	ret.mu.w = bufio.NewWriter(w)
	return ret
}

// Publish implements Publisher.
func (p *filePublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := msg.Data
	if len(msg.Attributes) > 0 {
		var err error
		line, err = json.Marshal(fileLine{Attributes: msg.Attributes, Data: string(msg.Data)})
		if err != nil {
			return errors.WithStack(err)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.mu.w.Write(line); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(p.mu.w.WriteByte('\n'))
}

// Flush implements Publisher.
func (p *filePublisher) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.WithStack(p.mu.w.Flush())
}

// Close implements Publisher.
func (p *filePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.mu.w.Flush()
	if p.closer != nil {
		if cErr := p.closer.Close(); err == nil {
			err = cErr
		}
	}
	return errors.WithStack(err)
}
