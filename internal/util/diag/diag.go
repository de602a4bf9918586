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

// Package diag collects a point-in-time report about a running job. The
// report is served over HTTP and written to the log when the process
// receives SIGUSR1.
package diag

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A Section supplies one named part of a [Report]. It is called while
// the job is running, possibly from several goroutines at once.
type Section func(ctx context.Context) any

// Report is the serialized form of the diagnostics.
type Report struct {
	Args     []string          `json:"args"`
	Build    map[string]string `json:"build,omitempty"`
	Sections map[string]any    `json:"sections,omitempty"`
	Started  time.Time         `json:"started"`
	Uptime   string            `json:"uptime"`
}

// fields flattens the report for structured logging.
func (r *Report) fields() log.Fields {
	ret := log.Fields{
		"args":   r.Args,
		"uptime": r.Uptime,
	}
	if v, ok := r.Build["version"]; ok {
		ret["version"] = v
	}
	for name, value := range r.Sections {
		ret[name] = value
	}
	return ret
}

// Diagnostics is a registry of report sections.
type Diagnostics struct {
	build   map[string]string
	started time.Time

	mu struct {
		sync.RWMutex
		sections map[string]Section
	}
}

// New constructs a Diagnostics. The report is logged whenever the
// process receives a SIGUSR1, until the stopper is stopped.
func New(ctx *stopper.Context) *Diagnostics {
	ret := &Diagnostics{
		build:   buildInfo(),
		started: time.Now(),
	}
	ret.mu.sections = make(map[string]Section)
	logOnSignal(ctx, ret)
	return ret
}

// buildInfo extracts the module version and VCS stamps of the binary.
func buildInfo() map[string]string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	ret := map[string]string{
		"go":      bi.GoVersion,
		"module":  bi.Main.Path,
		"version": bi.Main.Version,
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.time", "vcs.modified":
			ret[s.Key] = s.Value
		}
	}
	return ret
}

// Register adds a named section to the report. It is an error to
// register the same name twice.
func (d *Diagnostics) Register(name string, section Section) error {
	if section == nil {
		return errors.Errorf("nil section %s", name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, conflict := d.mu.sections[name]; conflict {
		return errors.Errorf("%s already registered", name)
	}
	d.mu.sections[name] = section
	return nil
}

// Unregister removes a section.
func (d *Diagnostics) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.mu.sections, name)
}

// Names returns the registered section names, sorted.
func (d *Diagnostics) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ret := make([]string, 0, len(d.mu.sections))
	for name := range d.mu.sections {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Report evaluates every section.
func (d *Diagnostics) Report(ctx context.Context) *Report {
	ret := &Report{
		Args:    os.Args,
		Build:   d.build,
		Started: d.started,
		Uptime:  time.Since(d.started).Round(time.Millisecond).String(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.mu.sections) > 0 {
		ret.Sections = make(map[string]any, len(d.mu.sections))
		for name, section := range d.mu.sections {
			ret.Sections[name] = section(ctx)
		}
	}
	return ret
}

// Write encodes the report as JSON.
func (d *Diagnostics) Write(ctx context.Context, w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", " ")
	}
	return errors.WithStack(enc.Encode(d.Report(ctx)))
}

// Handler serves the report to GET and HEAD requests.
func (d *Diagnostics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusOK)
		if req.Method == http.MethodHead {
			return
		}
		if err := d.Write(req.Context(), w, true); err != nil {
			log.WithError(err).Warn("could not write diagnostics")
		}
	})
}
