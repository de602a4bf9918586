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

// Package pipeline reads newline-delimited JSON files, flattens each
// object into key,value records and publishes the records to a topic.
package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/mcslender97/textjson/internal/flatten"
	"github.com/mcslender97/textjson/internal/source/textio"
	"github.com/mcslender97/textjson/internal/target/dlq"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/mcslender97/textjson/internal/util/diag"
	"github.com/mcslender97/textjson/internal/util/metrics"
	"github.com/mcslender97/textjson/internal/util/ndjson"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// diagName is the key used to report live counters.
const diagName = "pipeline"

// Pipeline processes every file matched by the input pattern.
type Pipeline struct {
	config    *Config
	diags     *diag.Diagnostics
	flattener *flatten.Flattener
	publisher publish.Publisher
	router    *dlq.Router
	source    *textio.Source
}

// Diagnostics returns the registry which the pipeline reports its live
// counters to.
func (p *Pipeline) Diagnostics() *diag.Diagnostics {
	return p.diags
}

// Run processes all matching files and flushes the publishers. Files
// are processed concurrently, lines within a file are processed in
// order. A summary is returned even if the run fails. If the context is
// stopped, no new lines are read and context.Canceled is returned.
func (p *Pipeline) Run(ctx *stopper.Context) (*Summary, error) {
	start := time.Now()
	st := &stats{}
	summary := func() *Summary {
		counts := p.router.Counts()
		var parseErrors map[string]int64
		if len(counts) > 0 {
			parseErrors = make(map[string]int64, len(counts))
			for k, v := range counts {
				parseErrors[k.String()] = v
			}
		}
		return &Summary{
			BlankLines:  st.blank.Load(),
			Duration:    time.Since(start),
			Files:       st.files.Load(),
			Lines:       st.lines.Load(),
			ParseErrors: parseErrors,
			Published:   st.published.Load(),
			Routed:      p.router.Routing(),
			RunID:       p.router.RunID(),
		}
	}

	files, err := p.source.Match(ctx)
	if err != nil {
		return summary(), err
	}
	log.WithFields(log.Fields{
		"files":   len(files),
		"pattern": p.config.Source.InputFilePattern,
		"runId":   p.router.RunID(),
		"topic":   p.config.Publish.OutputTopic,
		"workers": p.config.Workers,
	}).Info("starting run")

	if p.diags != nil {
		if err := p.diags.Register(diagName, func(context.Context) any {
			return st.diagnostic()
		}); err != nil {
			return summary(), err
		}
		defer p.diags.Unregister(diagName)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.config.Workers)
	for _, file := range files {
		if ctx.IsStopping() || egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			return p.processFile(egCtx, ctx, file, st)
		})
	}
	err = eg.Wait()
	if err == nil && ctx.IsStopping() {
		err = context.Canceled
	}
	if err == nil {
		if err = p.publisher.Flush(ctx); err != nil {
			err = errors.Wrap(err, "could not flush records")
		}
	}
	if err == nil {
		if err = p.router.Flush(ctx); err != nil {
			err = errors.Wrap(err, "could not flush dead-letter messages")
		}
	}

	ret := summary()
	ret.FilesTotal = len(files)
	return ret, err
}

// processFile publishes the records from a single file. The stopper is
// polled between lines so that a shutdown does not have to wait for
// large files to be read.
func (p *Pipeline) processFile(
	ctx context.Context, stop *stopper.Context, key string, st *stats,
) (err error) {
	start := time.Now()
	location := p.source.Location(key)
	var lineCount int
	defer func() {
		fileDurations.WithLabelValues(metrics.FileValues(p.source.Provider().String(), err)...).
			Observe(time.Since(start).Seconds())
		fileLines.Observe(float64(lineCount))
	}()

	rc, err := p.source.Open(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	var published int
	scanner := ndjson.NewScanner(rc, p.config.Source.BufferSize)
	for scanner.Scan() {
		if stop.IsStopping() {
			return context.Canceled
		}
		lineCount++
		st.lines.Add(1)
		line := scanner.Bytes()
		if ndjson.IsBlank(line) {
			st.blank.Add(1)
			linesBlank.Inc()
			continue
		}

		var res flatten.Result
		if scanner.TooLong() {
			res.Err = &flatten.ParseError{
				Kind: flatten.KindTooLong,
				Cause: errors.Errorf("line of %d bytes exceeds the buffer size of %d",
					scanner.Length(), scanner.Limit()),
			}
		} else {
			res = p.flattener.Result(line)
		}
		if !res.OK() {
			linesRejected.Inc()
			perr, ok := flatten.IsParseError(res.Err)
			if !ok {
				return errors.Wrapf(res.Err, "%s:%d", location, scanner.Line())
			}
			if err := p.router.Route(ctx, &dlq.Entry{
				Err:  perr,
				File: location,
				Line: scanner.Line(),
				Text: append([]byte(nil), line...),
			}); err != nil {
				return err
			}
			continue
		}

		linesOK.Inc()
		for _, rec := range res.Records {
			if err := p.publisher.Publish(ctx, publish.Message{Data: []byte(rec)}); err != nil {
				return errors.Wrapf(err, "could not publish record from %s:%d", location, scanner.Line())
			}
			published++
			st.published.Add(1)
			recordsPublished.Inc()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "could not read %s", location)
	}
	st.files.Add(1)
	log.WithFields(log.Fields{
		"file":      location,
		"lines":     lineCount,
		"published": published,
	}).Debug("processed file")
	return nil
}
