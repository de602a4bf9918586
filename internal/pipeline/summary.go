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

package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Summary reports the outcome of a run.
type Summary struct {
	BlankLines  int64            `json:"blankLines"`
	Duration    time.Duration    `json:"duration"`
	Files       int64            `json:"files"`
	FilesTotal  int              `json:"filesTotal"`
	Lines       int64            `json:"lines"`
	ParseErrors map[string]int64 `json:"parseErrors,omitempty"`
	Published   int64            `json:"published"`
	Routed      bool             `json:"routed"` // Parse errors were sent to a dead-letter topic.
	RunID       string           `json:"runId"`
}

// Rejected returns the total number of lines that could not be
// flattened.
func (s *Summary) Rejected() int64 {
	var ret int64
	for _, v := range s.ParseErrors {
		ret += v
	}
	return ret
}

func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s: processed %d of %d files, %d lines (%d blank), published %d records",
		s.RunID, s.Files, s.FilesTotal, s.Lines, s.BlankLines, s.Published)
	if rejected := s.Rejected(); rejected > 0 {
		verb := "skipped"
		if s.Routed {
			verb = "dead-lettered"
		}
		kinds := make([]string, 0, len(s.ParseErrors))
		for k := range s.ParseErrors {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = fmt.Sprintf("%s=%d", k, s.ParseErrors[k])
		}
		fmt.Fprintf(&sb, ", %s %d lines (%s)", verb, rejected, strings.Join(parts, " "))
	}
	fmt.Fprintf(&sb, " in %s", s.Duration.Round(time.Millisecond))
	return sb.String()
}

// stats are the live counters of a run.
type stats struct {
	blank     atomic.Int64
	files     atomic.Int64
	lines     atomic.Int64
	published atomic.Int64
}

// diagnostic is registered with the diagnostics while the pipeline
// runs.
func (s *stats) diagnostic() map[string]int64 {
	return map[string]int64{
		"blankLines": s.blank.Load(),
		"files":      s.files.Load(),
		"lines":      s.lines.Load(),
		"published":  s.published.Load(),
	}
}
