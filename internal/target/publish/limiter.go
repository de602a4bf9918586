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
	"context"
	"math"

	"golang.org/x/time/rate"
)

// rateLimited delays calls to Publish to stay under a fixed rate.
type rateLimited struct {
	Publisher
	limiter *rate.Limiter
}

func withRateLimit(p Publisher, perSecond float64) Publisher {
	burst := int(math.Max(1, math.Ceil(perSecond)))
	return &rateLimited{
		Publisher: p,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Publish implements Publisher.
func (p *rateLimited) Publish(ctx context.Context, msg Message) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.Publisher.Publish(ctx, msg)
}
