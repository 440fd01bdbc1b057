/*
   Copyright 2024 The Daml authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package stream

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/ledger/cache"
)

// Fetch reads the range (startExclusive, endInclusive] from the durable
// store, ordered by offset. It backs the dispatcher whenever the buffer no
// longer covers the left end of a requested range.
type Fetch[E any] func(ctx context.Context, startExclusive, endInclusive ledger.Offset) ([]cache.Entry[E], error)

// Dispatcher answers follower range reads. Reads inside the buffered window
// are served from memory; older prefixes are stitched in from the durable
// store per the buffer's suffix contract.
type Dispatcher[E any] struct {
	buf    *cache.EventsBuffer[E]
	fetch  Fetch[E]
	logger log.Logger
}

func NewDispatcher[E any](buf *cache.EventsBuffer[E], fetch Fetch[E], logger log.Logger) *Dispatcher[E] {
	return &Dispatcher[E]{buf: buf, fetch: fetch, logger: logger}
}

// Events returns the entries in (startExclusive, endInclusive] that satisfy
// pred, ordered by offset. When the buffer honours the left endpoint, the
// result is its Inclusive slice alone, so at most the buffer's chunk size of
// entries is returned and later matches in the range are not. When the buffer
// cannot honour the left endpoint,
// the missing prefix is fetched from the durable store and stitched in front
// of the buffered suffix; a bitmap of delivered offsets guards the seam
// against double delivery.
func (d *Dispatcher[E]) Events(ctx context.Context, startExclusive, endInclusive ledger.Offset, pred func(E) bool) ([]cache.Entry[E], error) {
	buffered := cache.Slice(d.buf, startExclusive, endInclusive, func(e E) (E, bool) {
		return e, pred(e)
	})

	switch v := buffered.(type) {
	case cache.Inclusive[E]:
		return v.Slice, nil

	case cache.LastBufferChunkSuffix[E]:
		fetched, err := d.fetch(ctx, startExclusive, v.BufferedStartExclusive)
		if err != nil {
			return nil, fmt.Errorf("fetching (%s, %s] from durable store: %w", startExclusive, v.BufferedStartExclusive, err)
		}
		delivered := roaring64.New()
		out := make([]cache.Entry[E], 0, len(fetched)+len(v.Slice))
		for _, entry := range fetched {
			if !pred(entry.Event) {
				continue
			}
			delivered.Add(uint64(entry.Offset))
			out = append(out, entry)
		}
		for _, entry := range v.Slice {
			if delivered.Contains(uint64(entry.Offset)) {
				d.logger.Debug("dropping doubly delivered event at buffer seam", "offset", entry.Offset)
				continue
			}
			out = append(out, entry)
		}
		return out, nil

	default:
		panic("stream: unknown BufferSlice variant")
	}
}

// Request is one subscriber's range read.
type Request struct {
	StartExclusive ledger.Offset
	EndInclusive   ledger.Offset
}

// Serve answers a batch of subscriber requests concurrently. deliver is
// invoked with the request's index for each request whose read succeeds. The
// first failing fetch or delivery cancels the context handed to the other
// requests' fetches and is returned; requests already running still deliver.
func (d *Dispatcher[E]) Serve(ctx context.Context, requests []Request, pred func(E) bool, deliver func(i int, entries []cache.Entry[E]) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			entries, err := d.Events(gctx, req.StartExclusive, req.EndInclusive, pred)
			if err != nil {
				return err
			}
			return deliver(i, entries)
		})
	}
	return g.Wait()
}
