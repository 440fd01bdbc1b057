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

package cache

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/lib/dbg"
	"github.com/geofftsai-da/daml/lib/metrics"
)

// Entry is one buffered event together with the offset it was committed at.
type Entry[E any] struct {
	Offset ledger.Offset
	Event  E
}

// EventsBuffer retains the most recent committed events of the transaction
// log so that followers can answer range reads from memory instead of the
// durable store.
//
// The buffer is an ordered vector of entries with strictly increasing
// offsets, holding at most MaxBufferSize of them. Push, Prune and Flush
// serialise on an internal mutex and publish a fresh slice header through an
// atomic pointer; Slice captures the pointer once and works from that
// snapshot, so reads never block writers and never observe a partial update.
// Mutators only ever write array positions no published header covers.
type EventsBuffer[E any] struct {
	mu  sync.Mutex
	log atomic.Pointer[[]Entry[E]]

	maxBufferSize int
	maxChunkSize  int
	logger        log.Logger

	pushTimer  metrics.Timer
	sliceTimer metrics.Timer
	pruneTimer metrics.Timer
	sliceSize  metrics.Histogram
}

// Config sizes an EventsBuffer. Qualifier distinguishes the buffer's metric
// series when a participant runs several buffers. A zero MaxBufferSize or
// MaxChunkSize falls back to the operational defaults in lib/dbg; when the
// operator granted a memory budget and MeanEventSize is set, the buffer
// length is derived from the budget instead.
type Config struct {
	// MaxBufferSize bounds how many entries the buffer retains.
	MaxBufferSize int
	// MaxChunkSize bounds how many entries one Slice call returns.
	MaxChunkSize int
	// MeanEventSize is the caller's estimate of one entry's memory footprint,
	// used only to divide a configured memory budget into a buffer length.
	MeanEventSize datasize.ByteSize
	Qualifier     string
}

func New[E any](cfg Config, sink metrics.Sink, logger log.Logger) (*EventsBuffer[E], error) {
	if cfg.MaxBufferSize == 0 {
		cfg.MaxBufferSize = dbg.BufferSize
		if budget := dbg.BufferMemoryBudget(); budget > 0 && cfg.MeanEventSize > 0 {
			cfg.MaxBufferSize = int(budget / cfg.MeanEventSize)
		}
	}
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = dbg.BufferChunkSize
	}
	if cfg.MaxBufferSize < 1 {
		return nil, fmt.Errorf("events buffer %q: max buffer size %d, must be at least 1", cfg.Qualifier, cfg.MaxBufferSize)
	}
	if cfg.MaxChunkSize < 1 {
		return nil, fmt.Errorf("events buffer %q: max chunk size %d, must be at least 1", cfg.Qualifier, cfg.MaxChunkSize)
	}
	b := &EventsBuffer[E]{
		maxBufferSize: cfg.MaxBufferSize,
		maxChunkSize:  cfg.MaxChunkSize,
		logger:        logger,
		pushTimer:     sink.Timer(metricName("push_duration", cfg.Qualifier)),
		sliceTimer:    sink.Timer(metricName("slice_duration", cfg.Qualifier)),
		pruneTimer:    sink.Timer(metricName("prune_duration", cfg.Qualifier)),
		sliceSize:     sink.Histogram(metricName("slice_size", cfg.Qualifier)),
	}
	vec := make([]Entry[E], 0, cfg.MaxBufferSize)
	b.log.Store(&vec)
	return b, nil
}

func metricName(signal, qualifier string) string {
	return fmt.Sprintf(`ledger_events_buffer_%s{buffer=%q}`, signal, qualifier)
}

// UnorderedError reports a Push whose offset does not follow the buffered
// head. It indicates a broken writer, not an operational fault; the caller's
// session must treat it as fatal.
type UnorderedError struct {
	Last   ledger.Offset
	Pushed ledger.Offset
}

func (e UnorderedError) Error() string {
	return fmt.Sprintf("buffered offsets must increase strictly: pushed %s after %s", e.Pushed, e.Last)
}

// Push appends an event at the given offset. The offset must be strictly
// greater than the last buffered one. When the buffer is full the oldest
// entry is dropped first.
func (b *EventsBuffer[E]) Push(offset ledger.Offset, event E) error {
	var err error
	b.pushTimer.Time(func() { err = b.push(offset, event) })
	return err
}

func (b *EventsBuffer[E]) push(offset ledger.Offset, event E) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vec := *b.log.Load()
	if n := len(vec); n > 0 {
		if last := vec[n-1].Offset; offset <= last {
			err := UnorderedError{Last: last, Pushed: offset}
			b.logger.Warn("events buffer rejected out-of-order push", "last", last, "pushed", offset)
			return err
		}
	}
	if len(vec) >= b.maxBufferSize {
		vec = vec[len(vec)-b.maxBufferSize+1:]
	}
	vec = append(vec, Entry[E]{Offset: offset, Event: event})
	b.log.Store(&vec)
	return nil
}

// Prune drops every entry with offset at or below endInclusive.
func (b *EventsBuffer[E]) Prune(endInclusive ledger.Offset) {
	b.pruneTimer.Time(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		vec := *b.log.Load()
		idx, found := searchOffset(vec, endInclusive)
		drop := indexAfter(idx, found)
		if drop == 0 {
			return
		}
		rest := vec[drop:]
		b.log.Store(&rest)
	})
}

// Flush empties the buffer.
func (b *EventsBuffer[E]) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	vec := make([]Entry[E], 0, b.maxBufferSize)
	b.log.Store(&vec)
}

// Len returns the number of buffered entries.
func (b *EventsBuffer[E]) Len() int {
	return len(*b.log.Load())
}

// searchOffset locates target in a vector ordered by strictly increasing
// offsets. It returns the index of the exact hit, or the index of the first
// entry whose offset is greater than target when there is none.
func searchOffset[E any](vec []Entry[E], target ledger.Offset) (idx int, found bool) {
	idx = sort.Search(len(vec), func(i int) bool { return vec[i].Offset >= target })
	if idx < len(vec) && vec[idx].Offset == target {
		return idx, true
	}
	return idx, false
}

// indexAfter normalises a search outcome into the first index whose offset is
// strictly greater than the searched one.
func indexAfter(idx int, found bool) int {
	if found {
		return idx + 1
	}
	return idx
}
