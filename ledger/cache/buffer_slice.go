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
	"github.com/geofftsai-da/daml/ledger"
)

// BufferSlice is the result of a range read against an EventsBuffer. It is a
// closed union: the only implementations are Inclusive and
// LastBufferChunkSuffix.
type BufferSlice[FR any] interface {
	// Events returns the projected entries of the slice, ordered by offset.
	Events() []Entry[FR]

	isBufferSlice()
}

// Inclusive is returned when the requested start lies at or past the first
// buffered offset: the buffer could honour the left endpoint, and Events is a
// contiguous projected prefix of the requested window, capped at the buffer's
// chunk size.
type Inclusive[FR any] struct {
	Slice []Entry[FR]
}

func (s Inclusive[FR]) Events() []Entry[FR] { return s.Slice }
func (Inclusive[FR]) isBufferSlice()        {}

// LastBufferChunkSuffix is returned when the requested start precedes every
// buffered offset. Events then holds the tail chunk of matching buffered
// entries and BufferedStartExclusive the offset right before it; the caller
// is expected to read everything up to that offset from the durable store.
type LastBufferChunkSuffix[FR any] struct {
	BufferedStartExclusive ledger.Offset
	Slice                  []Entry[FR]
}

func (s LastBufferChunkSuffix[FR]) Events() []Entry[FR] { return s.Slice }
func (LastBufferChunkSuffix[FR]) isBufferSlice()        {}

// Slice answers the range query (startExclusive, endInclusive] from the
// buffer's current snapshot, projecting every entry through filter and
// capping the result at the buffer's chunk size.
//
// When startExclusive lies inside the buffered range but filter rejects every
// entry in the window, the result is an empty Inclusive slice, not a suffix.
// Callers that treat an empty Inclusive as "no more events in range" must be
// aware that events may exist there and merely have been filtered out.
func Slice[E, FR any](b *EventsBuffer[E], startExclusive, endInclusive ledger.Offset, filter func(E) (FR, bool)) BufferSlice[FR] {
	var out BufferSlice[FR]
	b.sliceTimer.Time(func() {
		out = sliceLog(*b.log.Load(), startExclusive, endInclusive, filter, b.maxChunkSize)
	})
	b.sliceSize.Update(int64(len(out.Events())))
	return out
}

func sliceLog[E, FR any](vec []Entry[E], startExclusive, endInclusive ledger.Offset, filter func(E) (FR, bool), maxChunkSize int) BufferSlice[FR] {
	startIdx, startFound := searchOffset(vec, startExclusive)
	endIdx, endFound := searchOffset(vec, endInclusive)
	startAfter := indexAfter(startIdx, startFound)
	endAfter := indexAfter(endIdx, endFound)
	if startAfter > endAfter {
		endAfter = startAfter
	}
	window := vec[startAfter:endAfter]

	startBeforeBuffer := !startFound && startIdx == 0
	switch {
	case startBeforeBuffer && len(window) == 0:
		return LastBufferChunkSuffix[FR]{BufferedStartExclusive: endInclusive}

	case startBeforeBuffer:
		// The left endpoint is older than anything buffered; keep the newest
		// matches and hand the remainder of the range back to the caller. One
		// extra match is collected to serve as the exclusive lower marker.
		collected := make([]Entry[FR], 0, min(len(window), maxChunkSize+1))
		for i := len(window) - 1; i >= 0 && len(collected) < maxChunkSize+1; i-- {
			if fr, ok := filter(window[i].Event); ok {
				collected = append(collected, Entry[FR]{Offset: window[i].Offset, Event: fr})
			}
		}
		if len(collected) == 0 {
			return LastBufferChunkSuffix[FR]{BufferedStartExclusive: window[0].Offset}
		}
		reverseEntries(collected)
		return LastBufferChunkSuffix[FR]{
			BufferedStartExclusive: collected[0].Offset,
			Slice:                  collected[1:],
		}

	default:
		filtered := make([]Entry[FR], 0, min(len(window), maxChunkSize))
		for i := 0; i < len(window) && len(filtered) < maxChunkSize; i++ {
			if fr, ok := filter(window[i].Event); ok {
				filtered = append(filtered, Entry[FR]{Offset: window[i].Offset, Event: fr})
			}
		}
		return Inclusive[FR]{Slice: filtered}
	}
}

func reverseEntries[FR any](entries []Entry[FR]) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
