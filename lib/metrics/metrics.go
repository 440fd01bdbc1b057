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

package metrics

import (
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Timer measures the duration of synchronous blocks.
type Timer interface {
	Time(block func())
}

// Histogram records a distribution of observed values.
type Histogram interface {
	Update(v int64)
}

// Sink hands out named timers and histograms. Instruments for the same name
// must be safe for concurrent use.
type Sink interface {
	Timer(name string) Timer
	Histogram(name string) Histogram
}

// NewSink returns a Sink backed by the process-global VictoriaMetrics
// registry. Timers are exported as summaries, histograms as histograms.
func NewSink() Sink { return vmSink{} }

type vmSink struct{}

func (vmSink) Timer(name string) Timer {
	return vmTimer{s: metrics.GetOrCreateSummary(name)}
}

func (vmSink) Histogram(name string) Histogram {
	return vmHistogram{h: metrics.GetOrCreateHistogram(name)}
}

type vmTimer struct {
	s *metrics.Summary
}

func (t vmTimer) Time(block func()) {
	start := time.Now()
	defer t.s.UpdateDuration(start)
	block()
}

type vmHistogram struct {
	h *metrics.Histogram
}

func (h vmHistogram) Update(v int64) { h.h.Update(float64(v)) }

// NoOp returns a Sink whose instruments discard every observation. Intended
// for tests and tooling that does not export metrics.
func NoOp() Sink { return noOpSink{} }

type noOpSink struct{}

func (noOpSink) Timer(string) Timer         { return noOpTimer{} }
func (noOpSink) Histogram(string) Histogram { return noOpHistogram{} }

type noOpTimer struct{}

func (noOpTimer) Time(block func()) { block() }

type noOpHistogram struct{}

func (noOpHistogram) Update(int64) {}
