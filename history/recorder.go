// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package history

import (
	"context"
	"sync"
	"time"

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device"
)

// queueSize bounds samples waiting for the writer.
const queueSize = 64

// pruneInterval is how often retention is enforced while running.
const pruneInterval = 10 * time.Minute

// Recorder is a device.Observer that stores every Nth tick of each device.
// OnUpdate never blocks the device worker: when the writer falls behind,
// samples are dropped.
type Recorder struct {
	store     *Store
	every     uint64
	retention time.Duration
	log       logger.Logger

	mu     sync.Mutex
	counts map[string]uint64

	queue chan Sample
}

// NewRecorder records one tick in every `every` (at least 1). A zero
// retention keeps samples forever.
func NewRecorder(store *Store, every uint64, retention time.Duration, log logger.Logger) *Recorder {
	if every == 0 {
		every = 1
	}
	return &Recorder{
		store:     store,
		every:     every,
		retention: retention,
		log:       log.With(logger.Field{Key: "component", Value: "history"}),
		counts:    make(map[string]uint64),
		queue:     make(chan Sample, queueSize),
	}
}

// OnUpdate implements device.Observer.
func (r *Recorder) OnUpdate(u device.Update) {
	r.mu.Lock()
	n := r.counts[u.Device]
	r.counts[u.Device] = n + 1
	r.mu.Unlock()
	if n%r.every != 0 {
		return
	}

	sample := Sample{
		Device:       u.Device,
		Time:         u.Time,
		TempLiquid:   u.Status.TempLiquid,
		FanRPM:       u.Status.FanRPM,
		PumpRPM:      u.Status.PumpRPM,
		FanPercent:   u.FanPercent,
		PumpPercent:  u.PumpPercent,
		StatusFailed: u.StatusFailed,
	}
	select {
	case r.queue <- sample:
	default:
		r.log.Warn("History queue full, dropping sample",
			logger.Field{Key: "device", Value: u.Device})
	}
}

// Forget resets the tick count of a detached device.
func (r *Recorder) Forget(id string) {
	r.mu.Lock()
	delete(r.counts, id)
	r.mu.Unlock()
}

// Run writes queued samples and prunes old ones until ctx ends. Samples
// still queued at that point are flushed before returning.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	r.prune(ctx)
	for {
		select {
		case sample := <-r.queue:
			r.insert(sample)
		case <-ticker.C:
			r.prune(ctx)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case sample := <-r.queue:
			r.insert(sample)
		default:
			return
		}
	}
}

// insert is not tied to Run's context so samples queued before shutdown land.
func (r *Recorder) insert(sample Sample) {
	if err := r.store.Insert(context.Background(), sample); err != nil {
		r.log.Error("Failed to record sample",
			logger.Field{Key: "device", Value: sample.Device},
			logger.Field{Key: "error", Value: err.Error()})
	}
}

func (r *Recorder) prune(ctx context.Context) {
	if r.retention <= 0 {
		return
	}
	n, err := r.store.Prune(ctx, time.Now().Add(-r.retention))
	if err != nil {
		r.log.Error("Failed to prune history", logger.Field{Key: "error", Value: err.Error()})
		return
	}
	if n > 0 {
		r.log.Debug("Pruned history", logger.Field{Key: "rows", Value: n})
	}
}
