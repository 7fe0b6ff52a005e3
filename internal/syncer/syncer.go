package syncer

import (
	"context"
	"log"
	"time"

	"trackme/internal/storage"
	"trackme/internal/tracker"
)

// Dispatcher periodically drains the closed-session buffer into the
// durable store. A failed batch stays in the buffer and rides along with
// the next cycle; sync failure is never fatal to monitoring.
type Dispatcher struct {
	store    storage.Store
	buffer   *tracker.Buffer
	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store storage.Store, buffer *tracker.Buffer, interval, timeout time.Duration) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:    store,
		buffer:   buffer,
		interval: interval,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	log.Printf("Starting sync dispatcher (interval: %s)", d.interval)
	go d.run()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.flush(); err != nil {
				log.Printf("Sync failed (will retry next cycle): %v", err)
			}
		}
	}
}

// flush persists a snapshot of the buffer and removes exactly that
// snapshot on success. Entries appended while the write is in flight are
// untouched either way.
func (d *Dispatcher) flush() error {
	batch, mark := d.buffer.SnapshotMark()
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.store.UpsertSessions(ctx, batch); err != nil {
		return err
	}
	d.buffer.DiscardTo(mark + uint64(len(batch)))
	log.Printf("Synced %d sessions", len(batch))
	return nil
}

// FlushNow runs one synchronous flush, used for the final drain on
// shutdown.
func (d *Dispatcher) FlushNow() error {
	return d.flush()
}

func (d *Dispatcher) Stop() {
	d.cancel()
	<-d.done
	log.Println("Sync dispatcher stopped")
}
