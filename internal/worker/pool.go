package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"learnhub/internal/models"

	"gorm.io/gorm"
)

// Pool persists XP activity entries asynchronously. Activity logging is
// best-effort by contract: a full queue or a failed insert never fails
// the award that produced the entry.
type Pool struct {
	jobs        chan models.XPActivity
	workerCount int
	db          *gorm.DB
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *poolMetrics

	// closeMu guards closed and the jobs channel close: Submit holds
	// the read side while sending, so Shutdown cannot close the channel
	// under an in-flight send.
	closeMu sync.RWMutex
	closed  bool
}

type poolMetrics struct {
	mu        sync.RWMutex
	processed int64
	failed    int64
	dropped   int64
}

// NewPool creates a new activity worker pool
func NewPool(workerCount, queueSize int, db *gorm.DB) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:        make(chan models.XPActivity, queueSize),
		workerCount: workerCount,
		db:          db,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &poolMetrics{},
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() {
	for i := 1; i <= p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("Activity worker pool started: %d workers, queue size %d", p.workerCount, cap(p.jobs))
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case activity, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(id, activity)
		}
	}
}

func (p *Pool) process(workerID int, activity models.XPActivity) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Activity worker #%d panic recovered: %v (wallet: %s)", workerID, r, activity.WalletAddress)
			p.metrics.incrementFailed()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.db.WithContext(ctx).Create(&activity).Error; err != nil {
		log.Printf("Activity worker #%d failed to persist entry for %s: %v", workerID, activity.WalletAddress, err)
		p.metrics.incrementFailed()
		return
	}

	p.metrics.incrementProcessed()
}

// Submit enqueues an activity entry without blocking. When the queue is
// full or the pool is shut down the entry is dropped and counted; the
// caller treats this as a non-fatal condition.
func (p *Pool) Submit(activity models.XPActivity) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()

	if p.closed {
		p.metrics.incrementDropped()
		return fmt.Errorf("activity pool is shut down, entry dropped")
	}

	select {
	case p.jobs <- activity:
		return nil
	default:
		p.metrics.incrementDropped()
		return fmt.Errorf("activity queue full, entry dropped")
	}
}

// Shutdown drains the queue and stops the workers. Submit calls that
// arrive afterwards are rejected rather than panicking on the closed
// channel.
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		processed, failed, dropped := p.Metrics()
		log.Printf("Activity pool drained: processed=%d failed=%d dropped=%d", processed, failed, dropped)
		return nil

	case <-time.After(timeout):
		p.cancel()
		return fmt.Errorf("activity pool shutdown timed out after %v", timeout)
	}
}

// Metrics returns processed, failed, and dropped entry counts
func (p *Pool) Metrics() (processed, failed, dropped int64) {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return p.metrics.processed, p.metrics.failed, p.metrics.dropped
}

func (m *poolMetrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *poolMetrics) incrementFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *poolMetrics) incrementDropped() {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}
