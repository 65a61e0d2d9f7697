package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"learnhub/internal/repository"
	"learnhub/internal/services"
)

// SnapshotRefresher periodically rebuilds the Redis leaderboard mirror
// from the database. The mirror is also updated on every award, so the
// rebuild only bounds drift after cache failures or out-of-band writes.
type SnapshotRefresher struct {
	leaderboardService *services.LeaderboardService
	cache              *repository.LeaderboardCache
	interval           time.Duration
	scheduler          gocron.Scheduler
}

// NewSnapshotRefresher creates a new SnapshotRefresher
func NewSnapshotRefresher(leaderboardService *services.LeaderboardService, cache *repository.LeaderboardCache, interval time.Duration) *SnapshotRefresher {
	return &SnapshotRefresher{
		leaderboardService: leaderboardService,
		cache:              cache,
		interval:           interval,
	}
}

// Start seeds the cache once, then refreshes it on the configured
// interval until Stop is called.
func (r *SnapshotRefresher) Start() error {
	r.refresh()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.refresh),
	)
	if err != nil {
		return err
	}

	sched.Start()
	r.scheduler = sched

	log.Printf("Leaderboard snapshot refresher started (every %s)", r.interval)
	return nil
}

// Stop shuts the scheduler down
func (r *SnapshotRefresher) Stop() {
	if r.scheduler != nil {
		if err := r.scheduler.Shutdown(); err != nil {
			log.Printf("Snapshot refresher shutdown error: %v", err)
		}
	}
}

func (r *SnapshotRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts, err := r.leaderboardService.AllAccounts(ctx)
	if err != nil {
		log.Printf("Snapshot refresh: failed to load accounts: %v", err)
		return
	}

	if err := r.cache.Rebuild(ctx, accounts); err != nil {
		log.Printf("Snapshot refresh: failed to rebuild cache: %v", err)
		return
	}
}
