package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hatrick/crease/internal/refresh"
	"github.com/hatrick/crease/internal/stats"
)

// Orchestrator schedules recurring refresh jobs against the refresh service
type Orchestrator struct {
	refreshSvc *refresh.Service
	config     *Config
	cancel     context.CancelFunc

	// Task coordination
	dailyCtx    context.Context
	dailyCancel context.CancelFunc
}

// Config holds scheduler configuration
type Config struct {
	DailyRefreshHour   int           // Default: 5 (5 AM)
	CurrentSeason      int           // 0 = derive from the clock
	EnableDailyRefresh bool          // Default: true
	RefreshOnStart     bool          // Default: false
	Reports            []string      // Default: regular + playoffs
	MaxRetries         int           // Default: 3
	RetryDelay         time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		DailyRefreshHour:   5,
		CurrentSeason:      0,
		EnableDailyRefresh: true,
		RefreshOnStart:     false,
		Reports:            []string{string(stats.ReportRegular), string(stats.ReportPlayoffs)},
		MaxRetries:         3,
		RetryDelay:         5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(refreshSvc *refresh.Service, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		refreshSvc: refreshSvc,
		config:     config,
	}
}

// Start begins all scheduled tasks and blocks until ctx is cancelled
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║    Crease Scheduler Orchestrator       ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Daily refresh: %v (at %02d:00)", o.config.EnableDailyRefresh, o.config.DailyRefreshHour)
	log.Printf("Season: %d-%d", o.currentSeason(), o.currentSeason()+1)
	log.Println()

	// Create cancellable context for the orchestrator
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.RefreshOnStart {
		o.enqueueWithRetry(ctx, "startup")
	}

	// Start daily refresh scheduler
	if o.config.EnableDailyRefresh {
		o.dailyCtx, o.dailyCancel = context.WithCancel(ctx)
		go o.runDailyRefresh(o.dailyCtx)
	}

	// Wait for context cancellation
	<-ctx.Done()
	log.Println("Scheduler orchestrator stopping...")
}

// runDailyRefresh enqueues one current-season refresh per day
func (o *Orchestrator) runDailyRefresh(ctx context.Context) {
	log.Printf("→ Daily refresh scheduler started (runs at %02d:00 daily)", o.config.DailyRefreshHour)

	for {
		// Calculate time until next run
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyRefreshHour, 0, 0, 0, now.Location())

		// If we've passed today's run time, schedule for tomorrow
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		log.Printf("  Next daily refresh: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		// Wait until next run time
		select {
		case <-ctx.Done():
			log.Println("→ Daily refresh scheduler stopped")
			return
		case <-time.After(waitDuration):
			log.Println()
			log.Println("═══ Daily Refresh Starting ═══")
			o.enqueueWithRetry(ctx, "daily")
			log.Println("═══ Daily Refresh Queued ═══")
			log.Println()
		}
	}
}

// enqueueWithRetry submits a current-season refresh job, retrying transient
// failures
func (o *Orchestrator) enqueueWithRetry(ctx context.Context, trigger string) {
	season := o.currentSeason()

	var err error
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		var job *refresh.Job
		job, err = o.refreshSvc.Enqueue(ctx, refresh.Request{
			Seasons: []int{season},
			Reports: o.config.Reports,
		})

		if err == nil {
			log.Printf("✓ Queued %s refresh job %s for season %d-%d", trigger, job.JobID, season, season+1)
			return
		}

		log.Printf("  ⚠️  Enqueue attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)

		if attempt < o.config.MaxRetries {
			log.Printf("  Retrying in %v...", o.config.RetryDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
				// Continue to next attempt
			}
		}
	}

	log.Printf("❌ All %d attempts to queue the %s refresh failed: %v", o.config.MaxRetries, trigger, err)
}

// TriggerManualRefresh enqueues a refresh for specific seasons right away
func (o *Orchestrator) TriggerManualRefresh(ctx context.Context, seasons []int) error {
	if len(seasons) == 0 {
		seasons = []int{o.currentSeason()}
	}
	log.Printf("Manual refresh triggered for seasons %v", seasons)

	job, err := o.refreshSvc.Enqueue(ctx, refresh.Request{
		Seasons: seasons,
		Reports: o.config.Reports,
	})
	if err != nil {
		return fmt.Errorf("enqueue manual refresh: %w", err)
	}

	log.Printf("✓ Manual refresh queued as job %s", job.JobID)
	return nil
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")

	if o.dailyCancel != nil {
		o.dailyCancel()
	}

	if o.cancel != nil {
		o.cancel()
	}

	log.Println("✓ Scheduler orchestrator stopped")
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"daily_refresh_enabled": o.config.EnableDailyRefresh,
		"daily_refresh_hour":    o.config.DailyRefreshHour,
		"refresh_on_start":      o.config.RefreshOnStart,
		"current_season":        o.currentSeason(),
		"reports":               o.config.Reports,
	}
}

// currentSeason resolves the season start year. Fantrax seasons begin in
// the fall, so January through July still belong to the prior start year.
func (o *Orchestrator) currentSeason() int {
	if o.config.CurrentSeason != 0 {
		return o.config.CurrentSeason
	}
	now := time.Now()
	if now.Month() >= time.August {
		return now.Year()
	}
	return now.Year() - 1
}
