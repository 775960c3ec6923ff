package refresh

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/hatrick/crease/internal/fantrax"
	"github.com/hatrick/crease/internal/stats"
	"github.com/hatrick/crease/internal/store"
)

// maxRangeSpan caps how many seasons a single range job may expand to.
const maxRangeSpan = 50

// Request represents a refresh invocation request.
type Request struct {
	Seasons     []int
	StartSeason int
	EndSeason   int
	Reports     []string
	SourcePath  string
	DryRun      bool
}

// DeriveType infers the job type based on populated fields.
func (r Request) DeriveType() (JobType, error) {
	if r.SourcePath != "" {
		return JobTypeLocalImport, nil
	}
	if r.StartSeason != 0 || r.EndSeason != 0 {
		return JobTypeSeasonRange, nil
	}
	if len(r.Seasons) > 0 {
		return JobTypeSeason, nil
	}
	return "", fmt.Errorf("unable to determine job type from request")
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo        *Repository
	runner      *Runner
	broadcaster Broadcaster
	publisher   EventPublisher

	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
// broadcaster and publisher may be nil.
func NewService(db *store.Database, runner *Runner, broadcaster Broadcaster, publisher EventPublisher, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[refresh] ", log.LstdFlags)
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       runner,
		broadcaster:  broadcaster,
		publisher:    publisher,
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Printf("failed to reset jobs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	jobType, err := req.DeriveType()
	if err != nil {
		return nil, err
	}

	reports, err := normalizeReports(req.Reports)
	if err != nil {
		return nil, err
	}

	job := &Job{
		JobType:       jobType,
		Reports:       reports,
		DryRun:        req.DryRun,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
	}

	switch jobType {
	case JobTypeSeason:
		seasons, err := validSeasons(req.Seasons)
		if err != nil {
			return nil, err
		}
		job.Seasons = toInt64Array(seasons)
		job.ProgressTotal = len(seasons)
	case JobTypeSeasonRange:
		if req.StartSeason == 0 || req.EndSeason == 0 {
			return nil, fmt.Errorf("season range job requires start_season and end_season")
		}
		if req.EndSeason < req.StartSeason {
			return nil, fmt.Errorf("end_season %d is before start_season %d", req.EndSeason, req.StartSeason)
		}
		if req.EndSeason-req.StartSeason+1 > maxRangeSpan {
			return nil, fmt.Errorf("season range spans %d seasons (max %d)", req.EndSeason-req.StartSeason+1, maxRangeSpan)
		}
		var expanded []int
		for season := req.StartSeason; season <= req.EndSeason; season++ {
			expanded = append(expanded, season)
		}
		seasons, err := validSeasons(expanded)
		if err != nil {
			return nil, err
		}
		job.Seasons = toInt64Array(seasons)
		job.ProgressTotal = len(seasons)
	case JobTypeLocalImport:
		job.SourcePath = sql.NullString{String: req.SourcePath, Valid: true}
		// Seasons optionally narrow the tree walk.
		if len(req.Seasons) > 0 {
			seasons, err := validSeasons(req.Seasons)
			if err != nil {
				return nil, err
			}
			job.Seasons = toInt64Array(seasons)
		}
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	_ = s.repo.AppendEvent(ctx, stored.JobID, "queued", "Job queued", nil, nil)

	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

// RecentJobs returns the newest jobs regardless of state, newest first.
func (s *Service) RecentJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.ListRecentJobs(ctx, s.historyLimit)
}

// GetJob returns one job and its newest events. Job is nil when the ID is
// unknown.
func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, []*JobEvent, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, nil
	}

	events, err := s.repo.ListEvents(ctx, jobID, 50)
	if err != nil {
		return nil, nil, err
	}

	return job, events, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.repo.MarkNextJobRunning(s.ctx)
			if err != nil {
				s.logger.Printf("claim job error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

func (s *Service) executeJob(job *Job) {
	spec, err := s.buildSpec(job)
	if err != nil {
		s.logger.Printf("invalid job spec %s: %v", job.JobID, err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err)
		return
	}

	reporter := s.reporterFor(job.JobID, spec)

	if job.ProgressTotal == 0 {
		_ = s.repo.UpdateProgress(s.ctx, job.JobID, 0, specProgressUnits(spec), "Starting job...")
	}

	if err := s.runner.Run(s.ctx, spec, reporter); err != nil {
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Job failed", err)
		return
	}

	_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil)
}

func (s *Service) buildSpec(job *Job) (JobSpec, error) {
	spec := JobSpec{
		Type:       job.JobType,
		SourcePath: job.SourcePath.String,
		DryRun:     job.DryRun,
	}

	for _, season := range job.Seasons {
		spec.Seasons = append(spec.Seasons, int(season))
	}
	for _, report := range job.Reports {
		parsed, err := stats.ParseReportType(report)
		if err != nil {
			return spec, err
		}
		spec.Reports = append(spec.Reports, parsed)
	}

	switch job.JobType {
	case JobTypeSeason, JobTypeSeasonRange:
		if len(spec.Seasons) == 0 {
			return spec, fmt.Errorf("job missing seasons")
		}
	case JobTypeLocalImport:
		// Source path may be empty; the runner falls back to its default tree.
	default:
		return spec, fmt.Errorf("unknown job type %s", job.JobType)
	}

	return spec, nil
}

// reporterFor fans callbacks out to the job row and, when wired, the
// websocket hub and the Redis stream.
func (s *Service) reporterFor(jobID string, spec JobSpec) Reporter {
	reporters := []Reporter{
		&jobReporter{
			ctx:   s.ctx,
			repo:  s.repo,
			jobID: jobID,
			total: specProgressUnits(spec),
		},
	}

	if s.broadcaster != nil || s.publisher != nil {
		reporters = append(reporters, &eventReporter{
			ctx:         s.ctx,
			jobID:       jobID,
			broadcaster: s.broadcaster,
			publisher:   s.publisher,
		})
	}

	return &multiReporter{reporters: reporters}
}

// multiReporter forwards every callback to each wrapped reporter.
type multiReporter struct {
	reporters []Reporter
}

func (m *multiReporter) OnJobStart(spec JobSpec) {
	for _, r := range m.reporters {
		r.OnJobStart(spec)
	}
}

func (m *multiReporter) OnSeasonStart(season, index, total int) {
	for _, r := range m.reporters {
		r.OnSeasonStart(season, index, total)
	}
}

func (m *multiReporter) OnFileProcessed(res fantrax.FileResult) {
	for _, r := range m.reporters {
		r.OnFileProcessed(res)
	}
}

func (m *multiReporter) OnProgress(message string, current, total int) {
	for _, r := range m.reporters {
		r.OnProgress(message, current, total)
	}
}

func (m *multiReporter) OnJobComplete() {
	for _, r := range m.reporters {
		r.OnJobComplete()
	}
}

func (m *multiReporter) OnJobError(err error) {
	for _, r := range m.reporters {
		r.OnJobError(err)
	}
}

// jobReporter persists progress onto the job row and its event log.
type jobReporter struct {
	ctx   context.Context
	repo  *Repository
	jobID string
	total int
	files int
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	if r.total == 0 {
		r.total = specProgressUnits(spec)
	}
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Job starting")
}

func (r *jobReporter) OnSeasonStart(season, index, total int) {
	msg := fmt.Sprintf("Refreshing season %d-%d (%d/%d)", season, season+1, index+1, total)
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, index, valueOr(total, r.total), msg)
}

func (r *jobReporter) OnFileProcessed(res fantrax.FileResult) {
	r.files++
	if res.Err != nil {
		msg := fmt.Sprintf("Team %s %d %s: %v", res.TeamID, res.Season, res.Report, res.Err)
		_ = r.repo.AppendEvent(r.ctx, r.jobID, "file_error", msg, &r.files, nil)
		return
	}
	msg := fmt.Sprintf("Team %s %d %s: %d skaters, %d goalies", res.TeamID, res.Season, res.Report, res.Skaters, res.Goalies)
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "file", msg, &r.files, nil)
}

func (r *jobReporter) OnProgress(message string, current, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), message)
}

func (r *jobReporter) OnJobComplete() {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, r.total, r.total, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "error", err.Error(), nil, nil)
}

// eventReporter fans callbacks out as Events to the websocket hub and the
// Redis stream. Delivery is best effort.
type eventReporter struct {
	ctx         context.Context
	jobID       string
	broadcaster Broadcaster
	publisher   EventPublisher
}

func (r *eventReporter) emit(eventType, message string, current, total int) {
	ev := Event{
		JobID:   r.jobID,
		Type:    eventType,
		Message: message,
		Current: current,
		Total:   total,
		At:      time.Now().UTC(),
	}
	if r.broadcaster != nil {
		r.broadcaster.BroadcastEvent(ev)
	}
	if r.publisher != nil {
		_ = r.publisher.PublishRefreshEvent(r.ctx, ev)
	}
}

func (r *eventReporter) OnJobStart(spec JobSpec) {
	r.emit("started", fmt.Sprintf("Starting %s job", spec.Type), 0, specProgressUnits(spec))
}

func (r *eventReporter) OnSeasonStart(season, index, total int) {
	r.emit("season", fmt.Sprintf("Refreshing season %d-%d", season, season+1), index, total)
}

func (r *eventReporter) OnFileProcessed(res fantrax.FileResult) {
	if res.Err != nil {
		r.emit("file_error", fmt.Sprintf("Team %s %d %s: %v", res.TeamID, res.Season, res.Report, res.Err), 0, 0)
		return
	}
	r.emit("file", fmt.Sprintf("Team %s %d %s: %d skaters, %d goalies", res.TeamID, res.Season, res.Report, res.Skaters, res.Goalies), 0, 0)
}

func (r *eventReporter) OnProgress(message string, current, total int) {
	r.emit("progress", message, current, total)
}

func (r *eventReporter) OnJobComplete() {
	r.emit("completed", "Job complete", 0, 0)
}

func (r *eventReporter) OnJobError(err error) {
	r.emit("error", err.Error(), 0, 0)
}

func specProgressUnits(spec JobSpec) int {
	switch spec.Type {
	case JobTypeSeason, JobTypeSeasonRange:
		return len(spec.Seasons)
	default:
		// Local imports discover their file count during the walk.
		return 0
	}
}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}

// normalizeReports validates requested report types. Empty means both
// stored reports; "both" itself is derived at read time and cannot be
// refreshed.
func normalizeReports(raw []string) (pq.StringArray, error) {
	if len(raw) == 0 {
		out := make(pq.StringArray, 0, 2)
		for _, r := range stats.StorageReports() {
			out = append(out, string(r))
		}
		return out, nil
	}

	out := make(pq.StringArray, 0, len(raw))
	for _, s := range raw {
		report, err := stats.ParseReportType(s)
		if err != nil {
			return nil, err
		}
		if report == stats.ReportBoth {
			return nil, fmt.Errorf("report type 'both' is derived at read time; refresh 'regular' or 'playoffs'")
		}
		out = append(out, string(report))
	}
	return out, nil
}

func validSeasons(seasons []int) ([]int, error) {
	if len(seasons) == 0 {
		return nil, fmt.Errorf("season job requires at least one season")
	}
	for _, season := range seasons {
		if season < 1917 || season > 2100 {
			return nil, fmt.Errorf("season %d out of range", season)
		}
	}
	return seasons, nil
}

func toInt64Array(seasons []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(seasons))
	for _, s := range seasons {
		out = append(out, int64(s))
	}
	return out
}
