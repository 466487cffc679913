package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/ossih/casemirror/internal/artifact"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/repository"
)

// BulkJobOptions selects the collection a bulk job walks.
type BulkJobOptions struct {
	Endpoint string
	Dataset  string

	// Start and End filter the collection by handling date.
	Start string
	End   string

	// AppendFile resumes from a previously-persisted item set instead of
	// the live list, enabling retry from a known checkpoint file.
	AppendFile string

	// Limit caps the number of items taken from the list. 0 means all.
	Limit int

	// BypassCache forces fresh fetches for every request of the job.
	BypassCache bool
}

// BulkJobService drives the list-then-detail pattern over paginated
// collections as a sequence of independently-committed steps. Exactly one
// item is processed per step and the checkpoint is persisted before control
// returns, so a job spanning thousands of items survives timeouts, worker
// restarts, and manual pause/resume.
type BulkJobService struct {
	registry  Registry
	fetch     Fetcher
	urls      *fetcher.URLBuilder
	jobs      *repository.JobRepository
	queue     *repository.QueueRepository
	artifacts artifact.Store
	blacklist map[string]struct{}
	prefix    string
	logger    *logger.Logger
}

// NewBulkJobService creates a bulk job service.
// Parameters:
//   - registry: endpoint handlers.
//   - fetch: remote fetcher.
//   - urls: URL builder.
//   - jobs: checkpoint persistence.
//   - queue: durable work queue for failed items.
//   - artifacts: output file store.
//   - blacklist: remote IDs to suppress without fetching.
//   - prefix: output file name prefix.
//   - log: logger instance.
// Returns:
//   - *BulkJobService: initialized service.
func NewBulkJobService(
	registry Registry,
	fetch Fetcher,
	urls *fetcher.URLBuilder,
	jobs *repository.JobRepository,
	queue *repository.QueueRepository,
	artifacts artifact.Store,
	blacklist []string,
	prefix string,
	log *logger.Logger,
) *BulkJobService {
	bl := make(map[string]struct{}, len(blacklist))
	for _, id := range blacklist {
		bl[id] = struct{}{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &BulkJobService{
		registry:  registry,
		fetch:     fetch,
		urls:      urls,
		jobs:      jobs,
		queue:     queue,
		artifacts: artifacts,
		blacklist: bl,
		prefix:    prefix,
		logger:    log,
	}
}

func (s *BulkJobService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Start creates a job checkpoint and loads its item list, either from the
// live filtered collection or from a persisted result file.
func (s *BulkJobService) Start(ctx context.Context, opts BulkJobOptions) (*domain.SyncJob, error) {
	handler, ok := s.registry[opts.Endpoint]
	if !ok || handler == nil {
		return nil, fmt.Errorf("no handler registered for endpoint %q", opts.Endpoint)
	}

	// A crashed run leaves its checkpoint in running state; require an
	// explicit resume instead of silently starting a parallel walk.
	if running, err := s.jobs.FindRunning(ctx, opts.Endpoint); err != nil {
		return nil, err
	} else if running != nil {
		return nil, fmt.Errorf("job %s is already running for endpoint %q; resume or finalize it first", running.ID, opts.Endpoint)
	}

	job := &domain.SyncJob{
		ID:     uuid.New().String(),
		Status: domain.JobStatusRunning,
	}
	job.SetMetaOnce(opts.Endpoint, opts.Dataset, handler.ListKey, s.outputName(opts))

	var items []domain.JSONMap
	if opts.AppendFile != "" {
		ids, err := s.readItemSet(ctx, opts.AppendFile)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			items = append(items, domain.JSONMap{"id": id})
		}
	} else {
		query := url.Values{}
		if opts.Start != "" {
			query.Set("start_date", opts.Start)
		}
		if opts.End != "" {
			query.Set("end_date", opts.End)
		}
		listURL := s.urls.List(opts.Endpoint, query)
		payload, err := s.fetch.Fetch(ctx, listURL, opts.BypassCache)
		if err != nil {
			return nil, err
		}
		items = listItems(payload, handler.ListKey)
	}

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	// Upstream page order is preserved; no client-side re-sorting.
	job.Remaining = make(domain.JSONMapList, len(items))
	copy(job.Remaining, items)

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldJobID:    job.ID,
		logger.FieldEndpoint: opts.Endpoint,
		logger.FieldCount:    len(items),
	}).Info("Bulk job started")

	return job, nil
}

// Step processes exactly one item and persists the checkpoint before
// returning. Every failure is recovered locally: the item lands in the
// failure set and, unless blacklisted, in the work queue for later
// re-drive.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: the job checkpoint, mutated in place.
//   - bypassCache: force fresh detail fetches.
// Returns:
//   - bool: true when no items remain after this step.
//   - error: non-nil only on storage failure.
func (s *BulkJobService) Step(ctx context.Context, job *domain.SyncJob, bypassCache bool) (bool, error) {
	if job.Done() {
		return true, nil
	}

	handler := s.registry[job.Endpoint]
	if handler == nil {
		return true, fmt.Errorf("no handler registered for endpoint %q", job.Endpoint)
	}

	item := job.Remaining[0]
	job.Remaining = job.Remaining[1:]

	id := itemID(item, handler.IDKeys...)
	switch {
	case id == "":
		// Each dropped item gets a distinct marker so the persisted skipped
		// set stays traceable: the self link when present, else the item's
		// position in the listed collection.
		label := fetcher.SelfLink(item)
		if label == "" {
			succeeded, failed, skipped := job.Counts()
			label = fmt.Sprintf("unidentified_%d", succeeded+failed+skipped)
		}
		job.Skipped = append(job.Skipped, label)
	case s.contains(job.Succeeded, id):
		job.Skipped = append(job.Skipped, id)
	case s.isBlacklisted(id):
		// Operator intent is explicit suppression: recorded as failed,
		// no fetch, never enqueued.
		job.Failed = append(job.Failed, id)
	default:
		s.stepFetch(ctx, job, handler, item, id, bypassCache)
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		return false, err
	}
	return job.Done(), nil
}

// stepFetch runs the detail fetch and apply for one item, updating the
// checkpoint's result sets.
func (s *BulkJobService) stepFetch(ctx context.Context, job *domain.SyncJob, handler *EndpointHandler, item domain.JSONMap, id string, bypassCache bool) {
	detailURL := fetcher.SelfLink(item)
	if detailURL == "" {
		detailURL = s.urls.Detail(job.Endpoint, id, "")
	}

	payload, err := s.fetch.Fetch(ctx, detailURL, bypassCache)
	if err == nil && len(payload) > 0 {
		status, applyErr := handler.Apply(ctx, payload)
		if applyErr == nil && status == domain.StatusCompleted {
			job.Succeeded = append(job.Succeeded, id)
			return
		}
		if applyErr != nil {
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldJobID:    job.ID,
				logger.FieldEntityID: id,
			}).WithError(applyErr).Error("Failed to apply item")
		}
	}

	if _, _, qErr := s.queue.Enqueue(ctx, job.Endpoint, id, domain.TaskReasonRetry, item); qErr != nil {
		s.log(ctx).WithField(logger.FieldEntityID, id).WithError(qErr).Error("Failed to enqueue retry task")
	}
	job.Failed = append(job.Failed, id)
}

// Run drives a job from start to finalize in one invocation. It stands in
// for the external driver when the process is not under a per-request time
// limit (CLI and cron use this).
func (s *BulkJobService) Run(ctx context.Context, opts BulkJobOptions) (*domain.SyncJob, error) {
	job, err := s.Start(ctx, opts)
	if err != nil {
		return nil, err
	}
	return job, s.drive(ctx, job, opts.BypassCache)
}

// Resume picks up a halted job by checkpoint ID and drives it to finalize.
func (s *BulkJobService) Resume(ctx context.Context, jobID string, bypassCache bool) (*domain.SyncJob, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("no job checkpoint %q", jobID)
	}
	return job, s.drive(ctx, job, bypassCache)
}

func (s *BulkJobService) drive(ctx context.Context, job *domain.SyncJob, bypassCache bool) error {
	for {
		if err := ctx.Err(); err != nil {
			// Halted jobs stay resumable: every step already committed.
			return err
		}
		done, err := s.Step(ctx, job, bypassCache)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	return s.Finalize(ctx, job)
}

// Finalize persists the succeeded and failed item sets as two separate
// durable outputs, so failures can be retried independently without
// re-running successes, and closes the checkpoint.
func (s *BulkJobService) Finalize(ctx context.Context, job *domain.SyncJob) error {
	if err := s.writeItemSet(ctx, job.Filename+".json", job.Succeeded); err != nil {
		return err
	}
	if err := s.writeItemSet(ctx, "failed_"+job.Filename+".json", job.Failed); err != nil {
		return err
	}

	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.Remaining = domain.JSONMapList{}
	if err := s.jobs.Save(ctx, job); err != nil {
		return err
	}

	succeeded, failed, skipped := job.Counts()
	elapsed := time.Duration(0)
	if job.StartedAt != nil {
		elapsed = now.Sub(*job.StartedAt)
	}
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldJobID:      job.ID,
		logger.FieldEndpoint:   job.Endpoint,
		"succeeded":            succeeded,
		"failed":               failed,
		"skipped":              skipped,
		logger.FieldDurationMs: elapsed.Milliseconds(),
	}).Info("Bulk job finalized")

	return nil
}

func (s *BulkJobService) isBlacklisted(id string) bool {
	_, ok := s.blacklist[id]
	return ok
}

func (s *BulkJobService) contains(set domain.StringArray, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// outputName derives the persisted output base name for a job.
func (s *BulkJobService) outputName(opts BulkJobOptions) string {
	name := opts.Endpoint
	if opts.Dataset != "" {
		name += "_" + opts.Dataset
	}
	return s.prefix + name
}

func (s *BulkJobService) writeItemSet(ctx context.Context, name string, ids domain.StringArray) error {
	if ids == nil {
		ids = domain.StringArray{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode item set: %w", err)
	}
	if err := s.artifacts.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to persist item set %s: %w", name, err)
	}
	return nil
}

func (s *BulkJobService) readItemSet(ctx context.Context, name string) ([]string, error) {
	data, err := s.artifacts.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read item set %s: %w", name, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode item set %s: %w", name, err)
	}
	return ids, nil
}
