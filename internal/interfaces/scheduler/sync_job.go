package scheduler

import (
	"context"
	"fmt"
	"strconv"

	"finch/internal/domain/sync"
)

// UserSyncer runs a full bank-feed sync for one user. The sync service
// satisfies it.
type UserSyncer interface {
	SyncUser(ctx context.Context, userID int64) (*sync.Result, error)
}

// UserLister enumerates users with at least one bank connection. The bank
// link repository satisfies it.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// SyncJob implements the Job interface for syncing one user's bank data.
type SyncJob struct {
	userID int64
	syncer UserSyncer
}

// NewSyncJob creates a sync job for a user.
func NewSyncJob(userID int64, syncer UserSyncer) *SyncJob {
	return &SyncJob{
		userID: userID,
		syncer: syncer,
	}
}

// Execute runs the sync. Partial failures inside the sync surface as an
// error so the run is recorded as failed and retried on the next schedule.
func (j *SyncJob) Execute(ctx context.Context) error {
	result, err := j.syncer.SyncUser(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("sync completed with %d errors", len(result.Errors))
	}

	return nil
}

// UserID returns the user ID associated with this job.
func (j *SyncJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

// Description returns a human-readable description of the job.
func (j *SyncJob) Description() string {
	return fmt.Sprintf("Bank sync for user %d", j.userID)
}

// SyncJobProvider builds one sync job per linked user. Wire it as the
// scheduler's JobProvider.
func SyncJobProvider(users UserLister, syncer UserSyncer) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		userIDs, err := users.ListUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list linked users: %w", err)
		}

		jobs := make([]Job, 0, len(userIDs))
		for _, userID := range userIDs {
			jobs = append(jobs, NewSyncJob(userID, syncer))
		}
		return jobs, nil
	}
}
