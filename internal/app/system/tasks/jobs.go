package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/app/system/media"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TrashRetentionJobName identifies the retention sweep for RunOnce.
const TrashRetentionJobName = "trash-retention"

// TrashRetentionJob creates a job that permanently removes entries that
// have sat in the trash longer than the retention window. File bytes are
// deleted from the media backend first; a backend failure leaves the row
// in place so the next sweep retries it.
func TrashRetentionJob(store *entry.Store, mediaStore media.Store, retention, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     TrashRetentionJobName,
		Interval: interval,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)

			expired, err := store.ListTrashedBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if len(expired) == 0 {
				return nil
			}

			var (
				deletable     []primitive.ObjectID
				mediaFailures int
			)
			for _, e := range expired {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				if !e.IsFolder {
					name := media.ObjectName(e.FileURL, e.Path)
					if name != "" {
						if err := mediaStore.DeleteFile(ctx, name); err != nil {
							mediaFailures++
							logger.Warn("retention sweep: media delete failed",
								zap.String("entry_id", e.ID.Hex()),
								zap.String("object", name),
								zap.Error(err))
							continue
						}
					}
				}
				deletable = append(deletable, e.ID)
			}

			deleted, err := store.DeleteByIDs(ctx, deletable)
			if err != nil {
				return err
			}

			logger.Info("trash retention sweep completed",
				zap.Int64("deleted", deleted),
				zap.Int("media_failures", mediaFailures),
				zap.Time("cutoff", cutoff))
			return nil
		},
	}
}
