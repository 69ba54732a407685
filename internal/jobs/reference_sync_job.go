package jobs

import (
	"context"
	"time"

	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/usecase/reference"
)

// Syncer - синхронизация одного справочника по имени
type Syncer interface {
	Sync(ctx context.Context, entity string) (*reference.SyncReport, error)
}

// ReferenceSyncJob периодически синхронизирует все справочники
type ReferenceSyncJob struct {
	syncer   Syncer
	entities []string
	logger   logger.Logger
}

// NewReferenceSyncJob создает задачу синхронизации справочников
func NewReferenceSyncJob(syncer Syncer, logger logger.Logger) *ReferenceSyncJob {
	return &ReferenceSyncJob{
		syncer: syncer,
		// аэропорты и авиакомпании нужны для сопоставления рейсов, типы судов - последними
		entities: []string{reference.EntityAirports, reference.EntityAirlines, reference.EntityAircrafts},
		logger:   logger.With("job", "reference_sync"),
	}
}

// Run синхронизирует справочники по очереди. Ошибка одного справочника не останавливает остальные.
// Возвращает число неудачных синхронизаций.
func (j *ReferenceSyncJob) Run(ctx context.Context) int {
	failed := 0
	for _, entity := range j.entities {
		if ctx.Err() != nil {
			return failed
		}
		if _, err := j.syncer.Sync(ctx, entity); err != nil {
			failed++
			j.logger.Error("Scheduled reference sync failed", map[string]interface{}{
				"entity": entity,
				"error":  err,
			})
		}
	}
	return failed
}

// RunScheduled выполняет синхронизацию сразу и затем каждые interval до отмены ctx
func (j *ReferenceSyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("Reference sync scheduled", map[string]interface{}{"interval": interval.String()})
	j.Run(ctx)

	for {
		select {
		case <-ticker.C:
			j.Run(ctx)
		case <-ctx.Done():
			j.logger.Info("Reference sync job stopped")
			return
		}
	}
}

// Start запускает RunScheduled в отдельной горутине; канал закрывается после остановки
func Start(ctx context.Context, job *ReferenceSyncJob, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		job.RunScheduled(ctx, interval)
	}()
	return done
}
