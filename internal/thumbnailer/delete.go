package thumbnailer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/your-org/thumbflow/pkg/docstore"
	"github.com/your-org/thumbflow/pkg/storage/objectstore"
)

// HandleDelete runs the deletion pipeline for a removed object: it deletes the
// derived thumbnail and the index record. Both deletes tolerate absence, so
// replaying the same event succeeds.
func (s *Service) HandleDelete(ctx context.Context, ev StorageObjectEvent) (err error) {
	log := s.eventLogger(ev)
	if !s.validator.InScope(ev) {
		s.metrics.RunStarted(pipelineDelete)("skipped")
		return nil
	}

	finish := s.metrics.RunStarted(pipelineDelete)
	defer func() {
		if err != nil {
			log.Error("delete pipeline failed", zap.Error(err))
			finish("failed")
			return
		}
		finish("succeeded")
	}()

	thumbnailPath := ThumbnailPath(s.cfg.ThumbnailDir, ev.Name)
	key := DeriveKey(ev.Name)
	log = log.With(zap.String("key", key))

	if err := s.step(ctx, pipelineDelete, "delete_thumbnail", func(ctx context.Context) error {
		err := s.store.Delete(ctx, ev.Bucket, thumbnailPath)
		if objectstore.IsNotFound(err) {
			log.Info("thumbnail already absent", zap.String("thumbnail", thumbnailPath))
			return nil
		}
		return err
	}); err != nil {
		return err
	}
	log.Debug("thumbnail deleted", zap.String("thumbnail", thumbnailPath))

	if err := s.step(ctx, pipelineDelete, "delete_index", func(ctx context.Context) error {
		err := s.index.Delete(ctx, s.cfg.Collection, key)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	}); err != nil {
		return err
	}
	log.Info("thumbnail and index record removed", zap.String("thumbnail", thumbnailPath))

	s.announce(ctx, log, ThumbnailEvent{
		ID:            ev.ID,
		Type:          EventThumbnailDeleted,
		Key:           key,
		Bucket:        ev.Bucket,
		SourcePath:    ev.Name,
		ThumbnailPath: thumbnailPath,
		OccurredAt:    s.now().UTC(),
	})
	return nil
}
