package thumbnailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadResult describes the record written by a successful upload run.
type UploadResult struct {
	Key    string
	Paths  AssetPathSet
	Record IndexRecord
}

// HandleFinalize runs the upload pipeline for a finalized object. Events that
// are out of scope return (nil, nil) without touching any collaborator. Any
// failing step aborts the run; staged files are removed on every path.
func (s *Service) HandleFinalize(ctx context.Context, ev StorageObjectEvent) (_ *UploadResult, err error) {
	log := s.eventLogger(ev)
	if !s.validator.InScope(ev) {
		s.metrics.RunStarted(pipelineUpload)("skipped")
		return nil, nil
	}

	finish := s.metrics.RunStarted(pipelineUpload)
	defer func() {
		if err != nil {
			log.Error("upload pipeline failed", zap.Error(err))
			finish("failed")
			return
		}
		finish("succeeded")
	}()

	ws := s.staging.Workspace()
	defer func() {
		if rerr := ws.Release(); rerr != nil {
			log.Warn("release staging workspace", zap.String("dir", ws.Dir()), zap.Error(rerr))
		}
	}()

	paths, err := NewAssetPathSet(ev.Name, s.cfg.ThumbnailDir, ws.Dir())
	if err != nil {
		return nil, fmt.Errorf("derive paths: %w", err)
	}
	key := DeriveKey(paths.SourcePath)
	log = log.With(zap.String("key", key))

	if err := s.step(ctx, pipelineUpload, "stage", func(context.Context) error {
		return ws.Prepare(paths)
	}); err != nil {
		return nil, err
	}

	if err := s.step(ctx, pipelineUpload, "download", func(ctx context.Context) error {
		return s.store.Download(ctx, ev.Bucket, paths.SourcePath, paths.LocalSourcePath)
	}); err != nil {
		return nil, err
	}
	log.Debug("source downloaded", zap.String("path", paths.LocalSourcePath))

	if err := s.step(ctx, pipelineUpload, "transcode", func(ctx context.Context) error {
		return s.extractor.ExtractFrame(ctx, paths.LocalSourcePath, paths.LocalThumbnailPath)
	}); err != nil {
		return nil, err
	}
	log.Debug("thumbnail created", zap.String("path", paths.LocalThumbnailPath))

	if err := s.step(ctx, pipelineUpload, "publish", func(ctx context.Context) error {
		return s.store.Upload(ctx, ev.Bucket, paths.LocalThumbnailPath, paths.ThumbnailPath, ThumbnailContentType)
	}); err != nil {
		return nil, err
	}
	log.Debug("thumbnail uploaded", zap.String("thumbnail", paths.ThumbnailPath))

	var sourceURL, thumbnailURL string
	if err := s.step(ctx, pipelineUpload, "sign", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			sourceURL, err = s.store.SignedURL(gctx, ev.Bucket, paths.SourcePath, s.cfg.SignedURLExpiry)
			return err
		})
		g.Go(func() (err error) {
			thumbnailURL, err = s.store.SignedURL(gctx, ev.Bucket, paths.ThumbnailPath, s.cfg.SignedURLExpiry)
			return err
		})
		return g.Wait()
	}); err != nil {
		return nil, err
	}

	record := IndexRecord{
		URL:          sourceURL,
		ThumbnailURL: thumbnailURL,
		Updated:      s.now().UTC(),
	}
	if err := s.step(ctx, pipelineUpload, "index", func(ctx context.Context) error {
		return s.index.Set(ctx, s.cfg.Collection, key, record)
	}); err != nil {
		return nil, err
	}
	log.Info("thumbnail indexed", zap.String("thumbnail", paths.ThumbnailPath))

	s.announce(ctx, log, ThumbnailEvent{
		ID:            ev.ID,
		Type:          EventThumbnailCreated,
		Key:           key,
		Bucket:        ev.Bucket,
		SourcePath:    paths.SourcePath,
		ThumbnailPath: paths.ThumbnailPath,
		URL:           record.URL,
		ThumbnailURL:  record.ThumbnailURL,
		OccurredAt:    record.Updated,
	})

	return &UploadResult{Key: key, Paths: paths, Record: record}, nil
}
