// Package app wires configuration into a ready export pipeline. Both the API
// server and the CLI build their exporter here.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"imgexport/internal/blob"
	"imgexport/internal/entitlement"
	"imgexport/internal/export"
	"imgexport/internal/infra"
	"imgexport/internal/media/watermark"
	"imgexport/internal/storage"
)

// Pipeline is a built exporter together with the sources it reads from.
type Pipeline struct {
	Exporter *export.Exporter
	Sources  *blob.Router
	Files    *storage.FileStore
}

// Extras are optional collaborators supplied by the caller.
type Extras struct {
	Profiles entitlement.ProfileLoader
	Policies export.Policies
	Recorder export.Recorder
	Notifier export.Notifier
}

// Build assembles the source router, entitlement provider and exporter.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, extras Extras) (*Pipeline, error) {
	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	sources := &blob.Router{
		HTTP: blob.NewHTTPSource(cfg.FetchTimeout, cfg.ImageSourceAllowlist, logger),
		File: blob.NewFileSource(files),

		StorageBaseURL: cfg.StorageBaseURL,
	}
	if cfg.S3Bucket != "" {
		client, err := blob.NewS3Client(ctx, blob.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 source: %w", err)
		}
		sources.S3 = blob.NewS3Source(client)
	}

	mark, err := watermark.New()
	if err != nil {
		return nil, err
	}
	policies := extras.Policies
	if policies == nil {
		policies = entitlement.NewProvider(extras.Profiles, logger)
	}

	exp, err := export.New(export.Deps{
		Source:      sources,
		Policies:    policies,
		Watermarker: mark,
		Notifier:    extras.Notifier,
		Recorder:    extras.Recorder,
		Logger:      logger,
	}, export.Options{
		MaxWidth:         cfg.ExportMaxWidth,
		TargetBytes:      cfg.ExportTargetBytes,
		BaseName:         cfg.ExportBaseName,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{Exporter: exp, Sources: sources, Files: files}, nil
}
