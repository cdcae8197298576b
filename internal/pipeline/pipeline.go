package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/galerija/imagepipe/internal/derive"
	"github.com/galerija/imagepipe/internal/sku"
	"github.com/galerija/imagepipe/internal/store"
	"github.com/galerija/imagepipe/pkg/logger"
)

// Runner executes the ingestion state machine for single source objects:
// fetch original, derive variants, store them under the catalog-key (and
// translated-key) namespaces, optionally export, then clean up. One
// attempt per run; errors are reported, never retried here.
type Runner struct {
	store      store.Store
	translator sku.Translator
	generator  Generator
	exporter   Exporter // nil disables the export substep
	profiles   []derive.Profile
	opts       Options
	log        zerolog.Logger
}

func NewRunner(st store.Store, tr sku.Translator, gen Generator, exp Exporter, profiles []derive.Profile, opts Options) *Runner {
	return &Runner{
		store:      st,
		translator: tr,
		generator:  gen,
		exporter:   exp,
		profiles:   profiles,
		opts:       opts,
		log:        logger.Component("pipeline"),
	}
}

// SkipReason returns a non-empty reason when key must not enter the
// pipeline: derivative keys would otherwise loop forever through the
// creation events they themselves emit.
func (r *Runner) SkipReason(key string) string {
	if strings.HasSuffix(key, "/") {
		return "directory marker"
	}
	for _, p := range r.profiles {
		if strings.Contains(key, "/"+p.Folder+"/") {
			return "already a derivative"
		}
	}
	ext := strings.ToLower(path.Ext(key))
	if !contains(r.opts.SupportedExtensions, ext) {
		return fmt.Sprintf("unsupported extension %q", ext)
	}
	return ""
}

// Run processes one source object to completion or failure. Every temp
// file created along the way is removed on every exit path.
func (r *Runner) Run(ctx context.Context, task Task) (res RunResult) {
	started := time.Now()
	res = RunResult{Bucket: task.Bucket, Key: task.Key, State: StateReceived}
	defer func() { res.Duration = time.Since(started) }()

	if reason := r.SkipReason(task.Key); reason != "" {
		res.SkipReason = reason
		res.State = StateDone
		return res
	}

	catalogKey := sku.Extract(task.Key, sku.Mode(r.opts.SKUMode))
	realKey := r.translator.Resolve(ctx, catalogKey)
	res.CatalogKey = catalogKey
	res.RealKey = realKey
	res.State = StateKeyExtracted
	r.log.Debug().Str("key", task.Key).Str("catalog_key", catalogKey).Str("real_key", realKey).Msg("keys extracted")

	base := path.Base(task.Key)
	tempFiles := []string{}
	defer func() { r.cleanup(tempFiles) }()

	srcPath := filepath.Join(r.opts.TempDir, fmt.Sprintf("original_%s_%s", uuid.NewString(), base))
	if err := r.store.GetToFile(ctx, task.Bucket, task.Key, srcPath); err != nil {
		if store.IsNotFound(err) {
			res.SkipReason = "object no longer exists"
			res.State = StateDone
			return res
		}
		res.State = StateFailed
		res.Err = fmt.Errorf("download: %w", err)
		return res
	}
	tempFiles = append(tempFiles, srcPath)
	res.State = StateDownloaded

	results, err := r.generator.Generate(srcPath, r.profiles)
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}
	res.State = StateProcessing

	stem := strings.TrimSuffix(base, path.Ext(base))
	ext := strings.ToLower(path.Ext(base))

	for _, dr := range results {
		outcome := ProfileOutcome{Profile: dr.Profile.Name}

		if dr.WebPPath != "" {
			tempFiles = append(tempFiles, dr.WebPPath)
		}
		if dr.OriginalPath != "" {
			tempFiles = append(tempFiles, dr.OriginalPath)
		}

		if dr.Err != nil {
			// One corrupt profile must not sink the rest.
			r.log.Error().Err(dr.Err).Str("key", task.Key).Str("profile", dr.Profile.Name).Msg("profile derivation failed")
			outcome.Err = dr.Err
			res.Profiles = append(res.Profiles, outcome)
			continue
		}

		keys, err := r.storeDerivative(ctx, task.Bucket, dr.WebPPath, catalogKey, realKey, dr.Profile.Folder, stem+".webp", "image/webp")
		outcome.Keys = append(outcome.Keys, keys...)
		if err != nil {
			outcome.Err = err
			res.Profiles = append(res.Profiles, outcome)
			continue
		}
		derivativesCreated.WithLabelValues(dr.Profile.Name).Inc()

		if dr.OriginalPath != "" {
			keys, err = r.storeDerivative(ctx, task.Bucket, dr.OriginalPath, catalogKey, realKey, dr.Profile.Folder, stem+ext, contentTypeFor(ext))
			outcome.Keys = append(outcome.Keys, keys...)
			if err != nil {
				outcome.Err = err
				res.Profiles = append(res.Profiles, outcome)
				continue
			}
		}

		if dr.Profile.Export && r.exporter != nil {
			r.export(task.Key, dr, stem, ext)
		}

		res.Profiles = append(res.Profiles, outcome)
	}

	res.State = StateCleanup
	r.cleanup(tempFiles)
	tempFiles = nil

	if r.opts.DeleteOriginalAfterProcess {
		if err := r.store.Remove(ctx, task.Bucket, task.Key); err != nil && !store.IsNotFound(err) {
			r.log.Error().Err(err).Str("key", task.Key).Msg("failed to delete source object")
		} else {
			r.log.Info().Str("key", task.Key).Msg("source object deleted")
		}
	}

	res.State = StateDone
	return res
}

// storeDerivative uploads one derivative under the catalog-key prefix
// and, when the translated key differs, under that prefix too.
func (r *Runner) storeDerivative(ctx context.Context, bucket, localPath, catalogKey, realKey, folder, filename, contentType string) ([]string, error) {
	var stored []string

	catalogObject := path.Join(catalogKey, folder, filename)
	if err := r.store.PutFromFile(ctx, bucket, catalogObject, localPath, contentType); err != nil {
		return stored, fmt.Errorf("upload %s: %w", catalogObject, err)
	}
	stored = append(stored, catalogObject)

	if realKey != catalogKey {
		realObject := path.Join(realKey, folder, filename)
		if err := r.store.PutFromFile(ctx, bucket, realObject, localPath, contentType); err != nil {
			return stored, fmt.Errorf("upload %s: %w", realObject, err)
		}
		stored = append(stored, realObject)
	}

	return stored, nil
}

// export pushes the exportable profile's outputs to the transfer target
// base path. Failures are logged and never undo the store writes.
func (r *Runner) export(key string, dr derive.Result, stem, ext string) {
	targets := []struct{ local, name string }{
		{dr.WebPPath, stem + ".webp"},
	}
	if dr.OriginalPath != "" {
		targets = append(targets, struct{ local, name string }{dr.OriginalPath, stem + ext})
	}

	for _, t := range targets {
		remote := path.Join(r.opts.ExportBasePath, t.name)
		if err := r.exporter.Export(t.local, remote); err != nil {
			exportFailures.Inc()
			r.log.Error().Err(err).Str("key", key).Str("remote", remote).Msg("ftp export failed")
			continue
		}
		r.log.Info().Str("key", key).Str("remote", remote).Msg("derivative exported")
	}
}

func (r *Runner) cleanup(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			r.log.Error().Err(err).Str("path", p).Msg("failed to remove temp file")
		}
	}
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
