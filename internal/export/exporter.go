// Package export composes fetching, resizing, watermarking and compression
// into the user-facing download, batch download and copy operations.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"imgexport/internal/domain"
	"imgexport/internal/media/codec"
	"imgexport/internal/media/compress"
	"imgexport/internal/media/resize"
	"imgexport/pkg/zip"
)

const (
	DefaultMaxWidth    = 1200
	DefaultTargetBytes = 200 * 1024

	archiveMIME = "application/zip"
)

// Source yields the raw bytes behind an image URL.
type Source interface {
	Fetch(ctx context.Context, url string) (domain.ImageBytes, error)
}

// Saver delivers a finished file to the user.
type Saver interface {
	Save(ctx context.Context, filename, mime string, data []byte) error
	// SaveLink starts a direct download of url without any processing.
	SaveLink(ctx context.Context, filename, url string) error
}

// Clipboard accepts a single PNG image.
type Clipboard interface {
	Write(ctx context.Context, mime string, data []byte) error
}

// Notifier shows the outcome of a job to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Policies resolves the export policy for a session.
type Policies interface {
	Policy(ctx context.Context, session domain.Session) domain.ExportPolicy
}

// Recorder receives outcome counters.
type Recorder interface {
	RecordExport(ctx context.Context, op Op, state State)
	RecordOmitted(ctx context.Context, op Op, n int)
}

// Codec decodes sources and encodes outputs.
type Codec interface {
	Decode(data []byte, mime string) (*image.NRGBA, error)
	codec.Encoder
}

// Watermarker composites the service mark onto a surface.
type Watermarker interface {
	Apply(img *image.NRGBA, enabled bool) (*image.NRGBA, error)
}

// Options tune the pipeline.
type Options struct {
	MaxWidth    int
	TargetBytes int
	BaseName    string
	// BatchConcurrency caps parallel pipelines in DownloadAll. 0 is unbounded.
	BatchConcurrency int
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.TargetBytes <= 0 {
		o.TargetBytes = DefaultTargetBytes
	}
	if o.BaseName = Slug(o.BaseName); o.BaseName == "" {
		o.BaseName = defaultBaseName
	}
	return o
}

// Exporter runs export jobs. It holds no per-job state and is safe for
// concurrent use.
type Exporter struct {
	source   Source
	policies Policies
	codec    Codec
	mark     Watermarker
	notifier Notifier
	recorder Recorder
	logger   zerolog.Logger
	opts     Options
}

// Deps groups the collaborators of an Exporter.
type Deps struct {
	Source      Source
	Policies    Policies
	Codec       Codec
	Watermarker Watermarker
	Notifier    Notifier
	Recorder    Recorder
	Logger      zerolog.Logger
}

// New builds an Exporter. Source, Policies and Watermarker are required.
func New(deps Deps, opts Options) (*Exporter, error) {
	if deps.Source == nil {
		return nil, errors.New("export: source is required")
	}
	if deps.Policies == nil {
		return nil, errors.New("export: policies are required")
	}
	if deps.Watermarker == nil {
		return nil, errors.New("export: watermarker is required")
	}
	c := deps.Codec
	if c == nil {
		c = codec.Codec{}
	}
	return &Exporter{
		source:   deps.Source,
		policies: deps.Policies,
		codec:    c,
		mark:     deps.Watermarker,
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		opts:     opts.withDefaults(),
	}, nil
}

// SingleRequest asks for one image.
type SingleRequest struct {
	Session  domain.Session
	URL      string
	Index    *int
	BaseName string
}

// BatchRequest asks for several images bundled in one archive.
type BatchRequest struct {
	Session  domain.Session
	URLs     []string
	BaseName string
}

// Policy exposes the resolved policy for a session.
func (e *Exporter) Policy(ctx context.Context, session domain.Session) domain.ExportPolicy {
	return e.policies.Policy(ctx, session)
}

// DownloadOne exports a single JPEG. Any processing or save failure falls
// back to a direct download of the untouched source.
func (e *Exporter) DownloadOne(ctx context.Context, req SingleRequest, saver Saver) Report {
	job := newJob(OpDownload, []string{req.URL})
	base := e.baseName(req.BaseName)
	policy := e.policies.Policy(ctx, req.Session)
	art := &job.Artifacts[0]
	rep := Report{JobID: job.ID, Op: job.Op}

	out, err := e.process(ctx, art, policy, domain.MIMEJPEG)
	if err == nil {
		art.Filename = singleName(base, req.Index, codec.Extension(domain.MIMEJPEG))
		art.advance(StateDelivering)
		if err = saver.Save(ctx, art.Filename, domain.MIMEJPEG, out); err == nil {
			art.advance(StateSucceeded)
			rep.State, rep.Message, rep.Filename, rep.Entries = StateSucceeded, "Image downloaded", art.Filename, 1
			return e.finish(ctx, job, rep)
		}
		err = fmt.Errorf("save: %w", err)
	}

	e.artifactLogger(job, art).Warn().Err(err).Msg("export: processing failed, falling back to direct download")
	art.Filename = linkName(base, req.Index, req.URL)
	if linkErr := saver.SaveLink(ctx, art.Filename, req.URL); linkErr != nil {
		art.fail(errors.Join(err, linkErr), StateFailedTerminal)
		rep.State, rep.Kind, rep.Message, rep.err = StateFailedTerminal, KindDelivery, "Download failed, please try again", art.err
		return e.finish(ctx, job, rep)
	}
	art.fail(err, StateFailedWithFallback)
	rep.State, rep.Message, rep.Filename, rep.Entries = StateFailedWithFallback, "Download started", art.Filename, 1
	return e.finish(ctx, job, rep)
}

// DownloadAll exports every URL into one archive. Failed entries are left
// out; only a failure to build or save the archive fails the job.
func (e *Exporter) DownloadAll(ctx context.Context, req BatchRequest, saver Saver) Report {
	job := newJob(OpDownloadAll, req.URLs)
	base := e.baseName(req.BaseName)
	policy := e.policies.Policy(ctx, req.Session)
	rep := Report{JobID: job.ID, Op: job.Op, Filename: base + ".zip"}

	entries := make([]*zip.Asset, len(req.URLs))
	var g errgroup.Group
	if e.opts.BatchConcurrency > 0 {
		g.SetLimit(e.opts.BatchConcurrency)
	}
	for i := range job.Artifacts {
		art := &job.Artifacts[i]
		g.Go(func() error {
			out, err := e.process(ctx, art, policy, domain.MIMEJPEG)
			if err != nil {
				e.artifactLogger(job, art).Warn().Err(err).Msg("export: entry omitted from archive")
				return nil
			}
			art.Filename = EntryName(base, art.Index, codec.Extension(domain.MIMEJPEG))
			art.advance(StateDelivering)
			entries[art.Index] = &zip.Asset{Filename: art.Filename, MIME: domain.MIMEJPEG, Data: out}
			return nil
		})
	}
	_ = g.Wait()

	assets := make([]zip.Asset, 0, len(entries))
	for _, a := range entries {
		if a != nil {
			assets = append(assets, *a)
		}
	}
	rep.Entries = len(assets)
	rep.Omitted = len(entries) - len(assets)
	if rep.Omitted > 0 && e.recorder != nil {
		e.recorder.RecordOmitted(ctx, job.Op, rep.Omitted)
	}

	blob, err := zip.ArchiveAssets(assets)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrArchive, err)
		e.failDelivering(job, err)
		rep.State, rep.Kind, rep.Message, rep.err = StateFailedTerminal, KindArchive, "Could not build the archive", err
		return e.finish(ctx, job, rep)
	}
	if err := saver.Save(ctx, rep.Filename, archiveMIME, blob); err != nil {
		err = fmt.Errorf("save archive: %w", err)
		e.failDelivering(job, err)
		rep.State, rep.Kind, rep.Message, rep.err = StateFailedTerminal, KindDelivery, "Could not save the archive", err
		return e.finish(ctx, job, rep)
	}
	for i := range job.Artifacts {
		if job.Artifacts[i].State == StateDelivering {
			job.Artifacts[i].advance(StateSucceeded)
		}
	}
	rep.State = StateSucceeded
	rep.Message = fmt.Sprintf("Downloaded %d of %d images", rep.Entries, len(entries))
	return e.finish(ctx, job, rep)
}

// CopyOne places a PNG of the image on the clipboard. There is no fallback;
// processing and clipboard failures are reported with distinct kinds.
func (e *Exporter) CopyOne(ctx context.Context, req SingleRequest, clip Clipboard) Report {
	job := newJob(OpCopy, []string{req.URL})
	policy := e.policies.Policy(ctx, req.Session)
	art := &job.Artifacts[0]
	rep := Report{JobID: job.ID, Op: job.Op}

	out, err := e.process(ctx, art, policy, domain.MIMEPNG)
	if err != nil {
		e.artifactLogger(job, art).Warn().Err(err).Msg("export: copy processing failed")
		rep.State, rep.Kind, rep.Message, rep.err = StateFailedTerminal, KindProcessing, "Could not process the image", err
		return e.finish(ctx, job, rep)
	}

	art.advance(StateDelivering)
	if err := clip.Write(ctx, domain.MIMEPNG, out); err != nil {
		if !errors.Is(err, domain.ErrClipboard) {
			err = fmt.Errorf("%w: %v", domain.ErrClipboard, err)
		}
		art.fail(err, StateFailedTerminal)
		e.artifactLogger(job, art).Warn().Err(err).Msg("export: clipboard write failed")
		msg := "Could not copy the image to the clipboard"
		if errors.Is(err, domain.ErrClipboardFocus) {
			msg = "Clipboard unavailable: keep this window focused and allow clipboard access"
		}
		rep.State, rep.Kind, rep.Message, rep.err = StateFailedTerminal, KindClipboard, msg, err
		return e.finish(ctx, job, rep)
	}
	art.advance(StateSucceeded)
	rep.State, rep.Message, rep.Entries = StateSucceeded, "Image copied to clipboard", 1
	return e.finish(ctx, job, rep)
}

// process runs fetch -> decode -> resize -> watermark -> encode for one
// artifact and returns the encoded bytes. On failure the artifact is left in
// the failed_terminal state with FailedAt set.
func (e *Exporter) process(ctx context.Context, art *Artifact, policy domain.ExportPolicy, format string) ([]byte, error) {
	fail := func(err error) ([]byte, error) {
		art.fail(err, StateFailedTerminal)
		return nil, err
	}

	art.advance(StateFetching)
	blob, err := e.source.Fetch(ctx, art.URL)
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = fmt.Errorf("%w: %v", domain.ErrFetch, err)
		}
		return fail(err)
	}

	art.advance(StateDecoding)
	src, err := e.codec.Decode(blob.Data, blob.MIME)
	if err != nil {
		return fail(err)
	}

	art.advance(StateTransforming)
	maxWidth := e.opts.MaxWidth
	if policy.SkipCompression {
		maxWidth = 0
	}
	surface := resize.Apply(src, maxWidth)
	surface, err = e.mark.Apply(surface, !policy.SkipWatermark)
	if err != nil {
		return fail(err)
	}

	art.advance(StateEncoding)
	res, err := compress.Compress(surface, compress.Target{
		TargetBytes:     e.opts.TargetBytes,
		Format:          format,
		SkipCompression: policy.SkipCompression,
	}, e.codec)
	if err != nil {
		return fail(err)
	}
	art.Bytes = len(res.Data)
	art.Width, art.Height = surface.Bounds().Dx(), surface.Bounds().Dy()
	art.Quality = res.Quality
	return res.Data, nil
}

func (e *Exporter) failDelivering(job *Job, err error) {
	for i := range job.Artifacts {
		if job.Artifacts[i].State == StateDelivering {
			job.Artifacts[i].fail(err, StateFailedTerminal)
		}
	}
}

// finish reports the job exactly once.
func (e *Exporter) finish(ctx context.Context, job *Job, rep Report) Report {
	rep.Artifacts = job.Artifacts
	rep.Elapsed = time.Since(job.StartedAt)
	ev := e.logger.Info()
	if !rep.Succeeded() {
		ev = e.logger.Error().Err(rep.err)
	}
	ev.Str("job_id", job.ID).
		Str("op", string(job.Op)).
		Str("state", string(rep.State)).
		Int("entries", rep.Entries).
		Int("omitted", rep.Omitted).
		Dur("elapsed", rep.Elapsed).
		Msg("export: job finished")
	if e.recorder != nil {
		e.recorder.RecordExport(ctx, job.Op, rep.State)
	}
	if e.notifier != nil {
		e.notifier.Notify(ctx, rep.notice())
	}
	return rep
}

func (e *Exporter) baseName(requested string) string {
	if s := Slug(requested); s != "" {
		return s
	}
	return e.opts.BaseName
}

func (e *Exporter) artifactLogger(job *Job, art *Artifact) *zerolog.Logger {
	l := e.logger.With().
		Str("job_id", job.ID).
		Str("op", string(job.Op)).
		Int("index", art.Index).
		Str("url", art.URL).
		Str("failed_at", string(art.FailedAt)).
		Logger()
	return &l
}

// LogNotifier writes notices to a logger. It is what the CLI shows as toasts.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notice) {
	ev := l.Logger.Info()
	if !n.Success {
		ev = l.Logger.Error().Str("kind", string(n.Kind))
	}
	ev.Str("job_id", n.JobID).Str("op", string(n.Op)).Msg(n.Message)
}
