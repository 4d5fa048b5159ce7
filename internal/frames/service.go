// Package frames turns a project, a video index and a sample index into a
// sampling plan and a JPEG image.
package frames

import (
	"context"
	"errors"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/metrics"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"github.com/BaamPark/WebLabelMV/internal/sampling"
	"github.com/BaamPark/WebLabelMV/internal/storage"
	"github.com/BaamPark/WebLabelMV/internal/video"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "frames"

type Service struct {
	storage storage.Storage
	prober  video.Prober
	fetcher video.Fetcher
	logger  *zap.Logger
}

func NewService(st storage.Storage, prober video.Prober, fetcher video.Fetcher, logger *zap.Logger) *Service {
	return &Service{
		storage: st,
		prober:  prober,
		fetcher: fetcher,
		logger:  logger,
	}
}

type Frame struct {
	Image       *video.Image
	Plan        sampling.Plan
	SampleIndex int
	FrameNumber int
}

// CheckProject validates in against the filesystem: the directory must exist
// and every selected video must resolve inside it. The returned input carries
// the directory in absolute form.
func (s *Service) CheckProject(in models.ProjectInput) (models.ProjectInput, error) {
	if err := in.Validate(); err != nil {
		return in, err
	}
	dir, err := s.storage.CheckDirectory(in.VideoDirectory)
	if err != nil {
		return in, err
	}
	for _, name := range in.SelectedVideos {
		if _, err := s.storage.ResolveVideo(dir, name); err != nil {
			return in, err
		}
	}
	in.VideoDirectory = dir
	return in, nil
}

// Metadata probes the selected video and derives its sampling plan. Nothing
// is cached; every call reflects the file as it is now.
func (s *Service) Metadata(ctx context.Context, p *models.Project, videoIndex int) (sampling.Plan, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "frames.Metadata")
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", p.ID),
		attribute.Int("video.index", videoIndex),
	)

	path, err := s.resolve(p, videoIndex)
	if err != nil {
		fail(span, err)
		return sampling.Plan{}, err
	}

	plan, err := s.plan(ctx, path, p.FPS)
	if err != nil {
		fail(span, err)
		return sampling.Plan{}, err
	}
	return plan, nil
}

// Frame fetches the physical frame behind sampleIndex. Indices past the last
// sample clamp to the final frame of the video.
func (s *Service) Frame(ctx context.Context, p *models.Project, videoIndex, sampleIndex int) (*Frame, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "frames.Frame")
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", p.ID),
		attribute.Int("video.index", videoIndex),
		attribute.Int("sample.index", sampleIndex),
	)

	if sampleIndex < 0 {
		err := apperr.InvalidInput("sample index must be non-negative, got %d", sampleIndex)
		metrics.FramesServedTotal.WithLabelValues("invalid").Inc()
		fail(span, err)
		return nil, err
	}

	path, err := s.resolve(p, videoIndex)
	if err != nil {
		metrics.FramesServedTotal.WithLabelValues(resultLabel(err)).Inc()
		fail(span, err)
		return nil, err
	}

	plan, err := s.plan(ctx, path, p.FPS)
	if err != nil {
		metrics.FramesServedTotal.WithLabelValues(resultLabel(err)).Inc()
		fail(span, err)
		return nil, err
	}

	frame := plan.FrameNumber(sampleIndex)
	span.SetAttributes(attribute.Int("frame.number", frame))

	img, err := s.fetch(ctx, path, frame)
	if err != nil {
		metrics.FramesServedTotal.WithLabelValues(resultLabel(err)).Inc()
		fail(span, err)
		s.logger.Error("frame fetch failed",
			zap.String("path", path),
			zap.Int("sample_index", sampleIndex),
			zap.Int("frame", frame),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.FramesServedTotal.WithLabelValues("ok").Inc()
	return &Frame{
		Image:       img,
		Plan:        plan,
		SampleIndex: sampleIndex,
		FrameNumber: frame,
	}, nil
}

func (s *Service) resolve(p *models.Project, videoIndex int) (string, error) {
	name, err := p.Video(videoIndex)
	if err != nil {
		return "", err
	}
	return s.storage.ResolveVideo(p.VideoDirectory, name)
}

func (s *Service) plan(ctx context.Context, path string, targetFPS int) (sampling.Plan, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "video.Probe")
	defer span.End()

	start := time.Now()
	meta, err := s.prober.Probe(ctx, path)
	if err != nil {
		metrics.ProbeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		fail(span, err)
		return sampling.Plan{}, err
	}
	metrics.ProbeDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	plan := sampling.NewPlan(meta.NativeFPS, meta.TotalFrames, targetFPS)
	span.SetAttributes(
		attribute.Float64("video.native_fps", plan.NativeFPS),
		attribute.Int("video.total_frames", plan.TotalFrames),
		attribute.Int("sampling.step", plan.Step),
	)
	s.logger.Debug("probed video",
		zap.String("path", path),
		zap.Float64("native_fps", plan.NativeFPS),
		zap.Int("total_frames", plan.TotalFrames),
		zap.Int("step", plan.Step),
		zap.Int("sampled_count", plan.SampledCount),
	)
	return plan, nil
}

func (s *Service) fetch(ctx context.Context, path string, frame int) (*video.Image, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "video.Fetch")
	defer span.End()

	start := time.Now()
	img, err := s.fetcher.Fetch(ctx, path, frame)
	if err != nil {
		metrics.FrameFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		fail(span, err)
		return nil, err
	}
	metrics.FrameFetchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return img, nil
}

// resultLabel names the step that failed for the frames_served counter.
func resultLabel(err error) string {
	var de *video.DecodeError
	if errors.As(err, &de) {
		return string(de.Stage)
	}
	var oe *video.OpenError
	if errors.As(err, &oe) {
		return string(video.StageOpen)
	}
	if errors.Is(err, apperr.ErrInvalidInput) {
		return "invalid"
	}
	return "error"
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
