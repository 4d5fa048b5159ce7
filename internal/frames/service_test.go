package frames

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/metrics"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"github.com/BaamPark/WebLabelMV/internal/storage"
	"github.com/BaamPark/WebLabelMV/internal/video"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProber struct {
	meta  video.Metadata
	err   error
	paths []string
}

func (f *fakeProber) Probe(_ context.Context, path string) (video.Metadata, error) {
	f.paths = append(f.paths, path)
	return f.meta, f.err
}

type fakeFetcher struct {
	err    error
	frames []int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, frame int) (*video.Image, error) {
	f.frames = append(f.frames, frame)
	if f.err != nil {
		return nil, f.err
	}
	return &video.Image{Data: []byte{0xff, 0xd8}, Format: "jpeg", ContentType: "image/jpeg"}, nil
}

func setup(t *testing.T, meta video.Metadata) (*Service, *models.Project, *fakeProber, *fakeFetcher) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mkv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	st, err := storage.NewLocalStorage("")
	require.NoError(t, err)

	prober := &fakeProber{meta: meta}
	fetcher := &fakeFetcher{}
	svc := NewService(st, prober, fetcher, zap.NewNop())

	p := models.NewProject("user-1", models.ProjectInput{
		VideoDirectory: dir,
		SelectedVideos: []string{"a.mp4", "b.mkv"},
		FPS:            5,
	})
	return svc, p, prober, fetcher
}

func TestMetadata(t *testing.T) {
	svc, p, prober, _ := setup(t, video.Metadata{NativeFPS: 30, TotalFrames: 300})

	plan, err := svc.Metadata(context.Background(), p, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, plan.Step)
	assert.Equal(t, 50, plan.SampledCount)
	assert.Equal(t, 5, plan.TargetFPS)
	assert.Equal(t, []string{filepath.Join(p.VideoDirectory, "b.mkv")}, prober.paths)
}

func TestMetadataNormalizesZeroRate(t *testing.T) {
	svc, p, _, _ := setup(t, video.Metadata{NativeFPS: 0, TotalFrames: 10})

	plan, err := svc.Metadata(context.Background(), p, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, plan.NativeFPS)
	assert.Equal(t, 1, plan.Step)
	assert.Equal(t, 10, plan.SampledCount)
}

func TestMetadataVideoIndexOutOfRange(t *testing.T) {
	svc, p, prober, _ := setup(t, video.Metadata{NativeFPS: 30, TotalFrames: 300})

	_, err := svc.Metadata(context.Background(), p, 2)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Empty(t, prober.paths)
}

func TestMetadataRejectsEscapingVideo(t *testing.T) {
	svc, p, prober, _ := setup(t, video.Metadata{NativeFPS: 30, TotalFrames: 300})
	p.SelectedVideos = []string{"../../etc/passwd"}

	_, err := svc.Metadata(context.Background(), p, 0)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Empty(t, prober.paths, "nothing may be opened outside the directory")
}

func TestFrameMapsSampleIndex(t *testing.T) {
	tests := []struct {
		name        string
		meta        video.Metadata
		fps         int
		sample      int
		wantFrame   int
		wantStep    int
		wantSampled int
	}{
		{"30fps at 5", video.Metadata{NativeFPS: 30, TotalFrames: 300}, 5, 10, 60, 6, 50},
		{"past the end clamps", video.Metadata{NativeFPS: 25, TotalFrames: 100}, 10, 60, 99, 2, 50},
		{"target above native", video.Metadata{NativeFPS: 24, TotalFrames: 48}, 30, 47, 47, 1, 48},
		{"first sample", video.Metadata{NativeFPS: 30, TotalFrames: 300}, 1, 0, 0, 30, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, p, _, fetcher := setup(t, tt.meta)
			p.FPS = tt.fps

			frame, err := svc.Frame(context.Background(), p, 0, tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrame, frame.FrameNumber)
			assert.Equal(t, tt.wantStep, frame.Plan.Step)
			assert.Equal(t, tt.wantSampled, frame.Plan.SampledCount)
			assert.Equal(t, "jpeg", frame.Image.Format)
			assert.Equal(t, []int{tt.wantFrame}, fetcher.frames)
		})
	}
}

func TestFrameRejectsNegativeSample(t *testing.T) {
	svc, p, prober, _ := setup(t, video.Metadata{NativeFPS: 30, TotalFrames: 300})
	before := testutil.ToFloat64(metrics.FramesServedTotal.WithLabelValues("invalid"))

	_, err := svc.Frame(context.Background(), p, 0, -1)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Empty(t, prober.paths)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FramesServedTotal.WithLabelValues("invalid")))
}

func TestFramePropagatesDecodeFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		label    string
		notFound bool
	}{
		{
			name:     "missing file",
			err:      &video.DecodeError{Stage: video.StageOpen, Err: &video.OpenError{Reason: video.ReasonNotExist}},
			label:    "open",
			notFound: true,
		},
		{
			name:  "seek",
			err:   &video.DecodeError{Stage: video.StageSeek, Err: errors.New("past end")},
			label: "seek",
		},
		{
			name:  "read",
			err:   &video.DecodeError{Stage: video.StageRead, Err: errors.New("ffmpeg exited 1")},
			label: "read",
		},
		{
			name:  "encode",
			err:   &video.DecodeError{Stage: video.StageEncode, Err: errors.New("bad png")},
			label: "encode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, p, _, fetcher := setup(t, video.Metadata{NativeFPS: 30, TotalFrames: 300})
			fetcher.err = tt.err
			counter := metrics.FramesServedTotal.WithLabelValues(tt.label)
			before := testutil.ToFloat64(counter)

			_, err := svc.Frame(context.Background(), p, 0, 3)
			require.Error(t, err)

			var de *video.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.label, string(de.Stage))
			assert.Equal(t, tt.notFound, errors.Is(err, apperr.ErrNotFound))
			assert.Equal(t, !tt.notFound, errors.Is(err, apperr.ErrUpstreamIO))
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestFrameProbeFailure(t *testing.T) {
	svc, p, prober, fetcher := setup(t, video.Metadata{})
	prober.err = &video.OpenError{Path: "x", Reason: video.ReasonUnrecognized, Err: errors.New("moov atom not found")}

	_, err := svc.Frame(context.Background(), p, 0, 0)
	assert.True(t, errors.Is(err, apperr.ErrUpstreamIO))
	assert.Empty(t, fetcher.frames)
}

func TestCheckProject(t *testing.T) {
	svc, p, _, _ := setup(t, video.Metadata{})
	dir := p.VideoDirectory

	in := models.ProjectInput{VideoDirectory: dir, SelectedVideos: []string{"a.mp4"}, FPS: 2}
	out, err := svc.CheckProject(in)
	require.NoError(t, err)
	assert.Equal(t, dir, out.VideoDirectory)

	tests := []struct {
		name string
		in   models.ProjectInput
	}{
		{"missing directory", models.ProjectInput{VideoDirectory: filepath.Join(dir, "nope"), SelectedVideos: []string{"a.mp4"}, FPS: 2}},
		{"file as directory", models.ProjectInput{VideoDirectory: filepath.Join(dir, "a.mp4"), SelectedVideos: []string{"a.mp4"}, FPS: 2}},
		{"escaping video", models.ProjectInput{VideoDirectory: dir, SelectedVideos: []string{"../outside.mp4"}, FPS: 2}},
		{"zero fps", models.ProjectInput{VideoDirectory: dir, SelectedVideos: []string{"a.mp4"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CheckProject(tt.in)
			assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
		})
	}
}
