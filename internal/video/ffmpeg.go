package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

type probeFunc func(ctx context.Context, path string, args ffmpeg.KwArgs) (string, error)

type Config struct {
	FFmpegPath    string
	FFprobePath   string
	JPEGQuality   int
	DecodeTimeout time.Duration
}

// FFmpeg implements Prober with ffprobe and Fetcher with ffmpeg.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	jpegQuality int
	timeout     time.Duration
	probe       probeFunc
	logger      *zap.Logger
}

func NewFFmpeg(cfg Config, logger *zap.Logger) *FFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	f := &FFmpeg{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		jpegQuality: cfg.JPEGQuality,
		timeout:     cfg.DecodeTimeout,
		logger:      logger,
	}
	f.probe = f.execProbe
	return f
}

// CheckTools reports whether ffmpeg and ffprobe can be found.
func (f *FFmpeg) CheckTools() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}
	return nil
}

type probeStream struct {
	CodecType     string `json:"codec_type"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	RFrameRate    string `json:"r_frame_rate"`
	NbFrames      string `json:"nb_frames"`
	NbReadPackets string `json:"nb_read_packets"`
	Duration      string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FFmpeg) Probe(ctx context.Context, path string) (Metadata, error) {
	if err := statRegular(path); err != nil {
		return Metadata{}, err
	}

	out, err := f.runProbe(ctx, path, ffmpeg.KwArgs{"select_streams": "v:0"})
	if err != nil {
		return Metadata{}, &OpenError{Path: path, Reason: ReasonUnrecognized, Err: err}
	}

	stream, formatDuration, err := parseProbeOutput(out)
	if err != nil {
		return Metadata{}, &OpenError{Path: path, Reason: ReasonUnrecognized, Err: err}
	}

	meta := Metadata{NativeFPS: frameRate(stream)}
	meta.TotalFrames = atoi(stream.NbFrames)

	if meta.TotalFrames <= 0 {
		// Containers such as mkv and avi often omit nb_frames; counting packets
		// demuxes the stream without decoding it.
		out, err := f.runProbe(ctx, path, ffmpeg.KwArgs{"select_streams": "v:0", "count_packets": ""})
		if err == nil {
			if counted, _, err := parseProbeOutput(out); err == nil {
				meta.TotalFrames = atoi(counted.NbReadPackets)
			}
		} else {
			f.logger.Debug("packet count probe failed", zap.String("path", path), zap.Error(err))
		}
	}

	if meta.TotalFrames <= 0 {
		duration := parseFloat(stream.Duration)
		if duration <= 0 {
			duration = parseFloat(formatDuration)
		}
		if duration > 0 && meta.NativeFPS > 0 {
			meta.TotalFrames = int(math.Round(duration * meta.NativeFPS))
		}
	}

	if meta.TotalFrames < 0 {
		meta.TotalFrames = 0
	}
	return meta, nil
}

func (f *FFmpeg) runProbe(ctx context.Context, path string, args ffmpeg.KwArgs) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if timeout := f.deadline(ctx); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return f.probe(ctx, path, args)
}

// execProbe runs ffprobe with JSON output under ctx, so a cancelled request
// kills the subprocess instead of leaving it to the decode timeout.
func (f *FFmpeg) execProbe(ctx context.Context, path string, kwargs ffmpeg.KwArgs) (string, error) {
	merged := ffmpeg.KwArgs{"show_format": "", "show_streams": "", "of": "json"}
	for k, v := range kwargs {
		merged[k] = v
	}
	args := append(ffmpeg.ConvertKwargsToCmdLineArgs(merged), path)

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("ffprobe interrupted: %w", ctxErr)
		}
		return "", fmt.Errorf("ffprobe error: %w, output: %s", err, lastLine(stderr.String()))
	}
	return stdout.String(), nil
}

// deadline is the smaller of the configured decode timeout and whatever is
// left on ctx. Zero means no limit.
func (f *FFmpeg) deadline(ctx context.Context) time.Duration {
	timeout := f.timeout
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			left = time.Millisecond
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	return timeout
}

// parseProbeOutput returns the first video stream and the container duration.
func parseProbeOutput(out string) (probeStream, string, error) {
	var parsed probeOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return probeStream{}, "", fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range parsed.Streams {
		if s.CodecType == "video" {
			return s, parsed.Format.Duration, nil
		}
	}
	return probeStream{}, parsed.Format.Duration, errors.New("no video stream")
}

func frameRate(s probeStream) float64 {
	if fps := parseRational(s.AvgFrameRate); fps > 0 {
		return fps
	}
	return parseRational(s.RFrameRate)
}

// parseRational reads ffprobe rates such as "30000/1001". "0/0" yields 0.
func parseRational(v string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(v), "/")
	if !ok {
		return parseFloat(num)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func atoi(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// Fetch decodes physical frame number frame and returns it as JPEG. Frames at
// or past the end of the stream are a seek failure; the caller has already
// clamped the index.
func (f *FFmpeg) Fetch(ctx context.Context, path string, frame int) (*Image, error) {
	meta, err := f.Probe(ctx, path)
	if err != nil {
		return nil, &DecodeError{Stage: StageOpen, Path: path, Frame: frame, Err: err}
	}

	if frame < 0 || frame >= meta.TotalFrames {
		return nil, &DecodeError{
			Stage: StageSeek,
			Path:  path,
			Frame: frame,
			Err:   fmt.Errorf("frame %d outside stream of %d frames", frame, meta.TotalFrames),
		}
	}

	raw, err := f.readFrame(ctx, path, frame)
	if err != nil {
		return nil, &DecodeError{Stage: StageRead, Path: path, Frame: frame, Err: err}
	}

	data, err := f.encodeJPEG(raw)
	if err != nil {
		return nil, &DecodeError{Stage: StageEncode, Path: path, Frame: frame, Err: err}
	}

	return &Image{Data: data, Format: "jpeg", ContentType: "image/jpeg"}, nil
}

func (f *FFmpeg) readFrame(ctx context.Context, path string, frame int) ([]byte, error) {
	if timeout := f.deadline(ctx); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := ffmpeg.Input(path).
		Filter("select", ffmpeg.Args{fmt.Sprintf("gte(n,%d)", frame)}).
		Output("pipe:", ffmpeg.KwArgs{"vframes": 1, "format": "image2", "vcodec": "png"}).
		GetArgs()

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	f.logger.Debug("running ffmpeg", zap.String("path", path), zap.Int("frame", frame), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, lastLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("no frame at requested position")
	}
	return stdout.Bytes(), nil
}

func (f *FFmpeg) encodeJPEG(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: f.jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
