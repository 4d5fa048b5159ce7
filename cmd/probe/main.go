package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/logger"
	"github.com/BaamPark/WebLabelMV/internal/sampling"
	"github.com/BaamPark/WebLabelMV/internal/video"
	"go.uber.org/zap"
)

func main() {
	var (
		videoPath  = flag.String("video", "", "Path to the video file")
		fps        = flag.Int("fps", 1, "Target sampling rate in frames per second")
		sample     = flag.Int("sample", -1, "Sample index to decode (negative skips decoding)")
		out        = flag.String("out", "frame.jpg", "Where to write the decoded sample")
		ffmpegBin  = flag.String("ffmpeg", "ffmpeg", "ffmpeg binary")
		ffprobeBin = flag.String("ffprobe", "ffprobe", "ffprobe binary")
		quality    = flag.Int("quality", 85, "JPEG quality")
		timeout    = flag.Duration("timeout", 30*time.Second, "Decode timeout")
		logLevel   = flag.String("log-level", "warn", "Log level")
	)
	flag.Parse()

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if *videoPath == "" {
		log.Fatal("please provide a video with -video")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ff := video.NewFFmpeg(video.Config{
		FFmpegPath:    *ffmpegBin,
		FFprobePath:   *ffprobeBin,
		JPEGQuality:   *quality,
		DecodeTimeout: *timeout,
	}, log)
	if err := ff.CheckTools(); err != nil {
		log.Fatal("ffmpeg tools unavailable", zap.Error(err))
	}

	meta, err := ff.Probe(ctx, *videoPath)
	if err != nil {
		log.Fatal("failed to probe video", zap.String("path", *videoPath), zap.Error(err))
	}

	plan := sampling.NewPlan(meta.NativeFPS, meta.TotalFrames, *fps)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		log.Fatal("failed to print plan", zap.Error(err))
	}

	if *sample < 0 {
		return
	}

	frame := plan.FrameNumber(*sample)
	img, err := ff.Fetch(ctx, *videoPath, frame)
	if err != nil {
		log.Fatal("failed to fetch frame", zap.Int("sample", *sample), zap.Int("frame", frame), zap.Error(err))
	}
	if err := os.WriteFile(*out, img.Data, 0644); err != nil {
		log.Fatal("failed to write frame", zap.String("out", *out), zap.Error(err))
	}
	fmt.Fprintf(os.Stderr, "sample %d -> frame %d written to %s (%d bytes)\n", *sample, frame, *out, len(img.Data))
}
