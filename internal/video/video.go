// Package video probes and decodes source videos through ffprobe and ffmpeg.
// Every call spawns its own subprocesses and reaps them before returning; no
// handle outlives a call.
package video

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
)

type Metadata struct {
	NativeFPS   float64
	TotalFrames int
}

type Image struct {
	Data        []byte
	Format      string
	ContentType string
}

type Prober interface {
	Probe(ctx context.Context, path string) (Metadata, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, path string, frame int) (*Image, error)
}

type OpenReason string

const (
	ReasonNotExist     OpenReason = "not_exist"
	ReasonNotRegular   OpenReason = "not_regular"
	ReasonUnrecognized OpenReason = "unrecognized"
)

// OpenError reports a video that could not be opened for probing.
type OpenError struct {
	Path   string
	Reason OpenReason
	Err    error
}

func (e *OpenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("open %s (%s): %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("open %s (%s)", e.Path, e.Reason)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool {
	if target == apperr.ErrNotFound {
		return e.Reason == ReasonNotExist
	}
	if target == apperr.ErrUpstreamIO {
		return e.Reason != ReasonNotExist
	}
	return false
}

type Stage string

const (
	StageOpen   Stage = "open"
	StageSeek   Stage = "seek"
	StageRead   Stage = "read"
	StageEncode Stage = "encode"
)

// DecodeError reports which step of a frame fetch failed.
type DecodeError struct {
	Stage Stage
	Path  string
	Frame int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %d of %s: %s: %v", e.Frame, e.Path, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is classifies the failure. An open stage caused by a missing file is
// NotFound; everything else is an upstream I/O failure.
func (e *DecodeError) Is(target error) bool {
	if target == apperr.ErrUpstreamIO {
		var oe *OpenError
		if errors.As(e.Err, &oe) {
			return oe.Reason != ReasonNotExist
		}
		return true
	}
	return false
}

// statRegular is the cheap existence check done before handing a path to ffprobe.
func statRegular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &OpenError{Path: path, Reason: ReasonNotExist, Err: err}
		}
		return &OpenError{Path: path, Reason: ReasonUnrecognized, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &OpenError{Path: path, Reason: ReasonNotRegular}
	}
	return nil
}
