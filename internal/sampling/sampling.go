// Package sampling maps logical sample indices, the unit the annotation UI
// scrubs through, to physical frame numbers inside a source video.
//
// A Plan is a pure function of the video's native frame rate, its total frame
// count and the project's target rate. Nothing here performs I/O or fails.
package sampling

import "math"

// maxStep bounds the step so absurd frame rates cannot overflow int.
const maxStep = math.MaxInt32

type Plan struct {
	NativeFPS    float64 `json:"native_fps"`
	TotalFrames  int     `json:"total_frames"`
	TargetFPS    int     `json:"target_fps"`
	Step         int     `json:"step"`
	SampledCount int     `json:"sampled_count"`
}

// NewPlan normalizes the inputs and derives the step and sampled count.
// A native rate that is zero, negative or not finite is taken as 1.0, a target
// below 1 as 1, and a negative frame count as 0.
func NewPlan(nativeFPS float64, totalFrames, targetFPS int) Plan {
	nativeFPS = NormalizeFPS(nativeFPS)
	if targetFPS < 1 {
		targetFPS = 1
	}
	if totalFrames < 0 {
		totalFrames = 0
	}

	step := Step(nativeFPS, targetFPS)
	return Plan{
		NativeFPS:    nativeFPS,
		TotalFrames:  totalFrames,
		TargetFPS:    targetFPS,
		Step:         step,
		SampledCount: SampledCount(totalFrames, step),
	}
}

func NormalizeFPS(fps float64) float64 {
	if !(fps > 0) || math.IsInf(fps, 0) {
		return 1.0
	}
	return fps
}

// Step is max(1, round(nativeFPS/targetFPS)) with ties rounded to even.
func Step(nativeFPS float64, targetFPS int) int {
	if targetFPS < 1 {
		targetFPS = 1
	}
	q := math.RoundToEven(NormalizeFPS(nativeFPS) / float64(targetFPS))
	if q < 1 {
		return 1
	}
	if q > maxStep {
		return maxStep
	}
	return int(q)
}

// SampledCount is the number of frames at 0, step, 2*step, ... that lie in
// [0, totalFrames-1]. Frame 0 is always sampled when any frame exists.
func SampledCount(totalFrames, step int) int {
	if totalFrames <= 0 {
		return 0
	}
	if step < 1 {
		step = 1
	}
	return (totalFrames-1)/step + 1
}

// LastFrame is the highest valid physical frame number, or 0 for an empty video.
func (p Plan) LastFrame() int {
	if p.TotalFrames <= 0 {
		return 0
	}
	return p.TotalFrames - 1
}

// FrameNumber returns min(sampleIndex*step, LastFrame()). Indices past the end
// clamp to the last frame instead of failing. For an empty video the result is
// 0 even though no readable frame exists; the fetcher rejects it.
func (p Plan) FrameNumber(sampleIndex int) int {
	last := p.LastFrame()
	step := p.Step
	if step < 1 {
		step = 1
	}
	if sampleIndex > 0 && sampleIndex > last/step {
		return last
	}
	return min(sampleIndex*step, last)
}

// Contains reports whether sampleIndex addresses a real sample rather than the
// clamped tail.
func (p Plan) Contains(sampleIndex int) bool {
	return sampleIndex >= 0 && sampleIndex < p.SampledCount
}
