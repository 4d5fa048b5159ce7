package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProbeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labelmv_probe_duration_seconds",
		Help:    "Duration of video metadata probes",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"result"})

	FrameFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labelmv_frame_fetch_duration_seconds",
		Help:    "Duration of single frame decode and encode",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"result"})

	FramesServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelmv_frames_served_total",
		Help: "Total number of frame requests, by outcome",
	}, []string{"result"})

	AnnotationsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelmv_annotations_saved_total",
		Help: "Total number of annotation sets written",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelmv_http_requests_total",
		Help: "Total number of HTTP requests, by method and status",
	}, []string{"method", "status"})
)
