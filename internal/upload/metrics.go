// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoplane_upload_total",
			Help: "Finished upload sessions by outcome",
		},
		[]string{"outcome"},
	)
	chunkRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoplane_upload_retries_total",
			Help: "Failed upload requests that were retried",
		},
		[]string{"op"},
	)
	bytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videoplane_upload_bytes_total",
			Help: "Bytes acknowledged by the upload endpoint",
		},
	)
	resumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videoplane_upload_resumed_total",
			Help: "Upload sessions that continued a stored transfer",
		},
	)
)
