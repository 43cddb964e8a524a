// internal/status/metrics.go
package status

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile exports s in the Prometheus text format to path, for the
// node exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, s Snapshot) error {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"device": s.Device, "operation": s.Operation}

	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		g.Set(v)
		reg.MustRegister(g)
	}

	gauge("frames_transmitted", "Requests sent during the session.", float64(s.Transmitted))
	gauge("frames_received", "Requests answered with the expected element count.", float64(s.Received))
	gauge("frame_errors", "Requests that failed.", float64(s.Errors))
	gauge("frame_loss_percent", "Share of failed requests.", s.FrameLoss())
	gauge("health", "0 unknown, 1 ok, 2 error.", float64(s.Health))
	gauge("last_error_code", "Modbus exception code of the last failure, 1 when none was given.", float64(s.LastErrorCode))

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("status: write metrics %s: %w", path, err)
	}
	return nil
}
