package antlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	// CommandsTotal upstream lines by result: sent, send_failed, malformed, unrecognized, ignored, overflow
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antlers_commands_total",
			Help: "Upstream lines handled, by result",
		},
		[]string{"result"},
	)

	// RadioSent radio transmissions by kind: command, repeat, ack
	RadioSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antlers_radio_sent_total",
			Help: "Radio transmissions, by kind",
		},
		[]string{"kind"},
	)

	RadioErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "antlers_radio_errors_total",
		Help: "Radio transmissions that failed",
	})

	StatusRelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "antlers_status_relayed_total",
		Help: "Status payloads relayed upstream",
	})

	PayloadRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "antlers_payload_rejected_total",
		Help: "Radio payloads rejected before decode",
	})

	PublishDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "antlers_publish_dropped_total",
		Help: "Status documents dropped because the publisher queue was full",
	})

	OperatingStateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "antlers_operating_state",
		Help: "Current operating state register",
	})

	RepeatActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "antlers_repeat_active",
		Help: "1 while the repeat-send timer is armed",
	})
)

// Monitor metrics endpoint
type Monitor struct{}

// NewMonitor register every metric with the default registry; call once
func NewMonitor() *Monitor {
	prometheus.MustRegister(
		CommandsTotal,
		RadioSent,
		RadioErrors,
		StatusRelayed,
		PayloadRejected,
		PublishDropped,
		OperatingStateGauge,
		RepeatActive,
	)

	return &Monitor{}
}

// StartMetricsServer serve /metrics and /health on `port` in the background
func (m *Monitor) StartMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Infof("monitor:listen %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("monitor:err %v", err)
		}
	}()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
