package antlers

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Loop run the node between `upstream` and `radio` until ctx is done or the upstream is
// gone for good. `indicator` may be nil.
func Loop(ctx context.Context, upstream Remote, radio Radio, cfg *Config, indicator Indicator, sinks ...StatusSink) error {
	// stdio cannot be reopened
	reconnect := cfg.Upstream.Reconnect && cfg.Upstream.Mode != UpstreamStdio

	node := NewNode(cfg.NodeOptions(), radio, RemoteWriter(upstream, cfg.Upstream.WriteTimeout))
	node.SetLines(ReadLines(ctx, upstream, cfg.Upstream.MaxLine, reconnect))
	if indicator != nil {
		node.SetIndicator(indicator)
	}
	for _, sink := range sinks {
		node.AddSink(sink)
	}

	log.Printf("loop:start node=%d role=%s repeat=%v window=%v",
		cfg.Node.ID, cfg.Node.Role, cfg.Timers.RepeatInterval, cfg.Timers.SendWindow)

	err := node.Run(ctx, cfg.Timers.Tick)
	if err == ErrUpstreamClosed {
		log.Printf("upstream:close, exiting")
	}

	return err
}
