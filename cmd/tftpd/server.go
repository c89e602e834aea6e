package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/internal/config"
	"github.com/Joe-Degs/gotftpd/internal/logging"
	"github.com/Joe-Degs/gotftpd/internal/metrics"
	"github.com/Joe-Degs/gotftpd/internal/trace"
	"github.com/Joe-Degs/gotftpd/server"
)

// metricsAddr is the bind address for the Prometheus /metrics endpoint.
// It is intentionally separate from the TFTP port: the stats the
// original implementation kept as process-wide counters are exported
// here instead of logged.
const metricsAddr = ":9069"

func run(opts *config.ServerOpts, root string) error {
	log := logging.NewStandard("tftpd")
	log.SetVerbose(opts.Verbose)

	r, err := server.NewRoot(root)
	if err != nil {
		return fmt.Errorf("resolve server root: %w", err)
	}
	log.Info("serving %s", r.Dir())

	reg := prometheus.NewRegistry()
	sink := metrics.NewSink(reg)

	cfg := opts.Configuration()
	cfg.Metrics = sink
	cfg.Logger = log
	if opts.Verbose {
		cfg.Tracer = func(direction string, pkt codec.Packet) {
			log.Verbose("%s", trace.Dump(direction, pkt))
		}
	}

	l, err := server.Listen(opts.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.SetLogger(log)
	defer l.Close()

	app := server.NewApp(l, r, cfg, opts.Create)
	l.Handle(app.Handler())

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Info("metrics listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Error("metrics server: %v", err)
		}
	}()

	log.Info("listening on %s", l.Addr())
	return l.Serve()
}
