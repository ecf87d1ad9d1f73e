package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	kernel "github.com/nrkernel/corekernel"
	"github.com/nrkernel/corekernel/internal/logging"
)

func main() {
	var (
		listenAddr = flag.String("addr", "", "Listen address (default :6970)")
		verbose    = flag.Bool("v", false, "Verbose output")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	logConfig.Format = *logFormat
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := kernel.DefaultControllerNodeConfig()
	cfg.Logger = logger
	if *listenAddr != "" {
		cfg.ListenAddress = *listenAddr
	}

	node, err := kernel.BootControllerNode(cfg)
	if err != nil {
		logger.Error("failed to boot controller node", "error", err)
		os.Exit(1)
	}

	logger.Info("controller node listening", "addr", node.Addr().String())

	go func() {
		if err := node.Serve(); err != nil {
			logger.Error("controller node serve loop exited", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	if err := node.Shutdown(); err != nil {
		logger.Error("error shutting down controller node", "error", err)
		os.Exit(1)
	}

	snap := node.Metrics().Snapshot()
	logger.Info("final metrics",
		"total_calls", snap.TotalCalls,
		"call_errors", snap.CallErrors,
		"avg_latency_ns", snap.AvgLatencyNs,
	)
}
