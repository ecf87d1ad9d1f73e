package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	kernel "github.com/nrkernel/corekernel"
	"github.com/nrkernel/corekernel/internal/logging"
	"github.com/nrkernel/corekernel/internal/scheduler"
)

func main() {
	var (
		controllerAddr = flag.String("controller", "127.0.0.1:6970", "Controller node address")
		verbose        = flag.Bool("v", false, "Verbose output")
		logFormat      = flag.String("log-format", "text", "Log format: text or json")
		cpu            = flag.Int("cpu", -1, "Pin the dispatch loop to this CPU (-1 leaves it unpinned)")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	logConfig.Format = *logFormat
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := kernel.DefaultComputeNodeConfig(*controllerAddr)
	cfg.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := kernel.BootComputeNode(ctx, cfg)
	if err != nil {
		logger.Error("failed to join controller node", "error", err, "controller", *controllerAddr)
		os.Exit(1)
	}
	logger.Info("compute node joined cluster", "controller", *controllerAddr, "client_id", node.Client.ClientID())

	// A single idle thread keeps the dispatch loop alive so the process
	// stays up and reports metrics until the user asks it to stop; real
	// workloads spawn their own threads via node.Scheduler.Spawn.
	done := make(chan struct{})
	_, err = node.Scheduler.Spawn(0, func(h scheduler.ThreadHandle, _ any) {
		for {
			select {
			case <-done:
				return
			default:
				h.Sleep(0)
			}
		}
	}, nil)
	if err != nil {
		logger.Error("failed to spawn idle thread", "error", err)
		os.Exit(1)
	}

	if *cpu >= 0 {
		node.Scheduler.PinToCPU(*cpu)
		logger.Info("pinning dispatch loop", "cpu", *cpu)
	}

	go node.Scheduler.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	close(done)
	cancel()

	if err := node.Shutdown(); err != nil {
		logger.Error("error shutting down compute node", "error", err)
		os.Exit(1)
	}

	snap := node.Metrics().Snapshot()
	logger.Info("final metrics",
		"total_calls", snap.TotalCalls,
		"threads_spawned", snap.ThreadsSpawned,
		"dispatch_ticks", snap.DispatchTicks,
	)
}
