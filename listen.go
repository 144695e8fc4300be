package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saworbit/iotrace/internal/metrics"
	"github.com/saworbit/iotrace/internal/platform"
	"github.com/saworbit/iotrace/internal/version"
	"github.com/saworbit/iotrace/pkg/collector"
	"github.com/saworbit/iotrace/pkg/transport"
)

func newListenCmd() *cobra.Command {
	var addr string
	var mqPath string
	var stateDir string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive records from monitored processes and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(addr, mqPath, stateDir, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", transport.DefaultCollectorAddr, "Socket address to accept records on")
	cmd.Flags().StringVar(&mqPath, "mq-path", "", "Drain the message queue keyed by this path instead of listening on a socket")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Persist received records to a Pebble store in this directory")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func runListen(addr, mqPath, stateDir, metricsAddr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store *collector.Store
	if stateDir != "" {
		stateDir = platform.LongPathname(stateDir)
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
		var err error
		store, err = collector.OpenStore(stateDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, metricsAddr, nil); err != nil {
				log.Printf("[listener] metrics endpoint stopped: %v", err)
			}
		}()
	}

	l := collector.NewListener(collector.NewPrinter(os.Stdout), store)

	if mqPath != "" {
		metrics.SetCollectorInfo(version.Version, "mq")
		return l.ServeMQ(ctx, mqPath)
	}
	metrics.SetCollectorInfo(version.Version, "socket")
	return l.ServeSocket(ctx, addr)
}
