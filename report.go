package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/saworbit/iotrace/internal/platform"
	"github.com/saworbit/iotrace/pkg/collector"
	"github.com/saworbit/iotrace/pkg/record"
	"github.com/saworbit/iotrace/pkg/report"
)

const rebuildDebounce = 500 * time.Millisecond

func newReportCmd() *cobra.Command {
	var dumpPath string
	var stateDir string
	var outPath string
	var follow bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render captured records as a process-relationship HTML diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpPath == "" && stateDir == "" {
				return fmt.Errorf("one of --dump or --state-dir is required")
			}
			if dumpPath != "" && stateDir != "" {
				return fmt.Errorf("--dump and --state-dir are mutually exclusive")
			}
			return runReport(dumpPath, stateDir, outPath, follow)
		},
	}

	cmd.Flags().StringVar(&dumpPath, "dump", "", "Read records from a flat dump file")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Read records from a Pebble store directory")
	cmd.Flags().StringVar(&outPath, "out", "report.html", "Output HTML file")
	cmd.Flags().BoolVar(&follow, "follow", false, "Keep watching the source and re-render on change")
	return cmd
}

func runReport(dumpPath, stateDir, outPath string, follow bool) error {
	if stateDir != "" {
		stateDir = platform.LongPathname(stateDir)
	}

	render := func() error {
		records, err := loadRecords(dumpPath, stateDir)
		if err != nil {
			return err
		}
		return writeReport(records, outPath)
	}

	if err := render(); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return followSource(ctx, dumpPath, stateDir, render)
}

func loadRecords(dumpPath, stateDir string) ([]*record.Record, error) {
	if dumpPath != "" {
		return report.ReadDump(dumpPath)
	}

	store, err := collector.OpenStore(stateDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var records []*record.Record
	err = store.Each(func(rec *record.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func writeReport(records []*record.Record, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	d := report.Build(records)
	if err := d.WriteHTML(f); err != nil {
		return err
	}
	log.Printf("[report] wrote %s (%d processes, %d connections)", outPath, len(d.Columns), len(d.Arrows))
	return f.Close()
}

// followSource re-renders the report whenever the source changes, with a
// short debounce so a burst of writes produces one rebuild.
func followSource(ctx context.Context, dumpPath, stateDir string, render func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watchPath := stateDir
	if dumpPath != "" {
		// watch the parent so rename-over-the-dump is still seen
		watchPath = filepath.Dir(dumpPath)
	}
	if err := watcher.Add(watchPath); err != nil {
		return fmt.Errorf("watch %s: %w", watchPath, err)
	}

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rebuildDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case <-rebuild:
			if err := render(); err != nil {
				log.Printf("[report] rebuild failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[report] watcher error: %v", err)
		}
	}
}
