package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/saworbit/iotrace/internal/platform"
	"github.com/saworbit/iotrace/pkg/collector"
	"github.com/saworbit/iotrace/pkg/record"
)

func newExportCmd() *cobra.Command {
	var stateDir string
	var dumpPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export captured records as a zstd-compressed dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpPath == "" && stateDir == "" {
				return fmt.Errorf("one of --dump or --state-dir is required")
			}
			if dumpPath != "" && stateDir != "" {
				return fmt.Errorf("--dump and --state-dir are mutually exclusive")
			}
			if outPath == "" {
				return fmt.Errorf("out is required")
			}
			return runExport(stateDir, dumpPath, outPath)
		},
	}

	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Export records from a Pebble store directory")
	cmd.Flags().StringVar(&dumpPath, "dump", "", "Export records from a flat dump file")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (zstd-compressed stream of packed records)")
	return cmd
}

func runExport(stateDir, dumpPath, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("init compressor: %w", err)
	}

	var count int
	if dumpPath != "" {
		count, err = exportDump(dumpPath, enc)
	} else {
		count, err = exportStore(platform.LongPathname(stateDir), enc)
	}
	if err != nil {
		enc.Close()
		return err
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}

	log.Printf("[export] wrote %d records to %s", count, outPath)
	return nil
}

func exportStore(stateDir string, w io.Writer) (int, error) {
	store, err := collector.OpenStore(stateDir)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	count := 0
	err = store.Each(func(rec *record.Record) error {
		if _, err := w.Write(rec.Marshal()); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		count++
		return nil
	})
	return count, err
}

func exportDump(dumpPath string, w io.Writer) (int, error) {
	f, err := os.Open(dumpPath)
	if err != nil {
		return 0, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	count := 0
	buf := make([]byte, record.Size)
	for {
		_, err := io.ReadFull(f, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// a trailing partial record is dropped, same as the reader
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("read dump: %w", err)
		}
		if _, err := w.Write(buf); err != nil {
			return count, fmt.Errorf("write export: %w", err)
		}
		count++
	}
}
