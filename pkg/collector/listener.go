package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/saworbit/iotrace/internal/metrics"
	"github.com/saworbit/iotrace/pkg/record"
	"github.com/saworbit/iotrace/pkg/taxonomy"
	"github.com/saworbit/iotrace/pkg/transport"
)

// mqPollInterval paces the non-blocking message-queue drain when the queue
// is empty.
const mqPollInterval = 100 * time.Millisecond

// Listener receives packed records from either backend and fans them out
// to the printer, the optional store, and the metrics registry.
type Listener struct {
	printer *Printer
	store   *Store // nil when persistence is off
}

// NewListener wires a listener to its sinks.
func NewListener(printer *Printer, store *Store) *Listener {
	return &Listener{printer: printer, store: store}
}

// ServeSocket accepts loopback connections on addr until ctx is canceled.
// Each connection carries one or more length-prefixed records.
func (l *Listener) ServeSocket(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	log.Printf("[listener] accepting records on %s", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		payload, err := transport.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("[listener] connection dropped: %v", err)
			}
			return
		}
		l.handleRecord(payload)
		// short ack; the sender does not depend on it
		_, _ = conn.Write([]byte("ok"))
	}
}

// ServeMQ drains the message queue derived from path until ctx is
// canceled, polling when the queue is empty.
func (l *Listener) ServeMQ(ctx context.Context, path string) error {
	q, err := transport.NewMQReader(path)
	if err != nil {
		return err
	}

	log.Printf("[listener] draining message queue at %s", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		payload, err := q.Poll()
		if err != nil {
			return fmt.Errorf("poll message queue: %w", err)
		}
		if payload == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(mqPollInterval):
			}
			continue
		}
		l.handleRecord(payload)
	}
}

func (l *Listener) handleRecord(raw []byte) {
	rec, err := record.Unmarshal(raw)
	if err != nil {
		metrics.DecodeFailuresTotal.Inc()
		log.Printf("[listener] dropping undecodable %d-byte payload: %v", len(raw), err)
		return
	}

	metrics.ObserveRecord(taxonomy.Domain(rec.Domain).String(),
		taxonomy.Operation(rec.Op).String(), len(raw))

	l.printer.Print(rec)

	if l.store != nil {
		if err := l.store.Append(raw); err != nil {
			metrics.StoreAppendTotal.WithLabelValues("error").Inc()
			log.Printf("[listener] store append failed: %v", err)
			return
		}
		metrics.StoreAppendTotal.WithLabelValues("ok").Inc()
	}
}
