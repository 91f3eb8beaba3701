// export.go - Scheduled mailing-list snapshot exports.
//
// Writes a JSON snapshot of the recipients table to an S3/MinIO bucket
// on an interval, so the list survives the loss of the database and can
// be fed to downstream mail tooling. Export failures are logged and
// counted; they never affect request handling.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// ExportConfig contains configuration for snapshot export operations.
type ExportConfig struct {
	Enabled  bool          // Enable scheduled exports
	Interval time.Duration // Export interval (e.g. 24h for daily)
	Bucket   string        // Bucket receiving the snapshots
	Prefix   string        // Object key prefix, e.g. "snapshots/"
}

// snapshotPayload is the JSON document written to the bucket.
type snapshotPayload struct {
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Recipients []Recipient `json:"recipients"`
}

// Exporter handles scheduled mailing-list exports.
type Exporter struct {
	config     ExportConfig
	recipients RecipientStore
	client     *minio.Client
	stopChan   chan struct{}
}

// NewExporter creates a new exporter instance.
func NewExporter(config ExportConfig, recipients RecipientStore, client *minio.Client) *Exporter {
	return &Exporter{
		config:     config,
		recipients: recipients,
		client:     client,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the export scheduler. It returns immediately; exports run
// on their own goroutine until Stop is called.
func (e *Exporter) Start() {
	if !e.config.Enabled {
		Info("snapshot exports disabled", nil)
		return
	}

	Info("snapshot export scheduler started", map[string]any{
		"interval": e.config.Interval.String(),
		"bucket":   e.config.Bucket,
	})

	go func() {
		// Run an initial export, then tick.
		if err := e.performExport(); err != nil {
			Error("initial export failed", nil, err)
		}

		ticker := time.NewTicker(e.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := e.performExport(); err != nil {
					Error("scheduled export failed", nil, err)
				}
			case <-e.stopChan:
				return
			}
		}
	}()
}

// Stop halts the export scheduler.
func (e *Exporter) Stop() {
	close(e.stopChan)
}

// performExport reads the full list and uploads one snapshot object.
func (e *Exporter) performExport() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	recipients, err := e.recipients.SelectAll(ctx)
	if err != nil {
		GetMetrics().RecordExport(0, err)
		return fmt.Errorf("read recipients: %w", err)
	}

	data, err := buildSnapshot(recipients, time.Now().UTC())
	if err != nil {
		GetMetrics().RecordExport(0, err)
		return err
	}

	key := fmt.Sprintf("%srecipients-%s.json", e.config.Prefix, time.Now().UTC().Format("20060102T150405Z"))
	_, err = e.client.PutObject(ctx, e.config.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	GetMetrics().RecordExport(len(recipients), err)
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	Info("snapshot exported", map[string]any{
		"key":        key,
		"recipients": len(recipients),
		"bytes":      len(data),
	})
	return nil
}

// buildSnapshot marshals the snapshot document.
func buildSnapshot(recipients []Recipient, at time.Time) ([]byte, error) {
	payload := snapshotPayload{
		ExportedAt: at,
		Count:      len(recipients),
		Recipients: recipients,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
