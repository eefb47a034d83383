package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"btocore/internal/blob"
	"btocore/internal/infra/persistence/memory"
	"btocore/pkg/domain"

	"github.com/google/uuid"
)

// ExportFormat selects the encoding of a booking report artifact.
type ExportFormat string

// Supported report encodings.
const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// Artifact key prefixes.
const (
	BookingReportPrefix = "reports/bookings/"
	BackupPrefix        = "backups/"
)

// ErrSnapshotUnsupported is returned when the record store cannot export or
// import its state.
var ErrSnapshotUnsupported = errors.New("record store does not support snapshots")

type snapshotExporter interface {
	ExportState() memory.Snapshot
}

type snapshotImporter interface {
	ImportState(memory.Snapshot)
}

var bookingCSVHeader = []string{
	"application_id", "applicant_name", "applicant_nric", "age", "marital_status",
	"flat_type", "project_name", "neighborhood", "price",
}

// RenderBookingReport encodes report and returns the payload and its content type.
func RenderBookingReport(report BookingReport, format ExportFormat) ([]byte, string, error) {
	switch format {
	case ExportJSON, "":
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal booking report: %w", err)
		}
		return payload, "application/json", nil
	case ExportCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(bookingCSVHeader); err != nil {
			return nil, "", err
		}
		for _, line := range report.Lines {
			record := []string{
				line.ApplicationID,
				line.ApplicantName,
				line.ApplicantNRIC,
				strconv.Itoa(line.Age),
				string(line.MaritalStatus),
				string(line.FlatType),
				line.ProjectName,
				line.Neighborhood,
				line.Price.StringFixed(2),
			}
			if err := w.Write(record); err != nil {
				return nil, "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportBookingReport builds the booking report for filter and stores it at
// reports/bookings/<date>/<uuid>.<format>.
func (s *Service) ExportBookingReport(ctx context.Context, store blob.Store, filter BookingFilter, format ExportFormat) (blob.Info, error) {
	if format == "" {
		format = ExportJSON
	}
	var info blob.Info
	err := s.run(ctx, "export_booking_report", "", func(ctx context.Context) (string, error) {
		report, err := s.BookingReport(ctx, filter)
		if err != nil {
			return "", err
		}
		payload, contentType, err := RenderBookingReport(report, format)
		if err != nil {
			return "", err
		}
		key := path.Join(BookingReportPrefix, s.now().Format("2006-01-02"), uuid.NewString()+"."+string(format))
		info, err = store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata: map[string]string{
				"lines": strconv.Itoa(len(report.Lines)),
				"total": report.Total.StringFixed(2),
			},
		})
		return key, err
	})
	return info, err
}

// BackupSnapshot writes the full record state to backups/<timestamp>.json.
func (s *Service) BackupSnapshot(ctx context.Context, store blob.Store) (blob.Info, error) {
	exporter, ok := s.store.(snapshotExporter)
	if !ok {
		return blob.Info{}, ErrSnapshotUnsupported
	}
	var info blob.Info
	err := s.run(ctx, "backup_snapshot", "", func(ctx context.Context) (string, error) {
		snapshot := exporter.ExportState()
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return "", fmt.Errorf("marshal snapshot: %w", err)
		}
		key := BackupPrefix + s.now().Format("20060102T150405.000000000Z") + ".json"
		info, err = store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"projects":     strconv.Itoa(len(snapshot.Projects)),
				"applications": strconv.Itoa(len(snapshot.Applications)),
				"enquiries":    strconv.Itoa(len(snapshot.Enquiries)),
				"users":        strconv.Itoa(len(snapshot.Users)),
			},
		})
		return key, err
	})
	return info, err
}

// RestoreSnapshot replaces the record state with the backup at key. Durable
// stores persist the restored state through an empty transaction; if that
// write fails the previous state is reinstated.
func (s *Service) RestoreSnapshot(ctx context.Context, store blob.Store, key string) error {
	importer, ok := s.store.(snapshotImporter)
	if !ok {
		return ErrSnapshotUnsupported
	}
	exporter, ok := s.store.(snapshotExporter)
	if !ok {
		return ErrSnapshotUnsupported
	}
	return s.run(ctx, "restore_snapshot", "", func(ctx context.Context) (string, error) {
		_, rc, err := store.Get(ctx, key)
		if err != nil {
			return key, err
		}
		defer func() { _ = rc.Close() }()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return key, err
		}
		var snapshot memory.Snapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return key, fmt.Errorf("decode snapshot %s: %w", key, err)
		}
		previous := exporter.ExportState()
		importer.ImportState(snapshot)
		if _, err := s.store.RunInTransaction(ctx, func(domain.Transaction) error { return nil }); err != nil {
			importer.ImportState(previous)
			return key, fmt.Errorf("persist restored snapshot: %w", err)
		}
		return key, nil
	})
}

// LatestBackup returns the newest backup key, if any.
func LatestBackup(ctx context.Context, store blob.Store) (string, bool, error) {
	infos, err := store.List(ctx, BackupPrefix)
	if err != nil {
		return "", false, err
	}
	if len(infos) == 0 {
		return "", false, nil
	}
	return infos[len(infos)-1].Key, true, nil
}
