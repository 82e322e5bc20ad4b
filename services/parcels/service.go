// Package parcels runs batches of assessor lookups and keeps the
// results in sqlite so they survive the process. Scraping stays
// strictly serial, the county site is not something to hammer.
package parcels

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/apn"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/timezone"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/parcels")

const (
	RunStatusRunning   = "running"
	RunStatusComplete  = "complete"
	RunStatusCancelled = "cancelled"
)

// ParcelSource is where records come from. *assessor.Client satisfies
// it, tests swap in a fake.
type ParcelSource interface {
	Lookup(ctx context.Context, apn string) *assessor.Record
}

type Options struct {
	// pause between consecutive lookups, defaults to 100ms
	Delay time.Duration
	// when set, an email goes out every time a batch run finishes
	Smtp *SmtpConfig
}

type Service struct {
	db      *sql.DB
	qry     *db.Queries
	source  ParcelSource
	options Options
}

func NewService(database *sql.DB, source ParcelSource, options Options) Service {
	if options.Delay == 0 {
		options.Delay = time.Millisecond * 100
	}
	return Service{
		db:      database,
		qry:     db.New(database),
		source:  source,
		options: options,
	}
}

// Lookup scrapes a single parcel without recording anything.
func (s Service) Lookup(ctx context.Context, rawApn string) *assessor.Record {
	return s.source.Lookup(ctx, apn.Format(rawApn))
}

// CreateRun registers a batch run in the running state and hands back
// its id.
func (s Service) CreateRun(ctx context.Context, source string, total int) (string, error) {
	ctx, span := tracer.Start(ctx, "CreateRun")
	defer span.End()

	id, err := random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	err = s.qry.CreateRun(ctx, db.CreateRunParams{
		ID:        id,
		Status:    RunStatusRunning,
		Source:    source,
		Total:     int64(total),
		StartedAt: timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("run_id", id))
	return id, nil
}

// ExecuteRun works through the given apns one at a time, persisting
// every record as it lands. Cancelling the context stops the run at
// the next parcel boundary and marks it cancelled.
func (s Service) ExecuteRun(ctx context.Context, runId string, apns []string) error {
	ctx, span := tracer.Start(ctx, "ExecuteRun")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runId),
		attribute.Int("total", len(apns)),
	)

	// run bookkeeping must land even when the run itself is cancelled
	storeCtx := context.WithoutCancel(ctx)

	start := time.Now()
	var completed, succeeded, failed int64

	for i, raw := range apns {
		if ctx.Err() != nil {
			break
		}

		rec := s.source.Lookup(ctx, apn.Format(raw))
		if ctx.Err() != nil {
			// the lookup was poisoned by cancellation, don't keep it
			break
		}

		err := s.qry.CreateRecord(storeCtx, recordRow(runId, rec))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		completed++
		if rec.Succeeded() {
			succeeded++
		} else {
			failed++
		}

		if completed%10 == 0 {
			avg := time.Since(start).Seconds() / float64(completed)
			slog.InfoContext(
				ctx, "run progress",
				"run_id", runId,
				"completed", completed,
				"total", len(apns),
				"avg_seconds", avg,
				"eta_seconds", avg*float64(int64(len(apns))-completed),
			)
			err := s.qry.SetRunProgress(storeCtx, db.SetRunProgressParams{
				Completed: completed,
				Succeeded: succeeded,
				Failed:    failed,
				ID:        runId,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}

		if i != len(apns)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(s.options.Delay):
			}
		}
	}

	status := RunStatusComplete
	if ctx.Err() != nil {
		status = RunStatusCancelled
	}
	err := s.qry.FinishRun(storeCtx, db.FinishRunParams{
		Status:     status,
		Completed:  completed,
		Succeeded:  succeeded,
		Failed:     failed,
		FinishedAt: timezone.Now().Unix(),
		ID:         runId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	slog.InfoContext(
		ctx, "run finished",
		"run_id", runId,
		"status", status,
		"succeeded", succeeded,
		"failed", failed,
		"seconds", time.Since(start).Seconds(),
	)

	run, err := s.qry.GetRun(storeCtx, runId)
	if err == nil {
		s.notifyRunFinished(storeCtx, run)
	}
	return nil
}

// RunBatch is CreateRun followed by ExecuteRun, for callers that want
// to block until the batch is done.
func (s Service) RunBatch(ctx context.Context, source string, apns []string) (string, error) {
	id, err := s.CreateRun(ctx, source, len(apns))
	if err != nil {
		return "", err
	}
	return id, s.ExecuteRun(ctx, id, apns)
}

func (s Service) GetRun(ctx context.Context, id string) (db.Run, error) {
	return s.qry.GetRun(ctx, id)
}

func (s Service) ListRuns(ctx context.Context) ([]db.Run, error) {
	return s.qry.ListRuns(ctx)
}

func (s Service) ListRecords(ctx context.Context, runId string) ([]db.Record, error) {
	return s.qry.ListRecords(ctx, runId)
}

func recordRow(runId string, rec *assessor.Record) db.CreateRecordParams {
	return db.CreateRecordParams{
		RunID:                    runId,
		Apn:                      rec.APN,
		ParcelNo:                 rec.ParcelNo,
		Owner:                    rec.Owner,
		Owner2:                   rec.Owner2,
		MailingAddressLine1:      rec.MailingAddress1,
		MailingAddressLine2:      rec.MailingAddress2,
		MailingAddressLine3:      rec.MailingAddress3,
		MailingAddressLine4:      rec.MailingAddress4,
		MailingAddressLine5:      rec.MailingAddress5,
		LocationAddress:          rec.LocationAddress,
		CityUnincorporatedTown:   rec.Town,
		AssessorDescriptionLine1: rec.Description1,
		AssessorDescriptionLine2: rec.Description2,
		AssessorDescriptionLine3: rec.Description3,
		RecordedDocumentNo:       rec.RecordedDoc,
		RecordedDate:             rec.RecordedDate,
		Vesting:                  rec.Vesting,
		Comments:                 rec.Comments,
		Status:                   rec.Status,
		ErrorMessage:             rec.ErrorMessage,
		ScrapedAt:                rec.ScrapedAt,
	}
}

// RecordFromRow rebuilds the scraper-shaped record out of a stored
// row, export code renders these.
func RecordFromRow(row db.Record) *assessor.Record {
	return &assessor.Record{
		APN:             row.Apn,
		ParcelNo:        row.ParcelNo,
		Owner:           row.Owner,
		Owner2:          row.Owner2,
		MailingAddress1: row.MailingAddressLine1,
		MailingAddress2: row.MailingAddressLine2,
		MailingAddress3: row.MailingAddressLine3,
		MailingAddress4: row.MailingAddressLine4,
		MailingAddress5: row.MailingAddressLine5,
		LocationAddress: row.LocationAddress,
		Town:            row.CityUnincorporatedTown,
		Description1:    row.AssessorDescriptionLine1,
		Description2:    row.AssessorDescriptionLine2,
		Description3:    row.AssessorDescriptionLine3,
		RecordedDoc:     row.RecordedDocumentNo,
		RecordedDate:    row.RecordedDate,
		Vesting:         row.Vesting,
		Comments:        row.Comments,
		Status:          row.Status,
		ErrorMessage:    row.ErrorMessage,
		ScrapedAt:       row.ScrapedAt,
	}
}
