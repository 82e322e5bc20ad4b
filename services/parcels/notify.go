package parcels

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels/db"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	// who hears about finished runs
	Recipients []string `json:"recipients"`
}

// best effort, a lost notice never fails the run
func (s Service) notifyRunFinished(ctx context.Context, run db.Run) {
	if s.options.Smtp == nil || len(s.options.Smtp.Recipients) == 0 {
		return
	}
	ctx, span := tracer.Start(ctx, "notifyRunFinished")
	defer span.End()

	cfg := s.options.Smtp

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Parcel Scraper <%s>", cfg.EmailAddress)
	mail.To = cfg.Recipients
	mail.Subject = fmt.Sprintf("Scrape run %s: %s", run.ID, run.Status)

	duration := time.Duration(run.FinishedAt-run.StartedAt) * time.Second
	body := fmt.Sprintf(`Scrape run %s finished with status %q.

Source: %s
Parcels: %d scraped of %d requested
Succeeded: %d
Failed: %d
Duration: %s`,
		run.ID, run.Status, run.Source,
		run.Completed, run.Total, run.Succeeded, run.Failed, duration)
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	err := mail.Send(addr, smtp.PlainAuth("", cfg.EmailAddress, cfg.Password, cfg.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to send run notification", "run_id", run.ID, "err", err)
		return
	}
	slog.InfoContext(ctx, "sent run notification", "run_id", run.ID, "to", cfg.Recipients)
}
