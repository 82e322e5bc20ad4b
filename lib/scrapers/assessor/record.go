package assessor

import (
	"strings"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/timezone"
)

const StatusPending = "Pending"

// Record is one parcel's worth of data pulled off ParcelDetail.aspx.
// Fields stay empty when the page doesn't carry them, consumers treat
// empty string as absent.
type Record struct {
	APN      string `json:"apn"`
	ParcelNo string `json:"parcel_no,omitempty"`

	Owner  string `json:"owner,omitempty"`
	Owner2 string `json:"owner_2,omitempty"`

	MailingAddress1 string `json:"mailing_address_line1,omitempty"`
	MailingAddress2 string `json:"mailing_address_line2,omitempty"`
	MailingAddress3 string `json:"mailing_address_line3,omitempty"`
	MailingAddress4 string `json:"mailing_address_line4,omitempty"`
	MailingAddress5 string `json:"mailing_address_line5,omitempty"`

	LocationAddress string `json:"location_address,omitempty"`
	// city or unincorporated town
	Town string `json:"city_unincorporated_town,omitempty"`

	Description1 string `json:"assessor_description_line1,omitempty"`
	Description2 string `json:"assessor_description_line2,omitempty"`
	Description3 string `json:"assessor_description_line3,omitempty"`

	RecordedDoc  string `json:"recorded_document_no,omitempty"`
	RecordedDate string `json:"recorded_date,omitempty"`
	Vesting      string `json:"vesting,omitempty"`
	Comments     string `json:"comments,omitempty"`

	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	ScrapedAt    string `json:"scraped_at,omitempty"`
}

func NewRecord(apn string) *Record {
	return &Record{
		APN:    apn,
		Status: StatusPending,
	}
}

// MarkSuccess stamps a terminal success status. Terminal statuses are
// write-once, calling either mark on an already-marked record does
// nothing.
func (r *Record) MarkSuccess() {
	if r.Status != StatusPending {
		return
	}
	now := timezone.Now()
	r.Status = "Success - Scraped at " + now.Format("15:04:05")
	r.ScrapedAt = now.Format(time.RFC3339)
}

func (r *Record) MarkError(reason string) {
	if r.Status != StatusPending {
		return
	}
	now := timezone.Now()
	r.Status = "Error: " + reason
	r.ErrorMessage = reason
	r.ScrapedAt = now.Format(time.RFC3339)
}

func (r *Record) Succeeded() bool {
	return strings.HasPrefix(r.Status, "Success")
}

// HasData reports whether extraction found anything worth keeping,
// the page always renders its span skeleton so presence of the
// elements alone proves nothing.
func (r *Record) HasData() bool {
	return r.Owner != "" || r.LocationAddress != "" || r.Description1 != ""
}
