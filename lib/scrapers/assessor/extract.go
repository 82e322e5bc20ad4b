package assessor

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

// Element ids on ParcelDetail.aspx. This list is the whole contract
// with the county's markup, when the site changes this is the place
// to fix.
const (
	idParcelNo = "lblParcel"
	idOwner    = "lblOwner1"
	idAddr1    = "lblAddr1"
	idAddr2    = "lblAddr2"
	idAddr3    = "lblAddr3"
	idAddr4    = "lblAddr4"
	idAddr5    = "lblAddr5"
	idLocation = "lblLocation"
	idTown     = "lblTown"
	idDesc1    = "lblDesc1"
	idDesc2    = "lblDesc2"
	idDesc3    = "lblDesc3"
	idRecDoc   = "lblRecDoc"
	idRecDate  = "lblRecDate"
	idVesting  = "lblVest"
	idComments = "litComments"
)

func labelText(doc *goquery.Document, id string) string {
	return strings.TrimSpace(doc.Find("span#" + id).First().Text())
}

func assignIfPresent(target *string, value string) {
	if value != "" {
		*target = value
	}
}

type extractStep struct {
	name string
	run  func(doc *goquery.Document, rec *Record)
}

// extraction runs these in order, a fault in one aborts the rest and
// keeps whatever already landed on the record
var extractSteps = []extractStep{
	{"parcel_no", func(doc *goquery.Document, rec *Record) {
		assignIfPresent(&rec.ParcelNo, labelText(doc, idParcelNo))
	}},
	{"owners", extractOwners},
	{"mailing_address", func(doc *goquery.Document, rec *Record) {
		assignIfPresent(&rec.MailingAddress1, labelText(doc, idAddr1))
		assignIfPresent(&rec.MailingAddress2, labelText(doc, idAddr2))
		assignIfPresent(&rec.MailingAddress3, labelText(doc, idAddr3))
		assignIfPresent(&rec.MailingAddress4, labelText(doc, idAddr4))
		assignIfPresent(&rec.MailingAddress5, labelText(doc, idAddr5))
	}},
	{"location", func(doc *goquery.Document, rec *Record) {
		assignIfPresent(&rec.LocationAddress, labelText(doc, idLocation))
		assignIfPresent(&rec.Town, labelText(doc, idTown))
	}},
	{"descriptions", func(doc *goquery.Document, rec *Record) {
		assignIfPresent(&rec.Description1, labelText(doc, idDesc1))
		assignIfPresent(&rec.Description2, labelText(doc, idDesc2))
		assignIfPresent(&rec.Description3, labelText(doc, idDesc3))
	}},
	{"recording", func(doc *goquery.Document, rec *Record) {
		assignIfPresent(&rec.RecordedDoc, labelText(doc, idRecDoc))
		assignIfPresent(&rec.RecordedDate, reformatRecordedDate(labelText(doc, idRecDate)))
		assignIfPresent(&rec.Vesting, labelText(doc, idVesting))
		assignIfPresent(&rec.Comments, labelText(doc, idComments))
	}},
}

// Extract reads every known field off a parcel detail document and
// decides the record's terminal status. It never fails outward: parse
// faults and empty pages both come back as records marked Error.
func Extract(doc *goquery.Document, apn string) *Record {
	rec := NewRecord(apn)

	err := runExtractSteps(doc, rec)
	if err != nil {
		rec.MarkError(fmt.Sprintf("Parse error: %v", err))
		return rec
	}

	if rec.HasData() {
		rec.MarkSuccess()
	} else {
		rec.MarkError("No data found")
	}
	return rec
}

func runExtractSteps(doc *goquery.Document, rec *Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	for _, step := range extractSteps {
		step.run(doc, rec)
	}
	return nil
}

var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

func extractOwners(doc *goquery.Document, rec *Record) {
	sel := doc.Find("span#" + idOwner)
	if sel.Length() == 0 {
		return
	}
	raw, err := sel.First().Html()
	if err != nil {
		return
	}

	owners := splitMultiValue(raw)
	if len(owners) > 0 {
		rec.Owner = owners[0]
	}
	if len(owners) > 1 {
		rec.Owner2 = owners[1]
	}
}

// splitMultiValue takes the raw inner markup of a multi-line label
// (owners are stacked with <br> separators) and returns the cleaned
// line values. Fragments that reduce to nothing, or to the bare tag
// name left behind by splitting through markup, are dropped.
func splitMultiValue(rawMarkup string) []string {
	var out []string
	for _, part := range brTag.Split(rawMarkup, -1) {
		frag, err := goquery.NewDocumentFromReader(strings.NewReader(part))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(frag.Text())
		if text == "" || text == "span" {
			continue
		}
		out = append(out, html.UnescapeString(text))
	}
	return out
}

var recordedDateShape = regexp.MustCompile(`^(\d{8}):\d+$`)

// reformatRecordedDate rewrites the county's recording stamp
// ("20250226:00938") as a readable date ("Feb 26 2025"). Anything
// that doesn't match the stamp shape, including stamps with an
// impossible calendar date, passes through untouched.
func reformatRecordedDate(raw string) string {
	m := recordedDateShape.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	t, err := time.ParseInLocation("20060102", m[1], timezone.Location)
	if err != nil {
		return raw
	}
	return t.Format("Jan 2 2006")
}
