package assessor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const detailPageFixture = `<!DOCTYPE html>
<html>
<head><title>Clark County Assessor - Parcel Detail</title></head>
<body>
<form id="aspnetForm" action="./ParcelDetail.aspx?hdnParcel=17604612023&amp;hdnInstance=pcl7" method="post">
<div id="pnlDetail">
	<table>
		<tr><td>PARCEL NO.</td><td><span id="lblParcel">176-04-612-023</span></td></tr>
		<tr><td>OWNER</td><td><span id="lblOwner1">SMITH JOHN &amp; JANE<br/>SMITH FAMILY TRUST</span></td></tr>
		<tr><td>ADDRESS</td><td><span id="lblAddr1">1234 DESERT INN RD</span></td></tr>
		<tr><td></td><td><span id="lblAddr2">UNIT 8</span></td></tr>
		<tr><td></td><td><span id="lblAddr3">LAS VEGAS NV 89109</span></td></tr>
		<tr><td></td><td><span id="lblAddr4"></span></td></tr>
		<tr><td></td><td><span id="lblAddr5"></span></td></tr>
		<tr><td>LOCATION</td><td><span id="lblLocation">1234 DESERT INN RD</span></td></tr>
		<tr><td>CITY/UNINCORPORATED TOWN</td><td><span id="lblTown">WINCHESTER</span></td></tr>
		<tr><td>DESCRIPTION</td><td><span id="lblDesc1">DESERT INN ESTATES PLAT BOOK 58 PAGE 12</span></td></tr>
		<tr><td></td><td><span id="lblDesc2">LOT 23 BLOCK 4</span></td></tr>
		<tr><td></td><td><span id="lblDesc3">SEC 04 TWP 21 RNG 61</span></td></tr>
		<tr><td>RECORDED DOCUMENT NO.</td><td><span id="lblRecDoc">20210315:00938</span></td></tr>
		<tr><td>RECORDED DATE</td><td><span id="lblRecDate">20210315:00938</span></td></tr>
		<tr><td>VESTING</td><td><span id="lblVest">JOINT TENANCY</span></td></tr>
	</table>
	<span id="litComments">SUPPLEMENTAL ASSESSMENT PENDING</span>
</div>
</form>
</body>
</html>`

const emptyPageFixture = `<!DOCTYPE html>
<html><body>
<form id="aspnetForm" action="./ParcelDetail.aspx" method="post">
	<span id="lblParcel"></span>
	<span id="lblOwner1"></span>
	<span id="lblAddr1"></span>
	<span id="lblLocation"></span>
	<span id="lblDesc1"></span>
</form>
</body></html>`

func parseFixture(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtract(t *testing.T) {
	rec := Extract(parseFixture(t, detailPageFixture), "17604612023")

	require.True(t, rec.Succeeded())
	require.True(t, strings.HasPrefix(rec.Status, "Success - Scraped at "))
	require.NotEmpty(t, rec.ScrapedAt)

	got := *rec
	got.Status = ""
	got.ScrapedAt = ""
	expect := Record{
		APN:             "17604612023",
		ParcelNo:        "176-04-612-023",
		Owner:           "SMITH JOHN & JANE",
		Owner2:          "SMITH FAMILY TRUST",
		MailingAddress1: "1234 DESERT INN RD",
		MailingAddress2: "UNIT 8",
		MailingAddress3: "LAS VEGAS NV 89109",
		LocationAddress: "1234 DESERT INN RD",
		Town:            "WINCHESTER",
		Description1:    "DESERT INN ESTATES PLAT BOOK 58 PAGE 12",
		Description2:    "LOT 23 BLOCK 4",
		Description3:    "SEC 04 TWP 21 RNG 61",
		RecordedDoc:     "20210315:00938",
		RecordedDate:    "Mar 15 2021",
		Vesting:         "JOINT TENANCY",
		Comments:        "SUPPLEMENTAL ASSESSMENT PENDING",
	}
	diff := cmp.Diff(expect, got)
	require.Empty(t, diff)
}

func TestExtractNoData(t *testing.T) {
	rec := Extract(parseFixture(t, emptyPageFixture), "17604612023")

	require.False(t, rec.Succeeded())
	require.False(t, rec.HasData())
	require.Equal(t, "Error: No data found", rec.Status)
	require.Equal(t, "No data found", rec.ErrorMessage)
	require.NotEmpty(t, rec.ScrapedAt)
}

func TestExtractKeepsFieldsBeforeFault(t *testing.T) {
	original := extractSteps
	defer func() { extractSteps = original }()
	extractSteps = []extractStep{
		original[0],
		{"boom", func(doc *goquery.Document, rec *Record) {
			panic("markup moved")
		}},
		original[1],
	}

	rec := Extract(parseFixture(t, detailPageFixture), "17604612023")

	require.Equal(t, "176-04-612-023", rec.ParcelNo)
	require.Empty(t, rec.Owner)
	require.Equal(t, "Error: Parse error: markup moved", rec.Status)
	require.False(t, rec.Succeeded())
}

func TestSplitMultiValue(t *testing.T) {
	cases := []struct {
		input  string
		expect []string
	}{
		{input: "SMITH JOHN<br>SMITH JANE", expect: []string{"SMITH JOHN", "SMITH JANE"}},
		{input: "SMITH JOHN &amp; JANE<br/>", expect: []string{"SMITH JOHN & JANE"}},
		{input: "DOE JOHN<BR>DOE JANE", expect: []string{"DOE JOHN", "DOE JANE"}},
		{input: "DOE JOHN<br>span<br>DOE JANE", expect: []string{"DOE JOHN", "DOE JANE"}},
		{input: "  JONES MARY  <br />   ", expect: []string{"JONES MARY"}},
		{input: "", expect: nil},
	}

	for _, test := range cases {
		got := splitMultiValue(test.input)
		diff := cmp.Diff(test.expect, got)
		if diff != "" {
			t.Fatal("input", test.input, "diff", diff)
		}
	}
}

func TestReformatRecordedDate(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{input: "20210315:00938", expect: "Mar 15 2021"},
		{input: "20250226:00001", expect: "Feb 26 2025"},
		{input: "03/15/2021", expect: "03/15/2021"},
		{input: "", expect: ""},
		// month 13 does not exist, leave the stamp alone
		{input: "20211315:00938", expect: "20211315:00938"},
		{input: "20210315", expect: "20210315"},
		{input: "20210315:abc", expect: "20210315:abc"},
	}

	for _, test := range cases {
		got := reformatRecordedDate(test.input)
		require.Equal(t, test.expect, got, "input: %s", test.input)
	}
}

func TestRecordTerminalStatus(t *testing.T) {
	rec := NewRecord("17604612023")
	require.Equal(t, StatusPending, rec.Status)

	rec.MarkSuccess()
	require.True(t, rec.Succeeded())
	firstStatus := rec.Status

	rec.MarkError("late failure")
	require.Equal(t, firstStatus, rec.Status)
	require.Empty(t, rec.ErrorMessage)

	failed := NewRecord("17604612023")
	failed.MarkError("Failed to fetch page")
	failed.MarkSuccess()
	require.Equal(t, "Error: Failed to fetch page", failed.Status)
	require.False(t, failed.Succeeded())
}
