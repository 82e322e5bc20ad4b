package csvutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReadAPNsFrom(t *testing.T) {
	for _, test := range []struct {
		name     string
		filename string
		column   string
		input    string
		expected []string
	}{
		{
			name:     "exact header",
			filename: "parcels.csv",
			column:   "apn",
			input:    "apn,owner\n17604612023,SMITH\n , \nnan,\n17604612024,JONES\n",
			expected: []string{"17604612023", "17604612024"},
		},
		{
			name:     "header case differs",
			filename: "parcels.csv",
			column:   "apn",
			input:    "APN\n17604612023\n",
			expected: []string{"17604612023"},
		},
		{
			name:     "fuzzy header fallback",
			filename: "export.csv",
			column:   "apn",
			input:    "Owner,Parcel Number\nSMITH,176-04-612-023\n",
			expected: []string{"176-04-612-023"},
		},
		{
			name:     "plain text list",
			filename: "parcels.txt",
			column:   "",
			input:    "17604612023\n\nnan\n176-04-612-024\n",
			expected: []string{"17604612023", "176-04-612-024"},
		},
		{
			name:     "empty csv",
			filename: "parcels.csv",
			column:   "apn",
			input:    "",
			expected: nil,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := ReadAPNsFrom(strings.NewReader(test.input), test.filename, test.column)
			require.NoError(t, err)
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestReadAPNsFromUnknownColumn(t *testing.T) {
	_, err := ReadAPNsFrom(
		strings.NewReader("owner,address\nSMITH,1234 DESERT INN RD\n"),
		"parcels.csv", "apn",
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "available columns")
}

func TestReadAPNs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	err := os.WriteFile(path, []byte("apn\n17604612023\n"), 0644)
	require.NoError(t, err)

	got, err := ReadAPNs(path, "apn")
	require.NoError(t, err)
	require.Equal(t, []string{"17604612023"}, got)
}

func TestWriteRecordsTo(t *testing.T) {
	rec := &assessor.Record{
		APN:             "176-04-612-023",
		Owner:           "SMITH JOHN & JANE",
		Owner2:          "SMITH FAMILY TRUST, TRS",
		MailingAddress1: "1234 DESERT INN RD",
		LocationAddress: "1234 DESERT INN RD",
		Town:            "WINCHESTER",
	}

	var buf bytes.Buffer
	err := WriteRecordsTo(&buf, []*assessor.Record{rec})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(
		t,
		"APN,Owner,Owner_2,Mailing_Address_Line1,Mailing_Address_Line2,"+
			"Mailing_Address_Line3,Mailing_Address_Line4,Mailing_Address_Line5,"+
			"Location_Address,City_Unincorporated_Town",
		lines[0],
	)
	// the comma in the trust name has to survive the round trip
	require.Equal(
		t,
		`176-04-612-023,SMITH JOHN & JANE,"SMITH FAMILY TRUST, TRS",`+
			`1234 DESERT INN RD,,,,,1234 DESERT INN RD,WINCHESTER`,
		lines[1],
	)
}

func TestAppendRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	first := &assessor.Record{APN: "176-04-612-023", Owner: "SMITH JOHN"}
	second := &assessor.Record{APN: "176-04-612-024", Owner: "JONES ALICE"}
	require.NoError(t, AppendRecord(path, first))
	require.NoError(t, AppendRecord(path, second))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "APN,Owner,"))
	require.Contains(t, lines[1], "176-04-612-023")
	require.Contains(t, lines[2], "176-04-612-024")
}
