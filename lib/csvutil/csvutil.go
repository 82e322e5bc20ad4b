// Package csvutil reads APN input files and writes scraped parcel
// records back out. Input files come from county staff spreadsheets,
// so header names wander ("APN", "Parcel", "parcel_number", ...) and
// cells carry spreadsheet artifacts like "nan".
package csvutil

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"

	"github.com/antzucaro/matchr"
)

// the similarity floor for accepting a header as the APN column when
// no exact or case-insensitive match exists
const headerSimilarityThreshold = 0.85

var headerSynonyms = []string{"apn", "parcel"}

func skippable(cell string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	return cell == "" || cell == "nan" || cell == "none"
}

func findAPNColumn(headers []string, requested string) (int, error) {
	for i, h := range headers {
		if h == requested {
			return i, nil
		}
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), requested) {
			return i, nil
		}
	}

	bestIndex := -1
	var bestSimilarity float64
	for i, h := range headers {
		for _, synonym := range headerSynonyms {
			similarity := matchr.JaroWinkler(strings.ToLower(strings.TrimSpace(h)), synonym, false)
			if similarity > bestSimilarity {
				bestSimilarity = similarity
				bestIndex = i
			}
		}
	}
	if bestIndex >= 0 && bestSimilarity >= headerSimilarityThreshold {
		return bestIndex, nil
	}

	return 0, fmt.Errorf(
		"could not find an APN column named %q, available columns: %s",
		requested, strings.Join(headers, ", "),
	)
}

func readAPNLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if skippable(line) {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}

func readAPNTable(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col, err := findAPNColumn(headers, column)
	if err != nil {
		return nil, err
	}

	var out []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(row) || skippable(row[col]) {
			continue
		}
		out = append(out, strings.TrimSpace(row[col]))
	}
	return out, nil
}

// ReadAPNsFrom pulls APNs out of r. A ".txt" name means one APN per
// line, anything else is parsed as csv using `column` as the APN
// header (with fuzzy fallback when the exact header is absent).
func ReadAPNsFrom(r io.Reader, name, column string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(name), ".txt") {
		return readAPNLines(r)
	}
	if column == "" {
		column = "apn"
	}
	return readAPNTable(r, column)
}

func ReadAPNs(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAPNsFrom(f, path, column)
}

// the export schema downstream consumers were built against, mailing
// address always occupies five columns even when mostly blank
var exportHeader = []string{
	"APN",
	"Owner",
	"Owner_2",
	"Mailing_Address_Line1",
	"Mailing_Address_Line2",
	"Mailing_Address_Line3",
	"Mailing_Address_Line4",
	"Mailing_Address_Line5",
	"Location_Address",
	"City_Unincorporated_Town",
}

func exportRow(rec *assessor.Record) []string {
	return []string{
		rec.APN,
		rec.Owner,
		rec.Owner2,
		rec.MailingAddress1,
		rec.MailingAddress2,
		rec.MailingAddress3,
		rec.MailingAddress4,
		rec.MailingAddress5,
		rec.LocationAddress,
		rec.Town,
	}
}

// WriteRecordsTo renders records in the export schema.
func WriteRecordsTo(w io.Writer, records []*assessor.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(exportRow(rec)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteRecords(path string, records []*assessor.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteRecordsTo(f, records)
}

// AppendRecord streams one record onto path, creating the file with a
// header row first. Batches append as they go so a crash mid-run
// loses nothing already scraped.
func AppendRecord(path string, rec *assessor.Record) error {
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if newFile {
		if err := writer.Write(exportHeader); err != nil {
			return err
		}
	}
	if err := writer.Write(exportRow(rec)); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
