// package formatter renders scan results as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat maps a flag value to a [Format]. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidFlag, s)
	}
}

// ScanSummary totals a scan.
type ScanSummary struct {
	Paths   int `json:"paths"`
	Videos  int `json:"videos"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
}

// Summarize totals the counted paths; failed paths only add to Failed.
func Summarize(results []models.ScanResult) ScanSummary {
	s := ScanSummary{Paths: len(results)}
	for _, r := range results {
		if r.Failed() {
			s.Failed++
			continue
		}
		s.Videos += r.Videos
		s.Missing += r.Missing
	}
	return s
}

// ScanLine renders one result as a status line.
func ScanLine(r models.ScanResult) string {
	if r.Failed() {
		return fmt.Sprintf("Path: %s - ERROR: %s", r.Path, r.Error)
	}
	return fmt.Sprintf("Path: %s | Videos: %d, Missing Subtitles: %d", r.Path, r.Videos, r.Missing)
}

// ExportScanToText renders one line per path followed by the totals.
func ExportScanToText(results []models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer

	if len(results) == 0 {
		buf.WriteString("No paths configured or no results found.\n")
		return buf.Bytes(), nil
	}

	for _, r := range results {
		buf.WriteString(ScanLine(r))
		buf.WriteString("\n")
	}

	s := Summarize(results)
	buf.WriteString(fmt.Sprintf("\nPaths: %d, Videos: %d, Missing Subtitles: %d, Errors: %d\n", s.Paths, s.Videos, s.Missing, s.Failed))

	return buf.Bytes(), nil
}

// ExportScanToMarkdown renders a table of results with a totals line.
func ExportScanToMarkdown(results []models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Subtitle Scan\n\n")
	if len(results) == 0 {
		buf.WriteString("_No paths configured or no results found._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Path | Videos | Missing | Error |\n")
	buf.WriteString("|------|-------:|--------:|-------|\n")
	for _, r := range results {
		if r.Failed() {
			buf.WriteString(fmt.Sprintf("| `%s` | - | - | %s |\n", r.Path, escapePipes(r.Error)))
			continue
		}
		buf.WriteString(fmt.Sprintf("| `%s` | %d | %d | |\n", r.Path, r.Videos, r.Missing))
	}

	s := Summarize(results)
	buf.WriteString(fmt.Sprintf("\n**Total**: %d videos, %d missing subtitles, %d errors\n", s.Videos, s.Missing, s.Failed))

	return buf.Bytes(), nil
}

// ExportScanToCSV converts results to CSV with columns: Path, Videos, Missing, Error
func ExportScanToCSV(results []models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Path", "Videos", "Missing", "Error"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range results {
		record := []string{r.Path, strconv.Itoa(r.Videos), strconv.Itoa(r.Missing), r.Error}
		if r.Failed() {
			record[1], record[2] = "", ""
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

type scanJSON struct {
	Results []models.ScanResult `json:"results"`
	Summary ScanSummary         `json:"summary"`
}

// ExportScanToJSON renders results in the server's shape plus a summary.
func ExportScanToJSON(results []models.ScanResult) ([]byte, error) {
	if results == nil {
		results = []models.ScanResult{}
	}
	data, err := json.MarshalIndent(scanJSON{Results: results, Summary: Summarize(results)}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportScan dispatches to the exporter for format.
func ExportScan(format Format, results []models.ScanResult) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportScanToText(results)
	case FormatMarkdown:
		return ExportScanToMarkdown(results)
	case FormatCSV:
		return ExportScanToCSV(results)
	case FormatJSON:
		return ExportScanToJSON(results)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteScanExport renders results and writes them to path.
func WriteScanExport(path string, format Format, results []models.ScanResult) error {
	data, err := ExportScan(format, results)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}

	return nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
