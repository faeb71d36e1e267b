package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/subctl/internal/models"
)

var _ list.Item = pathItem{}

// pathItem is one search path, with its last scan result once a scan ran.
type pathItem struct {
	path   string
	result *models.ScanResult
}

func (i pathItem) FilterValue() string { return i.path }
func (i pathItem) Title() string       { return i.path }
func (i pathItem) Description() string {
	switch {
	case i.result == nil:
		return "not scanned"
	case i.result.Failed():
		return "ERROR: " + i.result.Error
	default:
		return fmt.Sprintf("%d videos • %d missing subtitles", i.result.Videos, i.result.Missing)
	}
}

// pathItems lists every scanned path in server order, then configured paths the scan did not report.
func pathItems(paths []string, results []models.ScanResult) []list.Item {
	items := make([]list.Item, 0, len(paths)+len(results))
	seen := make(map[string]bool, len(results))
	for i := range results {
		r := results[i]
		seen[r.Path] = true
		items = append(items, pathItem{path: r.Path, result: &r})
	}
	for _, p := range paths {
		if !seen[p] {
			items = append(items, pathItem{path: p})
		}
	}
	return items
}
