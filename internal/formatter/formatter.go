// package formatter renders catalog data for CLI output and file export (plain text, JSON, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/search"
	"github.com/resona-fm/resona/internal/shared"
)

// SearchResultsText renders search results as a numbered plain-text list.
//
// Scores are shown to three decimal places; degraded (substring-match)
// results are labeled so the caller knows semantic ranking was unavailable.
func SearchResultsText(query string, results []search.Result) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Search: %s\n", query))
	buf.WriteString(fmt.Sprintf("Results: %d\n\n", len(results)))

	for i, result := range results {
		line := fmt.Sprintf("%d. %s - %s", i+1, result.Track.Artist, result.Track.Title)
		if result.Track.Album != "" {
			line += fmt.Sprintf(" (%s)", result.Track.Album)
		}
		if result.Score != nil {
			line += fmt.Sprintf(" [%.3f]", *result.Score)
		}
		if result.Degraded {
			line += " [text match]"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

// SearchResultsJSON renders search results as indented JSON.
func SearchResultsJSON(results []search.Result) ([]byte, error) {
	return shared.MarshalJSON(results, true)
}

// TaskText renders a resolution task as a short status block.
func TaskText(task *models.ResolutionTask) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Task: %s\n", task.ID))
	buf.WriteString(fmt.Sprintf("Status: %s\n", task.Status))
	buf.WriteString(fmt.Sprintf("Progress: %d/%d (%d failed)\n", task.Processed+task.Failed, task.Total, task.Failed))
	if task.Message != "" {
		buf.WriteString(fmt.Sprintf("Message: %s\n", task.Message))
	}

	return buf.Bytes()
}

// StatsText renders catalog statistics with per-platform coverage in the
// fixed platform order.
func StatsText(stats *models.CatalogStats) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n", stats.TotalTracks))
	buf.WriteString(fmt.Sprintf("Embedded: %d\n", stats.EmbeddedTracks))
	buf.WriteString(fmt.Sprintf("Needing resolution: %d\n\n", stats.NeedingResolution))

	buf.WriteString("Platform coverage:\n")
	for _, platform := range models.AllPlatforms {
		buf.WriteString(fmt.Sprintf("  %-14s %d\n", platform, stats.PlatformCoverage[platform]))
	}

	return buf.Bytes()
}

// StatsJSON renders catalog statistics as indented JSON.
func StatsJSON(stats *models.CatalogStats) ([]byte, error) {
	return shared.MarshalJSON(stats, true)
}

// ExportToCSV converts tracks to CSV with columns: ID, Title, Artist, Album, Popularity, Genres, Platforms
//
// Genres are sorted and semicolon-joined; Platforms lists the platforms a
// track holds links on, in the fixed platform order.
func ExportToCSV(tracks []*models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Popularity", "Genres", "Platforms"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		genres := make([]string, len(track.Genres))
		copy(genres, track.Genres)
		sort.Strings(genres)

		platforms := make([]string, 0, len(track.Links))
		for _, link := range track.Links {
			platforms = append(platforms, string(link.Platform))
		}

		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.Popularity),
			strings.Join(genres, ";"),
			strings.Join(platforms, ";"),
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

// WriteCSVExport writes a CSV catalog export to the given path.
//
// Defaults to catalog_tracks.csv when path is empty.
func WriteCSVExport(tracks []*models.Track, path string) (string, error) {
	if path == "" {
		path = "catalog_tracks.csv"
	}

	data, err := ExportToCSV(tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
