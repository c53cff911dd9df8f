package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ExportFormat is an analytics export encoding
type ExportFormat string

const (
	ExportJSON    ExportFormat = "json"
	ExportCSV     ExportFormat = "csv"
	ExportParquet ExportFormat = "parquet"
)

// ParseExportFormat validates a requested export format; empty means json
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case "":
		return ExportJSON, nil
	case ExportJSON, ExportCSV, ExportParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType is the MIME type of an export
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv"
	case ExportParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/json"
	}
}

// ExportRow is one row of the flattened export: the story summary repeated
// next to a single viewer. A story without viewers exports one summary row.
type ExportRow struct {
	StoryID          string   `parquet:"story_id,zstd"`
	ExportedAt       string   `parquet:"exported_at"`
	TotalViews       int64    `parquet:"total_views"`
	CompletedViews   int64    `parquet:"completed_views"`
	ReactionCount    int64    `parquet:"reaction_count"`
	ReplyCount       int64    `parquet:"reply_count"`
	LinkClicks       int64    `parquet:"link_clicks"`
	CompletionRate   float64  `parquet:"completion_rate"`
	ExitRate         float64  `parquet:"exit_rate"`
	ClickThroughRate float64  `parquet:"click_through_rate"`
	ViewerID         string   `parquet:"viewer_id,optional,zstd"`
	ViewedAt         string   `parquet:"viewed_at,optional"`
	DurationSeconds  *float64 `parquet:"duration_seconds,optional"`
	Completed        bool     `parquet:"completed"`
}

var csvHeader = []string{
	"story_id", "exported_at", "total_views", "completed_views", "reaction_count",
	"reply_count", "link_clicks", "completion_rate", "exit_rate", "click_through_rate",
	"viewer_id", "viewed_at", "duration_seconds", "completed",
}

// FlattenSnapshot turns a snapshot into export rows
func FlattenSnapshot(snap *AnalyticsSnapshot) []ExportRow {
	base := ExportRow{
		StoryID:          snap.StoryID,
		ExportedAt:       snap.ExportedAt.UTC().Format(time.RFC3339),
		TotalViews:       int64(snap.TotalViews),
		CompletedViews:   int64(snap.CompletedViews),
		ReactionCount:    int64(snap.ReactionCount),
		ReplyCount:       int64(snap.ReplyCount),
		LinkClicks:       int64(snap.LinkClicks),
		CompletionRate:   snap.CompletionRate,
		ExitRate:         snap.ExitRate,
		ClickThroughRate: snap.ClickThroughRate,
	}
	if len(snap.Viewers) == 0 {
		return []ExportRow{base}
	}

	rows := make([]ExportRow, 0, len(snap.Viewers))
	for _, v := range snap.Viewers {
		row := base
		row.ViewerID = v.ViewerID
		row.ViewedAt = v.ViewedAt.UTC().Format(time.RFC3339)
		row.DurationSeconds = v.DurationSeconds
		row.Completed = v.Completed
		rows = append(rows, row)
	}
	return rows
}

// Encode writes the snapshot in the requested format
func Encode(w io.Writer, format ExportFormat, snap *AnalyticsSnapshot) error {
	switch format {
	case ExportCSV:
		return EncodeCSV(w, snap)
	case ExportParquet:
		return EncodeParquet(w, snap)
	default:
		return EncodeJSON(w, snap)
	}
}

// EncodeJSON writes the structured form of a snapshot
func EncodeJSON(w io.Writer, snap *AnalyticsSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode analytics json: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EncodeCSV writes the flattened form of a snapshot as CSV
func EncodeCSV(w io.Writer, snap *AnalyticsSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range FlattenSnapshot(snap) {
		duration := ""
		if row.DurationSeconds != nil {
			duration = formatFloat(*row.DurationSeconds)
		}
		record := []string{
			row.StoryID,
			row.ExportedAt,
			strconv.FormatInt(row.TotalViews, 10),
			strconv.FormatInt(row.CompletedViews, 10),
			strconv.FormatInt(row.ReactionCount, 10),
			strconv.FormatInt(row.ReplyCount, 10),
			strconv.FormatInt(row.LinkClicks, 10),
			formatFloat(row.CompletionRate),
			formatFloat(row.ExitRate),
			formatFloat(row.ClickThroughRate),
			row.ViewerID,
			row.ViewedAt,
			duration,
			strconv.FormatBool(row.Completed),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// EncodeParquet writes the flattened form of a snapshot as a Parquet file
func EncodeParquet(w io.Writer, snap *AnalyticsSnapshot) error {
	pw := parquet.NewGenericWriter[ExportRow](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(FlattenSnapshot(snap)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
