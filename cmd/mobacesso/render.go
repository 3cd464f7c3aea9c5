package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/navigation"
	"github.com/manzanit0/mobacesso/pkg/routing"
)

func render(w io.Writer, format outputFormat, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	switch v := v.(type) {
	case []location.Candidate:
		if len(v) == 0 {
			_, err := fmt.Fprintln(w, "no places found")
			return err
		}
		renderCandidates(w, v)
	case *routing.Route:
		renderRoute(w, v)
	case *navigation.CompleteRoute:
		renderCompleteRoute(w, v)
	default:
		return fmt.Errorf("no table layout for %T", v)
	}

	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func renderCandidates(w io.Writer, candidates []location.Candidate) {
	table := newTable(w, []string{"ID", "Name", "Latitude", "Longitude"})
	for _, c := range candidates {
		table.Append([]string{strconv.FormatInt(c.ID, 10), c.DisplayName, formatDegrees(c.Latitude), formatDegrees(c.Longitude)})
	}

	table.Render()
}

func renderRoute(w io.Writer, r *routing.Route) {
	table := newTable(w, []string{"Distance", "Duration", "Points"})
	table.Append([]string{formatDistance(r.DistanceMeters), formatDuration(r.DurationSeconds), strconv.Itoa(len(r.Polyline))})
	table.Render()
}

func renderCompleteRoute(w io.Writer, r *navigation.CompleteRoute) {
	table := newTable(w, []string{"From", "To", "Distance", "Duration"})
	table.Append([]string{r.Origin.DisplayName, r.Destination.DisplayName, formatDistance(r.DistanceMeters), formatDuration(r.DurationSeconds)})
	table.SetRowLine(true)
	table.SetRowSeparator("-")
	table.Render()
}

func formatDegrees(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}

	return fmt.Sprintf("%.1f km", meters/1000)
}

func formatDuration(seconds float64) string {
	minutes := int(seconds+30) / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}

	return fmt.Sprintf("%d h %02d min", minutes/60, minutes%60)
}
