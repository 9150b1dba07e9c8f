// package formatter renders card state for the terminal and for export (plain text, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/services"
	"github.com/desertthunder/webradio/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// ParseFormat accepts a format name, case-insensitively. md is an alias for markdown.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", Text:
		return Text, nil
	case "md", Markdown:
		return Markdown, nil
	case CSV, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// StatusToText renders one card pass as plain text.
func StatusToText(view card.View) []byte {
	var buf bytes.Buffer
	if view.Empty {
		buf.WriteString("No valid card configuration\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Stations: %d\n", len(view.Stations)))
	for i, st := range view.Stations {
		buf.WriteString(fmt.Sprintf("%d. %s <%s>\n", i+1, st.Name, st.URL))
	}

	buf.WriteString(fmt.Sprintf("\nPlayers: %d\n", len(view.Players)))
	for _, p := range view.Players {
		buf.WriteString(fmt.Sprintf("- %s (%s) [%s]%s\n", p.DisplayName, p.EntityID, orUnknown(p.State), playerSuffix(p)))
	}
	return buf.Bytes()
}

// StatusToMarkdown renders one card pass as a Markdown document.
func StatusToMarkdown(view card.View) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Web Radio\n\n")
	if view.Empty {
		buf.WriteString("_No valid card configuration._\n")
		return buf.Bytes()
	}

	buf.WriteString("## Stations\n\n")
	for i, st := range view.Stations {
		buf.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, st.Name, st.URL))
	}

	buf.WriteString("\n## Players\n\n")
	buf.WriteString("| Player | Entity | State | Station | Volume |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, p := range view.Players {
		buf.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s | %s |\n",
			p.DisplayName, p.EntityID, orUnknown(p.State), orDash(p.PlayingStation), volume(p)))
	}
	return buf.Bytes()
}

// StatusToCSV renders the player rows of one card pass with columns: entity_id, name, state, station, volume, muted
func StatusToCSV(view card.View) ([]byte, error) {
	rows := make([][]string, 0, len(view.Players))
	for _, p := range view.Players {
		rows = append(rows, []string{
			p.EntityID, p.DisplayName, p.State, p.PlayingStation, volume(p), fmt.Sprintf("%t", p.Muted),
		})
	}
	return writeCSV([]string{"entity_id", "name", "state", "station", "volume", "muted"}, rows)
}

// ConnectionsToText lists the connection map sorted by player.
func ConnectionsToText(conns models.Connections) []byte {
	var buf bytes.Buffer
	if len(conns) == 0 {
		buf.WriteString("No connections\n")
		return buf.Bytes()
	}
	for _, id := range sortedKeys(conns) {
		st := conns[id]
		buf.WriteString(fmt.Sprintf("%s -> %s <%s>\n", id, st.Name, st.URL))
	}
	return buf.Bytes()
}

// ConnectionsToCSV exports the connection map with columns: entity_id, station, url
func ConnectionsToCSV(conns models.Connections) ([]byte, error) {
	rows := make([][]string, 0, len(conns))
	for _, id := range sortedKeys(conns) {
		rows = append(rows, []string{id, conns[id].Name, conns[id].URL})
	}
	return writeCSV([]string{"entity_id", "station", "url"}, rows)
}

// InstancesToText lists discovered Home Assistant servers.
func InstancesToText(instances []services.Instance) []byte {
	var buf bytes.Buffer
	if len(instances) == 0 {
		buf.WriteString("No Home Assistant instances found\n")
		return buf.Bytes()
	}
	for _, inst := range instances {
		line := fmt.Sprintf("%s  %s", inst.Name, inst.BaseURL)
		if inst.Version != "" {
			line += "  (" + inst.Version + ")"
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}

// WriteExport writes data to path, creating parent directories.
func WriteExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
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

func playerSuffix(p card.PlayerTile) string {
	var parts []string
	if p.PlayingStation != "" {
		parts = append(parts, "playing "+p.PlayingStation)
	}
	if p.VolumeLevel != nil {
		parts = append(parts, "volume "+volume(p))
	}
	if p.Muted {
		parts = append(parts, "muted")
	}
	if p.Selected {
		parts = append(parts, "selected")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, ", ")
}

func volume(p card.PlayerTile) string {
	if p.VolumeLevel == nil {
		return ""
	}
	return fmt.Sprintf("%d%%", int(*p.VolumeLevel*100+0.5))
}

func sortedKeys(conns models.Connections) []string {
	keys := make([]string, 0, len(conns))
	for k := range conns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if s == "" {
		return models.StateUnknown
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
