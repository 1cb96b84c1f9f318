package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/typeatron/internal/device"
)

// Output formats accepted by -o
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle       = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle         = lipgloss.NewStyle().Padding(0, 1)
)

// encode renders v as json or yaml; ok is false for text. A query reshapes
// v first and implies json when the format is text.
func encode(v any, format, query string) (string, bool, error) {
	if query != "" {
		result, err := applyQuery(v, query)
		if err != nil {
			return "", true, err
		}
		v = result
		if format == FormatText || format == "" {
			format = FormatJSON
		}
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", true, err
		}
		return string(data) + "\n", true, nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", true, err
		}
		return string(data), true, nil
	case FormatText, "":
		return "", false, nil
	default:
		return "", true, fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}

func stateStyle(state string) lipgloss.Style {
	switch state {
	case device.StateConnected.String():
		return connectedStyle
	case device.StateConnecting.String():
		return pendingStyle
	default:
		return disconnectedStyle
	}
}

// formatStatuses renders device statuses as a table in text format
func formatStatuses(statuses []device.Status, format, query string) (string, error) {
	if out, ok, err := encode(statuses, format, query); ok {
		return out, err
	}
	if len(statuses) == 0 {
		return "no devices configured\n", nil
	}

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		lastPing := "-"
		if st.LastPing != nil {
			lastPing = st.LastPing.Local().Format(time.TimeOnly)
		}
		referent := st.Referent
		if referent == "" {
			referent = "-"
		}
		rows = append(rows, []string{
			st.Name,
			st.Address,
			stateStyle(st.State).Render(st.State),
			st.Mode,
			lastPing,
			referent,
		})
	}
	return renderTable([]string{"NAME", "ADDRESS", "STATE", "MODE", "LAST PING", "REFERENT"}, rows), nil
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String() + "\n"
}

// formatEvent renders one feed event as a single line
func formatEvent(ev device.FeedEvent) string {
	var sb strings.Builder
	sb.WriteString(ev.Time.Local().Format("15:04:05.000"))
	sb.WriteString(" ")
	sb.WriteString(ev.Device)
	sb.WriteString(" ")
	sb.WriteString(string(ev.Kind))
	if ev.Text != "" {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprintf("%q", ev.Text))
	}
	if ev.Kind == device.FeedSymbol && ev.Mode != "" {
		sb.WriteString(" [")
		sb.WriteString(ev.Mode)
		sb.WriteString("]")
	}
	return sb.String()
}
