package tui

import (
	"fmt"
	"strings"

	"github.com/studiowebux/typeatron/internal/device"
)

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(styleTitle.Render("Typeatron monitor"))
	sb.WriteString("\n")
	sb.WriteString(m.renderDevices())
	sb.WriteString("\n")
	sb.WriteString(m.renderTyped())
	sb.WriteString("\n")

	sb.WriteString(styleBox.Render(m.view.View()))
	sb.WriteString("\n")

	if m.isError {
		sb.WriteString(styleError.Render(m.status))
	} else {
		sb.WriteString(styleSubtle.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(styleSubtle.Render("p ping • v vibrate • l laser • g photo • m mode • c/d connect/disconnect • r refresh • x clear • q quit"))
	return sb.String()
}

func (m Model) renderDevices() string {
	addrs := m.deviceAddresses()
	if len(addrs) == 0 {
		return styleSubtle.Render("no devices yet")
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		st := m.statuses[a]
		name := st.Name
		if name == "" {
			name = a
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", name, stateLabel(st.State), st.Mode))
	}
	return strings.Join(parts, "   ")
}

func stateLabel(state string) string {
	switch state {
	case device.StateConnected.String():
		return styleSuccess.Render("●")
	case device.StateConnecting.String():
		return styleWarning.Render("◐")
	default:
		return styleError.Render("○")
	}
}

func (m Model) renderTyped() string {
	addrs := m.deviceAddresses()
	var parts []string
	for _, a := range addrs {
		if text := m.typed[a]; text != "" {
			parts = append(parts, text)
		}
	}
	return "> " + strings.Join(parts, " | ")
}

// renderEvent formats one feed line
func renderEvent(ev device.FeedEvent) string {
	stamp := styleSubtle.Render(ev.Time.Local().Format("15:04:05.000"))
	kind := string(ev.Kind)
	switch ev.Kind {
	case device.FeedError:
		kind = styleError.Render(kind)
	case device.FeedState:
		kind = styleWarning.Render(kind)
	case device.FeedSymbol:
		kind = styleSuccess.Render(kind)
	}
	return fmt.Sprintf("%s %s %-8s %q", stamp, ev.Device, kind, ev.Text)
}
