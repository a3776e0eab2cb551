package antlers

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// StatusSentinel prefix of a joined status line
	StatusSentinel = "##"
	// LineEnding terminates every line written upstream
	LineEnding = "\r\n"
)

// StatusFormat how a relayed status is rendered upstream
type StatusFormat string

const (
	// StatusJoined a single `##ID:..,VR:..` line
	StatusJoined StatusFormat = "joined"
	// StatusLines one `TAG:value` line per field
	StatusLines StatusFormat = "lines"
)

type tag struct {
	key   string
	value string
}

func statusTags(p StatusPayload, rssi bool) []tag {
	tags := []tag{
		{"ID", strconv.Itoa(int(p.NodeID))},
		{"VR", strconv.Itoa(int(p.Version))},
		{"NS", strconv.Itoa(int(p.NodeState))},
		{"AS", strconv.Itoa(int(p.AntlerState))},
		{"VC", strconv.FormatFloat(float64(p.VCC), 'f', 2, 32)},
		{"TP", strconv.Itoa(int(p.Temperature))},
	}

	if rssi {
		tags = append(tags, tag{"RS", strconv.Itoa(int(p.RSSI))})
	}

	return tags
}

// FormatStatus render a status payload as text for the upstream transport, line endings included
func FormatStatus(p StatusPayload, format StatusFormat, rssi bool) string {
	tags := statusTags(p, rssi)
	var sb strings.Builder

	switch format {
	case StatusLines:
		for _, t := range tags {
			fmt.Fprintf(&sb, "%s:%s%s", t.key, t.value, LineEnding)
		}

	default:
		sb.WriteString(StatusSentinel)
		for i, t := range tags {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(t.key)
			sb.WriteByte(':')
			sb.WriteString(t.value)
		}
		sb.WriteString(LineEnding)
	}

	return sb.String()
}
