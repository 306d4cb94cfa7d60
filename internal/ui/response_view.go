package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/theme"
)

// renderResponse turns a QueryResponse into styled terminal output.
// Every variant renders to something; unknown content never reaches
// this point because decoding already degrades it to an error payload.
func renderResponse(resp domain.QueryResponse, width int) string {
	switch resp.Type {
	case domain.ResponseText:
		return theme.NormalStyle.Render(resp.Text)
	case domain.ResponseImage:
		return renderImage(resp.ImageURL)
	case domain.ResponseList:
		return renderList(resp.List)
	case domain.ResponseTable:
		return renderTable(resp.Table)
	case domain.ResponseError:
		return theme.ErrorStyle.Render(formatErrorForDisplay(resp.Err, width))
	}
	return theme.MutedStyle.Render("(no response)")
}

// renderImage shows the chart URL; terminals cannot display the image
// itself, so the user gets something they can open
func renderImage(url string) string {
	return theme.SubtitleStyle.Render("Chart ready:") + "\n" +
		theme.NormalStyle.Render(url)
}

func renderList(list *domain.ListPayload) string {
	if list == nil {
		return ""
	}
	var b strings.Builder
	if list.Title != "" {
		b.WriteString(theme.ListTitleStyle.Render(list.Title))
		b.WriteString("\n")
	}
	for _, item := range list.Items {
		b.WriteString(theme.NormalStyle.Render("  • " + item))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderTable lays out tabular data with columns sized to their widest
// cell. Rows shorter than the header are padded with empty cells.
func renderTable(table *domain.TablePayload) string {
	if table == nil || len(table.Headers) == 0 {
		return ""
	}

	widths := make([]int, len(table.Headers))
	for i, h := range table.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if l := utf8.RuneCountInString(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-utf8.RuneCountInString(s))
	}

	var b strings.Builder
	headerCells := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		headerCells[i] = pad(h, widths[i])
	}
	b.WriteString(theme.TableHeaderStyle.Render(strings.Join(headerCells, "  ")))
	b.WriteString("\n")

	for _, row := range table.Rows {
		cells := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, widths[i])
		}
		b.WriteString(theme.NormalStyle.Render(strings.Join(cells, "  ")))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// connectionSegment renders the transport state for the status bar
func connectionSegment(state domain.ConnectionState) string {
	switch state {
	case domain.ConnReady:
		return theme.ConnectedStyle.Render("● connected")
	case domain.ConnConnecting:
		return theme.ConnectingStyle.Render("◌ connecting")
	case domain.ConnDegraded:
		return theme.DegradedStyle.Render("◑ degraded (REST fallback)")
	default:
		return theme.DisconnectedStyle.Render("○ disconnected")
	}
}
