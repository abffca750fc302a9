package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/bzl/internal/transport"
	uistate "github.com/atomicstack/bzl/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const footerHints = "↑/↓ move  enter select  tab mark  ctrl+v verb  ctrl+e clean  ctrl+x expunge  ctrl+f refresh  ctrl+k kinds  esc back"

type styledLine struct {
	text          string
	style         *lipgloss.Style
	prefixStyle   *lipgloss.Style
	highlightFrom int
	raw           bool // text contains ANSI escapes; use ANSI-aware truncation
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := make([]styledLine, 0, 16)
	if header := m.headerLine(); header != "" {
		lines = append(lines, styledLine{text: header, raw: true})
	}
	if crumb := m.breadcrumbLine(); crumb != "" {
		lines = append(lines, styledLine{text: crumb, style: styles.Breadcrumb})
	}
	if current := m.currentLevel(); current != nil {
		m.syncViewport(current)
		start := 0
		displayItems := current.Items
		if maxItems := m.maxVisibleItems(); maxItems > 0 && len(displayItems) > maxItems {
			start = current.ViewportOffset
			if start < 0 {
				start = 0
			}
			if start+maxItems > len(displayItems) {
				start = len(displayItems) - maxItems
				if start < 0 {
					start = 0
				}
				current.ViewportOffset = start
			}
			displayItems = displayItems[start : start+maxItems]
		}
		if len(current.Items) == 0 {
			msg := "(no targets)"
			if current.Filter != "" {
				msg = fmt.Sprintf("No matches for %q", current.Filter)
			}
			lines = append(lines, styledLine{text: msg, style: styles.Info})
		} else {
			for i, item := range displayItems {
				idx := start + i
				lines = append(lines, m.buildItemLine(item, idx, current, m.width))
			}
		}
	}
	if m.loading {
		label := m.loadingLabel
		if label == "" {
			label = "working"
		}
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: m.spin.View() + label + "…", raw: true})
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	lines = append(lines, styledLine{})
	lines = append(lines, styledLine{text: footerHints, style: styles.Footer})
	// Reserve 2 rows for the bottom bar (error/status + prompt).
	lines = limitHeight(lines, m.height-2, m.width)
	lines = applyWidth(lines, m.width)

	var statusLine styledLine
	if m.errMsg != "" {
		statusLine = styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error}
	}
	bottomLines := []styledLine{
		statusLine,
		{text: m.filterPrompt(), raw: true},
	}
	bottomLines = applyWidth(bottomLines, m.width)
	lines = append(lines, bottomLines...)
	return renderLines(lines)
}

// headerLine renders the context badge (local vs remote) next to the
// active verb badge.
func (m *Model) headerLine() string {
	contextStyle := styles.ContextLocal
	if _, ok := m.transport.(transport.Remote); ok {
		contextStyle = styles.ContextRemote
	}
	badge := " " + m.transport.Label() + " "
	if contextStyle != nil {
		badge = contextStyle.Render(badge)
	}
	verb := " " + m.verb + " "
	if style := verbStyle(m.verb); style != nil {
		verb = style.Render(verb)
	}
	title := "bzl"
	if styles.Header != nil {
		title = styles.Header.Render(title)
	}
	return title + "  " + badge + " " + verb
}

func verbStyle(verb string) *lipgloss.Style {
	switch verb {
	case "run":
		return styles.VerbRun
	case "test":
		return styles.VerbTest
	default:
		return styles.VerbBuild
	}
}

// breadcrumbLine shows the level title with shown/total counts.
func (m *Model) breadcrumbLine() string {
	current := m.currentLevel()
	if current == nil {
		return ""
	}
	title := current.Title
	if strings.HasPrefix(current.ID, targetLevelID+":") {
		title = "Modules › " + current.Title
	}
	shown := len(current.Items)
	total := len(current.Full)
	if current.Filter != "" && shown != total {
		return fmt.Sprintf("%s (%d/%d)", title, shown, total)
	}
	return fmt.Sprintf("%s (%d)", title, total)
}

// buildItemLine constructs a single styledLine for a list item. width is
// the target column width; when > 0 the text is padded so that the
// selected item's background spans the full container.
func (m *Model) buildItemLine(item uistate.Item, idx int, current *level, width int) styledLine {
	indicator := "▌"
	lineStyle := styles.Item
	indicatorStyle := styles.ItemIndicator
	selectDisplay := ""
	if current.MultiSelect {
		mark := " "
		if current.IsSelected(item.ID) {
			mark = "✓"
		}
		selectDisplay = fmt.Sprintf("[%s] ", mark)
	}
	if idx == current.Cursor {
		indicatorStyle = styles.SelectedItemIndicator
		lineStyle = styles.SelectedItem
	}
	label := item.Label
	if item.Annotation != "" {
		label += "  " + item.Annotation
	}
	fullText := indicator + " " + selectDisplay + label
	if width > 0 {
		if pad := width - len([]rune(fullText)); pad > 0 {
			fullText += strings.Repeat(" ", pad)
		}
	}
	return styledLine{
		text:          fullText,
		style:         lineStyle,
		prefixStyle:   indicatorStyle,
		highlightFrom: 1, // just the ▌ character
	}
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	m.width = resize.Width
	m.height = resize.Height
	if current := m.currentLevel(); current != nil {
		m.syncViewport(current)
	}
	return nil
}

func (m *Model) maxVisibleItems() int {
	if m.height <= 0 {
		return -1
	}
	used := 2 // bottom bar: error/status + filter prompt
	if m.headerLine() != "" {
		used++
	}
	if m.breadcrumbLine() != "" {
		used++
	}
	if m.loading {
		used += 2
	}
	if m.currentInfo() != "" {
		used += 2
	}
	used += 2 // blank separator + key hints
	remain := m.height - used
	if remain < 1 {
		return 1
	}
	return remain
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			if w := lipgloss.Width(text); w > width {
				text = truncate.StringWithTail(text, uint(width-1), "…")
			}
		} else {
			text = truncateText(text, width)
		}
		result[i] = styledLine{
			text:          text,
			style:         line.style,
			prefixStyle:   line.prefixStyle,
			highlightFrom: line.highlightFrom,
			raw:           line.raw,
		}
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			out[i] = text
			continue
		}
		runes := []rune(text)
		if line.highlightFrom > 0 && line.highlightFrom < len(runes) {
			head := string(runes[:line.highlightFrom])
			tail := string(runes[line.highlightFrom:])
			if line.prefixStyle != nil {
				head = line.prefixStyle.Render(head)
			}
			if line.style != nil {
				tail = line.style.Render(tail)
			}
			text = head + tail
		} else if line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

func truncateText(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
