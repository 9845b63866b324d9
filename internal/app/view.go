package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/jtallard/dockside/internal/browser"
	"github.com/jtallard/dockside/internal/drag"
	"github.com/jtallard/dockside/internal/entry"
)

// cellPx converts between terminal cells and the pixel space the column
// layout thinks in. Minimum column widths are pixel values; one cell is
// close enough to 8px for the proportions to survive the round trip.
const cellPx = 8

// Chrome rows inside a pane: title, column header, footer.
const paneChrome = 3

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleBlurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Underline(true)
	selectedStyle     = lipgloss.NewStyle().Background(lipgloss.Color("24")).Foreground(lipgloss.Color("15"))
	hoverStyle        = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	folderStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	matchStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Underline(true)
	dropOKStyle       = lipgloss.NewStyle().Background(lipgloss.Color("22")).Foreground(lipgloss.Color("15"))
	dropBadStyle      = lipgloss.NewStyle().Background(lipgloss.Color("52")).Foreground(lipgloss.Color("15"))
	dividerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	previewOKStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 1)
	previewBadStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)
	quickOpenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

func (m *Model) paneWidth(pane int) int {
	lw := int(m.split * float64(m.width-1))
	if pane == paneLeft {
		return lw
	}
	return m.width - 1 - lw
}

func (m *Model) paneRowCount() int {
	rows := m.height - 1 - paneChrome
	if rows < 0 {
		return 0
	}
	return rows
}

func (m *Model) View() string {
	if !m.ready || m.width == 0 {
		return "loading..."
	}
	m.hits.Clear()

	lw := m.paneWidth(paneLeft)
	left := m.renderPane(paneLeft, 0, lw)
	right := m.renderPane(paneRight, lw+1, m.paneWidth(paneRight))
	divider := m.renderDivider(lw)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, divider, right)
	frame := body + "\n" + m.renderStatus()

	if m.quickOpen {
		frame = m.composeQuickOpen(frame)
	}
	frame = m.composeDragPreview(frame)
	return frame
}

func (m *Model) renderDivider(x int) string {
	h := m.height - 1
	m.hits.AddRect("split", x, 0, 1, h, splitHit{})
	col := strings.TrimSuffix(strings.Repeat("│\n", h), "\n")
	return dividerStyle.Render(col)
}

func (m *Model) renderPane(pane, x, w int) string {
	p := m.pane(pane)
	m.hits.AddRect("pane:"+paneIDs[pane], x, 0, w, m.height-1, paneHit{Pane: pane})

	var b strings.Builder
	b.WriteString(m.renderTitle(pane, w))
	b.WriteByte('\n')
	b.WriteString(m.renderHeader(pane, x, w))
	b.WriteByte('\n')

	files := p.Files()
	rows := m.paneRowCount()
	top := clamp(p.ScrollPosition(), 0, maxInt(0, len(files)-1))

	session := m.coord.Session()
	for i := 0; i < rows; i++ {
		idx := top + i
		if idx >= len(files) {
			b.WriteString(strings.Repeat(" ", w))
		} else {
			y := 2 + i
			e := files[idx]
			m.hits.AddRect("row:"+e.ID, x, y, w, 1, rowHit{Pane: pane, Entry: e})
			b.WriteString(m.renderRow(pane, e, w, session))
		}
		b.WriteByte('\n')
	}

	b.WriteString(m.renderFooter(pane, w, len(files)))
	return b.String()
}

func (m *Model) renderTitle(pane, w int) string {
	p := m.pane(pane)
	title := " " + p.CurrentPath()
	if p.FilterActive() && p.FilterQuery() != "" {
		title += "  [" + p.FilterQuery() + "]"
	}
	title = runewidth.Truncate(title, w, "…")
	title += strings.Repeat(" ", maxInt(0, w-runewidth.StringWidth(title)))
	if pane == m.focused {
		return titleStyle.Render(title)
	}
	return titleBlurredStyle.Render(title)
}

// renderHeader paints the column captions and registers hit regions for the
// sortable captions and the draggable borders between them.
func (m *Model) renderHeader(pane, x, w int) string {
	p := m.pane(pane)
	nw, mw, sw := p.Columns().Widths(w * cellPx)
	nw, mw, sw = nw/cellPx, mw/cellPx, sw/cellPx
	nw = maxInt(0, w-mw-sw) // cells lost to integer division go to name

	cfg := p.SortConfig()
	caption := func(label string, f browser.SortField) string {
		if cfg.Field == f {
			if cfg.Direction == browser.SortAsc {
				return label + " ▲"
			}
			return label + " ▼"
		}
		return label
	}

	name := pad(caption("Name", browser.SortByName), nw)
	mod := pad(caption("Modified", browser.SortByModified), mw)
	size := pad(caption("Size", browser.SortBySize), sw)

	m.hits.AddRect("hdr:name", x, 1, nw, 1, headerHit{Pane: pane, Field: browser.SortByName})
	if mw > 0 {
		m.hits.AddRect("hdr:mod", x+nw, 1, mw, 1, headerHit{Pane: pane, Field: browser.SortByModified})
		m.hits.AddRect("border:nm", x+nw-1, 1, 2, 1, borderHit{Pane: pane, Border: browser.BorderNameModified})
	}
	if sw > 0 {
		m.hits.AddRect("hdr:size", x+nw+mw, 1, sw, 1, headerHit{Pane: pane, Field: browser.SortBySize})
		if mw > 0 {
			// The modified/size border only exists when both neighbors are
			// visible; registering it anyway would shadow the size caption's
			// first cell.
			m.hits.AddRect("border:ms", x+nw+mw-1, 1, 2, 1, borderHit{Pane: pane, Border: browser.BorderModifiedSize})
		}
	}

	return headerStyle.Render(ansi.Truncate(name+mod+size, w, ""))
}

func (m *Model) renderRow(pane int, e entry.Entry, w int, session drag.Session) string {
	p := m.pane(pane)
	nw, mw, sw := p.Columns().Widths(w * cellPx)
	nw, mw, sw = nw/cellPx, mw/cellPx, sw/cellPx
	nw = maxInt(0, w-mw-sw)

	icon := "  "
	if e.IsFolder() {
		icon = "▸ "
	}
	iconW := runewidth.StringWidth(icon)
	name := m.renderName(p, e, maxInt(0, nw-iconW))
	mod := ""
	if mw > 0 && !e.ModifiedAt.IsZero() {
		mod = e.ModifiedAt.Format("Jan _2 15:04")
	}
	size := ""
	if sw > 0 && !e.IsFolder() {
		size = formatSize(e.Size)
	}

	line := icon + name + strings.Repeat(" ", maxInt(0, nw-iconW-ansi.StringWidth(name))) +
		pad(mod, mw) + pad(size, sw)
	line = ansi.Truncate(line, w, "")
	line += strings.Repeat(" ", maxInt(0, w-ansi.StringWidth(line)))

	// Drop affordance trumps selection trumps hover.
	if t := session.DropTarget; t != nil && t.InstanceID == paneIDs[pane] &&
		t.TargetItem != nil && t.TargetItem.ID == e.ID {
		if session.ValidDrop {
			return dropOKStyle.Render(ansi.Strip(line))
		}
		return dropBadStyle.Render(ansi.Strip(line))
	}
	if p.IsSelected(e.ID) {
		return selectedStyle.Render(ansi.Strip(line))
	}
	if !m.dragStyles && m.hoverRowID == e.ID {
		return hoverStyle.Render(ansi.Strip(line))
	}
	return line
}

// renderName highlights the filter's matched runes.
func (m *Model) renderName(p *browser.Model, e entry.Entry, w int) string {
	base := runewidth.Truncate(e.Name, w, "…")
	style := func(s string) string {
		if e.IsFolder() {
			return folderStyle.Render(s)
		}
		return s
	}
	if !p.FilterActive() || p.FilterQuery() == "" {
		return style(base)
	}
	matched := p.MatchIndices(e.Name)
	if len(matched) == 0 {
		return style(base)
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}
	var b strings.Builder
	for i, r := range []rune(base) {
		if set[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(string(r))
		}
	}
	return style(b.String())
}

func (m *Model) renderFooter(pane, w, count int) string {
	p := m.pane(pane)
	if m.filterOpen && m.filterPane == pane {
		return ansi.Truncate(" / "+m.filterInput.View(), w, "")
	}
	txt := fmt.Sprintf(" %d items", count)
	if n := p.SelectionCount(); n > 0 {
		txt += fmt.Sprintf(", %d selected", n)
	}
	if p.OptimisticLen() > 0 {
		txt += fmt.Sprintf(", %d pending", p.OptimisticLen())
	}
	return dimStyle.Render(pad(txt, w))
}

func (m *Model) renderStatus() string {
	msg := m.statusMsg
	if msg == "" {
		msg = "tab: switch pane  /: filter  ctrl+p: jump  y: copy path  q: quit"
	}
	line := runewidth.Truncate(" "+msg, m.width, "…")
	if m.statusIsError {
		return errorStyle.Render(line)
	}
	return statusStyle.Render(line)
}

// composeDragPreview paints the floating preview over the frame: at the
// pointer while dragging, snapped to the drop target while the end
// animation runs.
func (m *Model) composeDragPreview(frame string) string {
	session := m.coord.Session()

	var x, y int
	switch session.Phase {
	case drag.PhaseDragging:
		x, y = session.PointerX+1, session.PointerY+1
	case drag.PhaseEnding:
		if !session.HasEndTarget {
			return frame
		}
		x, y = session.EndTargetX, session.EndTargetY
	default:
		return frame
	}

	label := fmt.Sprintf("%d item", len(session.Items))
	if len(session.Items) != 1 {
		label += "s"
	}
	first := ""
	if len(session.Items) > 0 {
		first = runewidth.Truncate(session.Items[0].Item.Name, 16, "…")
	}
	style := previewBadStyle
	if session.ValidDrop || session.Committed {
		style = previewOKStyle
	}
	box := style.Render(label + "\n" + first)
	return overlayAt(frame, box, x, y)
}

func (m *Model) composeQuickOpen(frame string) string {
	var b strings.Builder
	b.WriteString(m.quickInput.View())
	b.WriteByte('\n')
	for i, r := range m.quickResults {
		line := runewidth.Truncate(r.Entry.Path, 48, "…")
		if i == m.quickCursor {
			line = selectedStyle.Render(pad(line, 48))
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}
	box := quickOpenStyle.Render(b.String())
	x := maxInt(0, (m.width-lipgloss.Width(box))/2)
	return overlayAt(frame, box, x, 2)
}

// overlayAt composites overlay on top of base with its top-left corner at
// cell (x, y). Styled cells under the overlay are replaced; escape sequences
// on either side of the cut survive.
func overlayAt(base, overlay string, x, y int) string {
	baseLines := strings.Split(base, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ov := range ovLines {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		bl := baseLines[row]
		ow := ansi.StringWidth(ov)
		left := ansi.Truncate(bl, x, "")
		leftW := ansi.StringWidth(left)
		if leftW < x {
			left += strings.Repeat(" ", x-leftW)
		}
		right := ansi.TruncateLeft(bl, x+ow, "")
		baseLines[row] = left + ov + right
	}
	return strings.Join(baseLines, "\n")
}

func pad(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = runewidth.Truncate(s, w, "…")
	return s + strings.Repeat(" ", w-runewidth.StringWidth(s))
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
