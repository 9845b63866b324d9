package browser

import "math"

// Column identifies one of the three list columns.
type Column int

const (
	ColumnName Column = iota
	ColumnModified
	ColumnSize
)

// Border identifies a draggable boundary between two adjacent columns.
type Border int

const (
	BorderNameModified Border = iota
	BorderModifiedSize
)

// Minimum pixel widths per column.
const (
	MinNameWidth     = 120
	MinModifiedWidth = 90
	MinSizeWidth     = 60
)

// ColumnRatios holds the persisted share of each column. An active layout
// always re-normalizes them to sum to 1.
type ColumnRatios struct {
	Name     float64 `json:"name"`
	Modified float64 `json:"modifiedAt"`
	Size     float64 `json:"size"`
}

// DefaultRatios is the layout used before any resize and the fallback for
// unusable persisted input.
func DefaultRatios() ColumnRatios {
	return ColumnRatios{Name: 0.5, Modified: 0.25, Size: 0.25}
}

func sanitizeRatio(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return 0
	}
	return r
}

// Normalize returns ratios scaled to sum to exactly 1. Non-finite and
// negative components are treated as 0; if the resulting sum is not positive
// the defaults are returned instead.
func (r ColumnRatios) Normalize() ColumnRatios {
	r.Name = sanitizeRatio(r.Name)
	r.Modified = sanitizeRatio(r.Modified)
	r.Size = sanitizeRatio(r.Size)

	sum := r.Name + r.Modified + r.Size
	if sum <= 0 {
		return DefaultRatios()
	}
	return ColumnRatios{
		Name:     r.Name / sum,
		Modified: r.Modified / sum,
		Size:     r.Size / sum,
	}
}

// ColumnLayout resolves persisted ratios into pixel widths and applies border
// drags. Visibility flags model the host's responsive breakpoints: a hidden
// column keeps its ratio but is excluded from the active computation.
type ColumnLayout struct {
	ratios       ColumnRatios
	showModified bool
	showSize     bool
}

// NewColumnLayout builds a layout from persisted ratios (normalized on the
// way in) with all columns visible.
func NewColumnLayout(ratios ColumnRatios) *ColumnLayout {
	return &ColumnLayout{
		ratios:       ratios.Normalize(),
		showModified: true,
		showSize:     true,
	}
}

// Ratios returns the current normalized ratios, including hidden columns.
func (l *ColumnLayout) Ratios() ColumnRatios {
	return l.ratios
}

// SetRatios replaces the ratios, normalizing malformed input.
func (l *ColumnLayout) SetRatios(r ColumnRatios) {
	l.ratios = r.Normalize()
}

// SetVisible toggles the modified/size columns. The name column is always
// visible.
func (l *ColumnLayout) SetVisible(modified, size bool) {
	l.showModified = modified
	l.showSize = size
}

// Visible reports whether the given column participates in the active layout.
func (l *ColumnLayout) Visible(c Column) bool {
	switch c {
	case ColumnModified:
		return l.showModified
	case ColumnSize:
		return l.showSize
	default:
		return true
	}
}

func minWidth(c Column) int {
	switch c {
	case ColumnModified:
		return MinModifiedWidth
	case ColumnSize:
		return MinSizeWidth
	default:
		return MinNameWidth
	}
}

// activeShare returns the ratio of c scaled against the sum of visible
// columns' ratios.
func (l *ColumnLayout) activeShare(c Column) float64 {
	sum := l.ratios.Name
	if l.showModified {
		sum += l.ratios.Modified
	}
	if l.showSize {
		sum += l.ratios.Size
	}
	if sum <= 0 {
		return 0
	}
	var r float64
	switch c {
	case ColumnName:
		r = l.ratios.Name
	case ColumnModified:
		if !l.showModified {
			return 0
		}
		r = l.ratios.Modified
	case ColumnSize:
		if !l.showSize {
			return 0
		}
		r = l.ratios.Size
	}
	return r / sum
}

// Widths resolves pixel widths for the visible columns within total. Hidden
// columns resolve to 0. Each visible column is clamped to its minimum; the
// name column absorbs the remainder.
func (l *ColumnLayout) Widths(total int) (name, modified, size int) {
	if total <= 0 {
		return 0, 0, 0
	}

	if l.showModified {
		modified = int(math.Round(float64(total) * l.activeShare(ColumnModified)))
		if modified < MinModifiedWidth {
			modified = MinModifiedWidth
		}
	}
	if l.showSize {
		size = int(math.Round(float64(total) * l.activeShare(ColumnSize)))
		if size < MinSizeWidth {
			size = MinSizeWidth
		}
	}
	name = total - modified - size
	if name < MinNameWidth {
		name = MinNameWidth
	}
	return name, modified, size
}

// ResizeBorder drags the given border by dx pixels within a layout of total
// pixels, transferring width between exactly the two adjacent columns. Both
// neighbors are clamped at their minimums; the third column is untouched.
// Dragging a border whose neighbor is hidden is a no-op.
func (l *ColumnLayout) ResizeBorder(b Border, dx int, total int) {
	if total <= 0 || dx == 0 {
		return
	}

	var left, right Column
	switch b {
	case BorderNameModified:
		left, right = ColumnName, ColumnModified
	case BorderModifiedSize:
		left, right = ColumnModified, ColumnSize
	default:
		return
	}
	if !l.Visible(left) || !l.Visible(right) {
		return
	}

	name, modified, size := l.Widths(total)
	widths := map[Column]int{ColumnName: name, ColumnModified: modified, ColumnSize: size}

	leftPx := widths[left]
	rightPx := widths[right]
	pair := leftPx + rightPx

	newLeft := leftPx + dx
	if newLeft < minWidth(left) {
		newLeft = minWidth(left)
	}
	if pair-newLeft < minWidth(right) {
		newLeft = pair - minWidth(right)
	}
	if newLeft < 0 || newLeft == leftPx {
		return
	}

	// Redistribute the pair's combined ratio in the new pixel proportion so
	// the overall sum (hidden columns included) stays 1.
	pairRatio := l.ratioOf(left) + l.ratioOf(right)
	leftRatio := pairRatio * float64(newLeft) / float64(pair)
	l.setRatioOf(left, leftRatio)
	l.setRatioOf(right, pairRatio-leftRatio)
}

func (l *ColumnLayout) ratioOf(c Column) float64 {
	switch c {
	case ColumnModified:
		return l.ratios.Modified
	case ColumnSize:
		return l.ratios.Size
	default:
		return l.ratios.Name
	}
}

func (l *ColumnLayout) setRatioOf(c Column, r float64) {
	switch c {
	case ColumnModified:
		l.ratios.Modified = r
	case ColumnSize:
		l.ratios.Size = r
	default:
		l.ratios.Name = r
	}
}
