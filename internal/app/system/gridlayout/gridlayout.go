// Package gridlayout resolves responsive grid placements for dashboard widgets.
//
// Widget positions are stored once, in the columns of the base (widest)
// breakpoint. At render time the engine picks the active breakpoint for a
// container width, scales every position into that breakpoint's columns, and
// compacts the result so that no two widgets overlap.
package gridlayout

import (
	"sort"

	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
)

// Item is a widget rectangle on the grid.
type Item struct {
	ID string `json:"id"`
	models.Position
}

// Placement is the resolved layout for one breakpoint.
type Placement struct {
	Breakpoint models.Breakpoint `json:"breakpoint"`
	Columns    int               `json:"columns"`
	Items      []Item            `json:"items"`
}

// breakpoints returns the layout's breakpoints sorted by descending MinWidth.
// A layout without breakpoints uses the default set.
func breakpoints(layout models.DashboardLayout) []models.Breakpoint {
	bps := layout.Breakpoints
	if len(bps) == 0 {
		bps = models.DefaultLayout().Breakpoints
	}
	out := append([]models.Breakpoint(nil), bps...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinWidth > out[j].MinWidth })
	return out
}

// ActiveBreakpoint returns the largest breakpoint whose threshold is <= width.
// Widths narrower than every threshold get the smallest breakpoint.
func ActiveBreakpoint(layout models.DashboardLayout, width int) models.Breakpoint {
	bps := breakpoints(layout)
	for _, bp := range bps {
		if bp.MinWidth <= width {
			return bp
		}
	}
	return bps[len(bps)-1]
}

// Columns returns the column count for a breakpoint name.
func Columns(layout models.DashboardLayout, name string) int {
	if n, ok := layout.ColumnsPerBreakpoint[name]; ok && n > 0 {
		return n
	}
	if layout.Columns > 0 {
		return layout.Columns
	}
	return 12
}

// BaseColumns returns the column count of the widest breakpoint, the unit
// in which stored widget positions are expressed.
func BaseColumns(layout models.DashboardLayout) int {
	return Columns(layout, breakpoints(layout)[0].Name)
}

// Scale maps a position from baseCols columns into cols columns.
// x is floored and w rounded (minimum 1); w is then clamped to cols and x
// clamped so the rectangle stays in bounds.
func Scale(pos models.Position, baseCols, cols int) models.Position {
	out := pos
	if baseCols > 0 && cols > 0 && baseCols != cols {
		out.X = pos.X * cols / baseCols
		out.W = (2*pos.W*cols + baseCols) / (2 * baseCols)
	}
	return clamp(out, cols)
}

func clamp(p models.Position, cols int) models.Position {
	if p.W < 1 {
		p.W = 1
	}
	if p.H < 1 {
		p.H = 1
	}
	if p.W > cols {
		p.W = cols
	}
	if p.X < 0 {
		p.X = 0
	}
	if p.X+p.W > cols {
		p.X = cols - p.W
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

func overlap(a, b models.Position) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// collision returns the first placed rectangle that overlaps p, or nil.
func collision(placed []models.Position, p models.Position) *models.Position {
	for i := range placed {
		if overlap(placed[i], p) {
			return &placed[i]
		}
	}
	return nil
}

func bottom(placed []models.Position) int {
	maxY := 0
	for _, p := range placed {
		if p.Y+p.H > maxY {
			maxY = p.Y + p.H
		}
	}
	return maxY
}

// Overlaps reports whether any two items overlap.
func Overlaps(items []Item) bool {
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if overlap(items[i].Position, items[j].Position) {
				return true
			}
		}
	}
	return false
}

// Compact packs items into cols columns according to ct and returns them in
// their original order. Items are placed in ascending (y, x) order.
func Compact(items []Item, cols int, ct models.CompactType) []Item {
	return compactPinned(items, cols, ct, "")
}

// compactPinned is Compact with one item placed first at its own position.
func compactPinned(items []Item, cols int, ct models.CompactType, pinned string) []Item {
	out := make([]Item, len(items))
	order := make([]int, len(items))
	for i, it := range items {
		out[i] = Item{ID: it.ID, Position: clamp(it.Position, cols)}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := out[order[a]], out[order[b]]
		if pinned != "" && (pa.ID == pinned) != (pb.ID == pinned) {
			return pa.ID == pinned
		}
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		return pa.X < pb.X
	})

	placed := make([]models.Position, 0, len(items))
	for _, idx := range order {
		p := out[idx].Position
		if pinned == "" || out[idx].ID != pinned {
			switch ct {
			case models.CompactHorizontal:
				p = compactHorizontal(placed, p, cols)
			case models.CompactNone:
				p = pushDown(placed, p)
			default:
				p = compactVertical(placed, p)
			}
		}
		// Terminal overlap is never allowed.
		if collision(placed, p) != nil {
			p.Y = bottom(placed)
		}
		out[idx].Position = p
		placed = append(placed, p)
	}
	// The pinned item may be left floating; settle it with everything else.
	if pinned != "" && ct != models.CompactNone {
		return compactPinned(out, cols, ct, "")
	}
	return out
}

// compactVertical slides p up while it fits, then below anything it hits.
func compactVertical(placed []models.Position, p models.Position) models.Position {
	for p.Y > 0 {
		up := p
		up.Y--
		if collision(placed, up) != nil {
			break
		}
		p = up
	}
	return pushDown(placed, p)
}

// compactHorizontal slides p left within its row. When the row has no room
// it moves to the next row below the blocker and tries again.
func compactHorizontal(placed []models.Position, p models.Position, cols int) models.Position {
	for {
		for p.X > 0 {
			left := p
			left.X--
			if collision(placed, left) != nil {
				break
			}
			p = left
		}
		c := collision(placed, p)
		if c == nil {
			return p
		}
		if c.X+c.W+p.W <= cols {
			p.X = c.X + c.W
			continue
		}
		p.Y = c.Y + c.H
	}
}

// pushDown keeps p's row unless it overlaps, in which case it moves below
// each blocker in turn.
func pushDown(placed []models.Position, p models.Position) models.Position {
	for {
		c := collision(placed, p)
		if c == nil {
			return p
		}
		p.Y = c.Y + c.H
	}
}

// ItemsFromWidgets extracts grid items from widgets.
func ItemsFromWidgets(widgets []models.Widget) []Item {
	items := make([]Item, len(widgets))
	for i, w := range widgets {
		items[i] = Item{ID: w.ID, Position: w.Position}
	}
	return items
}

// ApplyItems copies item positions back onto widgets with matching IDs.
func ApplyItems(widgets []models.Widget, items []Item) {
	byID := make(map[string]models.Position, len(items))
	for _, it := range items {
		byID[it.ID] = it.Position
	}
	for i := range widgets {
		if p, ok := byID[widgets[i].ID]; ok {
			widgets[i].Position = p
		}
	}
}

// ResolveBreakpoint scales and compacts widgets for a named breakpoint.
func ResolveBreakpoint(layout models.DashboardLayout, widgets []models.Widget, bp models.Breakpoint) Placement {
	base := BaseColumns(layout)
	cols := Columns(layout, bp.Name)
	items := ItemsFromWidgets(widgets)
	for i := range items {
		items[i].Position = Scale(items[i].Position, base, cols)
	}
	return Placement{
		Breakpoint: bp,
		Columns:    cols,
		Items:      Compact(items, cols, layout.CompactType),
	}
}

// Resolve returns placements for the breakpoint active at width.
func Resolve(layout models.DashboardLayout, widgets []models.Widget, width int) Placement {
	return ResolveBreakpoint(layout, widgets, ActiveBreakpoint(layout, width))
}

// ResolveAll returns placements for every breakpoint, widest first.
func ResolveAll(layout models.DashboardLayout, widgets []models.Widget) []Placement {
	bps := breakpoints(layout)
	out := make([]Placement, len(bps))
	for i, bp := range bps {
		out[i] = ResolveBreakpoint(layout, widgets, bp)
	}
	return out
}

// PlaceNew returns a position for a new widget of type t: x = 0, below
// every existing item, with the type's default size.
func PlaceNew(items []Item, t models.WidgetType, cols int) models.Position {
	w, h := widgetconfig.DefaultSize(t)
	y := 0
	for _, it := range items {
		if it.Y+it.H > y {
			y = it.Y + it.H
		}
	}
	return clamp(models.Position{X: 0, Y: y, W: w, H: h}, cols)
}

// Remove drops the item with the given id and compacts the rest.
func Remove(items []Item, id string, cols int, ct models.CompactType) []Item {
	rest := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			rest = append(rest, it)
		}
	}
	return Compact(rest, cols, ct)
}

// Move places the item at (x, y) and compacts the others around it. Unless
// ct is CompactNone the moved item then settles like any other, so a drop
// below empty rows ends up at the top of the gap.
// Unknown ids leave the layout compacted but otherwise unchanged.
func Move(items []Item, id string, x, y, cols int, ct models.CompactType) []Item {
	moved := make([]Item, len(items))
	copy(moved, items)
	for i := range moved {
		if moved[i].ID == id {
			moved[i].X = x
			moved[i].Y = y
		}
	}
	return compactPinned(moved, cols, ct, id)
}

// Resize changes the item's size and compacts the others around it.
func Resize(items []Item, id string, w, h, cols int, ct models.CompactType) []Item {
	resized := make([]Item, len(items))
	copy(resized, items)
	for i := range resized {
		if resized[i].ID == id {
			resized[i].W = w
			resized[i].H = h
		}
	}
	return compactPinned(resized, cols, ct, id)
}

// FirstFit returns the top-most, then left-most free w×h slot in cols
// columns.
func FirstFit(items []Item, w, h, cols int) models.Position {
	placed := make([]models.Position, len(items))
	for i, it := range items {
		placed[i] = it.Position
	}
	p := clamp(models.Position{W: w, H: h}, cols)
	for y := 0; ; y++ {
		for x := 0; x+p.W <= cols; x++ {
			p.X, p.Y = x, y
			if collision(placed, p) == nil {
				return p
			}
		}
	}
}
