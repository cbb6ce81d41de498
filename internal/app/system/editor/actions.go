package editor

import (
	"encoding/json"
	"fmt"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/gridlayout"
	"github.com/dalemusser/stratadash/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadash/internal/app/system/normalize"
	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
)

// Action is one edit applied to a session draft. The set of actions is
// closed; see the types below.
type Action interface {
	Kind() string
	apply(d *dashboard.Input, ids dashboard.IDGenerator) error
}

// Action kinds as they appear in the "type" field of a JSON action.
const (
	KindAddWidget         = "add_widget"
	KindRemoveWidget      = "remove_widget"
	KindMoveWidget        = "move_widget"
	KindResizeWidget      = "resize_widget"
	KindReconfigureWidget = "reconfigure_widget"
	KindUpdateMetadata    = "update_metadata"
	KindUpdateLayout      = "update_layout"
)

// AddWidget appends a widget of a catalogue type. Without a Position the
// widget goes below everything else at its default size.
type AddWidget struct {
	Type         models.WidgetType   `json:"widgetType"`
	Title        string              `json:"title"`
	DataBinding  models.DataBinding  `json:"dataBinding"`
	ChartOptions models.ChartOptions `json:"chartOptions"`
	Position     *models.Position    `json:"position,omitempty"`
}

// RemoveWidget deletes a widget and compacts the grid.
type RemoveWidget struct {
	WidgetID string `json:"widgetId"`
}

// MoveWidget places a widget at a grid cell.
type MoveWidget struct {
	WidgetID string `json:"widgetId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// ResizeWidget changes a widget's width and height in grid units.
type ResizeWidget struct {
	WidgetID string `json:"widgetId"`
	W        int    `json:"w"`
	H        int    `json:"h"`
}

// ReconfigureWidget replaces whichever parts of a widget are set.
type ReconfigureWidget struct {
	WidgetID     string               `json:"widgetId"`
	Title        *string              `json:"title,omitempty"`
	DataBinding  *models.DataBinding  `json:"dataBinding,omitempty"`
	ChartOptions *models.ChartOptions `json:"chartOptions,omitempty"`
}

// UpdateMetadata replaces whichever dashboard fields are set.
type UpdateMetadata struct {
	Name             *string            `json:"name,omitempty"`
	Description      *string            `json:"description,omitempty"`
	Visibility       *models.Visibility `json:"visibility,omitempty"`
	IsTemplate       *bool              `json:"isTemplate,omitempty"`
	DefaultTimeRange *models.TimeRange  `json:"defaultTimeRange,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
}

// UpdateLayout changes grid settings. A new compact type re-packs the widgets.
type UpdateLayout struct {
	CompactType *models.CompactType `json:"compactType,omitempty"`
	RowHeight   *int                `json:"rowHeight,omitempty"`
	Gap         *int                `json:"gap,omitempty"`
	Padding     *int                `json:"padding,omitempty"`
}

func (AddWidget) Kind() string         { return KindAddWidget }
func (RemoveWidget) Kind() string      { return KindRemoveWidget }
func (MoveWidget) Kind() string        { return KindMoveWidget }
func (ResizeWidget) Kind() string      { return KindResizeWidget }
func (ReconfigureWidget) Kind() string { return KindReconfigureWidget }
func (UpdateMetadata) Kind() string    { return KindUpdateMetadata }
func (UpdateLayout) Kind() string      { return KindUpdateLayout }

func gridOf(d *dashboard.Input) (int, models.CompactType) {
	ct := d.Layout.CompactType
	if ct == "" {
		ct = models.CompactVertical
	}
	return gridlayout.BaseColumns(d.Layout), ct
}

func indexOf(d *dashboard.Input, id string) (int, error) {
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownWidget, id)
}

func relayout(d *dashboard.Input, items []gridlayout.Item) {
	gridlayout.ApplyItems(d.Widgets, items)
}

func (a AddWidget) apply(d *dashboard.Input, ids dashboard.IDGenerator) error {
	cfg, err := widgetconfig.NewConfig(a.Type, a.DataBinding, a.ChartOptions)
	if err != nil {
		return err
	}
	cols, ct := gridOf(d)
	items := gridlayout.ItemsFromWidgets(d.Widgets)

	w := models.Widget{
		ID:     ids.NewID(),
		Title:  htmlsanitize.PlainText(a.Title),
		Config: cfg,
	}
	if w.Title == "" {
		w.Title = widgetconfig.Label(a.Type)
	}

	if a.Position == nil {
		w.Position = gridlayout.PlaceNew(items, a.Type, cols)
		d.Widgets = append(d.Widgets, w)
		relayout(d, gridlayout.Compact(append(items, gridlayout.Item{ID: w.ID, Position: w.Position}), cols, ct))
		return nil
	}

	p := *a.Position
	if p.W < 1 || p.H < 1 {
		p.W, p.H = widgetconfig.DefaultSize(a.Type)
	}
	w.Position = models.Position{W: p.W, H: p.H}
	d.Widgets = append(d.Widgets, w)
	items = append(items, gridlayout.Item{ID: w.ID, Position: w.Position})
	relayout(d, gridlayout.Move(items, w.ID, p.X, p.Y, cols, ct))
	return nil
}

func (a RemoveWidget) apply(d *dashboard.Input, _ dashboard.IDGenerator) error {
	i, err := indexOf(d, a.WidgetID)
	if err != nil {
		return err
	}
	cols, ct := gridOf(d)
	d.Widgets = append(d.Widgets[:i:i], d.Widgets[i+1:]...)
	relayout(d, gridlayout.Compact(gridlayout.ItemsFromWidgets(d.Widgets), cols, ct))
	return nil
}

func (a MoveWidget) apply(d *dashboard.Input, _ dashboard.IDGenerator) error {
	if _, err := indexOf(d, a.WidgetID); err != nil {
		return err
	}
	if a.X < 0 || a.Y < 0 {
		return &dashboard.ValidationError{Fields: map[string]string{"position": "x and y must not be negative"}}
	}
	cols, ct := gridOf(d)
	relayout(d, gridlayout.Move(gridlayout.ItemsFromWidgets(d.Widgets), a.WidgetID, a.X, a.Y, cols, ct))
	return nil
}

func (a ResizeWidget) apply(d *dashboard.Input, _ dashboard.IDGenerator) error {
	if _, err := indexOf(d, a.WidgetID); err != nil {
		return err
	}
	if a.W < 1 || a.H < 1 {
		return &dashboard.ValidationError{Fields: map[string]string{"position": "width and height must be at least 1"}}
	}
	cols, ct := gridOf(d)
	relayout(d, gridlayout.Resize(gridlayout.ItemsFromWidgets(d.Widgets), a.WidgetID, a.W, a.H, cols, ct))
	return nil
}

func (a ReconfigureWidget) apply(d *dashboard.Input, _ dashboard.IDGenerator) error {
	i, err := indexOf(d, a.WidgetID)
	if err != nil {
		return err
	}
	w := d.Widgets[i]
	binding := w.Config.DataBinding
	if a.DataBinding != nil {
		binding = *a.DataBinding
	}
	opts := w.Config.ChartOptions
	if a.ChartOptions != nil {
		opts = *a.ChartOptions
	}
	if models.IsValidWidgetType(w.Config.Type) {
		cfg, err := widgetconfig.NewConfig(w.Config.Type, binding, opts)
		if err != nil {
			return err
		}
		w.Config = cfg
	} else {
		// Placeholder widgets keep their type; only the binding is checked.
		if fields := widgetconfig.CheckBinding(binding); fields != nil {
			return &widgetconfig.ValidationError{Fields: fields}
		}
		w.Config.DataBinding = binding
		w.Config.ChartOptions = opts
	}
	if a.Title != nil {
		w.Title = htmlsanitize.PlainText(*a.Title)
	}
	d.Widgets[i] = w
	return nil
}

func (a UpdateMetadata) apply(d *dashboard.Input, _ dashboard.IDGenerator) error {
	fields := map[string]string{}
	if a.Visibility != nil && !models.IsValidVisibility(*a.Visibility) {
		fields["visibility"] = fmt.Sprintf("unknown visibility %q", *a.Visibility)
	}
	if a.DefaultTimeRange != nil && !models.IsValidTimeRange(*a.DefaultTimeRange) {
		fields["defaultTimeRange"] = fmt.Sprintf("unknown time range %q", *a.DefaultTimeRange)
	}
	if a.Name != nil && htmlsanitize.PlainText(*a.Name) == "" {
		fields["name"] = "name is required"
	}
	if len(fields) > 0 {
		return &dashboard.ValidationError{Fields: fields}
	}

	if a.Name != nil {
		d.Name = htmlsanitize.PlainText(*a.Name)
	}
	if a.Description != nil {
		d.Description = htmlsanitize.Sanitize(*a.Description)
	}
	if a.Visibility != nil {
		d.Visibility = *a.Visibility
	}
	if a.IsTemplate != nil {
		d.IsTemplate = *a.IsTemplate
	}
	if a.DefaultTimeRange != nil {
		d.DefaultTimeRange = *a.DefaultTimeRange
	}
	if a.Tags != nil {
		d.Tags = cleanTags(a.Tags)
	}
	return nil
}

func cleanTags(in []string) []string {
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = htmlsanitize.PlainText(t)
	}
	return normalize.Tags(out)
}

func (a UpdateLayout) apply(d *dashboard.Input, _ dashboard.IDGenerator) error {
	fields := map[string]string{}
	if a.CompactType != nil && !models.IsValidCompactType(*a.CompactType) {
		fields["layout.compactType"] = fmt.Sprintf("unknown compact type %q", *a.CompactType)
	}
	if a.RowHeight != nil && *a.RowHeight < 1 {
		fields["layout.rowHeight"] = "must be at least 1"
	}
	if a.Gap != nil && *a.Gap < 0 {
		fields["layout.gap"] = "must not be negative"
	}
	if a.Padding != nil && *a.Padding < 0 {
		fields["layout.padding"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &dashboard.ValidationError{Fields: fields}
	}

	if a.RowHeight != nil {
		d.Layout.RowHeight = *a.RowHeight
	}
	if a.Gap != nil {
		d.Layout.Gap = *a.Gap
	}
	if a.Padding != nil {
		d.Layout.Padding = *a.Padding
	}
	if a.CompactType != nil {
		d.Layout.CompactType = *a.CompactType
		cols, ct := gridOf(d)
		relayout(d, gridlayout.Compact(gridlayout.ItemsFromWidgets(d.Widgets), cols, ct))
	}
	return nil
}

// DecodeAction parses a JSON action of the form {"type": "<kind>", ...}.
func DecodeAction(raw []byte) (Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}

	var a Action
	var err error
	switch head.Type {
	case KindAddWidget:
		var v AddWidget
		err = json.Unmarshal(raw, &v)
		a = v
	case KindRemoveWidget:
		var v RemoveWidget
		err = json.Unmarshal(raw, &v)
		a = v
	case KindMoveWidget:
		var v MoveWidget
		err = json.Unmarshal(raw, &v)
		a = v
	case KindResizeWidget:
		var v ResizeWidget
		err = json.Unmarshal(raw, &v)
		a = v
	case KindReconfigureWidget:
		var v ReconfigureWidget
		err = json.Unmarshal(raw, &v)
		a = v
	case KindUpdateMetadata:
		var v UpdateMetadata
		err = json.Unmarshal(raw, &v)
		a = v
	case KindUpdateLayout:
		var v UpdateLayout
		err = json.Unmarshal(raw, &v)
		a = v
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrUnknownAction)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s action: %w", head.Type, err)
	}
	return a, nil
}
