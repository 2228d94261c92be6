// Package overlay defines the overlay records accepted from clients and the
// normalization rules applied before compilation.
package overlay

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies what an overlay renders.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// MaxTextLength bounds the content of a text overlay.
const MaxTextLength = 500

// Overlay is a single timed, positioned layer composited over the main video.
// Field names mirror the editor's JSON payload.
type Overlay struct {
	ID      string `json:"id,omitempty"`
	Kind    Kind   `json:"type"`
	Content string `json:"content"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`

	Opacity  float64 `json:"opacity"`
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
	ZIndex   int     `json:"zIndex"`

	FontSize   int    `json:"fontSize"`
	FontColor  string `json:"fontColor"`
	Color      string `json:"color,omitempty"` // legacy alias for fontColor
	FontFamily string `json:"fontFamily"`
	TextAlign  string `json:"textAlign"`
	FontWeight string `json:"fontWeight"`

	Locked  bool `json:"locked"`
	Visible bool `json:"visible"`
}

// UnmarshalJSON applies the editor defaults for fields the payload omits.
func (o *Overlay) UnmarshalJSON(data []byte) error {
	type plain Overlay
	tmp := plain{
		Width:      200,
		Height:     100,
		Opacity:    1.0,
		Scale:      1.0,
		FontSize:   24,
		FontFamily: "sans-serif",
		TextAlign:  "left",
		FontWeight: "normal",
		Visible:    true,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.FontColor == "" {
		if tmp.Color != "" {
			tmp.FontColor = tmp.Color
		} else {
			tmp.FontColor = "white"
		}
	}
	*o = Overlay(tmp)
	return nil
}

// Validate checks the field ranges. end_time > start_time is enforced here,
// so a validated overlay always has a positive time window.
func (o *Overlay) Validate() error {
	switch o.Kind {
	case KindText, KindImage, KindVideo:
	default:
		return fmt.Errorf("unknown overlay type %q", o.Kind)
	}
	if o.Content == "" {
		return fmt.Errorf("content is required")
	}
	if o.Kind == KindText && len(o.Content) > MaxTextLength {
		return fmt.Errorf("text overlay too long (max %d chars)", MaxTextLength)
	}
	if o.X < 0 || o.Y < 0 {
		return fmt.Errorf("position must be non-negative, got (%g,%g)", o.X, o.Y)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("dimensions must be positive, got %gx%g", o.Width, o.Height)
	}
	if o.StartTime < 0 {
		return fmt.Errorf("start_time must be non-negative, got %g", o.StartTime)
	}
	if o.EndTime <= o.StartTime {
		return fmt.Errorf("end_time (%g) must be greater than start_time (%g)", o.EndTime, o.StartTime)
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return fmt.Errorf("opacity must be within [0,1], got %g", o.Opacity)
	}
	if o.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", o.Scale)
	}
	if o.Kind == KindText {
		if o.FontSize < 8 || o.FontSize > 200 {
			return fmt.Errorf("fontSize must be within [8,200], got %d", o.FontSize)
		}
		switch o.TextAlign {
		case "left", "center", "right":
		default:
			return fmt.Errorf("textAlign must be left, center or right, got %q", o.TextAlign)
		}
		switch o.FontWeight {
		case "normal", "bold":
		default:
			return fmt.Errorf("fontWeight must be normal or bold, got %q", o.FontWeight)
		}
	}
	return nil
}

// Duration returns the length of the overlay's visibility window in seconds.
func (o *Overlay) Duration() float64 {
	return o.EndTime - o.StartTime
}

// Metadata is the full overlay payload attached to an upload.
type Metadata struct {
	Overlays []Overlay `json:"overlays"`
}

// Validate validates every overlay and reports the first failure with its index.
func (m *Metadata) Validate() error {
	for i := range m.Overlays {
		if err := m.Overlays[i].Validate(); err != nil {
			return fmt.Errorf("overlay %d: %w", i, err)
		}
	}
	return nil
}

// FileMap resolves an overlay's content token to a local file path for
// image and video overlays. Text overlays never appear in it.
type FileMap map[string]string

// SortByZIndex returns a copy ordered bottom-to-top. The sort is stable, so
// overlays sharing a z-index keep their original relative order.
func SortByZIndex(overlays []Overlay) []Overlay {
	out := make([]Overlay, len(overlays))
	copy(out, overlays)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}
