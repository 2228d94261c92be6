package overlay

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalDefaults(t *testing.T) {
	raw := `{"type":"text","content":"Hi","x":10,"y":20,"start_time":0,"end_time":2}`

	var o Overlay
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if o.Width != 200 || o.Height != 100 {
		t.Errorf("expected default dimensions 200x100, got %gx%g", o.Width, o.Height)
	}
	if o.Opacity != 1.0 {
		t.Errorf("expected default opacity 1, got %g", o.Opacity)
	}
	if o.Scale != 1.0 {
		t.Errorf("expected default scale 1, got %g", o.Scale)
	}
	if o.FontSize != 24 {
		t.Errorf("expected default fontSize 24, got %d", o.FontSize)
	}
	if o.FontColor != "white" {
		t.Errorf("expected default fontColor white, got %q", o.FontColor)
	}
	if !o.Visible {
		t.Error("expected default visible=true")
	}
}

func TestUnmarshalLegacyColorAlias(t *testing.T) {
	raw := `{"type":"text","content":"Hi","x":0,"y":0,"start_time":0,"end_time":1,"color":"red"}`

	var o Overlay
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if o.FontColor != "red" {
		t.Errorf("expected legacy color alias to set fontColor=red, got %q", o.FontColor)
	}

	raw = `{"type":"text","content":"Hi","x":0,"y":0,"start_time":0,"end_time":1,"color":"red","fontColor":"blue"}`
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if o.FontColor != "blue" {
		t.Errorf("expected explicit fontColor to win over alias, got %q", o.FontColor)
	}
}

func valid(kind Kind) Overlay {
	return Overlay{
		Kind:       kind,
		Content:    "content",
		Width:      200,
		Height:     100,
		StartTime:  0,
		EndTime:    2,
		Opacity:    1,
		Scale:      1,
		FontSize:   24,
		FontColor:  "white",
		TextAlign:  "left",
		FontWeight: "normal",
		Visible:    true,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Overlay)
		wantErr bool
	}{
		{"valid text", func(o *Overlay) {}, false},
		{"unknown kind", func(o *Overlay) { o.Kind = "audio" }, true},
		{"empty content", func(o *Overlay) { o.Content = "" }, true},
		{"negative x", func(o *Overlay) { o.X = -1 }, true},
		{"zero width", func(o *Overlay) { o.Width = 0 }, true},
		{"negative start", func(o *Overlay) { o.StartTime = -0.5 }, true},
		{"end equals start", func(o *Overlay) { o.StartTime, o.EndTime = 2, 2 }, true},
		{"end before start", func(o *Overlay) { o.StartTime, o.EndTime = 3, 1 }, true},
		{"opacity above one", func(o *Overlay) { o.Opacity = 1.2 }, true},
		{"zero scale", func(o *Overlay) { o.Scale = 0 }, true},
		{"font size too small", func(o *Overlay) { o.FontSize = 4 }, true},
		{"bad align", func(o *Overlay) { o.TextAlign = "middle" }, true},
		{"bad weight", func(o *Overlay) { o.FontWeight = "heavy" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid(KindText)
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateImageSkipsTextFields(t *testing.T) {
	o := valid(KindImage)
	o.FontSize = 0
	o.TextAlign = ""
	o.FontWeight = ""
	if err := o.Validate(); err != nil {
		t.Errorf("image overlay should not validate text fields: %v", err)
	}
}

func TestSortByZIndexStable(t *testing.T) {
	overlays := []Overlay{
		{ID: "a", ZIndex: 5},
		{ID: "b", ZIndex: 1},
		{ID: "c", ZIndex: 5},
		{ID: "d", ZIndex: 0},
		{ID: "e", ZIndex: 1},
	}

	sorted := SortByZIndex(overlays)

	var got []string
	for _, o := range sorted {
		got = append(got, o.ID)
	}
	want := []string{"d", "b", "e", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	// Input slice must be left untouched.
	if overlays[0].ID != "a" {
		t.Error("SortByZIndex mutated its input")
	}
}

func TestMetadataValidateReportsIndex(t *testing.T) {
	m := Metadata{Overlays: []Overlay{valid(KindText), {Kind: "bogus"}}}
	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid overlay")
	}
}
