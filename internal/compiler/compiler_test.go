package compiler

import (
	"reflect"
	"strings"
	"testing"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/overlay"
)

func textOverlay(content string, x, y, start, end float64) overlay.Overlay {
	return overlay.Overlay{
		Kind:       overlay.KindText,
		Content:    content,
		X:          x,
		Y:          y,
		Width:      200,
		Height:     100,
		StartTime:  start,
		EndTime:    end,
		Opacity:    1,
		Scale:      1,
		FontSize:   24,
		FontColor:  "white",
		FontFamily: "sans-serif",
		Visible:    true,
	}
}

func mediaOverlay(kind overlay.Kind, content string) overlay.Overlay {
	return overlay.Overlay{
		Kind:      kind,
		Content:   content,
		X:         30,
		Y:         40,
		Width:     200,
		Height:    100,
		StartTime: 1,
		EndTime:   3,
		Opacity:   1,
		Scale:     1,
		Visible:   true,
	}
}

func TestCompileSingleText(t *testing.T) {
	res := Compile([]overlay.Overlay{textOverlay("Hi", 10, 20, 0, 2)}, 1280, 720, nil)

	want := "[0:v]drawtext=text='Hi':x=10:y=20:fontsize=24:fontcolor=white@1:" +
		"font=sans-serif:box=1:boxcolor=black@0.7:boxborderw=5:" +
		"enable='between(t,0,2)'[v0]"
	if res.Graph != want {
		t.Errorf("graph mismatch:\n got  %s\n want %s", res.Graph, want)
	}
	if res.Output != "[v0]" {
		t.Errorf("expected output [v0], got %s", res.Output)
	}
	if len(res.Inputs) != 0 {
		t.Errorf("text overlay must not declare auxiliary inputs, got %v", res.Inputs)
	}
	if strings.Count(res.Graph, "drawtext") != 1 {
		t.Error("expected exactly one drawtext stage")
	}
}

func TestCompileEmpty(t *testing.T) {
	res := Compile(nil, 1280, 720, nil)
	if res.HasGraph() {
		t.Errorf("expected no graph, got %q", res.Graph)
	}
	if res.Output != "" {
		t.Errorf("expected no output stream, got %q", res.Output)
	}
}

func TestCompileInvisibleExcluded(t *testing.T) {
	ov := textOverlay("hidden", 0, 0, 0, 1)
	ov.Visible = false
	res := Compile([]overlay.Overlay{ov}, 1280, 720, nil)
	if res.HasGraph() {
		t.Errorf("invisible overlay must not compile, got %q", res.Graph)
	}
}

func TestCompileImage(t *testing.T) {
	files := overlay.FileMap{"logo.png": "/tmp/up/logo.png"}
	res := Compile([]overlay.Overlay{mediaOverlay(overlay.KindImage, "logo.png")}, 1280, 720, files)

	want := "[1:v]scale=200:100[s0];" +
		"[0:v][s0]overlay=30:40:enable='between(t,1,3)'[v0]"
	if res.Graph != want {
		t.Errorf("graph mismatch:\n got  %s\n want %s", res.Graph, want)
	}
	if !reflect.DeepEqual(res.Inputs, []string{"/tmp/up/logo.png"}) {
		t.Errorf("expected resolved input path, got %v", res.Inputs)
	}
}

func TestCompileImageOpacityAndRotation(t *testing.T) {
	ov := mediaOverlay(overlay.KindImage, "logo.png")
	ov.Opacity = 0.5
	ov.Rotation = 90
	files := overlay.FileMap{"logo.png": "/tmp/up/logo.png"}

	res := Compile([]overlay.Overlay{ov}, 1280, 720, files)

	for _, frag := range []string{
		"format=rgba",
		"colorchannelmixer=aa=0.5",
		"rotate=1.5707963267948966:c=none",
	} {
		if !strings.Contains(res.Graph, frag) {
			t.Errorf("expected graph to contain %q, got %s", frag, res.Graph)
		}
	}
}

func TestCompileVideoTrimBoundsWindow(t *testing.T) {
	// A clip longer than the overlay window must be trimmed to the window,
	// never bounded by the composite's shortest-input behavior.
	ov := mediaOverlay(overlay.KindVideo, "clip.mp4")
	ov.StartTime = 2
	ov.EndTime = 5
	files := overlay.FileMap{"clip.mp4": "/tmp/up/clip.mp4"}

	res := Compile([]overlay.Overlay{ov}, 1280, 720, files)

	if !strings.Contains(res.Graph, "trim=duration=3") {
		t.Errorf("expected trim=duration=3 in graph, got %s", res.Graph)
	}
	if !strings.Contains(res.Graph, "setpts=PTS-STARTPTS") {
		t.Errorf("expected timestamp reset after trim, got %s", res.Graph)
	}
	if strings.Contains(res.Graph, "shortest") {
		t.Errorf("graph must not rely on shortest-input truncation: %s", res.Graph)
	}
	if !strings.Contains(res.Graph, "enable='between(t,2,5)'") {
		t.Errorf("expected gated composite, got %s", res.Graph)
	}
}

func TestCompileScaleAffectsDimensionsAndFont(t *testing.T) {
	img := mediaOverlay(overlay.KindImage, "logo.png")
	img.Scale = 0.5
	txt := textOverlay("Hi", 0, 0, 0, 1)
	txt.Scale = 2
	files := overlay.FileMap{"logo.png": "/tmp/up/logo.png"}

	res := Compile([]overlay.Overlay{img, txt}, 1280, 720, files)

	if !strings.Contains(res.Graph, "scale=100:50") {
		t.Errorf("expected scaled dimensions 100x50, got %s", res.Graph)
	}
	if !strings.Contains(res.Graph, "fontsize=48") {
		t.Errorf("expected fontsize 48 (24*2), got %s", res.Graph)
	}
}

func TestCompileZIndexOrder(t *testing.T) {
	top := mediaOverlay(overlay.KindImage, "logo.png")
	top.ZIndex = 5
	top.X = 100
	bottom := mediaOverlay(overlay.KindImage, "logo.png")
	bottom.ZIndex = 1
	bottom.X = 0
	files := overlay.FileMap{"logo.png": "/tmp/up/logo.png"}

	res := Compile([]overlay.Overlay{top, bottom}, 1280, 720, files)

	lowPos := strings.Index(res.Graph, "overlay=0:40")
	highPos := strings.Index(res.Graph, "overlay=100:40")
	if lowPos < 0 || highPos < 0 {
		t.Fatalf("expected both composites in graph, got %s", res.Graph)
	}
	if lowPos > highPos {
		t.Errorf("z_index=1 stage must precede z_index=5 stage: %s", res.Graph)
	}
}

func TestCompileTieBreakIsStable(t *testing.T) {
	first := textOverlay("first", 1, 0, 0, 1)
	second := textOverlay("second", 2, 0, 0, 1)

	res := Compile([]overlay.Overlay{first, second}, 1280, 720, nil)

	if strings.Index(res.Graph, "text='first'") > strings.Index(res.Graph, "text='second'") {
		t.Errorf("equal z_index overlays must keep input order: %s", res.Graph)
	}
}

func TestCompileUnresolvedMediaSkipped(t *testing.T) {
	missing := mediaOverlay(overlay.KindImage, "nowhere.png")
	txt := textOverlay("still here", 0, 0, 0, 1)

	res := Compile([]overlay.Overlay{missing, txt}, 1280, 720, nil)

	if len(res.Skipped) != 1 {
		t.Fatalf("expected one skip, got %v", res.Skipped)
	}
	if res.Skipped[0].Content != "nowhere.png" {
		t.Errorf("unexpected skip record: %+v", res.Skipped[0])
	}
	if len(res.Inputs) != 0 {
		t.Errorf("skipped overlay must not declare an input, got %v", res.Inputs)
	}
	if !strings.Contains(res.Graph, "drawtext") {
		t.Error("remaining overlays must still compile")
	}
}

func TestCompileInputOrderMatchesIndexAssignment(t *testing.T) {
	a := mediaOverlay(overlay.KindImage, "a.png")
	b := mediaOverlay(overlay.KindVideo, "b.mp4")
	files := overlay.FileMap{"a.png": "/tmp/a.png", "b.mp4": "/tmp/b.mp4"}

	res := Compile([]overlay.Overlay{a, b}, 1280, 720, files)

	if !reflect.DeepEqual(res.Inputs, []string{"/tmp/a.png", "/tmp/b.mp4"}) {
		t.Errorf("input order must match processing order, got %v", res.Inputs)
	}
	if !strings.Contains(res.Graph, "[1:v]") || !strings.Contains(res.Graph, "[2:v]") {
		t.Errorf("expected input indices 1 and 2, got %s", res.Graph)
	}
	if res.Output != "[v1]" {
		t.Errorf("expected final stream [v1], got %s", res.Output)
	}
}
