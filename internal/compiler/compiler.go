// Package compiler translates an overlay list into an ffmpeg filter graph and
// a complete argument vector. It performs no I/O: file existence is decided by
// the resolver map handed in by the upload layer.
package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/overlay"
)

// Skip records an overlay dropped from compilation because its media content
// could not be resolved to a file. Dropping is deliberate leniency: the job
// continues without the overlay, and callers are expected to log each skip.
type Skip struct {
	Index   int
	Kind    overlay.Kind
	Content string
}

func (s Skip) String() string {
	return fmt.Sprintf("overlay %d (%s %q): no resolved file", s.Index, s.Kind, s.Content)
}

// Result is a compiled filter graph. Graph is empty when no overlay produced
// a stage, in which case the command builder falls back to a stream copy.
type Result struct {
	// Graph is the filter_complex text, stages joined by semicolons.
	Graph string
	// Inputs lists auxiliary media files in declaration order. Input index
	// i+1 in the graph refers to Inputs[i]; input 0 is the main video.
	Inputs []string
	// Output is the label of the final video stream, e.g. "[v2]".
	Output string
	// Skipped lists overlays dropped for unresolved media.
	Skipped []Skip
}

// HasGraph reports whether any filter stage was produced.
func (r Result) HasGraph() bool { return r.Graph != "" }

// Compile builds the filter graph for the given overlays over a main video of
// the given pixel dimensions. Overlays are composited bottom-to-top by
// z-index, ties broken by list order. Invisible overlays are excluded.
// Non-text overlays without an entry in files are dropped, not failed.
func Compile(overlays []overlay.Overlay, videoWidth, videoHeight int, files overlay.FileMap) Result {
	var (
		res     Result
		stages  []string
		current = "[0:v]"
		next    = 0 // filter-output counter, names intermediate streams
		input   = 1 // external-input counter; input 0 is the main video
	)

	for idx, ov := range overlay.SortByZIndex(overlays) {
		if !ov.Visible {
			continue
		}

		switch ov.Kind {
		case overlay.KindText:
			out := fmt.Sprintf("[v%d]", next)
			stages = append(stages, current+drawtextStage(ov)+out)
			current = out
			next++

		case overlay.KindImage, overlay.KindVideo:
			path, ok := files[ov.Content]
			if !ok {
				res.Skipped = append(res.Skipped, Skip{Index: idx, Kind: ov.Kind, Content: ov.Content})
				continue
			}

			prep := fmt.Sprintf("[s%d]", next)
			out := fmt.Sprintf("[v%d]", next)
			stages = append(stages,
				fmt.Sprintf("[%d:v]%s%s", input, prepChain(ov), prep),
				fmt.Sprintf("%s%soverlay=%d:%d:enable='%s'%s",
					current, prep, roundInt(ov.X), roundInt(ov.Y), enableExpr(ov), out),
			)
			current = out
			next++
			input++
			res.Inputs = append(res.Inputs, path)
		}
	}

	if len(stages) == 0 {
		return res
	}

	res.Graph = strings.Join(stages, ";")
	res.Output = current
	return res
}

// drawtextStage builds the drawtext filter for a text overlay. The background
// box alpha tracks the overlay opacity at a fixed 0.7 ratio.
func drawtextStage(ov overlay.Overlay) string {
	parts := []string{
		"text='" + EscapeText(ov.Content) + "'",
		fmt.Sprintf("x=%d", roundInt(ov.X)),
		fmt.Sprintf("y=%d", roundInt(ov.Y)),
		"fontsize=" + formatFloat(float64(ov.FontSize)*ov.Scale),
		"fontcolor=" + ov.FontColor + "@" + formatFloat(ov.Opacity),
	}
	if ov.FontFamily != "" {
		parts = append(parts, "font="+ov.FontFamily)
	}
	parts = append(parts,
		"box=1",
		"boxcolor=black@"+formatFloat(ov.Opacity*0.7),
		"boxborderw=5",
		"enable='"+enableExpr(ov)+"'",
	)
	return "drawtext=" + strings.Join(parts, ":")
}

// prepChain builds the per-input filter chain applied to an image or clip
// before compositing: trim (clips only), scale, opacity, rotation.
//
// The trim bounds the clip to the overlay window. Relying on the composite's
// shortest-input semantics instead would show the clip past end_time whenever
// the source is longer than the window.
func prepChain(ov overlay.Overlay) string {
	var chain []string

	if ov.Kind == overlay.KindVideo {
		chain = append(chain,
			"trim=duration="+formatFloat(ov.Duration()),
			"setpts=PTS-STARTPTS",
		)
	}

	chain = append(chain, fmt.Sprintf("scale=%s:%s",
		formatFloat(ov.Width*ov.Scale), formatFloat(ov.Height*ov.Scale)))

	if ov.Opacity < 1 {
		chain = append(chain, "format=rgba", "colorchannelmixer=aa="+formatFloat(ov.Opacity))
	}
	if ov.Rotation != 0 {
		chain = append(chain, "rotate="+formatFloat(ov.Rotation*math.Pi/180)+":c=none")
	}

	return strings.Join(chain, ",")
}

// enableExpr gates a stage to the overlay's time window: start <= t < end.
func enableExpr(ov overlay.Overlay) string {
	return fmt.Sprintf("between(t,%s,%s)", formatFloat(ov.StartTime), formatFloat(ov.EndTime))
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// formatFloat renders floats with the shortest exact representation so the
// compiled graph is byte-stable for identical inputs.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
