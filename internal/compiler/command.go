package compiler

// BuildCommand assembles the full ffmpeg argument vector for a compiled
// graph. The vector is deterministic: identical overlays and resolved files
// always produce identical output, which keeps it golden-testable.
//
// With a graph, the final video stream is mapped explicitly and the main
// input's audio is passed through best-effort ("0:a?" tolerates silent
// sources). Without one, the whole file is stream-copied.
func BuildCommand(ffmpegPath, inputPath, outputPath string, g Result) []string {
	args := []string{ffmpegPath, "-y", "-i", inputPath}

	for _, aux := range g.Inputs {
		args = append(args, "-i", aux)
	}

	if g.HasGraph() {
		args = append(args,
			"-filter_complex", g.Graph,
			"-map", g.Output,
			"-map", "0:a?",
			"-c:v", "libx264",
			"-preset", "medium",
			"-crf", "23",
			"-c:a", "copy",
		)
	} else {
		args = append(args, "-c", "copy")
	}

	return append(args, outputPath)
}
