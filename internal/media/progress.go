package media

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var timeTokenRE = regexp.MustCompile(`time=(\S+)`)

// ProgressFromLine extracts a completion estimate from one line of ffmpeg's
// diagnostic stream. It returns ok=false when the line carries no time token
// or the total duration is unknown.
//
// The estimate is capped at 99: only the engine reports 100, after the
// process has exited cleanly and the output file is confirmed to exist. The
// last log line can otherwise imply completion before either is true.
func ProgressFromLine(line string, duration float64) (percent int, ok bool) {
	if duration <= 0 || !strings.Contains(line, "time=") {
		return 0, false
	}

	m := timeTokenRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	elapsed, ok := parseClock(m[1])
	if !ok {
		return 0, false
	}

	percent = int(math.Floor(elapsed / duration * 100))
	if percent > 99 {
		percent = 99
	}
	if percent < 0 {
		percent = 0
	}
	return percent, true
}

// parseClock converts an HH:MM:SS.ms token to seconds.
func parseClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}
