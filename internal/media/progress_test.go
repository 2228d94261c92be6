package media

import "testing"

func TestProgressFromLine(t *testing.T) {
	const line = "frame= 120 fps= 30 q=28.0 size=     512kB time=00:00:05.00 bitrate= 838.9kbits/s speed=1.01x"

	tests := []struct {
		name     string
		line     string
		duration float64
		want     int
		wantOK   bool
	}{
		{"halfway", line, 10, 50, true},
		{"quarter", line, 20, 25, true},
		{"capped at 99", line, 5, 99, true},
		{"beyond duration capped", line, 4, 99, true},
		{"unknown duration", line, 0, 0, false},
		{"negative duration", line, -1, 0, false},
		{"no time token", "frame= 120 fps=30 speed=1.01x", 10, 0, false},
		{"malformed clock", "time=garbage", 10, 0, false},
		{"two-part clock rejected", "time=05:00 bitrate=1k", 10, 0, false},
		{"start of stream", "time=00:00:00.00 bitrate=N/A", 10, 0, true},
		{"fractional floor", "time=00:00:01.00 x", 3, 33, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProgressFromLine(tt.line, tt.duration)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("percent = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"00:00:05.00", 5, true},
		{"00:01:30.50", 90.5, true},
		{"01:00:00.00", 3600, true},
		{"02:10:03.25", 7803.25, true},
		{"5.0", 0, false},
		{"aa:bb:cc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseClock(tt.in)
		if ok != tt.wantOK {
			t.Errorf("parseClock(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseClock(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{
		"streams": [{"width": 1280, "height": 720}],
		"format": {"duration": "5.000000"}
	}`)

	res, err := parseProbeOutput(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Duration != 5 || res.Width != 1280 || res.Height != 720 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestParseProbeOutputErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"not json", "garbage"},
		{"missing duration", `{"streams":[{"width":1,"height":1}],"format":{}}`},
		{"zero duration", `{"streams":[{"width":1,"height":1}],"format":{"duration":"0"}}`},
		{"no video stream", `{"streams":[],"format":{"duration":"5"}}`},
		{"audio only", `{"streams":[{"width":0,"height":0}],"format":{"duration":"5"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProbeOutput([]byte(tt.out)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
