package ffprobe

import (
	"testing"
)

func TestFrameRatePrefersAverageWithFallback(t *testing.T) {
	cases := []struct {
		name string
		avg  string
		r    string
		want float64
	}{
		{"average wins", "24/1", "30/1", 24},
		{"ntsc rational", "30000/1001", "", 29.97002997002997},
		{"degenerate average falls back", "0/0", "25/1", 25},
		{"empty average falls back", "", "50/2", 25},
		{"zero denominator", "24/0", "", 0},
		{"plain decimal", "23.976", "", 23.976},
		{"garbage", "fast", "also-fast", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stream := Stream{AvgFrameRate: tc.avg, RFrameRate: tc.r}
			if got := stream.FrameRate(); got != tc.want {
				t.Fatalf("FrameRate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFrameCountFallbackChain(t *testing.T) {
	cases := []struct {
		name   string
		stream Stream
		want   int
	}{
		{"counted frames win", Stream{NBReadFrames: "240", NBFrames: "100", Duration: "10", AvgFrameRate: "24/1"}, 240},
		{"container count next", Stream{NBFrames: "100", Duration: "10", AvgFrameRate: "24/1"}, 100},
		{"estimated from duration", Stream{Duration: "10", AvgFrameRate: "24/1"}, 240},
		{"estimated from container duration", Stream{AvgFrameRate: "24/1"}, 120},
		{"nothing usable", Stream{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stream.FrameCount(5); got != tc.want {
				t.Fatalf("FrameCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
		},
		Format: Format{Duration: "123.45", Size: "1000"},
	}

	video, ok := result.FirstVideoStream()
	if !ok || video.CodecName != "h264" {
		t.Fatalf("FirstVideoStream = %+v ok=%v", video, ok)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestParseFrameTimestampsFallbackChain(t *testing.T) {
	payload := []byte(`{"frames": [
		{"best_effort_timestamp_time": "0.000000"},
		{"best_effort_timestamp_time": "N/A", "pkt_pts_time": "0.041708"},
		{"pkt_dts_time": "0.083417"}
	]}`)

	got, err := ParseFrameTimestamps(payload)
	if err != nil {
		t.Fatalf("ParseFrameTimestamps: %v", err)
	}
	want := []float64{0, 0.041708, 0.083417}
	if len(got) != len(want) {
		t.Fatalf("timestamps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("timestamps = %v, want %v", got, want)
		}
	}
}

func TestParseFrameTimestampsRejectsUnusableFrame(t *testing.T) {
	payload := []byte(`{"frames": [{"best_effort_timestamp_time": "N/A"}]}`)
	if _, err := ParseFrameTimestamps(payload); err == nil {
		t.Fatal("expected error for frame with no usable timestamp")
	}
}

func TestNormalizeTimestamps(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, nil},
		{"already monotonic", []float64{0, 1, 2}, []float64{0, 1, 2}},
		{"negative start clamped", []float64{-0.5, 0.1, 0.2}, []float64{0, 0.1, 0.2}},
		{"regression clamped", []float64{0, 2, 1, 3}, []float64{0, 2, 2, 3}},
		{"rebased to first", []float64{10, 11, 12}, []float64{0, 1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeTimestamps(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("NormalizeTimestamps = %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if diff := got[i] - tc.want[i]; diff > 1e-9 || diff < -1e-9 {
					t.Fatalf("NormalizeTimestamps = %v, want %v", got, tc.want)
				}
			}
		})
	}
}
