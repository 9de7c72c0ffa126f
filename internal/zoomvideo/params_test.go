package zoomvideo

import (
	"math"
	"testing"
)

func TestDeriveParams(t *testing.T) {
	tests := []struct {
		name       string
		duration   float64
		fps        float64
		zoomSpeed  float64
		wantFrames int
		wantZoom   float64
	}{
		{"five seconds square scenario", 5, 30, 0.1, 150, 1.5},
		{"no zoom", 4, 25, 0, 100, 1},
		{"fractional frames truncate", 1.5, 29.97, 0.2, 44, 1.3},
		{"float error truncates down", 0.29, 100, 0, 28, 1},
		{"single frame", 1, 1, 1, 1, 2},
		{"below one frame", 0.5, 1, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DeriveParams(tt.duration, tt.fps, tt.zoomSpeed)
			if p.TotalFrames != tt.wantFrames {
				t.Errorf("TotalFrames = %d, want %d", p.TotalFrames, tt.wantFrames)
			}
			if math.Abs(p.ZoomFactor-tt.wantZoom) > 1e-9 {
				t.Errorf("ZoomFactor = %v, want %v", p.ZoomFactor, tt.wantZoom)
			}
		})
	}
}

func TestDeriveParamsProperties(t *testing.T) {
	durations := []float64{0.04, 0.5, 1, 2.5, 3, 7.25, 10, 60}
	rates := []float64{1, 12, 23.976, 24, 25, 29.97, 30, 60}
	speeds := []float64{0, 0.01, 0.1, 0.5, 2}

	for _, d := range durations {
		for _, r := range rates {
			for _, s := range speeds {
				p := DeriveParams(d, r, s)

				if p.TotalFrames != int(math.Floor(d*r)) {
					t.Fatalf("d=%v r=%v: TotalFrames=%d, want floor=%v", d, r, p.TotalFrames, math.Floor(d*r))
				}
				if d*r >= 1 && p.TotalFrames < 1 {
					t.Fatalf("d=%v r=%v: expected at least one frame", d, r)
				}
				if math.Abs(p.ZoomFactor-(1+s*d)) > 1e-12 {
					t.Fatalf("d=%v s=%v: ZoomFactor=%v", d, s, p.ZoomFactor)
				}
				if p.ZoomFactor < 1 {
					t.Fatalf("d=%v s=%v: ZoomFactor below 1", d, s)
				}
			}
		}
	}
}
