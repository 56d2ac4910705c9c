package client

import (
	"testing"

	"github.com/paulmach/orb"
)

func twoSampleBuffer() *Buffer {
	b := NewBuffer(50)
	b.Append(Sample{Time: 100, Pos: orb.Point{0, 0}, Score: 1})
	b.Append(Sample{Time: 200, Pos: orb.Point{100, 0}, Score: 2})
	return b
}

func TestInterpolateMidpoint(t *testing.T) {
	b := twoSampleBuffer()
	s, ok := b.SampleAt(150)
	if !ok {
		t.Fatalf("expected sample")
	}
	if s.Pos.X() != 50 || s.Pos.Y() != 0 {
		t.Fatalf("pos = %v, want (50,0)", s.Pos)
	}
}

func TestClampBeforeEarliest(t *testing.T) {
	b := twoSampleBuffer()
	s, ok := b.SampleAt(50)
	if !ok || s.Pos.X() != 0 || s.Pos.Y() != 0 {
		t.Fatalf("SampleAt(50) = %v, want clamp to (0,0)", s.Pos)
	}
}

func TestClampAfterLatest(t *testing.T) {
	b := twoSampleBuffer()
	s, ok := b.SampleAt(300)
	if !ok || s.Pos.X() != 100 || s.Pos.Y() != 0 {
		t.Fatalf("SampleAt(300) = %v, want clamp to (100,0)", s.Pos)
	}
}

func TestScoreComesFromLaterSampleNotInterpolated(t *testing.T) {
	b := twoSampleBuffer()
	s, _ := b.SampleAt(150)
	if s.Score != 2 {
		t.Fatalf("score = %d, want 2 (later sample, no fading)", s.Score)
	}
	s, _ = b.SampleAt(101)
	if s.Score != 2 {
		t.Fatalf("score just past a = %d, want 2", s.Score)
	}
}

func TestEmptyBufferNoRender(t *testing.T) {
	b := NewBuffer(50)
	if _, ok := b.SampleAt(100); ok {
		t.Fatalf("empty buffer must not render")
	}
}

func TestInterpolateAcrossManySamples(t *testing.T) {
	b := NewBuffer(50)
	for i := 0; i <= 10; i++ {
		b.Append(Sample{Time: int64(i * 100), Pos: orb.Point{float64(i * 10), float64(i * 20)}})
	}
	s, ok := b.SampleAt(450) // 第 4 与第 5 个样本之间
	if !ok {
		t.Fatalf("expected sample")
	}
	if s.Pos.X() != 45 || s.Pos.Y() != 90 {
		t.Fatalf("pos = %v, want (45,90)", s.Pos)
	}
}

func TestExactSampleTimeReturnsSample(t *testing.T) {
	b := twoSampleBuffer()
	s, ok := b.SampleAt(200)
	if !ok || s.Pos.X() != 100 {
		t.Fatalf("SampleAt(200) = %v, want the sample itself", s.Pos)
	}
}
