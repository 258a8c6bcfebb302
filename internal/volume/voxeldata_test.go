package volume

import (
	"math"
	"testing"

	"VoxelTerrain/internal/indexing"

	"github.com/pkg/errors"
)

func TestVoxelDataInitializedToZero(t *testing.T) {
	v, err := NewCubicVoxelDataVolume(4, Scratch)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Dispose()

	for i := 0; i < v.Length(); i++ {
		value, ok := v.TryGetVoxelData(i)
		if !ok || value != 0 {
			t.Fatalf("Expected (0, true) at %d, got (%f, %v)", i, value, ok)
		}
	}
}

func TestVoxelDataRoundTrip(t *testing.T) {
	for i := 0; i <= 10000; i++ {
		value := float32(i) / 10000
		got := DecodeVoxelData(EncodeVoxelData(value))
		if math.Abs(float64(got-value)) > 1.0/255.0 {
			t.Fatalf("Round trip of %f gave %f", value, got)
		}
	}
}

func TestVoxelDataIsSaturated(t *testing.T) {
	v, _ := NewVoxelDataVolume(2, 2, 2, Persistent)

	v.SetVoxelDataAt(3, 1, 1, 1)
	v.SetVoxelDataInt3(-2, indexing.Int3{X: 0, Y: 1, Z: 0})

	if got, _ := v.TryGetVoxelDataAt(1, 1, 1); got != 1 {
		t.Errorf("Expected 1, got %f", got)
	}
	if got, _ := v.TryGetVoxelDataInt3(indexing.Int3{X: 0, Y: 1, Z: 0}); got != 0 {
		t.Errorf("Expected 0, got %f", got)
	}
}

func TestTryGetVoxelDataOutOfRange(t *testing.T) {
	v, _ := NewVoxelDataVolume(3, 3, 3, Persistent)
	v.SetVoxelData(0.5, 0)

	for _, index := range []int{-1, 27, 100} {
		if value, ok := v.TryGetVoxelData(index); ok || value != 0 {
			t.Errorf("Index %d: expected (0, false), got (%f, %v)", index, value, ok)
		}
	}

	// (3, 0, 0) would alias index 3 if only the linear index were checked.
	coords := []indexing.Int3{{X: 3}, {X: -1}, {Y: 3}, {Z: -1}, {X: 1, Y: 1, Z: 3}}
	for _, c := range coords {
		if _, ok := v.TryGetVoxelDataInt3(c); ok {
			t.Errorf("Coordinate %v should be out of range", c)
		}
	}

	if value, ok := v.TryGetVoxelDataAt(0, 0, 0); !ok || math.Abs(float64(value-0.5)) > 1.0/255.0 {
		t.Errorf("Expected (0.5, true), got (%f, %v)", value, ok)
	}
}

func TestTryGetOnUnallocatedVolume(t *testing.T) {
	var v VoxelDataVolume
	if _, ok := v.TryGetVoxelData(0); ok {
		t.Error("Unallocated volume should not return data")
	}
}

func TestVoxelDataCopyFrom(t *testing.T) {
	source, _ := NewVoxelDataVolume(2, 3, 4, Persistent)
	for i := 0; i < source.Length(); i++ {
		source.SetVoxelData(float32(i)/float32(source.Length()), i)
	}

	destination, _ := NewVoxelDataVolume(2, 3, 4, Persistent)
	if err := destination.CopyFrom(source); err != nil {
		t.Fatalf("CopyFrom failed: %v", err)
	}
	for i := 0; i < source.Length(); i++ {
		a, _ := source.TryGetVoxelData(i)
		b, _ := destination.TryGetVoxelData(i)
		if a != b {
			t.Fatalf("Sample %d differs after copy", i)
		}
	}

	other, _ := NewVoxelDataVolume(4, 3, 2, Persistent)
	if err := other.CopyFrom(source); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestNewVoxelDataVolumeNegativeFails(t *testing.T) {
	if _, err := NewVoxelDataVolumeSize(indexing.Int3{X: 1, Y: -1, Z: 1}, Persistent); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
}

func TestAllocatorString(t *testing.T) {
	if Persistent.String() != "persistent" || Scratch.String() != "scratch" {
		t.Errorf("Unexpected allocator names %q %q", Persistent.String(), Scratch.String())
	}
}
