package volume

import (
	"math"

	"VoxelTerrain/internal/indexing"

	"github.com/go-gl/mathgl/mgl32"
)

// VoxelDataVolume holds per-voxel values in [0, 1], such as material
// weights or occupancy, with the same layout as DensityVolume.
type VoxelDataVolume struct {
	grid
}

// NewVoxelDataVolume allocates a volume whose values all read 0.
func NewVoxelDataVolume(width, height, depth int, allocator Allocator) (*VoxelDataVolume, error) {
	g, err := newGrid(width, height, depth, allocator)
	if err != nil {
		return nil, err
	}
	return &VoxelDataVolume{grid: g}, nil
}

// NewCubicVoxelDataVolume allocates a size*size*size volume.
func NewCubicVoxelDataVolume(size int, allocator Allocator) (*VoxelDataVolume, error) {
	return NewVoxelDataVolume(size, size, size, allocator)
}

// NewVoxelDataVolumeSize allocates a volume of the given 3D size.
func NewVoxelDataVolumeSize(size indexing.Int3, allocator Allocator) (*VoxelDataVolume, error) {
	return NewVoxelDataVolume(size.X, size.Y, size.Z, allocator)
}

// SetVoxelData stores value at a linear index, saturated to [0, 1].
func (v *VoxelDataVolume) SetVoxelData(value float32, index int) {
	v.data[index] = EncodeVoxelData(value)
}

// SetVoxelDataAt stores value at (x, y, z).
func (v *VoxelDataVolume) SetVoxelDataAt(value float32, x, y, z int) {
	v.SetVoxelData(value, v.index(x, y, z))
}

// SetVoxelDataInt3 stores value at a local position.
func (v *VoxelDataVolume) SetVoxelDataInt3(value float32, localPosition indexing.Int3) {
	v.SetVoxelDataAt(value, localPosition.X, localPosition.Y, localPosition.Z)
}

// TryGetVoxelData reads the value at a linear index. It returns false and 0
// when the index is outside the volume.
func (v *VoxelDataVolume) TryGetVoxelData(index int) (float32, bool) {
	if index < 0 || index >= len(v.data) {
		return 0, false
	}
	return DecodeVoxelData(v.data[index]), true
}

// TryGetVoxelDataAt reads the value at (x, y, z). Coordinates outside the
// volume return false even when their linear index would alias a sample.
func (v *VoxelDataVolume) TryGetVoxelDataAt(x, y, z int) (float32, bool) {
	if !v.Contains(x, y, z) {
		return 0, false
	}
	return v.TryGetVoxelData(v.index(x, y, z))
}

// TryGetVoxelDataInt3 reads the value at a local position.
func (v *VoxelDataVolume) TryGetVoxelDataInt3(localPosition indexing.Int3) (float32, bool) {
	return v.TryGetVoxelDataAt(localPosition.X, localPosition.Y, localPosition.Z)
}

// CopyFrom copies every value from source. The volumes must have the same
// dimensions; on mismatch v is left untouched.
func (v *VoxelDataVolume) CopyFrom(source *VoxelDataVolume) error {
	return v.copyFrom(&source.grid)
}

// EncodeVoxelData quantizes a value to a byte. NaN is treated as 0.
func EncodeVoxelData(value float32) byte {
	if value != value {
		return 0
	}
	return byte(math.Round(255 * float64(mgl32.Clamp(value, 0, 1))))
}

// DecodeVoxelData maps a stored byte back to [0, 1].
func DecodeVoxelData(b byte) float32 {
	return float32(b) / 255
}
