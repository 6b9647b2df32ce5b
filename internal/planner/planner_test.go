package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transferkit/s3copy/copytypes"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name        string
		copySize    int64
		partSize    int64
		startOffset int64
		want        []Part
	}{
		{
			name:        "three parts with short tail",
			copySize:    250000,
			partSize:    100000,
			startOffset: 0,
			want: []Part{
				{Number: 1, Start: 0, End: 100000},
				{Number: 2, Start: 100000, End: 200000},
				{Number: 3, Start: 200000, End: 250000},
			},
		},
		{
			name:        "single part when copy fits in part size",
			copySize:    50000,
			partSize:    100000,
			startOffset: 0,
			want: []Part{
				{Number: 1, Start: 0, End: 50000},
			},
		},
		{
			name:        "exact multiple leaves no tail",
			copySize:    300000,
			partSize:    100000,
			startOffset: 0,
			want: []Part{
				{Number: 1, Start: 0, End: 100000},
				{Number: 2, Start: 100000, End: 200000},
				{Number: 3, Start: 200000, End: 300000},
			},
		},
		{
			name:        "non-zero start offset shifts every part",
			copySize:    250000,
			partSize:    100000,
			startOffset: 500,
			want: []Part{
				{Number: 1, Start: 500, End: 100500},
				{Number: 2, Start: 100500, End: 200500},
				{Number: 3, Start: 200500, End: 250500},
			},
		},
		{
			name:        "one byte copy",
			copySize:    1,
			partSize:    100000,
			startOffset: 0,
			want: []Part{
				{Number: 1, Start: 0, End: 1},
			},
		},
		{
			name:        "zero copy size yields empty plan",
			copySize:    0,
			partSize:    100000,
			startOffset: 0,
			want:        []Part{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.copySize, tt.partSize, tt.startOffset)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPlanTiling verifies the tiling invariant: parts are contiguous,
// non-overlapping, and their union is exactly the requested range.
func TestPlanTiling(t *testing.T) {
	cases := []struct {
		copySize    int64
		partSize    int64
		startOffset int64
	}{
		{copySize: 250000, partSize: 100000, startOffset: 0},
		{copySize: 1, partSize: 1, startOffset: 0},
		{copySize: 10 << 20, partSize: 1 << 20, startOffset: 12345},
		{copySize: (10 << 20) + 1, partSize: 1 << 20, startOffset: 0},
		{copySize: (10 << 20) - 1, partSize: 1 << 20, startOffset: 7},
		{copySize: copytypes.MinPartSize, partSize: copytypes.MinPartSize, startOffset: 0},
		{copySize: 3, partSize: 2, startOffset: 1 << 40},
	}

	for _, c := range cases {
		parts := Plan(c.copySize, c.partSize, c.startOffset)
		require.Len(t, parts, int(NumParts(c.copySize, c.partSize)))
		require.NotEmpty(t, parts)

		assert.Equal(t, c.startOffset, parts[0].Start)
		assert.Equal(t, c.startOffset+c.copySize, parts[len(parts)-1].End)
		for i, p := range parts {
			assert.Equal(t, int32(i+1), p.Number)
			assert.Positive(t, p.Size())
			assert.LessOrEqual(t, p.Size(), c.partSize)
			if i > 0 {
				assert.Equal(t, parts[i-1].End, p.Start, "parts must abut with no gap or overlap")
			}
		}
	}
}

func TestNumParts(t *testing.T) {
	tests := []struct {
		name     string
		copySize int64
		partSize int64
		want     int32
	}{
		{"tail adds a part", 250000, 100000, 3},
		{"exact multiple", 200000, 100000, 2},
		{"smaller than one part", 1, 100000, 1},
		{"zero size", 0, 100000, 0},
		{"zero part size", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NumParts(tt.copySize, tt.partSize))
		})
	}
}

func TestDerivePartSize(t *testing.T) {
	t.Run("small copies use the default", func(t *testing.T) {
		assert.Equal(t, copytypes.DefaultPartSize, DerivePartSize(10<<20))
	})

	t.Run("large copies stay within the part cap", func(t *testing.T) {
		copySize := copytypes.DefaultPartSize*copytypes.MaxPartCount*3 + 17
		size := DerivePartSize(copySize)
		assert.Greater(t, size, copytypes.DefaultPartSize)
		assert.LessOrEqual(t, int64(NumParts(copySize, size)), copytypes.MaxPartCount)
	})

	t.Run("boundary copy keeps the default", func(t *testing.T) {
		copySize := copytypes.DefaultPartSize * copytypes.MaxPartCount
		assert.Equal(t, copytypes.DefaultPartSize, DerivePartSize(copySize))
	})
}
