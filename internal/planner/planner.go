// Package planner computes part plans for multipart copies.
//
// A plan tiles a byte range exactly: parts are contiguous, non-overlapping,
// and their union equals [startOffset, startOffset+copySize). Planning is
// deterministic, so a resumed copy regenerates the identical plan from the
// checkpoint's copySize and partSize and filters out the parts already done.
package planner

import (
	"github.com/transferkit/s3copy/copytypes"
)

// Part is one contiguous byte sub-range of a copy, identified by its
// 1-based part number. End is exclusive.
type Part struct {
	Number int32
	Start  int64
	End    int64
}

// Size returns the number of bytes the part covers.
func (p Part) Size() int64 {
	return p.End - p.Start
}

// NumParts returns ceil(copySize / partSize), or zero when either argument
// is non-positive.
func NumParts(copySize, partSize int64) int32 {
	if copySize <= 0 || partSize <= 0 {
		return 0
	}
	return int32((copySize + partSize - 1) / partSize)
}

// Plan partitions [startOffset, startOffset+copySize) into parts of
// partSize bytes each, the final part absorbing the remainder.
func Plan(copySize, partSize, startOffset int64) []Part {
	numParts := NumParts(copySize, partSize)
	parts := make([]Part, 0, numParts)
	rangeEnd := startOffset + copySize
	for i := int32(0); i < numParts; i++ {
		start := startOffset + int64(i)*partSize
		end := start + partSize
		if end > rangeEnd {
			end = rangeEnd
		}
		parts = append(parts, Part{Number: i + 1, Start: start, End: end})
	}
	return parts
}

// DerivePartSize returns the part size used when the caller does not
// specify one: the default part size, raised just enough to keep the plan
// within MaxPartCount parts.
func DerivePartSize(copySize int64) int64 {
	size := copytypes.DefaultPartSize
	if safe := (copySize + copytypes.MaxPartCount - 1) / copytypes.MaxPartCount; size < safe {
		size = safe
	}
	return size
}
