// internal/utils/binary/binary.go
package binary

import (
	"encoding/binary"
	"fmt"
)

// ReadUint32LittleEndian reads a uint32 from a byte slice in little-endian format
func ReadUint32LittleEndian(data []byte, offset int) (uint32, error) {
	if offset < 0 || len(data) < offset+4 {
		return 0, fmt.Errorf("read uint32 at offset %d: data length %d", offset, len(data))
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}

// ReadUint8 reads a uint8 (byte) from a byte slice
func ReadUint8(data []byte, offset int) (uint8, error) {
	if offset < 0 || len(data) <= offset {
		return 0, fmt.Errorf("read uint8 at offset %d: data length %d", offset, len(data))
	}
	return data[offset], nil
}

// ReadCOptionTag reads a 4-byte COption tag; only 0 (None) and 1 (Some) are valid
func ReadCOptionTag(data []byte, offset int) (bool, error) {
	tag, err := ReadUint32LittleEndian(data, offset)
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid option tag %d at offset %d", tag, offset)
	}
}
