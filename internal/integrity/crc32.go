// Package integrity provides the CRC-32 helper used to checksum export
// blobs. It is a thin, documented wrapper over the standard library's
// hash/crc32, which already implements CRC-32/ISO-HDLC (polynomial
// 0xEDB88320, reflected input/output, initial and final XOR 0xFFFFFFFF)
// exactly as specified - no third-party dependency improves on the
// standard library's own textbook implementation of this checksum.
package integrity

import "hash/crc32"

// CRC32 computes the CRC-32/ISO-HDLC checksum of data.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
