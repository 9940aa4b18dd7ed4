package protocol

import "github.com/sigurn/crc16"

// The console uses CRC-16/XMODEM: polynomial 0x1021, zero initial value,
// no reflection, no final XOR. A frame that includes its own trailing CRC
// therefore checks out iff the CRC over the whole frame is zero.
var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Checksum computes the console CRC over data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// Verify reports whether data is a well-formed frame ending in its own CRC.
// An empty input is never valid.
func Verify(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return Checksum(data) == 0
}
