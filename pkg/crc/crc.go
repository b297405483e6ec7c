// Package crc computes the payload checksum carried in the final data object
// of an EMV merchant-presented QR payload.
package crc

import (
	"fmt"

	"github.com/sigurn/crc16"
)

// CHECKSUM ALGORITHM (ISO/IEC 13239):
// CRC-16/CCITT-FALSE over the ASCII bytes of the payload.
//   - Polynomial: 0x1021
//   - Initial register: 0xFFFF
//   - No input/output reflection, no final XOR.
//
// The checksummed bytes always end with the checksum object's own tag and
// length ("6304"), never with its value.

// Placeholder is the tag and length prefix of the checksum data object.
const Placeholder = "6304"

var table = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Sum returns the raw 16-bit checksum of data.
func Sum(data []byte) uint16 {
	return crc16.Checksum(data, table)
}

// Checksum returns the checksum of data as 4 uppercase hexadecimal characters.
func Checksum(data []byte) string {
	return fmt.Sprintf("%04X", Sum(data))
}

// PayloadChecksum computes the value of the checksum data object for a payload
// that does not yet contain it.
func PayloadChecksum(payload string) string {
	return Checksum([]byte(payload + Placeholder))
}
