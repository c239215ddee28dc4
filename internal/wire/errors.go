package wire

import "errors"

// ErrInvalidPacket is returned when a frame fails its length or checksum
// check during unpacking.
var ErrInvalidPacket = errors.New("invalid packet format")
