// Package codec encodes and decodes the FMC controller state payload.
//
// The wire format is a fixed 64-byte blob, base64-encoded for transport:
// six little-endian IEEE-754 doubles, each prefixed by a single tag byte
// (V, I, M, E, W, F), followed by tag S plus one status byte, followed by
// eight 0xFF padding bytes. Decoding is positional; the tag bytes are not
// consulted.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
)

// ErrMalformedPayload reports an undecodable payload (bad base64 or a
// blob of the wrong length).
var ErrMalformedPayload = errors.New("codec: malformed payload")

const (
	fieldSize   = 9 // tag byte + 8-byte double
	numDoubles  = 6
	paddingSize = 8
	blobSize    = numDoubles*fieldSize + 2 + paddingSize
)

var fieldTags = [numDoubles]byte{'V', 'I', 'M', 'E', 'W', 'F'}

// State is the decoded electrical state of one controller.
type State struct {
	Voltage   float64
	Current   float64
	EnergyOut float64
	EnergyIn  float64
	Power     float64
	Frequency float64
	StatusOn  bool
}

// Encode renders a state as a base64 payload.
func Encode(s State) string {
	buf := make([]byte, 0, blobSize)
	for i, v := range [numDoubles]float64{
		s.Voltage, s.Current, s.EnergyOut, s.EnergyIn, s.Power, s.Frequency,
	} {
		buf = append(buf, fieldTags[i])
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	buf = append(buf, 'S')
	if s.StatusOn {
		buf = append(buf, 0x01)
	} else {
		buf = append(buf, 0x00)
	}
	for i := 0; i < paddingSize; i++ {
		buf = append(buf, 0xFF)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// Decode parses a base64 payload back into a state. The round trip
// through Encode is exact, bit for bit.
func Decode(payload string) (State, error) {
	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return State{}, ErrMalformedPayload
	}
	if len(blob) != blobSize {
		return State{}, ErrMalformedPayload
	}

	var vals [numDoubles]float64
	for i := 0; i < numDoubles; i++ {
		off := i*fieldSize + 1
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[off : off+8]))
	}

	return State{
		Voltage:   vals[0],
		Current:   vals[1],
		EnergyOut: vals[2],
		EnergyIn:  vals[3],
		Power:     vals[4],
		Frequency: vals[5],
		StatusOn:  blob[numDoubles*fieldSize+1] != 0x00,
	}, nil
}
