package inference

import (
	"encoding/binary"
	"testing"
)

// makeWAV returns a mono 16 kHz PCM16 WAV with the given number of samples.
func makeWAV(t *testing.T, samples int) []byte {
	t.Helper()

	dataSize := samples * 2
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], 1)
	binary.LittleEndian.PutUint32(out[24:], 16000)
	binary.LittleEndian.PutUint32(out[28:], 32000)
	binary.LittleEndian.PutUint16(out[32:], 2)
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(int16((i%64)*200)))
	}
	return out
}

func fakeMP3() []byte {
	return append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 128)...)
}
