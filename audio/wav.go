package audio

import (
	"bytes"
	"encoding/binary"
)

// wavHeaderSize is the size of a canonical RIFF/WAVE header with a single
// PCM data chunk.
const wavHeaderSize = 44

// WAVFromPCM wraps raw little-endian PCM samples in a RIFF/WAVE container
// using the package's capture format. whisper-server only accepts
// container formats, not bare sample streams.
func WAVFromPCM(pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))

	byteRate := SampleRate * Channels * BitsPerSample / 8
	blockAlign := Channels * BitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(wavHeaderSize-8+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM sample format
	binary.Write(&buf, binary.LittleEndian, uint16(Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
