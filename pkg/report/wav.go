package report

import (
	"encoding/binary"
	"os"
)

// The agent streams raw PCM16LE mono with no container. A minimal RIFF
// header in front makes the saved files playable directly.

const wavHeaderSize = 44

// wavHeader builds the 44-byte RIFF/WAVE header for PCM16LE mono data.
func wavHeader(dataSize, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8

	h := make([]byte, wavHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(wavHeaderSize-8+dataSize))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], channels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataSize))
	return h
}

// writeWAVFile writes pcm as a WAV file at path.
func writeWAVFile(path string, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(wavHeader(len(pcm), sampleRate)); err != nil {
		return err
	}
	if _, err := f.Write(pcm); err != nil {
		return err
	}
	return nil
}
