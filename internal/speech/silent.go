package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

const (
	DefaultWordsPerMinute = 150.0

	wavSampleRate      = 24000
	wavNumChannels     = 1
	wavBitsPerSample   = 16
	wavHeaderSize      = 44
	wavSubchunkSize    = 16
	wavAudioFormat     = 1
	wavChunkSizeOffset = 36
)

// Silent writes silent WAV files sized to the time the text would take to
// read aloud. It stands in for a real engine in offline runs and tests.
type Silent struct {
	wordsPerMinute float64
}

func NewSilent(wordsPerMinute float64) *Silent {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	return &Silent{wordsPerMinute: wordsPerMinute}
}

func (s *Silent) Synthesize(_ context.Context, text string, _ Voice, outputPath string) error {
	wav := silentWAV(s.estimateDuration(text))
	if err := os.WriteFile(outputPath, wav, 0644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

func (s *Silent) estimateDuration(text string) float64 {
	wordCount := len(strings.Fields(text))
	return float64(wordCount) / s.wordsPerMinute * 60.0
}

func silentWAV(durationSec float64) []byte {
	bytesPerSample := wavBitsPerSample / 8
	numSamples := int(durationSec * float64(wavSampleRate))
	dataSize := numSamples * wavNumChannels * bytesPerSample
	byteRate := wavSampleRate * wavNumChannels * bytesPerSample
	blockAlign := wavNumChannels * bytesPerSample

	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wavChunkSizeOffset+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], wavSubchunkSize)
	binary.LittleEndian.PutUint16(buf[20:22], wavAudioFormat)
	binary.LittleEndian.PutUint16(buf[22:24], wavNumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], wavSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], wavBitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	return buf
}
