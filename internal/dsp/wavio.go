package dsp

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAVFile reads a WAV file into a mono clip. Multi-channel audio is
// downmixed by averaging.
func DecodeWAVFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV file %s: %w", path, err)
	}

	return fromIntBuffer(buf, int(decoder.BitDepth)), nil
}

// EncodeWAVFile writes a clip to a WAV file
func EncodeWAVFile(path string, clip *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file %s: %w", path, err)
	}
	defer f.Close()

	bitDepth := clip.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	encoder := wav.NewEncoder(f, clip.SampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Data:           clip.Samples,
		Format:         &audio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV data to %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file %s: %w", path, err)
	}
	return nil
}

// fromIntBuffer downmixes an interleaved PCM buffer to a mono clip
func fromIntBuffer(buf *audio.IntBuffer, bitDepth int) *Clip {
	channels := buf.Format.NumChannels
	if channels <= 1 {
		samples := make([]int, len(buf.Data))
		copy(samples, buf.Data)
		return &Clip{Samples: samples, SampleRate: buf.Format.SampleRate, BitDepth: bitDepth}
	}

	frames := len(buf.Data) / channels
	samples := make([]int, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		samples[i] = sum / channels
	}
	return &Clip{Samples: samples, SampleRate: buf.Format.SampleRate, BitDepth: bitDepth}
}
