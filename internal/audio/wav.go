package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes little-endian PCM16 as a WAV file.
func WriteWAV(w io.WriteSeeker, pcm []byte, sampleRate int, channels int) error {
	data := make([]int, len(pcm)/bytesPerSample)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:])))
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a 16-bit WAV file to little-endian PCM16, returning its
// sample rate and channel count.
func ReadWAV(r io.ReadSeeker) ([]byte, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode wav: %w", err)
	}
	if dec.BitDepth != 16 {
		return nil, 0, 0, fmt.Errorf("unsupported wav bit depth %d", dec.BitDepth)
	}

	pcm := make([]byte, len(buf.Data)*bytesPerSample)
	for i, v := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*bytesPerSample:], uint16(int16(v)))
	}
	return pcm, int(dec.SampleRate), int(dec.NumChans), nil
}
