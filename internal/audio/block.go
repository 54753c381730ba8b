package audio

import (
	"encoding/binary"
	"math"
)

const (
	SampleRate       = 16000
	Channels         = 1
	BlockSamples     = 320 // 20ms @ 16kHz mono
	bytesPerSample   = 2
	blockSizeBytes   = BlockSamples * bytesPerSample
	int16FullScale   = 32768.0
	int16MaxPositive = 32767.0
)

// Block is one stamped slice of mono samples normalized to [-1, 1].
type Block struct {
	Seq     uint64
	Samples []float32
}

// PCM16 re-encodes the block as little-endian signed 16-bit PCM.
func (b Block) PCM16() []byte {
	out := make([]byte, len(b.Samples)*bytesPerSample)
	for i, s := range b.Samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		scaled := math.Round(v * int16FullScale)
		if scaled > int16MaxPositive {
			scaled = int16MaxPositive
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(scaled)))
	}
	return out
}

// DurationMS returns the block length in milliseconds at SampleRate.
func (b Block) DurationMS() float64 {
	return float64(len(b.Samples)) * 1000 / SampleRate
}

func samplesFromPCM16(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/bytesPerSample)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
		out[i] = float32(float64(v) / int16FullScale)
	}
	return out
}
