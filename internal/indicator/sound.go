package indicator

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueSampleRate = audio.SampleRate
	cueVolume     = 0.18
	cueGap        = 22 * time.Millisecond
)

// clip is decoded PCM ready for playback.
type clip struct {
	samples    []int16
	sampleRate int
	channels   int
}

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
}

var synthCues = map[cueKind]clip{
	cueStart:    synthesizeCue(toneSpec{880, 70 * time.Millisecond}, toneSpec{1175, 70 * time.Millisecond}),
	cueStop:     synthesizeCue(toneSpec{620, 120 * time.Millisecond}),
	cueComplete: synthesizeCue(toneSpec{740, 65 * time.Millisecond}, toneSpec{988, 90 * time.Millisecond}),
	cueCancel:   synthesizeCue(toneSpec{480, 75 * time.Millisecond}, toneSpec{360, 90 * time.Millisecond}),
}

// emitCue plays the configured WAV for kind, falling back to the built-in tone.
func emitCue(kind cueKind, cfg config.IndicatorConfig) error {
	if path := cuePath(kind, cfg); path != "" {
		c, err := loadCueFile(path)
		if err == nil {
			return playClip(c)
		}
		if fallback, ok := synthCues[kind]; ok {
			if playErr := playClip(fallback); playErr != nil {
				return playErr
			}
		}
		return err
	}

	c, ok := synthCues[kind]
	if !ok {
		return nil
	}
	return playClip(c)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	var raw string
	switch kind {
	case cueStart:
		raw = cfg.SoundStartFile
	case cueStop:
		raw = cfg.SoundStopFile
	case cueComplete:
		raw = cfg.SoundCompleteFile
	case cueCancel:
		raw = cfg.SoundCancelFile
	}
	return expandUserPath(raw)
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}

// loadCueFile decodes a 16-bit PCM WAV file.
func loadCueFile(path string) (clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return clip{}, fmt.Errorf("open cue file: %w", err)
	}
	defer f.Close()

	pcm, rate, channels, err := audio.ReadWAV(f)
	if err != nil {
		return clip{}, fmt.Errorf("decode cue file %q: %w", path, err)
	}
	if channels != 1 && channels != 2 {
		return clip{}, fmt.Errorf("cue file %q: unsupported channel count %d", path, channels)
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return clip{samples: samples, sampleRate: rate, channels: channels}, nil
}

func playClip(c clip) error {
	if len(c.samples) == 0 {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("murmur"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, c.samples[cursor:])
		cursor += n
		if cursor >= len(c.samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	layout := pulse.PlaybackMono
	if c.channels == 2 {
		layout = pulse.PlaybackStereo
	}
	stream, err := client.NewPlayback(
		reader,
		layout,
		pulse.PlaybackSampleRate(c.sampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("murmur cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue: %w", err)
	}
	return nil
}

// synthesizeCue joins sine tones separated by a short silence.
func synthesizeCue(parts ...toneSpec) clip {
	gap := samplesFor(cueGap)
	var pcm []int16
	for i, part := range parts {
		pcm = append(pcm, synthesizeTone(part)...)
		if i < len(parts)-1 {
			pcm = append(pcm, make([]int16, gap)...)
		}
	}
	return clip{samples: pcm, sampleRate: cueSampleRate, channels: 1}
}

// synthesizeTone renders one tone with a linear attack and release of at most 5ms.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesFor(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 {
		return nil
	}

	ramp := min(n/10, cueSampleRate/200)
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range pcm {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = math.Min(envelope, float64(tail)/float64(ramp))
		}
		t := float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*spec.frequencyHz*t) * cueVolume * envelope * math.MaxInt16))
	}
	return pcm
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
