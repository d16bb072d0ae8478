package media

import (
	"math"
	"time"

	"github.com/zaf/g711"
)

// ToneSpec describes a cadenced dual-frequency tone.
type ToneSpec struct {
	Name   string
	FreqA  float64 // Hz
	FreqB  float64 // Hz, 0 for a single-frequency tone
	On     time.Duration
	Off    time.Duration
	Volume float64 // 0.0-1.0 linear amplitude
}

// North American precise tone plan cadences.
var (
	// ToneRingback is played to the operator while an outgoing call rings.
	ToneRingback = ToneSpec{Name: "ringback", FreqA: 440, FreqB: 480, On: 2 * time.Second, Off: 4 * time.Second, Volume: 0.3}

	// ToneRing announces an unanswered incoming call.
	ToneRing = ToneSpec{Name: "ring", FreqA: 440, FreqB: 480, On: 1500 * time.Millisecond, Off: 3500 * time.Millisecond, Volume: 0.5}
)

// CycleDuration returns the length of one on+off cadence cycle.
func (t ToneSpec) CycleDuration() time.Duration {
	return t.On + t.Off
}

// GeneratePCM renders one full cadence cycle as 16-bit little-endian
// mono PCM at the given sample rate. The off portion is silence.
func (t ToneSpec) GeneratePCM(sampleRate uint32) []byte {
	onSamples := int(float64(sampleRate) * t.On.Seconds())
	totalSamples := int(float64(sampleRate) * t.CycleDuration().Seconds())

	pcm := make([]byte, totalSamples*2)
	amp := t.Volume * math.MaxInt16
	if t.FreqB != 0 {
		// Split amplitude between the two frequencies.
		amp /= 2
	}

	for i := 0; i < onSamples; i++ {
		ts := float64(i) / float64(sampleRate)
		sample := amp * math.Sin(2*math.Pi*t.FreqA*ts)
		if t.FreqB != 0 {
			sample += amp * math.Sin(2*math.Pi*t.FreqB*ts)
		}
		v := int16(sample)
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}
	// Remaining samples stay zero (silence).

	return pcm
}

// Frames renders one cadence cycle encoded for the codec and split into
// frame-sized payloads ready for RTP streaming.
func (t ToneSpec) Frames(codec Codec) [][]byte {
	pcm := t.GeneratePCM(codec.SampleRate)

	var encoded []byte
	switch codec.Name {
	case CodecPCMA.Name:
		encoded = g711.EncodeAlaw(pcm)
	default:
		encoded = g711.EncodeUlaw(pcm)
	}

	size := codec.BytesPerFrame()
	frames := make([][]byte, 0, len(encoded)/size)
	for off := 0; off+size <= len(encoded); off += size {
		frames = append(frames, encoded[off:off+size])
	}
	return frames
}
