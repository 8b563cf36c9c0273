package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	// MaxRecommendedDuration is the longest input the hosted models handle well.
	MaxRecommendedDuration = 2 * time.Minute
	DefaultSilenceDBFS     = -65.0
)

// Info describes a WAV payload.
type Info struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Duration      time.Duration
	RMSdBFS       float64
	PeakdBFS      float64
	Samples       int64
}

// Silent reports whether the signal stays below thresholdDBFS. Peaks may
// exceed the threshold by 6 dB.
func (i Info) Silent(thresholdDBFS float64) bool {
	if i.Samples == 0 {
		return true
	}
	if math.IsInf(i.RMSdBFS, -1) && math.IsInf(i.PeakdBFS, -1) {
		return true
	}
	return i.RMSdBFS <= thresholdDBFS && i.PeakdBFS <= thresholdDBFS+6
}

type format struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	byteRate      uint32
	bitsPerSample uint16
}

// InspectWAV parses a RIFF/WAVE payload held in memory.
func InspectWAV(data []byte) (Info, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Info{}, ErrInvalidWAV
	}

	var (
		fmtChunk  format
		hasFmt    bool
		pcm       []byte
		hasData   bool
		offset    = 12
		remaining = len(data)
	)

	for offset+8 <= remaining {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + chunkSize
		if chunkSize < 0 || end > remaining {
			// Streams written before the final size is known carry a bogus
			// data length; take what is there.
			if chunkID == "data" {
				end = remaining
			} else {
				return Info{}, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidWAV, chunkID)
			}
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Info{}, ErrInvalidWAV
			}
			fmtChunk = format{
				audioFormat:   binary.LittleEndian.Uint16(data[body : body+2]),
				channels:      binary.LittleEndian.Uint16(data[body+2 : body+4]),
				sampleRate:    binary.LittleEndian.Uint32(data[body+4 : body+8]),
				byteRate:      binary.LittleEndian.Uint32(data[body+8 : body+12]),
				bitsPerSample: binary.LittleEndian.Uint16(data[body+14 : body+16]),
			}
			hasFmt = true
		case "data":
			pcm = data[body:end]
			hasData = true
		}

		offset = end
		if chunkSize%2 != 0 {
			offset++
		}
	}

	if !hasFmt || !hasData {
		return Info{}, ErrInvalidWAV
	}
	if err := validateFormat(fmtChunk.audioFormat, fmtChunk.bitsPerSample); err != nil {
		return Info{}, err
	}

	info := Info{
		SampleRate:    int(fmtChunk.sampleRate),
		Channels:      int(fmtChunk.channels),
		BitsPerSample: int(fmtChunk.bitsPerSample),
	}
	if fmtChunk.byteRate > 0 {
		info.Duration = time.Duration(float64(len(pcm)) / float64(fmtChunk.byteRate) * float64(time.Second))
	}

	peak, sumSquares, samples, err := measureSamples(pcm, fmtChunk.audioFormat, fmtChunk.bitsPerSample)
	if err != nil {
		return Info{}, err
	}
	info.Samples = samples
	if samples == 0 {
		info.RMSdBFS = math.Inf(-1)
		info.PeakdBFS = math.Inf(-1)
		return info, nil
	}

	info.RMSdBFS = amplitudeToDBFS(math.Sqrt(sumSquares / float64(samples)))
	info.PeakdBFS = amplitudeToDBFS(peak)
	return info, nil
}

// Advisories lists the reasons an upload may convert poorly. They never
// block a submission.
func Advisories(info Info, silenceDBFS float64) []string {
	var notes []string
	if info.Duration > MaxRecommendedDuration {
		notes = append(notes, fmt.Sprintf("audio is %s long; songs shorter than %s convert best", info.Duration.Round(time.Second), MaxRecommendedDuration))
	}
	if info.Silent(silenceDBFS) {
		notes = append(notes, "audio looks silent; use an isolated vocal track")
	}
	return notes
}

func validateFormat(audioFormat, bitsPerSample uint16) error {
	switch audioFormat {
	case 1:
		switch bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		}
	case 3:
		switch bitsPerSample {
		case 32, 64:
			return nil
		}
	}
	return ErrUnsupportedWAV
}

func measureSamples(data []byte, audioFormat, bitsPerSample uint16) (peak, sumSquares float64, samples int64, err error) {
	width := int(bitsPerSample / 8)
	if width <= 0 {
		return 0, 0, 0, ErrUnsupportedWAV
	}

	for i := 0; i+width <= len(data); i += width {
		value, err := decodeSample(data[i:i+width], audioFormat, bitsPerSample)
		if err != nil {
			return 0, 0, 0, err
		}
		peak = math.Max(peak, math.Abs(value))
		sumSquares += value * value
		samples++
	}
	return peak, sumSquares, samples, nil
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == 3 {
		if bitsPerSample == 64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(sample)), nil
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(sample))), nil
	}

	switch bitsPerSample {
	case 8:
		return (float64(sample[0]) - 128.0) / 128.0, nil
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(sample))) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		return float64(int32(binary.LittleEndian.Uint32(sample))) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
