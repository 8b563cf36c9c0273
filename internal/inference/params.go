package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fmueller/voxclone/internal/catalog"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	MinTranspose = -12
	MaxTranspose = 12
)

// F0Method is the pitch extraction algorithm used by the inference service.
type F0Method string

const (
	F0Dio         F0Method = "dio"
	F0Crepe       F0Method = "crepe"
	F0CrepeTiny   F0Method = "crepe-tiny"
	F0Parselmouth F0Method = "parselmouth"
	F0Harvest     F0Method = "harvest"
)

var f0Methods = []F0Method{F0Crepe, F0Dio, F0CrepeTiny, F0Parselmouth, F0Harvest}

func F0Methods() []F0Method {
	out := make([]F0Method, len(f0Methods))
	copy(out, f0Methods)
	return out
}

func ParseF0Method(value string) (F0Method, error) {
	method := F0Method(strings.ToLower(strings.TrimSpace(value)))
	if !lo.Contains(f0Methods, method) {
		return "", fmt.Errorf("unknown f0 method %q (known methods: %s)", value, strings.Join(lo.Map(f0Methods, func(m F0Method, _ int) string { return string(m) }), ", "))
	}
	return method, nil
}

// Tuning holds the knobs that presets overwrite in bulk.
type Tuning struct {
	PitchPredict bool     `validate:"-"`
	Transpose    int      `validate:"gte=-12,lte=12"`
	F0Method     F0Method `validate:"oneof=dio crepe crepe-tiny parselmouth harvest"`
	NoiseScale   float64  `validate:"-"`
}

type Params struct {
	Model catalog.ModelID `validate:"required"`
	Tuning
}

type wireParams struct {
	Model        catalog.ModelID `json:"model"`
	PitchPredict bool            `json:"pitch_predict"`
	Transpose    int             `json:"transpose"`
	F0Method     F0Method        `json:"f0_method"`
	NoiseScale   float64         `json:"noise_scale"`
}

func (p Params) wire() wireParams {
	return wireParams{
		Model:        p.Model,
		PitchPredict: p.PitchPredict,
		Transpose:    p.Transpose,
		F0Method:     p.F0Method,
		NoiseScale:   p.NoiseScale,
	}
}

// MarshalJSON encodes the snake_case form expected by the inference service.
func (p Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.wire())
}

// Fields returns the wire parameters as a flat map, as recorded by analytics.
func (p Params) Fields() map[string]any {
	return map[string]any{
		"model":         string(p.Model),
		"pitch_predict": p.PitchPredict,
		"transpose":     p.Transpose,
		"f0_method":     string(p.F0Method),
		"noise_scale":   p.NoiseScale,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid inference parameters: %w", err)
	}
	if _, ok := catalog.Lookup(p.Model); !ok {
		return fmt.Errorf("invalid inference parameters: unknown model %q", p.Model)
	}
	return nil
}

// ClampTranspose keeps a semitone shift within the slider range.
func ClampTranspose(value int) int {
	return min(max(value, MinTranspose), MaxTranspose)
}

// Preset is a named bundle of tuning defaults.
type Preset string

const (
	PresetSinging Preset = "singing"
	PresetRapping Preset = "rapping"
	// PresetCustom labels tuning that was edited after a preset was applied.
	PresetCustom Preset = "custom"
)

const DefaultPreset = PresetSinging

var (
	SingingConfig = Tuning{PitchPredict: false, Transpose: 0, F0Method: F0Crepe, NoiseScale: 0.4}
	RappingConfig = Tuning{PitchPredict: true, Transpose: 0, F0Method: F0Dio, NoiseScale: 0.4}
)

func Presets() []Preset {
	return []Preset{PresetSinging, PresetRapping}
}

// ParsePreset accepts a preset name in any case. "rappingTalking" is the
// service's own name for the rapping preset.
func ParsePreset(value string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(PresetSinging):
		return PresetSinging, nil
	case string(PresetRapping), "rappingtalking":
		return PresetRapping, nil
	default:
		return "", fmt.Errorf("unknown preset %q (known presets: singing, rapping)", value)
	}
}

func PresetTuning(preset Preset) (Tuning, error) {
	parsed, err := ParsePreset(string(preset))
	if err != nil {
		return Tuning{}, err
	}
	if parsed == PresetRapping {
		return RappingConfig, nil
	}
	return SingingConfig, nil
}
