package inference

import (
	"encoding/json"
	"testing"

	"github.com/fmueller/voxclone/internal/catalog"
	"github.com/stretchr/testify/require"
)

func TestPresetTuningTable(t *testing.T) {
	t.Parallel()

	singing, err := PresetTuning(PresetSinging)
	require.NoError(t, err)
	require.Equal(t, Tuning{PitchPredict: false, Transpose: 0, F0Method: F0Crepe, NoiseScale: 0.4}, singing)

	rapping, err := PresetTuning(PresetRapping)
	require.NoError(t, err)
	require.Equal(t, Tuning{PitchPredict: true, Transpose: 0, F0Method: F0Dio, NoiseScale: 0.4}, rapping)

	_, err = PresetTuning(PresetCustom)
	require.Error(t, err)
}

func TestParsePreset(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Preset{
		"singing":        PresetSinging,
		" Rapping ":      PresetRapping,
		"rappingTalking": PresetRapping,
	} {
		got, err := ParsePreset(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParsePreset("opera")
	require.Error(t, err)
}

func TestParseF0Method(t *testing.T) {
	t.Parallel()

	for _, method := range F0Methods() {
		parsed, err := ParseF0Method(string(method))
		require.NoError(t, err)
		require.Equal(t, method, parsed)
	}

	parsed, err := ParseF0Method("CREPE-TINY")
	require.NoError(t, err)
	require.Equal(t, F0CrepeTiny, parsed)

	_, err = ParseF0Method("yin")
	require.Error(t, err)
}

func TestClampTranspose(t *testing.T) {
	t.Parallel()

	for input := -40; input <= 40; input++ {
		got := ClampTranspose(input)
		require.GreaterOrEqual(t, got, MinTranspose)
		require.LessOrEqual(t, got, MaxTranspose)
		if input >= MinTranspose && input <= MaxTranspose {
			require.Equal(t, input, got)
		}
	}
}

func TestParamsMarshalUsesSnakeCase(t *testing.T) {
	t.Parallel()

	params := Params{Model: catalog.Drake, Tuning: Tuning{PitchPredict: true, Transpose: -3, F0Method: F0Harvest, NoiseScale: 0.6}}
	encoded, err := json.Marshal(params)
	require.NoError(t, err)
	require.JSONEq(t, `{"model":"drake","pitch_predict":true,"transpose":-3,"f0_method":"harvest","noise_scale":0.6}`, string(encoded))
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	valid := Params{Model: catalog.Kanye, Tuning: SingingConfig}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		params Params
	}{
		{name: "missing model", params: Params{Tuning: SingingConfig}},
		{name: "unknown model", params: Params{Model: "nobody", Tuning: SingingConfig}},
		{name: "transpose too high", params: Params{Model: catalog.Kanye, Tuning: Tuning{Transpose: 13, F0Method: F0Dio}}},
		{name: "transpose too low", params: Params{Model: catalog.Kanye, Tuning: Tuning{Transpose: -13, F0Method: F0Dio}}},
		{name: "bad f0 method", params: Params{Model: catalog.Kanye, Tuning: Tuning{F0Method: "yin"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Error(t, tt.params.Validate())
		})
	}
}
