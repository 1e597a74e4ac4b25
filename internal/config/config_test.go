package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n0call/hfmodem/internal/constellation"
	"github.com/n0call/hfmodem/internal/modem"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadChannelSection(t *testing.T) {
	path := writeTemp(t, `
channel:
  sample_rate_hz: 9600
  delay_spread_samples: 5
  doppler_bandwidth_hz: 1.0
  snr_db: 20.0
  carrier_freq_hz: 1800
`)
	doc, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, doc.Channel)
	assert.Equal(t, uint32(9600), doc.Channel.SampleRateHz)
	assert.Equal(t, 20.0, doc.Channel.SNRDb)
}

func TestResolveDFEParamsNamedPreset(t *testing.T) {
	doc := &Document{Preset: "hf_skywave"}
	p, err := doc.ResolveDFEParams()
	require.NoError(t, err)
	assert.Equal(t, modem.HFSkywaveDFEParams, p)
}

func TestResolveDFEParamsDefaultsWhenPresetEmpty(t *testing.T) {
	doc := &Document{}
	p, err := doc.ResolveDFEParams()
	require.NoError(t, err)
	assert.Equal(t, modem.DefaultDFEParams, p)
}

func TestResolveDFEParamsUnknownPreset(t *testing.T) {
	doc := &Document{Preset: "nonexistent"}
	_, err := doc.ResolveDFEParams()
	assert.Error(t, err)
}

func TestResolveDFEParamsExplicitSectionOverridesPreset(t *testing.T) {
	doc := &Document{
		Preset: "ground_wave",
		DFE: &DFEParams{
			FFTaps: 99, FBTaps: 1, Mu: 0.5, MuCMA: 0.1,
			Leakage: 1.0, UpdateThreshold: 0.5,
			CMAToDDThreshold: 0.5, CMAMinSymbols: 10,
		},
	}
	p, err := doc.ResolveDFEParams()
	require.NoError(t, err)
	assert.Equal(t, 99, p.FFTaps)
}

func TestResolveConstellation(t *testing.T) {
	cases := map[string]constellation.ID{
		"":      constellation.BPSK,
		"bpsk":  constellation.BPSK,
		"qpsk":  constellation.QPSK,
		"psk8":  constellation.PSK8,
		"qam16": constellation.QAM16,
		"qam32": constellation.QAM32,
		"qam64": constellation.QAM64,
	}
	for input, want := range cases {
		m := ModemParams{Constellation: input}
		got, err := m.ResolveConstellation()
		require.NoErrorf(t, err, "input=%q", input)
		assert.Equalf(t, want, got, "input=%q", input)
	}
}

func TestResolveConstellationUnknown(t *testing.T) {
	m := ModemParams{Constellation: "bogus"}
	_, err := m.ResolveConstellation()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
