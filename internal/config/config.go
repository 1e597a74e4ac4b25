// Package config loads ChannelParams/ModemParams/DFEParams from YAML,
// via gopkg.in/yaml.v3, and holds the named DFE presets (default,
// hf_skywave, ground_wave, fast_acq).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/n0call/hfmodem/internal/constellation"
	"github.com/n0call/hfmodem/internal/modem"
)

// ChannelParams is the YAML-serializable twin of channel.Params /
// bindings.ChannelParams.
type ChannelParams struct {
	SampleRateHz       uint32  `yaml:"sample_rate_hz"`
	DelaySpreadSamples uint32  `yaml:"delay_spread_samples"`
	DopplerBandwidthHz float64 `yaml:"doppler_bandwidth_hz"`
	SNRDb              float64 `yaml:"snr_db"`
	CarrierFreqHz      float64 `yaml:"carrier_freq_hz"`
}

// ModemParams is the YAML-serializable twin of modem.ModulatorParams /
// modem.DemodulatorParams.
type ModemParams struct {
	SampleRateHz  int     `yaml:"sample_rate_hz"`
	SymbolRateHz  int     `yaml:"symbol_rate_hz"`
	CarrierHz     float64 `yaml:"carrier_hz"`
	Constellation string  `yaml:"constellation"`
}

// DFEParams is the YAML-serializable twin of modem.DFEParams.
type DFEParams struct {
	FFTaps           int     `yaml:"ff_taps"`
	FBTaps           int     `yaml:"fb_taps"`
	Mu               float64 `yaml:"mu"`
	MuCMA            float64 `yaml:"mu_cma"`
	Leakage          float64 `yaml:"leakage"`
	UpdateThreshold  float64 `yaml:"update_threshold"`
	CMAToDDThreshold float64 `yaml:"cma_to_dd_threshold"`
	CMAMinSymbols    int     `yaml:"cma_min_symbols"`
}

// Document is the top-level shape a single YAML config file may hold;
// any subset of the three sections may be present.
type Document struct {
	Channel *ChannelParams `yaml:"channel,omitempty"`
	Modem   *ModemParams   `yaml:"modem,omitempty"`
	DFE     *DFEParams     `yaml:"dfe,omitempty"`
	Preset  string         `yaml:"preset,omitempty"`
}

// Load reads and parses a YAML config document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &doc, nil
}

// dfePresets names the four recognized equalizer presets, sourced
// from modem.DefaultDFEParams and friends so the YAML names and the
// compiled-in defaults can never drift apart.
var dfePresets = map[string]modem.DFEParams{
	"default":     modem.DefaultDFEParams,
	"hf_skywave":  modem.HFSkywaveDFEParams,
	"ground_wave": modem.GroundWaveDFEParams,
	"fast_acq":    modem.FastAcqDFEParams,
}

// ResolveDFEParams returns doc.DFE converted to a modem.DFEParams if the
// document has an explicit dfe section (it takes precedence over preset);
// otherwise the named preset, with an empty name meaning "default". An
// unknown preset name is an error.
func (d *Document) ResolveDFEParams() (modem.DFEParams, error) {
	if d.DFE != nil {
		return modem.DFEParams{
			FFTaps:           d.DFE.FFTaps,
			FBTaps:           d.DFE.FBTaps,
			Mu:               d.DFE.Mu,
			MuCMA:            d.DFE.MuCMA,
			Leakage:          d.DFE.Leakage,
			UpdateThreshold:  d.DFE.UpdateThreshold,
			CMAToDDThreshold: d.DFE.CMAToDDThreshold,
			CMAMinSymbols:    d.DFE.CMAMinSymbols,
		}, nil
	}
	name := d.Preset
	if name == "" {
		name = "default"
	}
	p, ok := dfePresets[name]
	if !ok {
		return modem.DFEParams{}, fmt.Errorf("config: unknown dfe preset %q", name)
	}
	return p, nil
}

// ResolveConstellation maps a ModemParams' string identifier to a
// constellation.ID.
func (m ModemParams) ResolveConstellation() (constellation.ID, error) {
	switch m.Constellation {
	case "bpsk", "":
		return constellation.BPSK, nil
	case "qpsk":
		return constellation.QPSK, nil
	case "psk8":
		return constellation.PSK8, nil
	case "qam16":
		return constellation.QAM16, nil
	case "qam32":
		return constellation.QAM32, nil
	case "qam64":
		return constellation.QAM64, nil
	default:
		return 0, fmt.Errorf("config: unknown constellation %q", m.Constellation)
	}
}
