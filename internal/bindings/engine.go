package bindings

import (
	"encoding/binary"
	"math"

	"github.com/n0call/hfmodem/internal/channel"
	"github.com/n0call/hfmodem/internal/rflog"
	"github.com/n0call/hfmodem/internal/slab"
)

// ChannelParams is the exported, host-facing twin of channel.Params.
type ChannelParams struct {
	SampleRateHz       uint32
	DelaySpreadSamples uint32
	DopplerBandwidthHz float64
	SNRDb              float64
	CarrierFreqHz      float64
}

func (p ChannelParams) toInternal() channel.Params {
	return channel.Params{
		SampleRateHz:       p.SampleRateHz,
		DelaySpreadSamples: p.DelaySpreadSamples,
		DopplerBandwidthHz: p.DopplerBandwidthHz,
		SNRDb:              p.SNRDb,
		CarrierFreqHz:      p.CarrierFreqHz,
	}
}

// ChannelState is the host-facing snapshot returned by GetState.
type ChannelState struct {
	SampleIndex uint64
	Tap0Phase   float64
	Tap1Phase   float64
}

// maxBlockBytes caps the size of one ProcessBlock call. Processing
// allocates three buffers totalling roughly five times the input (decoded
// float64 input and float64 output at twice the input size each, plus the
// encoded output bytes), so a runaway host-side length is refused
// here instead of being handed to the allocator.
const maxBlockBytes = 1 << 24

// Engine owns the slab of live channel simulator instances behind the
// boundary. One Engine corresponds to one host process's worth of
// resources.
type Engine struct {
	store *slab.Store[*channel.Watterson]
	log   *rflog.Logger
}

// NewEngine constructs an Engine with a fixed handle capacity.
func NewEngine(capacity int) *Engine {
	return &Engine{
		store: slab.New[*channel.Watterson](capacity),
		log:   rflog.For("bindings"),
	}
}

// CreateChannel constructs a Watterson simulator from params and seed
// and inserts it into the slab, returning its opaque ID.
func (e *Engine) CreateChannel(params ChannelParams, seed uint64) (uint64, Status) {
	w := channel.New(params.toInternal(), seed)
	id, err := e.store.Insert(w)
	if err != nil {
		e.log.Warn("create_channel failed", "error", err)
		return 0, failed(ReasonSlabFull)
	}
	e.log.Debug("create_channel", "id", id)
	return id, ok()
}

// ProcessBlock runs inputBytes (native-endian float32, 4 bytes/sample)
// through the channel identified by id and returns an equal-length byte
// buffer of the filtered output.
func (e *Engine) ProcessBlock(id uint64, inputBytes []byte) ([]byte, Status) {
	if len(inputBytes)%4 != 0 {
		return nil, failed(ReasonInvalidSampleSize)
	}
	if len(inputBytes) > maxBlockBytes {
		return nil, failed(ReasonBinaryAllocFailed)
	}
	n := len(inputBytes) / 4

	in := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.NativeEndian.Uint32(inputBytes[i*4 : i*4+4])
		in[i] = float64(math.Float32frombits(bits))
	}

	var out []float64
	err := e.store.WithChannelMut(id, func(w *channel.Watterson) {
		out = w.ProcessBlock(in)
	})
	if err != nil {
		return nil, failed(ReasonChannelNotFound)
	}

	outBytes := make([]byte, len(out)*4)
	for i, v := range out {
		bits := math.Float32bits(float32(v))
		binary.NativeEndian.PutUint32(outBytes[i*4:i*4+4], bits)
	}
	return outBytes, ok()
}

// Advance steps the channel identified by id forward nSamples without
// producing output, keeping its fading taps and carrier in lock-step
// with a parallel stream that was actually processed.
func (e *Engine) Advance(id uint64, nSamples int) Status {
	err := e.store.WithChannelMut(id, func(w *channel.Watterson) {
		w.Advance(nSamples)
	})
	if err != nil {
		return failed(ReasonChannelNotFound)
	}
	return ok()
}

// DestroyChannel removes the channel identified by id from the slab.
func (e *Engine) DestroyChannel(id uint64) Status {
	if _, err := e.store.Remove(id); err != nil {
		return failed(ReasonChannelNotFound)
	}
	return ok()
}

// GetState reports the channel's current sample index and fading tap
// phases.
func (e *Engine) GetState(id uint64) (ChannelState, Status) {
	var state ChannelState
	err := e.store.WithChannel(id, func(w *channel.Watterson) {
		s := w.GetState()
		state = ChannelState{
			SampleIndex: s.SampleIndex,
			Tap0Phase:   s.Tap0Phase,
			Tap1Phase:   s.Tap1Phase,
		}
	})
	if err != nil {
		return ChannelState{}, failed(ReasonChannelNotFound)
	}
	return state, ok()
}

// ChannelCount reports the number of live channel handles.
func (e *Engine) ChannelCount() int {
	return e.store.Count()
}
