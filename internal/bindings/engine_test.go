package bindings

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n0call/hfmodem/internal/channel"
)

func testParams() ChannelParams {
	return ChannelParams{
		SampleRateHz:       9600,
		DelaySpreadSamples: 5,
		DopplerBandwidthHz: 1.0,
		SNRDb:              80,
		CarrierFreqHz:      1800,
	}
}

func floatsToBytes(t *testing.T, xs []float32) []byte {
	t.Helper()
	out := make([]byte, len(xs)*4)
	for i, x := range xs {
		binary.NativeEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(x))
	}
	return out
}

func TestEngineCreateProcessDestroy(t *testing.T) {
	e := NewEngine(4)
	id, status := e.CreateChannel(testParams(), 1)
	require.True(t, status.OK)
	assert.Equal(t, 1, e.ChannelCount())

	in := floatsToBytes(t, []float32{0.1, 0.2, 0.3, 0.4})
	out, status := e.ProcessBlock(id, in)
	require.True(t, status.OK)
	assert.Equal(t, len(in), len(out))

	status = e.DestroyChannel(id)
	require.True(t, status.OK)
	assert.Equal(t, 0, e.ChannelCount())
}

// TestEngineSlabFull checks the slab_full resource error.
func TestEngineSlabFull(t *testing.T) {
	e := NewEngine(1)
	_, status := e.CreateChannel(testParams(), 1)
	require.True(t, status.OK)

	_, status = e.CreateChannel(testParams(), 2)
	assert.False(t, status.OK)
	assert.Equal(t, ReasonSlabFull, status.Reason)
}

// TestEngineChannelNotFound checks the channel_not_found error across
// every operation that takes an id.
func TestEngineChannelNotFound(t *testing.T) {
	e := NewEngine(4)
	const bogus = uint64(999)

	_, status := e.ProcessBlock(bogus, floatsToBytes(t, []float32{0}))
	assert.Equal(t, ReasonChannelNotFound, status.Reason)

	status = e.Advance(bogus, 10)
	assert.Equal(t, ReasonChannelNotFound, status.Reason)

	status = e.DestroyChannel(bogus)
	assert.Equal(t, ReasonChannelNotFound, status.Reason)

	_, status = e.GetState(bogus)
	assert.Equal(t, ReasonChannelNotFound, status.Reason)
}

// TestEngineInvalidSampleSize checks the invalid_sample_size input-shape
// error for a byte buffer not a multiple of 4.
func TestEngineInvalidSampleSize(t *testing.T) {
	e := NewEngine(4)
	id, status := e.CreateChannel(testParams(), 1)
	require.True(t, status.OK)

	_, status = e.ProcessBlock(id, []byte{0, 1, 2})
	assert.False(t, status.OK)
	assert.Equal(t, ReasonInvalidSampleSize, status.Reason)
}

// TestEngineBlockTooLarge checks the binary_alloc_failed resource error
// for a block exceeding the per-call allocation cap.
func TestEngineBlockTooLarge(t *testing.T) {
	e := NewEngine(4)
	id, status := e.CreateChannel(testParams(), 1)
	require.True(t, status.OK)

	huge := make([]byte, maxBlockBytes+4)
	_, status = e.ProcessBlock(id, huge)
	assert.False(t, status.OK)
	assert.Equal(t, ReasonBinaryAllocFailed, status.Reason)
}

// TestEngineProcessBlockRoundTripsFloats checks that the native-endian
// float32 marshaling is lossless for representable values.
func TestEngineProcessBlockRoundTripsFloats(t *testing.T) {
	e := NewEngine(4)
	params := ChannelParams{
		SampleRateHz:       9600,
		DelaySpreadSamples: 0,
		DopplerBandwidthHz: 0,
		SNRDb:              200, // effectively no noise
		CarrierFreqHz:      0,   // no carrier mixing: the signal path is the LPF with a gain of 2
	}
	id, status := e.CreateChannel(params, 1)
	require.True(t, status.OK)

	in := make([]float32, 64)
	for i := range in {
		in[i] = float32(i)/64 - 0.5
	}
	bytesIn := floatsToBytes(t, in)

	out, status := e.ProcessBlock(id, bytesIn)
	require.True(t, status.OK)
	require.Equal(t, len(bytesIn), len(out))

	// A channel built from the same params and seed, driven directly with
	// float64 samples, must produce exactly the decoded output floats.
	ref := channel.New(params.toInternal(), 1)
	for i, x := range in {
		want := float32(ref.Process(float64(x)))
		got := math.Float32frombits(binary.NativeEndian.Uint32(out[i*4 : i*4+4]))
		require.Equal(t, want, got, "sample %d", i)
	}
}

func TestEngineAdvanceChangesState(t *testing.T) {
	e := NewEngine(4)
	id, status := e.CreateChannel(testParams(), 1)
	require.True(t, status.OK)

	stateBefore, status := e.GetState(id)
	require.True(t, status.OK)

	status = e.Advance(id, 1000)
	require.True(t, status.OK)

	stateAfter, status := e.GetState(id)
	require.True(t, status.OK)

	assert.Equal(t, stateBefore.SampleIndex+1000, stateAfter.SampleIndex)
}

func TestReasonStringsMatchSpecTerms(t *testing.T) {
	assert.Equal(t, "slab_full", ReasonSlabFull.String())
	assert.Equal(t, "channel_not_found", ReasonChannelNotFound.String())
	assert.Equal(t, "invalid_sample_size", ReasonInvalidSampleSize.String())
	assert.Equal(t, "binary_alloc_failed", ReasonBinaryAllocFailed.String())
}
