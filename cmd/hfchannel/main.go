// Command hfchannel drives the Watterson channel simulator over stdin/
// stdout, reading and writing native-endian float32 PCM in fixed-size
// blocks.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/pflag"

	"github.com/n0call/hfmodem/internal/channel"
	"github.com/n0call/hfmodem/internal/rflog"
)

const blockSamples = 1024

func main() {
	var sampleRateHz = pflag.Uint32P("sample-rate", "r", 9600, "Sample rate, Hz.")
	var delaySpread = pflag.Uint32P("delay-spread", "d", 1, "Delay spread between the two Watterson paths, in samples.")
	var dopplerHz = pflag.Float64P("doppler", "D", 0.5, "Doppler bandwidth, Hz.")
	var snrDb = pflag.Float64P("snr", "s", 20.0, "Target SNR, dB.")
	var carrierHz = pflag.Float64P("carrier", "c", 1800, "Carrier frequency, Hz.")
	var seed = pflag.Uint64P("seed", "x", 1, "RNG seed.")
	pflag.Parse()

	log := rflog.For("hfchannel")

	params := channel.Params{
		SampleRateHz:       *sampleRateHz,
		DelaySpreadSamples: *delaySpread,
		DopplerBandwidthHz: *dopplerHz,
		SNRDb:              *snrDb,
		CarrierFreqHz:      *carrierHz,
	}
	sim := channel.New(params, *seed)
	log.Info("channel simulator started", "sample_rate_hz", *sampleRateHz, "snr_db", *snrDb)

	reader := bufio.NewReaderSize(os.Stdin, blockSamples*4)
	writer := bufio.NewWriterSize(os.Stdout, blockSamples*4)
	defer writer.Flush()

	buf := make([]byte, blockSamples*4)
	in := make([]float64, blockSamples)

	var total uint64
	for {
		n, err := io.ReadFull(reader, buf)
		if n > 0 {
			samples := n / 4
			for i := 0; i < samples; i++ {
				bits := binary.NativeEndian.Uint32(buf[i*4 : i*4+4])
				in[i] = float64(math.Float32frombits(bits))
			}
			out := sim.ProcessBlock(in[:samples])
			for _, v := range out {
				var b [4]byte
				binary.NativeEndian.PutUint32(b[:], math.Float32bits(float32(v)))
				if _, werr := writer.Write(b[:]); werr != nil {
					fmt.Fprintln(os.Stderr, "write:", werr)
					os.Exit(1)
				}
			}
			total += uint64(samples)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
	}

	log.Info("channel simulator finished", "samples_processed", total)
}
