package modem

import (
	"errors"
	"fmt"
)

// errSampleRate and errSampleRatio are the constructors' input-shape
// errors, reported synchronously with no state mutated.
var errSampleRate = errors.New("modem: sample rate and symbol rate must be positive")

func errSampleRatio(sampleRateHz, symbolRateHz int) error {
	return fmt.Errorf("modem: sample_rate/symbol_rate must be an integer ratio, got %d/%d", sampleRateHz, symbolRateHz)
}
