// Package simdinfo reports the SIMD extensions available on the running
// CPU, via golang.org/x/sys/cpu. It changes no numerical behavior
// anywhere in this engine; it exists so cmd/hfmodem can log, once at
// startup, what instruction-set support the running CPU offers. The
// benchmarks do not call it.
package simdinfo

import "golang.org/x/sys/cpu"

// Features summarizes the SIMD-relevant CPU feature bits this engine
// cares about for benchmark annotation.
type Features struct {
	Arch   string
	AVX2   bool
	AVX512 bool
	NEON   bool
}

// Detect probes the running CPU's feature bits.
func Detect() Features {
	f := Features{}
	if cpu.X86.HasAVX2 {
		f.Arch = "amd64"
		f.AVX2 = true
	}
	if cpu.X86.HasAVX512F {
		f.Arch = "amd64"
		f.AVX512 = true
	}
	if cpu.ARM64.HasASIMD {
		f.Arch = "arm64"
		f.NEON = true
	}
	return f
}

func (f Features) String() string {
	if f.Arch == "" {
		return "unknown (no recognized SIMD feature bits)"
	}
	s := f.Arch
	if f.AVX2 {
		s += " avx2"
	}
	if f.AVX512 {
		s += " avx512f"
	}
	if f.NEON {
		s += " asimd"
	}
	return s
}
