package cpu

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// HostInfo describes the host processor backing the CPU device.
type HostInfo struct {
	Arch     string
	NumCPU   int
	Features []string // Detected SIMD extensions.
}

// DetectHost reports the host processor's core count and SIMD features.
func DetectHost() HostInfo {
	info := HostInfo{
		Arch:   runtime.GOARCH,
		NumCPU: runtime.NumCPU(),
	}
	add := func(ok bool, name string) {
		if ok {
			info.Features = append(info.Features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE41 || cpu.X86.HasSSE42, "SSE4")
		add(cpu.X86.HasAVX, "AVX")
		add(cpu.X86.HasAVX2, "AVX2")
		add(cpu.X86.HasFMA, "FMA")
		add(cpu.X86.HasAVX512F, "AVX512F")
		add(cpu.X86.HasAVX512BW, "AVX512BW")
		add(cpu.X86.HasAVX512DQ, "AVX512DQ")
		add(cpu.X86.HasAVX512VL, "AVX512VL")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "NEON")
		add(cpu.ARM64.HasASIMDHP, "NEON-FP16")
		add(cpu.ARM64.HasFPHP, "FP16")
	}
	return info
}

// String returns a one-line description, e.g. "amd64 x16 [AVX AVX2 FMA]".
func (h HostInfo) String() string {
	if len(h.Features) == 0 {
		return fmt.Sprintf("%s x%d", h.Arch, h.NumCPU)
	}
	return fmt.Sprintf("%s x%d [%s]", h.Arch, h.NumCPU, strings.Join(h.Features, " "))
}
