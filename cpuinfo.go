package provenance

import (
	"sort"

	"github.com/klauspost/cpuid/v2"
)

// CPUInfo records the identity and capabilities of the host processor.
// Capabilities matter for reproduction: optimized numerical code selects
// instruction sets at runtime, so the same build may behave differently
// on different processors.
type CPUInfo struct {
	BrandName      string   `json:"brand_name" yaml:"brand_name"`
	CacheL1D       int      `json:"cache_l1d" yaml:"cache_l1d"`
	CacheL1I       int      `json:"cache_l1i" yaml:"cache_l1i"`
	CacheL2        int      `json:"cache_l2" yaml:"cache_l2"`
	CacheL3        int      `json:"cache_l3" yaml:"cache_l3"`
	CacheLine      int      `json:"cache_line" yaml:"cache_line"`
	Family         int      `json:"family" yaml:"family"`
	Features       []string `json:"features" yaml:"features"`
	FrequencyHz    int64    `json:"frequency_hz" yaml:"frequency_hz"`
	LogicalCores   int      `json:"logical_cores" yaml:"logical_cores"`
	Model          int      `json:"model" yaml:"model"`
	PhysicalCores  int      `json:"physical_cores" yaml:"physical_cores"`
	ThreadsPerCore int      `json:"threads_per_core" yaml:"threads_per_core"`
	Vendor         string   `json:"vendor" yaml:"vendor"`
}

// collectCPUInfo probes the host CPU. Feature flags are sorted so the
// record renders deterministically.
func collectCPUInfo() CPUInfo {
	cpu := cpuid.CPU
	features := cpu.FeatureSet()
	sort.Strings(features)
	return CPUInfo{
		BrandName:      cpu.BrandName,
		CacheL1D:       cpu.Cache.L1D,
		CacheL1I:       cpu.Cache.L1I,
		CacheL2:        cpu.Cache.L2,
		CacheL3:        cpu.Cache.L3,
		CacheLine:      cpu.CacheLine,
		Family:         cpu.Family,
		Features:       features,
		FrequencyHz:    cpu.Hz,
		LogicalCores:   cpu.LogicalCores,
		Model:          cpu.Model,
		PhysicalCores:  cpu.PhysicalCores,
		ThreadsPerCore: cpu.ThreadsPerCore,
		Vendor:         cpu.VendorString,
	}
}
