package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/utils/codec"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/abhissng/synapse/utils/types"
	"github.com/klauspost/cpuid/v2"
)

// DefaultGPUDir lists one entry per NVIDIA device on Linux.
const DefaultGPUDir = "/proc/driver/nvidia/gpus"

// EscapeDescName turns a description path into a directory-safe name:
// "descs/desc_mlp.v2.yaml" becomes "desc_mlp_v2".
func EscapeDescName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer(".", "_", " ", "_").Replace(base)
}

// RunName names a run after its start time.
func RunName(now time.Time) string {
	return "run-" + now.Format(constant.RunNameTimeFormat)
}

// Paths are the files and directories of one run.
type Paths struct {
	DumpDir   string
	CkptDir   string
	MetaDir   string
	MetaFile  string
	LogFile   string
	MeterFile string
	// TBDir is empty unless meters are exported.
	TBDir string
}

// BuildPaths creates root/series/descName/{checkpoints,meta} (and
// tensorboard/runName when withTB) and returns the run's paths.
func BuildPaths(root, series, descName, runName string, withTB bool) (*Paths, error) {
	p := &Paths{DumpDir: filepath.Join(root, series, descName)}
	p.CkptDir = filepath.Join(p.DumpDir, constant.CheckpointDir)
	p.MetaDir = filepath.Join(p.DumpDir, constant.MetaDir)
	p.MetaFile = filepath.Join(p.MetaDir, runName+".json")
	p.LogFile = filepath.Join(p.MetaDir, runName+".log")
	p.MeterFile = filepath.Join(p.MetaDir, runName+".meter.json")

	dirs := []string{p.DumpDir, p.CkptDir, p.MetaDir}
	if withTB {
		p.TBDir = filepath.Join(p.DumpDir, constant.TensorboardDir, runName)
		dirs = append(dirs, p.TBDir)
	}
	for _, d := range dirs {
		if _, err := helpers.EnsurePath(d); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// HostInfo describes the machine a run started on.
type HostInfo struct {
	Hostname      string   `json:"hostname"`
	OS            string   `json:"os"`
	Arch          string   `json:"arch"`
	GoVersion     string   `json:"go_version"`
	CPU           string   `json:"cpu"`
	Vendor        string   `json:"vendor"`
	PhysicalCores int      `json:"physical_cores"`
	LogicalCores  int      `json:"logical_cores"`
	Features      []string `json:"features,omitempty"`
}

// CollectHostInfo reads the host and CPU description.
func CollectHostInfo() HostInfo {
	host, _ := os.Hostname()
	return HostInfo{
		Hostname:      host,
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		GoVersion:     runtime.Version(),
		CPU:           cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		Features:      cpuid.CPU.FeatureSet(),
	}
}

// Metainfo is written next to the run log.
type Metainfo struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Args    any       `json:"args"`
	Configs any       `json:"configs"`
	Host    HostInfo  `json:"host"`
}

// DumpMetainfo encodes the run arguments, description configs and host info as
// JSON. started is the instant the run was named after.
func DumpMetainfo(runID types.RunID, started time.Time, args, configs any) ([]byte, error) {
	return codec.Encode(Metainfo{
		RunID:   runID.String(),
		Started: started.UTC(),
		Args:    args,
		Configs: configs,
		Host:    CollectHostInfo(),
	}, codec.JSON)
}

// CountGPUs returns the number of device entries under dir.
func CountGPUs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	return len(entries)
}

// Devices returns the device ids to run on. With force, a host without
// detected devices is treated as having one.
func Devices(dir string, force bool) ([]int, error) {
	n := CountGPUs(dir)
	if force && n == 0 {
		n = 1
	}
	if n == 0 {
		return nil, blame.NoDeviceAvailableError()
	}
	devices := make([]int, n)
	for i := range devices {
		devices[i] = i
	}
	return devices, nil
}

func checkpointPath(dir string, epoch int) string {
	return filepath.Join(dir, fmt.Sprintf(constant.CheckpointTemplate, epoch))
}
