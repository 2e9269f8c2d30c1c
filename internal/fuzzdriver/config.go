package fuzzdriver

import (
	"bufio"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Config holds everything one fuzzing run needs. It is constructed once by
// the caller (the cobra command in cmd/zipdiff-fuzz) and passed down
// explicitly — there is no package-level singleton, so a test can build as
// many independent configurations as it needs.
type Config struct {
	BatchSize        int
	StopAfterSeconds int // 0 means no wall-clock budget

	ParsersDir string
	InputDir   string
	OutputDir  string
	SamplesDir string
	ResultsDir string
	StatsFile  string

	ArgmaxUCB        bool
	ByteMutationOnly bool
}

// archiveThreshold is the per-parser output size (in bytes) above which
// Execute streams the live directory into a tar+zstd archive instead of
// leaving it on disk.
const archiveThreshold = 1 << 20 // 1 MiB

// DefaultBatchSize implements the sizing formula from the external
// interfaces contract: min(ceil(RAM_GiB) - 20, ceil(disk_GiB/2)). It warns
// through logger if the result falls below 100, since a panel this starved
// of headroom rarely keeps up with its own parser panel.
func DefaultBatchSize(logger *slog.Logger, diskPath string) int {
	ramGiB := detectRAMGiB()
	diskGiB := detectDiskGiB(diskPath)

	fromRAM := int(math.Ceil(ramGiB)) - 20
	fromDisk := int(math.Ceil(diskGiB / 2))

	batch := fromRAM
	if fromDisk < batch {
		batch = fromDisk
	}
	if batch < 1 {
		batch = 1
	}
	if batch < 100 {
		logger.Warn("default batch size is small enough to bottleneck the parser panel",
			slog.Int("batch_size", batch), slog.Float64("ram_gib", ramGiB), slog.Float64("disk_gib", diskGiB))
	}
	return batch
}

func detectRAMGiB() float64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0
		}
		return kb / (1024 * 1024)
	}
	return 0
}

func detectDiskGiB(path string) float64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0
	}
	return float64(stat.Bavail) * float64(stat.Bsize) / (1024 * 1024 * 1024)
}
