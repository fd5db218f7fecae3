package dataset

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// frameBuffers approximates how many full-frame RGBA buffers one sequence
// keeps alive while it renders.
const frameBuffers = 12

// SuggestWorkers sizes the sequence pool to the host: one worker per logical
// CPU, reduced so that the frame buffers of all workers fit in half of the
// available memory. It never returns less than one.
func SuggestWorkers(width, height int) int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}

	per := uint64(max(width, 1)) * uint64(max(height, 1)) * 4 * frameBuffers
	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		n = min(n, int(vm.Available/2/per))
	}
	return max(n, 1)
}
