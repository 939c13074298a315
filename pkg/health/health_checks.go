package health

import "runtime"

// ShutdownCheck is unhealthy once the server has started closing
func ShutdownCheck(closing func() bool) CheckFunc {
	return func() Check {
		if closing() {
			return Check{Status: StatusUnhealthy, Message: "Shutting down"}
		}
		return Check{Status: StatusHealthy, Message: "Accepting requests"}
	}
}

// WorkerPoolCheck reports the layout worker pool
func WorkerPoolCheck(workers int, closed func() bool) CheckFunc {
	return func() Check {
		check := Check{
			Details: map[string]any{"workers": workers},
		}
		if closed() {
			check.Status = StatusUnhealthy
			check.Message = "Worker pool closed"
		} else {
			check.Status = StatusHealthy
			check.Message = "Worker pool running"
		}
		return check
	}
}

// StreamCheck reports open layout streams. It degrades above limit; a
// limit of zero never degrades.
func StreamCheck(active func() int64, limit int64) CheckFunc {
	return func() Check {
		n := active()
		check := Check{
			Status:  StatusHealthy,
			Details: map[string]any{"active": n},
		}
		if limit > 0 && n > limit {
			check.Status = StatusDegraded
			check.Message = "Many open streams"
		}
		return check
	}
}

// MemoryCheck degrades when heap use passes 90% of memory obtained from
// the OS
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		alloc, sys := getUsage()
		check := Check{
			Status: StatusHealthy,
			Details: map[string]any{
				"alloc_bytes": alloc,
				"sys_bytes":   sys,
			},
		}
		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}

// RuntimeMemory reads heap allocation and OS memory from the runtime
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, m.Sys
}
