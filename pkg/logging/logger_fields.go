package logging

import (
	"fmt"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Path(p string) Field {
	return String("path", p)
}

// Layout-specific fields

func SimulationID(id string) Field {
	return String("simulation_id", id)
}

func Tick(n int) Field {
	return Int("tick", n)
}

func NodeCount(n int) Field {
	return Int("nodes", n)
}

func LinkCount(n int) Field {
	return Int("links", n)
}

// Viewport renders dimensions as "WxH".
func Viewport(width, height float64) Field {
	return String("viewport", fmt.Sprintf("%gx%g", width, height))
}
