// Package envconfig reads Born fusion configuration from the environment.
package envconfig

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Var returns an environment variable stripped of surrounding quotes and spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a reader for a boolean variable.
// Values that do not parse as a bool count as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Uint returns a reader for an unsigned variable with a default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// LogLevel returns the log level from BORN_DEBUG.
// A true value enables debug logs; an integer n selects slog.Level(-4n).
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BORN_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

var (
	// FusionInplace enables in-place reuse of input buffers (BORN_FUSION_INPLACE, default true).
	FusionInplace = func() bool { return BoolWithDefault("BORN_FUSION_INPLACE")(true) }
	// FusionBroadcast allows fused kernels to broadcast inputs (BORN_FUSION_BROADCAST, default true).
	FusionBroadcast = func() bool { return BoolWithDefault("BORN_FUSION_BROADCAST")(true) }
	// FusionVectorization enables vectorized reads in fused kernels (BORN_FUSION_VECTORIZATION, default true).
	FusionVectorization = func() bool { return BoolWithDefault("BORN_FUSION_VECTORIZATION")(true) }
	// PlanWorkers bounds how many fusion groups are planned at once (BORN_PLAN_WORKERS).
	PlanWorkers = Uint("BORN_PLAN_WORKERS", uint(runtime.NumCPU()))
)

// EnvVar describes one configuration variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every configuration variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BORN_DEBUG":                {"BORN_DEBUG", LogLevel(), "Show additional debug information (e.g. BORN_DEBUG=1)"},
		"BORN_FUSION_INPLACE":       {"BORN_FUSION_INPLACE", FusionInplace(), "Allow fused kernels to write outputs into input buffers"},
		"BORN_FUSION_BROADCAST":     {"BORN_FUSION_BROADCAST", FusionBroadcast(), "Allow fused kernels to broadcast inputs"},
		"BORN_FUSION_VECTORIZATION": {"BORN_FUSION_VECTORIZATION", FusionVectorization(), "Allow vectorized reads in fused kernels"},
		"BORN_PLAN_WORKERS":         {"BORN_PLAN_WORKERS", PlanWorkers(), "Maximum number of fusion groups planned concurrently"},
	}
}

// Values returns the configuration as printable strings.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = formatValue(v.Value)
	}
	return vals
}

func formatValue(v any) string {
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case slog.Level:
		return v.String()
	default:
		return ""
	}
}
