package fusion

import "github.com/born-ml/fusion/internal/envconfig"

// FuseSettings are the policy knobs of a fused kernel.
// The input planner only reads Inplace.
type FuseSettings struct {
	// Broadcast allows inputs whose shape differs from the reference shape.
	Broadcast bool
	// OutputShapeUpdates allows outputs to be reshaped after the kernel runs.
	OutputShapeUpdates bool
	// Inplace allows outputs to be written into input buffers.
	Inplace bool
	// Vectorization allows vectorized reads and writes.
	Vectorization bool
}

// DefaultSettings enables every optimization.
func DefaultSettings() FuseSettings {
	return FuseSettings{
		Broadcast:          true,
		OutputShapeUpdates: true,
		Inplace:            true,
		Vectorization:      true,
	}
}

// SettingsFromEnv returns DefaultSettings overridden by BORN_FUSION_* variables.
func SettingsFromEnv() FuseSettings {
	s := DefaultSettings()
	s.Inplace = envconfig.FusionInplace()
	s.Broadcast = envconfig.FusionBroadcast()
	s.Vectorization = envconfig.FusionVectorization()
	return s
}
