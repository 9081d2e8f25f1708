package interp

import (
	"github.com/cbegin/abcscore-go/internal/rational"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

// Config holds the values a tune starts from when its header leaves them
// out.
type Config struct {
	DefaultMeter semantic.Meter
	DefaultKey   semantic.KeySignature
	DefaultClef  semantic.Clef
	// DefaultVoice names the voice used by tunes that never declare one.
	DefaultVoice string
}

func DefaultConfig() Config {
	return Config{
		DefaultMeter: semantic.Meter{
			Type:  semantic.MeterCommonTime,
			Value: []rational.Rational{rational.New(4, 4)},
		},
		DefaultKey:   semantic.CMajor(),
		DefaultClef:  semantic.DefaultClef(),
		DefaultVoice: "default",
	}
}
