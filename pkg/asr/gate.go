package asr

import (
	"fmt"
	"strings"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// Rules describe a backend's audio acceptance criteria.
// The gate runs before any network request; it is the sole guard
// against spending recognition quota on malformed captures.
type Rules struct {
	// Channels is the required channel count.
	Channels int

	// SampleWidth is the required sample width in bytes.
	SampleWidth int

	// AllowedRates is the set of accepted frame rates in Hz.
	AllowedRates []int

	// MinDuration is the minimum clip length in seconds.
	MinDuration float64

	// MaxDuration is the maximum clip length in seconds.
	// Zero means unbounded.
	MaxDuration float64
}

// BaiduRules returns the acceptance rules for Baidu short speech.
func BaiduRules() Rules {
	return Rules{
		Channels:     1,
		SampleWidth:  2,
		AllowedRates: []int{8000, 16000},
		MinDuration:  0.3,
		MaxDuration:  60,
	}
}

// IflyRules returns the acceptance rules for iFlytek OST.
func IflyRules() Rules {
	return Rules{
		Channels:     1,
		SampleWidth:  2,
		AllowedRates: []int{16000},
		MinDuration:  0.3,
	}
}

// ValidationError reports every rule a clip violates.
type ValidationError struct {
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "asr: clip rejected: " + strings.Join(e.Violations, "; ")
}

// Validate checks the clip against the rules. Every violated rule is
// recorded for diagnostic logging; the clip passes only when all rules
// hold. Validate has no side effects.
func (r Rules) Validate(clip *audioio.Clip) error {
	var violations []string

	if clip.Channels != r.Channels {
		violations = append(violations,
			fmt.Sprintf("channels = %d, want %d", clip.Channels, r.Channels))
	}
	if clip.SampleWidth != r.SampleWidth {
		violations = append(violations,
			fmt.Sprintf("sample width = %d bytes, want %d", clip.SampleWidth, r.SampleWidth))
	}
	if !r.rateAllowed(clip.FrameRate) {
		violations = append(violations,
			fmt.Sprintf("frame rate = %d Hz, want one of %v", clip.FrameRate, r.AllowedRates))
	}

	dur := clip.Seconds()
	if dur < r.MinDuration {
		violations = append(violations,
			fmt.Sprintf("duration = %.2fs, want at least %.1fs", dur, r.MinDuration))
	}
	if r.MaxDuration > 0 && dur > r.MaxDuration {
		violations = append(violations,
			fmt.Sprintf("duration = %.2fs, want at most %.0fs", dur, r.MaxDuration))
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (r Rules) rateAllowed(rate int) bool {
	for _, allowed := range r.AllowedRates {
		if rate == allowed {
			return true
		}
	}
	return false
}

// NormalizeRate maps a nonstandard frame rate onto the nearest rate the
// Baidu API accepts, using a 12 kHz threshold.
func NormalizeRate(rate int) int {
	switch rate {
	case 8000, 16000:
		return rate
	}
	if rate > 12000 {
		return 16000
	}
	return 8000
}
