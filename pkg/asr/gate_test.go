package asr

import (
	"errors"
	"strings"
	"testing"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// testClip builds a clip with the given shape; seconds of audio at the
// given rate, mono PCM16 unless overridden.
func testClip(rate int, seconds float64) *audioio.Clip {
	frames := int(float64(rate) * seconds)
	return audioio.NewClip(make([]int16, frames), rate)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		clip  *audioio.Clip
		ok    bool
	}{
		{"baidu accepts 16k 2s", BaiduRules(), testClip(16000, 2), true},
		{"baidu accepts 8k", BaiduRules(), testClip(8000, 2), true},
		{"ifly accepts 16k 2s", IflyRules(), testClip(16000, 2), true},
		{"ifly rejects 8k", IflyRules(), testClip(8000, 2), false},
		{"ifly rejects 22050", IflyRules(), testClip(22050, 2), false},
		{"baidu rejects 22050", BaiduRules(), testClip(22050, 2), false},
		{"too short", BaiduRules(), testClip(16000, 0.2), false},
		{"too long for baidu", BaiduRules(), testClip(16000, 61), false},
		{"long is fine for ifly", IflyRules(), testClip(16000, 61), true},
		{"boundary 0.3s accepted", BaiduRules(), testClip(16000, 0.3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate(tt.clip)
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want accept", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() accepted, want reject")
			}
		})
	}
}

func TestValidateRecordsEveryViolation(t *testing.T) {
	clip := &audioio.Clip{
		Channels:    2,
		SampleWidth: 1,
		FrameRate:   44100,
		Data:        make([]byte, 100), // far below minimum duration too
	}

	err := BaiduRules().Validate(clip)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %T, want *ValidationError", err)
	}
	if len(vErr.Violations) != 4 {
		t.Errorf("recorded %d violations (%v), want 4", len(vErr.Violations), vErr.Violations)
	}
	if !strings.Contains(err.Error(), "channels") {
		t.Errorf("error message %q should mention channels", err.Error())
	}

	if got := Fallback(err); got != FallbackBadAudio {
		t.Errorf("Fallback = %q, want %q", got, FallbackBadAudio)
	}
}

func TestNormalizeRate(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{8000, 8000},
		{16000, 16000},
		{22050, 16000},
		{44100, 16000},
		{11025, 8000},
		{12000, 8000},
		{12001, 16000},
	}
	for _, tt := range tests {
		if got := NormalizeRate(tt.in); got != tt.want {
			t.Errorf("NormalizeRate(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
