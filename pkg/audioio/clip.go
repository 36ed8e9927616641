package audioio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// Clip errors.
var (
	// ErrNotWAV is returned when a buffer does not carry a RIFF/WAVE header.
	ErrNotWAV = errors.New("audioio: not a WAV file")

	// ErrUnsupportedWAV is returned for WAV encodings other than integer PCM.
	ErrUnsupportedWAV = errors.New("audioio: unsupported WAV encoding")
)

// Clip is a captured audio utterance: a PCM sample buffer with known
// channel count, sample width and frame rate. Clips are created once per
// turn by the capture path and treated as read-only afterwards.
type Clip struct {
	// Channels is the channel count (1 for mono).
	Channels int

	// SampleWidth is the width of one sample in bytes (2 for PCM16).
	SampleWidth int

	// FrameRate is the sample rate in Hz.
	FrameRate int

	// Format is the container tag sent to recognition services
	// (wav, pcm, amr, m4a). Captured clips are "wav".
	Format string

	// Data holds the raw little-endian PCM samples, without container
	// headers.
	Data []byte
}

// FrameCount returns the number of PCM frames in the clip.
func (c *Clip) FrameCount() int {
	bytesPerFrame := c.SampleWidth * c.Channels
	if bytesPerFrame == 0 {
		return 0
	}
	return len(c.Data) / bytesPerFrame
}

// Seconds returns the clip duration in seconds.
func (c *Clip) Seconds() float64 {
	if c.FrameRate == 0 {
		return 0
	}
	return float64(c.FrameCount()) / float64(c.FrameRate)
}

// Duration returns the clip duration.
func (c *Clip) Duration() time.Duration {
	return time.Duration(c.Seconds() * float64(time.Second))
}

// Samples returns the clip data as int16 samples.
// Only meaningful for 16-bit clips.
func (c *Clip) Samples() []int16 {
	return BytesToSamples(c.Data)
}

// NewClip builds a mono PCM16 clip from samples at the given rate.
func NewClip(samples []int16, rate int) *Clip {
	return &Clip{
		Channels:    1,
		SampleWidth: 2,
		FrameRate:   rate,
		Format:      "wav",
		Data:        SamplesToBytes(samples),
	}
}

// EncodeWAV serializes the clip as a RIFF/WAVE PCM file.
// This is the byte stream sent to recognition services and written to
// disk for upload collaborators.
func (c *Clip) EncodeWAV() []byte {
	dataLen := len(c.Data)
	byteRate := c.FrameRate * c.Channels * c.SampleWidth
	blockAlign := c.Channels * c.SampleWidth

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(c.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(c.FrameRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(c.SampleWidth*8))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(c.Data)
	return buf.Bytes()
}

// DecodeWAV parses a RIFF/WAVE PCM buffer into a Clip.
func DecodeWAV(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	clip := &Clip{Format: "wav"}
	var haveFmt, haveData bool

	// Walk the chunk list; fmt and data are the only chunks we need.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("audioio: truncated WAV chunk %q", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("audioio: short fmt chunk (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 { // integer PCM only
				return nil, ErrUnsupportedWAV
			}
			clip.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			clip.FrameRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			clip.SampleWidth = int(binary.LittleEndian.Uint16(data[body+14:body+16])) / 8
			haveFmt = true
		case "data":
			clip.Data = data[body : body+size]
			haveData = true
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if !haveFmt || !haveData {
		return nil, ErrNotWAV
	}
	return clip, nil
}

// LoadWAV reads a WAV file from disk.
func LoadWAV(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeWAV(data)
}

// SaveWAV writes the clip to disk as a WAV file.
func (c *Clip) SaveWAV(path string) error {
	return os.WriteFile(path, c.EncodeWAV(), 0o644)
}
