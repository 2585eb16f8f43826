package pipeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// ErrUnknownDuration is returned when the length of a clip cannot be
// determined.
var ErrUnknownDuration = errors.New("unable to determine audio duration")

// AudioDuration returns the playing time of an encoded clip. ext selects the
// container (".wav" or ".mp3").
func AudioDuration(data []byte, ext string) (time.Duration, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return wavDuration(data)
	case ".mp3":
		return mp3Duration(data)
	default:
		return 0, fmt.Errorf("%w: unsupported format %q", ErrUnknownDuration, ext)
	}
}

// wavDuration walks the RIFF chunks for the fmt byte rate and the data size.
func wavDuration(data []byte) (time.Duration, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnknownDuration)
	}

	var byteRate uint32
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if body+12 > len(data) {
				return 0, fmt.Errorf("%w: truncated fmt chunk", ErrUnknownDuration)
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, fmt.Errorf("%w: data chunk before fmt chunk", ErrUnknownDuration)
			}
			// streamed files carry a placeholder size
			if size <= 0 || body+size > len(data) {
				size = len(data) - body
			}
			return time.Duration(float64(size) / float64(byteRate) * float64(time.Second)), nil
		}

		off = body + size + size%2
	}
	return 0, fmt.Errorf("%w: no data chunk", ErrUnknownDuration)
}

// mp3Duration decodes the frame index; go-mp3 always outputs 16-bit stereo.
func mp3Duration(data []byte) (dur time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			dur, err = 0, fmt.Errorf("%w: corrupt mp3 stream", ErrUnknownDuration)
		}
	}()

	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownDuration, err)
	}
	length := d.Length()
	if length <= 0 || d.SampleRate() <= 0 {
		return 0, fmt.Errorf("%w: empty mp3 stream", ErrUnknownDuration)
	}
	const bytesPerFrame = 4
	seconds := float64(length) / float64(d.SampleRate()*bytesPerFrame)
	return time.Duration(seconds * float64(time.Second)), nil
}
