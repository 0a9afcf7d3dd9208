package tags

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2/flac"
	"github.com/llehouerou/go-m4a"
	"github.com/llehouerou/go-mp3"
)

// ErrUnsupportedFormat is returned for files Duration cannot measure.
var ErrUnsupportedFormat = errors.New("unsupported format")

type durationReader func(f *os.File) (time.Duration, error)

var durationReaders = map[string]durationReader{
	ExtMP3:  mp3Duration,
	ExtFLAC: flacDuration,
	ExtOPUS: opusDuration,
	ExtOGG:  vorbisDuration,
	ExtOGA:  vorbisDuration,
	ExtM4A:  m4aDuration,
	ExtMP4:  m4aDuration,
}

// Duration reads the stream length of a music file. Only FLAC files whose
// STREAMINFO cannot be parsed are decoded.
func Duration(path string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := durationReaders[ext]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d, err := read(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ext, err)
	}
	return d, nil
}

func samples(n int64, rate int) time.Duration {
	return time.Duration(float64(n) / float64(rate) * float64(time.Second))
}

func mp3Duration(f *os.File) (time.Duration, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}
	if dec.SampleRate() <= 0 {
		return 0, errors.New("invalid sample rate")
	}
	return samples(int64(max(dec.SampleCount(), 0)), int(dec.SampleRate())), nil
}

func flacDuration(f *os.File) (time.Duration, error) {
	if parsed, err := goflac.ParseFile(f.Name()); err == nil {
		for _, block := range parsed.Meta {
			if block.Type != goflac.StreamInfo {
				continue
			}
			if rate, total, ok := streamInfo(block.Data); ok {
				return samples(total, rate), nil
			}
		}
	}

	// Files with a prepended ID3v2 tag trip go-flac; decode past it.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if err := skipID3v2(f); err != nil {
		return 0, err
	}
	stream, format, err := flac.Decode(f)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	return format.SampleRate.D(stream.Len()), nil
}

// streamInfo unpacks the 20-bit sample rate at byte 10 and the 36-bit
// sample count at byte 13 of a STREAMINFO block.
func streamInfo(data []byte) (rate int, total int64, ok bool) {
	if len(data) < 18 {
		return 0, 0, false
	}
	packed := binary.BigEndian.Uint64(data[10:18])
	rate = int(packed >> 44)
	total = int64(packed & (1<<36 - 1))
	return rate, total, rate > 0
}

// Opus granule positions always count 48 kHz samples.
func opusDuration(f *os.File) (time.Duration, error) {
	return oggDuration(f, 48000)
}

func vorbisDuration(f *os.File) (time.Duration, error) {
	rate, err := vorbisSampleRate(f)
	if err != nil {
		return 0, err
	}
	return oggDuration(f, rate)
}

// oggDuration reads the granule position of the last page in the file's
// final 64 KiB.
func oggDuration(f *os.File, rate int) (time.Duration, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	tail := make([]byte, min(64<<10, fi.Size()))
	if _, err := f.ReadAt(tail, fi.Size()-int64(len(tail))); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	i := bytes.LastIndex(tail, []byte("OggS"))
	if i < 0 || i+14 > len(tail) {
		return 0, errors.New("no ogg page found")
	}
	granule := int64(binary.LittleEndian.Uint64(tail[i+6:]))
	if granule <= 0 {
		return 0, errors.New("no granule position")
	}
	return samples(granule, rate), nil
}

func m4aDuration(f *os.File) (time.Duration, error) {
	container, err := m4a.Open(f)
	if err != nil {
		return 0, err
	}
	return container.Duration(), nil
}

// vorbisSampleRate reads the rate from the identification header: packet
// type 1, "vorbis", a 4-byte version, the channel count, then the rate.
func vorbisSampleRate(r io.ReaderAt) (int, error) {
	head := make([]byte, 128)
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	head = head[:n]

	i := bytes.Index(head, []byte("\x01vorbis"))
	if i < 0 || i+16 > len(head) {
		return 0, errors.New("no vorbis identification header")
	}
	rate := int(binary.LittleEndian.Uint32(head[i+12:]))
	if rate <= 0 {
		return 0, errors.New("invalid sample rate")
	}
	return rate, nil
}

// skipID3v2 leaves r positioned after a leading ID3v2 tag, or at the start
// when there is none.
func skipID3v2(r io.ReadSeeker) error {
	var header [10]byte
	if _, err := io.ReadFull(r, header[:]); err != nil || string(header[:3]) != id3Magic {
		_, serr := r.Seek(0, io.SeekStart)
		return serr
	}
	// Syncsafe: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err := r.Seek(10+size, io.SeekStart)
	return err
}
