// Package audio captures microphone PCM on macOS by streaming ffmpeg's
// avfoundation input.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"whisperkey/internal/domain"
	"whisperkey/internal/ports"
)

// Recorder implements ports.AudioCapture. One capture at a time; Start
// while recording is an error.
type Recorder struct {
	command string

	mu      sync.Mutex
	session *captureSession
}

func NewRecorder(command string) *Recorder {
	if command == "" {
		command = "ffmpeg"
	}
	return &Recorder{command: command}
}

func (r *Recorder) Start(ctx context.Context, cfg ports.AudioConfig, onChunk func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return errors.New("capture already running")
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	device := cfg.DeviceID
	if device == "" {
		device = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", "avfoundation",
		"-i", ":" + device,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// An immediate exit means the device is missing or busy; catch it
	// here rather than returning an empty recording later.
	select {
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("ffmpeg exited before capture started: %w: %s",
				err, strings.TrimSpace(stderr.String()))
		}
		return errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	sess := &captureSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
		done:    make(chan struct{}),
	}
	go sess.buffer(onChunk)

	r.session = sess
	return nil
}

// Stop ends the capture and returns every sample buffered since Start.
func (r *Recorder) Stop() ([]int16, error) {
	r.mu.Lock()
	sess := r.session
	r.session = nil
	r.mu.Unlock()

	if sess == nil {
		return nil, errors.New("no capture running")
	}

	err := sess.stop()
	samples := decodeS16LE(sess.bytes())
	return samples, err
}

type captureSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error
	done    chan struct{}

	bufMu sync.Mutex
	buf   bytes.Buffer

	stopOnce sync.Once
	stopErr  error
}

// buffer drains stdout until ffmpeg exits, accumulating raw PCM and
// forwarding each chunk when a forwarder is set.
func (s *captureSession) buffer(onChunk func([]byte)) {
	defer close(s.done)

	chunk := make([]byte, 4096)
	for {
		n, err := s.stdout.Read(chunk)
		if n > 0 {
			s.bufMu.Lock()
			s.buf.Write(chunk[:n])
			s.bufMu.Unlock()
			if onChunk != nil {
				copied := make([]byte, n)
				copy(copied, chunk[:n])
				onChunk(copied)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *captureSession) bytes() []byte {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	return s.buf.Bytes()
}

func (s *captureSession) stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}
		<-s.done

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	// Interrupting ffmpeg mid-stream reports a nonzero exit; that is
	// the normal shutdown path, not a failure.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func decodeS16LE(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples
}

var deviceLine = regexp.MustCompile(`\[(\d+)\]\s+(.+)$`)

// Devices lists avfoundation audio inputs by parsing the device dump
// ffmpeg prints to stderr. The listing always exits nonzero, so the
// exit status is ignored when the audio section was found.
func (r *Recorder) Devices(ctx context.Context) ([]domain.Device, error) {
	cmd := exec.CommandContext(ctx, r.command,
		"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	devices := parseDeviceList(stderr.String())
	if len(devices) == 0 {
		return nil, fmt.Errorf("no audio devices found: %s", strings.TrimSpace(stderr.String()))
	}
	return devices, nil
}

func parseDeviceList(output string) []domain.Device {
	var devices []domain.Device
	inAudio := false
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "AVFoundation audio devices"):
			inAudio = true
		case strings.Contains(line, "AVFoundation video devices"):
			inAudio = false
		case inAudio:
			m := deviceLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			devices = append(devices, domain.Device{
				ID:       m[1],
				Name:     strings.TrimSpace(m[2]),
				Channels: 1,
			})
		}
	}
	return devices
}
