//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"overlayinput/internal/core/overlay"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

const batchQueueSize = 256

type Config struct {
	DeviceGlob string
	LegacyMice LegacyMiceMode
	MicePath   string
}

type source struct {
	dev   *evdev.InputDevice
	path  string
	name  string
	class overlay.SourceClass
}

// Multiplexer reads every classified evdev device, plus optionally the
// legacy aggregated mice stream, and hands their decoded events to the
// engine one cycle at a time.
type Multiplexer struct {
	sources  []source
	mice     *os.File
	counts   overlay.SourceCounts
	denied   int
	logger   overlay.Logger
	batches  chan []overlay.RawEvent
	stopCh   chan struct{}
	stopOnce sync.Once

	readersWG sync.WaitGroup
}

// Open discovers and opens input sources. Sources that cannot be opened are
// logged and skipped; finding none is not an error.
func Open(cfg Config, logger overlay.Logger) (*Multiplexer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	mode := cfg.LegacyMice
	if mode == "" {
		mode = LegacyMiceAuto
	}
	micePath := cfg.MicePath
	if micePath == "" {
		micePath = DefaultMicePath
	}

	paths, err := devicePaths(cfg.DeviceGlob)
	if err != nil {
		return nil, err
	}

	m := &Multiplexer{
		logger:  logger,
		batches: make(chan []overlay.RawEvent, batchQueueSize),
		stopCh:  make(chan struct{}),
	}

	for _, path := range paths {
		dev, err := openInputDevice(path)
		if err != nil {
			if isPermissionError(err) {
				m.denied++
			}
			logger.Debug("Skipping input device", "path", path, "err", err)
			continue
		}
		name, _ := dev.Name()
		class := classifyDevice(dev)
		if class == 0 {
			_ = dev.Close()
			continue
		}
		if err := dev.NonBlock(); err != nil {
			logger.Warn("Failed to set nonblocking mode, skipping device", "path", path, "err", err)
			_ = dev.Close()
			continue
		}
		m.sources = append(m.sources, source{dev: dev, path: path, name: name, class: class})
		m.counts.Add(class)
		logger.Info("Using input device", "path", path, "name", name, "class", class.String())
	}

	if mode == LegacyMiceAlways || (mode == LegacyMiceAuto && m.counts.Mice == 0) {
		mice, err := openMice(micePath)
		if err != nil {
			if isPermissionError(err) {
				m.denied++
			}
			logger.Debug("Legacy mice stream unavailable", "path", micePath, "err", err)
		} else {
			m.mice = mice
			m.counts.Mice++
			logger.Info("Using legacy mice stream", "path", micePath)
		}
	}

	if m.denied > 0 {
		logger.Warn("Some input devices were not readable", "denied", m.denied, "hint", DiagnosePermissions().Hint())
	}
	if len(m.sources) == 0 && m.mice == nil {
		logger.Warn("No input sources opened; only heartbeats will be emitted")
	}

	for _, src := range m.sources {
		m.readersWG.Add(1)
		go m.readLoop(src)
	}
	if m.mice != nil {
		m.readersWG.Add(1)
		go m.miceLoop(m.mice)
	}
	return m, nil
}

func openMice(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}

func (m *Multiplexer) Counts() overlay.SourceCounts {
	return m.counts
}

// Wait blocks until a source produced events or timeout elapsed, then
// drains every batch already queued so one cycle covers all ready sources.
func (m *Multiplexer) Wait(timeout time.Duration) (overlay.Cycle, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.stopCh:
		return overlay.Cycle{}, overlay.ErrSourceClosed
	case <-timer.C:
		return overlay.Cycle{TimedOut: true}, nil
	case events := <-m.batches:
		for {
			select {
			case more := <-m.batches:
				events = append(events, more...)
			default:
				return overlay.Cycle{Events: events}, nil
			}
		}
	}
}

func (m *Multiplexer) Close() error {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		for _, src := range m.sources {
			_ = src.dev.Close()
		}
		if m.mice != nil {
			_ = m.mice.Close()
		}
		m.readersWG.Wait()
	})
	return nil
}

func (m *Multiplexer) readLoop(src source) {
	defer m.readersWG.Done()

	for {
		events, err := src.dev.ReadSlice(64)
		if err != nil {
			if m.stopped() {
				return
			}
			if isDeviceClosedError(err) {
				m.logger.Warn("Input device lost", "path", src.path, "name", src.name, "err", err)
				return
			}
			if isWouldBlockError(err) {
				if !m.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			m.logger.Warn("Read failed", "path", src.path, "err", err)
			if !m.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}

		decoded := decodeEvents(src.class, events, nil)
		if len(decoded) == 0 {
			continue
		}
		if !m.publish(decoded) {
			return
		}
	}
}

func (m *Multiplexer) miceLoop(f *os.File) {
	defer m.readersWG.Done()

	var decoder miceDecoder
	buf := make([]byte, 48*micePacketSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			decoded := decoder.decode(buf[:n], nil)
			if len(decoded) > 0 && !m.publish(decoded) {
				return
			}
		}
		if err == nil {
			continue
		}
		if m.stopped() || errors.Is(err, os.ErrClosed) {
			return
		}
		if isWouldBlockError(err) || errors.Is(err, io.EOF) {
			if !m.sleepWithStop(10 * time.Millisecond) {
				return
			}
			continue
		}
		m.logger.Warn("Legacy mice read failed", "err", err)
		if !m.sleepWithStop(100 * time.Millisecond) {
			return
		}
	}
}

func (m *Multiplexer) publish(events []overlay.RawEvent) bool {
	select {
	case m.batches <- events:
		return true
	case <-m.stopCh:
		return false
	}
}

func (m *Multiplexer) stopped() bool {
	select {
	case <-m.stopCh:
		return true
	default:
		return false
	}
}

func (m *Multiplexer) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-m.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// Describe formats the opened sources for diagnostics.
func (m *Multiplexer) Describe() string {
	parts := make([]string, 0, len(m.sources)+1)
	for _, src := range m.sources {
		parts = append(parts, fmt.Sprintf("%s (%s, %s)", src.path, src.name, src.class))
	}
	if m.mice != nil {
		parts = append(parts, m.mice.Name()+" (legacy mice)")
	}
	return strings.Join(parts, ", ")
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV) || errors.Is(err, os.ErrClosed)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}
