//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"overlayinput/internal/core/overlay"

	evdev "github.com/holoplot/go-evdev"
)

const DefaultDeviceGlob = "/dev/input/event*"

type DeviceInfo struct {
	Path      string
	Name      string
	Class     overlay.SourceClass
	IsVirtual bool
}

// ListInputDevices describes every event device matching glob that can be
// opened, including the ones that would be ignored by classification.
func ListInputDevices(glob string) ([]DeviceInfo, error) {
	paths, err := devicePaths(glob)
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		dev, err := openInputDevice(path)
		if err != nil {
			continue
		}

		name, _ := dev.Name()
		devices = append(devices, DeviceInfo{
			Path:      path,
			Name:      name,
			Class:     classifyDevice(dev),
			IsVirtual: deviceIsVirtual(dev, name),
		})
		_ = dev.Close()
	}

	return devices, nil
}

func devicePaths(glob string) ([]string, error) {
	if strings.TrimSpace(glob) == "" {
		glob = DefaultDeviceGlob
	}
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("invalid device glob %q: %w", glob, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

// classifyDevice returns SourceMouse for devices with relative X and Y
// axes, SourceKeyboard for devices that expose the home-row letters, and
// SourceBoth when both hold. Zero means the device is not interesting.
func classifyDevice(device *evdev.InputDevice) overlay.SourceClass {
	mouse := deviceHasRelativeXY(device)
	keyboard := deviceHasKeys(device, evdev.KEY_A, evdev.KEY_S, evdev.KEY_D, evdev.KEY_F)
	switch {
	case mouse && keyboard:
		return overlay.SourceBoth
	case mouse:
		return overlay.SourceMouse
	case keyboard:
		return overlay.SourceKeyboard
	default:
		return 0
	}
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func deviceHasRelativeXY(device *evdev.InputDevice) bool {
	var hasRelX, hasRelY bool
	for _, code := range device.CapableEvents(evdev.EV_REL) {
		if code == evdev.REL_X {
			hasRelX = true
		}
		if code == evdev.REL_Y {
			hasRelY = true
		}
	}
	return hasRelX && hasRelY
}

func deviceHasKeys(device *evdev.InputDevice, codes ...evdev.EvCode) bool {
	supported := make(map[evdev.EvCode]struct{})
	for _, c := range device.CapableEvents(evdev.EV_KEY) {
		supported[c] = struct{}{}
	}
	for _, code := range codes {
		if _, ok := supported[code]; !ok {
			return false
		}
	}
	return true
}
