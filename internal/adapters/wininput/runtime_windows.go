//go:build windows

package wininput

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"overlayinput/internal/core/overlay"

	"golang.org/x/sys/windows"
)

const (
	wmInput = 0x00FF
	wmQuit  = 0x0012

	pmRemove    = 0x0001
	qsAllInput  = 0x04FF
	waitTimeout = 0x00000102
	waitFailed  = 0xFFFFFFFF

	ridInput         = 0x10000003
	ridiDeviceName   = 0x20000007
	rimTypeMouse     = 0
	rimTypeKeyboard  = 1
	ridevRemove      = 0x00000001
	ridevInputSink   = 0x00000100
	usagePageGeneric = 0x01
	usageMouse       = 0x02
	usageKeyboard    = 0x06

	mouseMoveAbsolute = 0x0001

	errorClassAlreadyExists = 1410

	sinkClassName = "OverlayInputRawSink"
)

// HWND_MESSAGE, (HWND)-3.
var hwndMessage = ^uintptr(2)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassExW          = user32.NewProc("RegisterClassExW")
	procUnregisterClassW          = user32.NewProc("UnregisterClassW")
	procCreateWindowExW           = user32.NewProc("CreateWindowExW")
	procDestroyWindow             = user32.NewProc("DestroyWindow")
	procDefWindowProcW            = user32.NewProc("DefWindowProcW")
	procRegisterRawInputDevices   = user32.NewProc("RegisterRawInputDevices")
	procGetRawInputData           = user32.NewProc("GetRawInputData")
	procGetRawInputDeviceList     = user32.NewProc("GetRawInputDeviceList")
	procGetRawInputDeviceInfoW    = user32.NewProc("GetRawInputDeviceInfoW")
	procMsgWaitForMultipleObjects = user32.NewProc("MsgWaitForMultipleObjects")
	procPeekMessageW              = user32.NewProc("PeekMessageW")
	procTranslateMessage          = user32.NewProc("TranslateMessage")
	procDispatchMessageW          = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW        = user32.NewProc("PostThreadMessageW")
	procGetCursorPos              = user32.NewProc("GetCursorPos")

	procGetModuleHandleW   = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")

	wndProcCallback = windows.NewCallback(rawInputWndProc)

	activeMux atomic.Pointer[Multiplexer]
)

type point struct {
	X int32
	Y int32
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type rawInputDevice struct {
	UsagePage uint16
	Usage     uint16
	Flags     uint32
	Target    uintptr
}

type rawInputHeader struct {
	Type   uint32
	Size   uint32
	Device uintptr
	WParam uintptr
}

type rawMouse struct {
	Flags            uint16
	_                uint16
	ButtonFlags      uint16
	ButtonData       uint16
	RawButtons       uint32
	LastX            int32
	LastY            int32
	ExtraInformation uint32
}

type rawKeyboard struct {
	MakeCode         uint16
	Flags            uint16
	Reserved         uint16
	VKey             uint16
	Message          uint32
	ExtraInformation uint32
}

type rawInputDeviceList struct {
	Device uintptr
	Type   uint32
}

// Multiplexer receives WM_INPUT for every mouse and keyboard through a
// message-only window. Open, Wait and Close must all run on the same
// locked OS thread because the window and its queue belong to it.
type Multiplexer struct {
	logger    overlay.Logger
	instance  uintptr
	className *uint16
	hwnd      uintptr
	threadID  atomic.Uint32
	counts    overlay.SourceCounts
	keys      *keyTracker
	pending   []overlay.RawEvent
	buf       []byte
	closed    bool
}

func Open(logger overlay.Logger) (*Multiplexer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	m := &Multiplexer{logger: logger, keys: newKeyTracker()}
	if !activeMux.CompareAndSwap(nil, m) {
		return nil, fmt.Errorf("raw input multiplexer is already active")
	}

	if err := m.createSink(); err != nil {
		m.release()
		return nil, err
	}

	devices := []rawInputDevice{
		{UsagePage: usagePageGeneric, Usage: usageMouse, Flags: ridevInputSink, Target: m.hwnd},
		{UsagePage: usagePageGeneric, Usage: usageKeyboard, Flags: ridevInputSink, Target: m.hwnd},
	}
	ok, _, callErr := procRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&devices[0])),
		uintptr(len(devices)),
		unsafe.Sizeof(devices[0]),
	)
	if ok == 0 {
		m.release()
		return nil, fmt.Errorf("%w: %v", ErrRawInputRegistration, callErr)
	}

	threadID, _, _ := procGetCurrentThreadID.Call()
	m.threadID.Store(uint32(threadID))

	m.counts = countDevices(logger)
	return m, nil
}

func (m *Multiplexer) createSink() error {
	instance, _, _ := procGetModuleHandleW.Call(0)
	m.instance = instance

	className, err := windows.UTF16PtrFromString(sinkClassName)
	if err != nil {
		return err
	}
	m.className = className

	wc := wndClassEx{
		WndProc:   wndProcCallback,
		Instance:  instance,
		ClassName: className,
	}
	wc.Size = uint32(unsafe.Sizeof(wc))
	atom, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	if atom == 0 && !errors.Is(callErr, syscall.Errno(errorClassAlreadyExists)) {
		return fmt.Errorf("failed to register raw input window class: %w", callErr)
	}

	title, _ := windows.UTF16PtrFromString("overlayinput")
	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		0,
		0, 0, 0, 0,
		hwndMessage,
		0,
		instance,
		0,
	)
	if hwnd == 0 {
		return fmt.Errorf("failed to create raw input window: %w", callErr)
	}
	m.hwnd = hwnd
	return nil
}

func (m *Multiplexer) Counts() overlay.SourceCounts {
	return m.counts
}

// Wait dispatches queued messages, and if none carried input, sleeps in
// MsgWaitForMultipleObjects until new input arrives or timeout elapses.
func (m *Multiplexer) Wait(timeout time.Duration) (overlay.Cycle, error) {
	if m.closed {
		return overlay.Cycle{}, overlay.ErrSourceClosed
	}
	m.pending = nil

	if m.pump() {
		return overlay.Cycle{}, overlay.ErrSourceClosed
	}
	if len(m.pending) > 0 {
		return overlay.Cycle{Events: m.pending}, nil
	}

	ret, _, callErr := procMsgWaitForMultipleObjects.Call(0, 0, 0, uintptr(timeout.Milliseconds()), qsAllInput)
	switch uint32(ret) {
	case waitTimeout:
		return overlay.Cycle{TimedOut: true}, nil
	case waitFailed:
		return overlay.Cycle{}, fmt.Errorf("MsgWaitForMultipleObjects failed: %w", callErr)
	}

	if m.pump() {
		return overlay.Cycle{}, overlay.ErrSourceClosed
	}
	return overlay.Cycle{Events: m.pending}, nil
}

// pump drains the thread's message queue and reports whether WM_QUIT was
// seen.
func (m *Multiplexer) pump() bool {
	var msg message
	for {
		ret, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, pmRemove)
		if ret == 0 {
			return false
		}
		if msg.Message == wmQuit {
			return true
		}
		_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

// Interrupt wakes a blocked Wait from any goroutine; the next Wait reports
// ErrSourceClosed.
func (m *Multiplexer) Interrupt() {
	threadID := m.threadID.Load()
	if threadID != 0 {
		_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
	}
}

func (m *Multiplexer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	devices := []rawInputDevice{
		{UsagePage: usagePageGeneric, Usage: usageMouse, Flags: ridevRemove},
		{UsagePage: usagePageGeneric, Usage: usageKeyboard, Flags: ridevRemove},
	}
	_, _, _ = procRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&devices[0])),
		uintptr(len(devices)),
		unsafe.Sizeof(devices[0]),
	)
	m.release()
	return nil
}

func (m *Multiplexer) release() {
	if m.hwnd != 0 {
		_, _, _ = procDestroyWindow.Call(m.hwnd)
		m.hwnd = 0
	}
	if m.className != nil {
		_, _, _ = procUnregisterClassW.Call(uintptr(unsafe.Pointer(m.className)), m.instance)
		m.className = nil
	}
	activeMux.CompareAndSwap(m, nil)
}

func rawInputWndProc(hwnd, msg, wParam, lParam uintptr) uintptr {
	if uint32(msg) == wmInput {
		if m := activeMux.Load(); m != nil && m.hwnd == hwnd {
			m.handleRawInput(lParam)
		}
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
	return ret
}

func (m *Multiplexer) handleRawInput(handle uintptr) {
	headerSize := unsafe.Sizeof(rawInputHeader{})

	var size uint32
	_, _, _ = procGetRawInputData.Call(handle, ridInput, 0, uintptr(unsafe.Pointer(&size)), headerSize)
	if size < uint32(headerSize) {
		return
	}
	if uint32(cap(m.buf)) < size {
		m.buf = make([]byte, size)
	}
	buf := m.buf[:size]

	ret, _, _ := procGetRawInputData.Call(
		handle,
		ridInput,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		headerSize,
	)
	if uint32(ret) == ^uint32(0) || uint32(ret) < uint32(headerSize) {
		return
	}

	header := (*rawInputHeader)(unsafe.Pointer(&buf[0]))
	data := unsafe.Pointer(&buf[headerSize])
	switch header.Type {
	case rimTypeMouse:
		m.handleMouse((*rawMouse)(data))
	case rimTypeKeyboard:
		kb := (*rawKeyboard)(data)
		m.pending = m.keys.decodeKeyboard(kb.VKey, kb.MakeCode, kb.Flags, m.pending)
	}
}

func (m *Multiplexer) handleMouse(mouse *rawMouse) {
	if mouse.LastX != 0 || mouse.LastY != 0 || mouse.Flags&mouseMoveAbsolute != 0 {
		// Raw deltas ignore pointer acceleration, so the OS cursor is the
		// position that matches what the user sees.
		var pt point
		if ok, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ok != 0 {
			m.pending = append(m.pending, overlay.AbsoluteMotion(overlay.SourceMouse, int(pt.X), int(pt.Y)))
		}
	}
	m.pending = decodeMouseButtons(mouse.ButtonFlags, m.pending)
}

func rawInputDevices() ([]rawInputDeviceList, error) {
	var count uint32
	entrySize := unsafe.Sizeof(rawInputDeviceList{})
	ret, _, callErr := procGetRawInputDeviceList.Call(0, uintptr(unsafe.Pointer(&count)), entrySize)
	if uint32(ret) == ^uint32(0) {
		return nil, fmt.Errorf("GetRawInputDeviceList failed: %w", callErr)
	}
	if count == 0 {
		return nil, nil
	}
	list := make([]rawInputDeviceList, count)
	ret, _, callErr = procGetRawInputDeviceList.Call(
		uintptr(unsafe.Pointer(&list[0])),
		uintptr(unsafe.Pointer(&count)),
		entrySize,
	)
	if uint32(ret) == ^uint32(0) {
		return nil, fmt.Errorf("GetRawInputDeviceList failed: %w", callErr)
	}
	return list[:ret], nil
}

func countDevices(logger overlay.Logger) overlay.SourceCounts {
	list, err := rawInputDevices()
	if err != nil {
		logger.Warn("Counting raw input devices failed", "err", err)
		return overlay.SourceCounts{Mice: 1, Keyboards: 1}
	}
	var counts overlay.SourceCounts
	for _, dev := range list {
		switch dev.Type {
		case rimTypeMouse:
			counts.Add(overlay.SourceMouse)
		case rimTypeKeyboard:
			counts.Add(overlay.SourceKeyboard)
		}
	}
	return counts
}

func deviceName(handle uintptr) string {
	var size uint32
	_, _, _ = procGetRawInputDeviceInfoW.Call(handle, ridiDeviceName, 0, uintptr(unsafe.Pointer(&size)))
	if size == 0 {
		return ""
	}
	name := make([]uint16, size)
	ret, _, _ := procGetRawInputDeviceInfoW.Call(handle, ridiDeviceName, uintptr(unsafe.Pointer(&name[0])), uintptr(unsafe.Pointer(&size)))
	if int32(ret) <= 0 {
		return ""
	}
	return windows.UTF16ToString(name)
}

func ListInputDevices() ([]DeviceInfo, error) {
	list, err := rawInputDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]DeviceInfo, 0, len(list))
	for _, dev := range list {
		var class overlay.SourceClass
		switch dev.Type {
		case rimTypeMouse:
			class = overlay.SourceMouse
		case rimTypeKeyboard:
			class = overlay.SourceKeyboard
		default:
			continue
		}
		devices = append(devices, DeviceInfo{Path: deviceName(dev.Device), Class: class})
	}
	return devices, nil
}
