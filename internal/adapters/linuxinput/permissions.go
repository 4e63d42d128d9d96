//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"os/user"
	"slices"
	"strconv"
	"strings"

	"github.com/syndtr/gocapability/capability"
	"golang.org/x/sys/unix"
)

// PermissionReport summarises why this process can or cannot read
// /dev/input.
type PermissionReport struct {
	EUID           int
	InInputGroup   bool
	DACReadSearch  bool
	DACOverride    bool
	CapabilityErr  error
	InputGroupSeen bool
}

// CanReadDevices reports whether any of the usual grants is present.
func (r PermissionReport) CanReadDevices() bool {
	return r.EUID == 0 || r.InInputGroup || r.DACReadSearch || r.DACOverride
}

func (r PermissionReport) Hint() string {
	if r.CanReadDevices() {
		return "Input devices should be readable; check udev rules for /dev/input/event*."
	}
	var b strings.Builder
	b.WriteString("Cannot read /dev/input: ")
	if r.InputGroupSeen {
		fmt.Fprintf(&b, "add the user to the 'input' group (sudo usermod -aG input %s) and log in again", currentUserName())
	} else {
		b.WriteString("install a udev rule granting read access to /dev/input/event*")
	}
	b.WriteString(", or grant cap_dac_read_search to the binary (sudo setcap cap_dac_read_search+ep ")
	if exe, err := os.Executable(); err == nil {
		b.WriteString(exe)
	} else {
		b.WriteString("<binary>")
	}
	b.WriteString(").")
	return b.String()
}

func DiagnosePermissions() PermissionReport {
	report := PermissionReport{EUID: os.Geteuid()}

	caps, err := capability.NewPid2(0)
	if err == nil {
		err = caps.Load()
	}
	if err != nil {
		report.CapabilityErr = err
	} else {
		report.DACReadSearch = caps.Get(capability.EFFECTIVE, capability.CAP_DAC_READ_SEARCH)
		report.DACOverride = caps.Get(capability.EFFECTIVE, capability.CAP_DAC_OVERRIDE)
	}

	if group, err := user.LookupGroup("input"); err == nil {
		report.InputGroupSeen = true
		if gid, err := strconv.Atoi(group.Gid); err == nil {
			report.InInputGroup = processHasGroup(gid)
		}
	}
	return report
}

func processHasGroup(gid int) bool {
	if unix.Getegid() == gid {
		return true
	}
	groups, err := unix.Getgroups()
	if err != nil {
		return false
	}
	return slices.Contains(groups, gid)
}

func currentUserName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "$USER"
}
