//go:build windows

package report

import (
	"strconv"

	"golang.org/x/sys/windows"
)

func osRelease() string {
	v := windows.RtlGetVersion()
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(v.MajorVersion), 10)
}
