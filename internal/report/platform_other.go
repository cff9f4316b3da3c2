//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package report

func osRelease() string { return "" }
