package report

import (
	"runtime"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Platform returns the operating system name and release, e.g.
// "Linux 6.8.0-45-generic".
func Platform() string {
	name := cases.Title(language.English).String(runtime.GOOS)
	if release := osRelease(); release != "" {
		return name + " " + release
	}
	return name
}
