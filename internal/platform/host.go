package platform

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// HostSummary describes the running system for debug logs, e.g.
// "ubuntu 24.04 (linux 6.8.0, amd64)". Lookup failures fall back to runtime
// values.
func HostSummary() string {
	info, err := host.Info()
	if err != nil {
		return runtime.GOOS + "/" + runtime.GOARCH
	}
	return summarize(info)
}

func summarize(info *host.InfoStat) string {
	var b strings.Builder
	if info.Platform != "" {
		b.WriteString(info.Platform)
		if info.PlatformVersion != "" {
			b.WriteString(" " + info.PlatformVersion)
		}
		b.WriteString(" (")
	}
	b.WriteString(info.OS)
	if info.KernelVersion != "" {
		b.WriteString(" " + info.KernelVersion)
	}
	if info.KernelArch != "" {
		b.WriteString(", " + info.KernelArch)
	}
	if info.Platform != "" {
		b.WriteString(")")
	}
	return b.String()
}
