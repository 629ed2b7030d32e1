package config

import "runtime"

// HostOS maps the running platform to the OS identifiers used in pipeline
// declarations and cache keys.
func HostOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	default:
		return runtime.GOOS
	}
}
