package domain

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
)

// DeviceIdentity identifies this install for sync provenance.
// It is derived once at startup and is not used for authorization.
type DeviceIdentity struct {
	// Platform is the operating system (darwin, linux, windows).
	Platform string `json:"platform"`
	// Hostname is the machine's host name.
	Hostname string `json:"hostname"`
	// Username is the local account name.
	Username string `json:"username"`
	// InstallID is a stable per-install UUID assigned on first run.
	InstallID string `json:"install_id,omitempty"`
}

// Label returns the human-readable device string stamped into sync
// metadata, e.g. "alice@studio (darwin)".
func (d DeviceIdentity) Label() string {
	return fmt.Sprintf("%s@%s (%s)", d.Username, d.Hostname, d.Platform)
}

// CurrentDevice derives the identity of the running install.
// Lookup failures degrade to "unknown" rather than failing startup.
func CurrentDevice(installID string) DeviceIdentity {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	return DeviceIdentity{
		Platform:  runtime.GOOS,
		Hostname:  hostname,
		Username:  username,
		InstallID: installID,
	}
}
