package monitor

import "strings"

// serviceAccounts are the owners treated as the operating system itself.
var serviceAccounts = map[string]bool{
	"system":          true,
	"local service":   true,
	"network service": true,
	"root":            true,
}

// knownSystemDaemons are owned by the system even when run under another user.
var knownSystemDaemons = map[string]bool{
	"systemd":         true,
	"init":            true,
	"rsyslogd":        true,
	"journald":        true,
	"udevd":           true,
	"dbus-daemon":     true,
	"polkitd":         true,
	"accounts-daemon": true,
	"avahi-daemon":    true,
	"networkmanager":  true,
	"wininit.exe":     true,
	"csrss.exe":       true,
	"smss.exe":        true,
	"services.exe":    true,
	"lsass.exe":       true,
}

// IsSystemOwned reports whether a process belongs to the operating system.
// The result only annotates output; it never affects termination.
func IsSystemOwned(name, owner, exe string) bool {
	o := strings.ToLower(strings.TrimSpace(owner))
	if i := strings.LastIndex(o, `\`); i >= 0 {
		o = o[i+1:]
	}
	if serviceAccounts[o] {
		return true
	}
	if knownSystemDaemons[strings.ToLower(name)] {
		return true
	}
	if exe != "" {
		dir := strings.ToLower(strings.ReplaceAll(exe, `\`, "/"))
		if strings.HasPrefix(dir, "c:/windows/system32/") {
			return true
		}
	}
	return false
}
