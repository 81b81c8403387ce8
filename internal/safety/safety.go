package safety

import "strings"

// Verdict is the classification of a process name against policy.
type Verdict int

const (
	Neutral Verdict = iota
	Protected
	Blacklisted
)

func (v Verdict) String() string {
	switch v {
	case Protected:
		return "Protected"
	case Blacklisted:
		return "Blacklisted"
	default:
		return "Neutral"
	}
}

// MarshalText renders the verdict by name in JSON output.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// AntiMalwareService is the OS anti-malware process. It is protected no matter
// what the policy lists say.
const AntiMalwareService = "MpDefenderCoreService.exe"

// AntiMalwareAdvisory is shown whenever termination of AntiMalwareService is
// attempted.
const AntiMalwareAdvisory = "You tried terminating the MpDefenderCoreService.exe process which is a vital " +
	"anti-virus process built into Windows. If you would like to stop this process you must disable " +
	"Windows Defender completely via settings. (NOT RECOMMENDED)"

// IsAntiMalware reports whether name is the anti-malware service.
func IsAntiMalware(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), AntiMalwareService)
}

// Classify decides the verdict for a bare process name. Protection always wins
// over the blacklist: anti-malware, then critical, then whitelist.
func Classify(name string, critical, whitelist, blacklist NameSet) Verdict {
	switch {
	case IsAntiMalware(name):
		return Protected
	case critical.Contains(name):
		return Protected
	case whitelist.Contains(name):
		return Protected
	case blacklist.Contains(name):
		return Blacklisted
	default:
		return Neutral
	}
}

// ProtectionReason explains a Protected verdict for name.
func ProtectionReason(name string, critical, whitelist NameSet) string {
	switch {
	case IsAntiMalware(name):
		return AntiMalwareAdvisory
	case critical.Contains(name):
		return "process '" + name + "' is a system-critical process"
	case whitelist.Contains(name):
		return "process '" + name + "' is on the user whitelist"
	default:
		return ""
	}
}
