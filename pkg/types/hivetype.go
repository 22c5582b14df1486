package types

import (
	"path/filepath"
	"strings"
)

// HiveType identifies which well-known hive a file holds. Rules are only
// applied to hives of the matching type.
type HiveType int

const (
	HiveOther HiveType = iota
	HiveNtUser
	HiveSam
	HiveSecurity
	HiveSoftware
	HiveSystem
	HiveUsrClass
	HiveComponents
	HiveBcd
	HiveDrivers
	HiveAmcache
	HiveSyscache
)

var hiveTypeNames = map[HiveType]string{
	HiveOther:      "Other",
	HiveNtUser:     "NTUSER",
	HiveSam:        "SAM",
	HiveSecurity:   "SECURITY",
	HiveSoftware:   "SOFTWARE",
	HiveSystem:     "SYSTEM",
	HiveUsrClass:   "USRCLASS",
	HiveComponents: "COMPONENTS",
	HiveBcd:        "BCD",
	HiveDrivers:    "DRIVERS",
	HiveAmcache:    "AMCACHE",
	HiveSyscache:   "SYSCACHE",
}

func (h HiveType) String() string {
	if s, ok := hiveTypeNames[h]; ok {
		return s
	}
	return "Other"
}

// ParseHiveType maps a rule document's HiveType field to a HiveType.
// Matching is case-insensitive.
func ParseHiveType(s string) (HiveType, bool) {
	s = strings.TrimSpace(s)
	for h, name := range hiveTypeNames {
		if strings.EqualFold(name, s) {
			return h, true
		}
	}
	return HiveOther, false
}

// MarshalYAML renders the type by name.
func (h HiveType) MarshalYAML() (any, error) {
	return h.String(), nil
}

// DetectHiveType guesses the hive type from the file name embedded in the
// REGF header (e.g. `\??\C:\Windows\system32\config\SOFTWARE`), falling back
// to the on-disk file name.
func DetectHiveType(embeddedName, diskPath string) HiveType {
	for _, candidate := range []string{embeddedName, diskPath} {
		base := strings.ToUpper(baseName(candidate))
		switch {
		case base == "":
			continue
		case strings.HasPrefix(base, "NTUSER"):
			return HiveNtUser
		case strings.HasPrefix(base, "USRCLASS"):
			return HiveUsrClass
		case strings.HasPrefix(base, "SAM"):
			return HiveSam
		case strings.HasPrefix(base, "SECURITY"):
			return HiveSecurity
		case strings.HasPrefix(base, "SOFTWARE"):
			return HiveSoftware
		case strings.HasPrefix(base, "SYSTEM"):
			return HiveSystem
		case strings.HasPrefix(base, "COMPONENTS"):
			return HiveComponents
		case strings.HasPrefix(base, "BCD"):
			return HiveBcd
		case strings.HasPrefix(base, "DRIVERS"):
			return HiveDrivers
		case strings.HasPrefix(base, "AMCACHE"):
			return HiveAmcache
		case strings.HasPrefix(base, "SYSCACHE"):
			return HiveSyscache
		}
	}
	return HiveOther
}

// baseName handles both Windows and POSIX separators regardless of host OS.
func baseName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimRight(p, "\x00 ")
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}
