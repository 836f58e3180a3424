package descriptor

import "strings"

const locKeyPrefix = "$$$/"

// LocString is a localizable display string in the "$$$/Path/Key=Default text"
// form. Plain strings without the key prefix are used verbatim.
type LocString string

// Key returns the localization key, or "" if s is a plain string.
func (s LocString) Key() string {
	str := string(s)
	if !strings.HasPrefix(str, locKeyPrefix) {
		return ""
	}
	key, _, _ := strings.Cut(str, "=")
	return key
}

// Default returns the fallback text carried after '=' in a keyed string, or
// the whole string when it is not keyed.
func (s LocString) Default() string {
	str := string(s)
	if !strings.HasPrefix(str, locKeyPrefix) {
		return str
	}
	_, def, _ := strings.Cut(str, "=")
	return def
}

// Display is what a host shows when it has no translation for the key.
func (s LocString) Display() string {
	if def := s.Default(); def != "" {
		return def
	}
	return string(s)
}
