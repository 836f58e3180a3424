package descriptor

import "fmt"

// IsCompatible reports whether a host exposing host can run the plugin,
// i.e. sdkMinimumVersion <= host.
func (d *Descriptor) IsCompatible(host SDKVersion) bool {
	return d.SDKMinimumVersion.Compare(host) <= 0
}

// ValidateCompatibility is IsCompatible as an IncompatiblePlugin error. The
// host must refuse to activate the plugin but keep running.
func (d *Descriptor) ValidateCompatibility(host SDKVersion) error {
	if d.IsCompatible(host) {
		return nil
	}
	return &Error{
		Kind:    KindIncompatiblePlugin,
		Field:   "sdkMinimumVersion",
		Message: fmt.Sprintf("plugin requires host SDK %s or newer, host provides %s", d.SDKMinimumVersion, host),
	}
}

// ValidateTarget rejects plugins built against an SDK older than the oldest
// one the host still supports. A zero hostMinimum accepts everything.
func (d *Descriptor) ValidateTarget(hostMinimum SDKVersion) error {
	if d.SDKVersion.Compare(hostMinimum) >= 0 {
		return nil
	}
	return &Error{
		Kind:    KindIncompatiblePlugin,
		Field:   "sdkVersion",
		Message: fmt.Sprintf("plugin targets SDK %s, host supports %s and newer", d.SDKVersion, hostMinimum),
	}
}
