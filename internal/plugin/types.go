package plugin

// Capability identifies a kind of registration a plugin makes.
type Capability string

const (
	// CapabilitySettingsHook registers hooks on configuration keys.
	CapabilitySettingsHook Capability = "settings-hook"

	// CapabilityFileRule registers file transformation rules.
	CapabilityFileRule Capability = "file-rule"

	// CapabilityFolders registers folders to collect.
	CapabilityFolders Capability = "folders"
)

// IsValid returns true if the capability is recognized.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilitySettingsHook, CapabilityFileRule, CapabilityFolders:
		return true
	default:
		return false
	}
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}
