package redis

const (
	// KeyPrefix namespaces every key this process writes.
	KeyPrefix = "pulse:"
	// KeyPrefixPrefs is the prefix for preference blobs.
	KeyPrefixPrefs = KeyPrefix + "prefs:"
	// DefaultPrefsName names the dashboard's own preference blob.
	DefaultPrefsName = "app-storage"
)

// PrefsKey returns the Redis key of a named preference blob.
func PrefsKey(name string) string {
	return KeyPrefixPrefs + name
}
