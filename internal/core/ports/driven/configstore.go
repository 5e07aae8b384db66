package driven

// ConfigStore holds user configuration as flat dotted keys such as
// "retrieval.top_k". Values written from the command line arrive as
// strings; the typed getters parse them and return the zero value when
// the key is missing or cannot be converted.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetStringSlice accepts arrays and comma-separated strings.
	GetStringSlice(key string) []string

	// Keys lists every stored key in sorted order.
	Keys() []string

	// Set stores a value and persists it before returning.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the configuration lives, for display.
	Path() string
}
