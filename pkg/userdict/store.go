package userdict

// Store is the ordered key/value contract user dictionaries are built on:
// prefix iteration, atomic put, and a separate meta namespace for /tick,
// /user_id, /rime_version, /db_name. The real engine's store is an external
// collaborator; Store is the seam this repo's own implementations plug into.
type Store interface {
	Get(key string) (string, bool)
	Put(key, value string) error
	Delete(key string) error
	// Iterate walks (key, value) pairs in ascending key order, stopping
	// early if fn returns false.
	Iterate(fn func(key, value string) bool) error
	// PrefixIterate walks (key, value) pairs whose key starts with prefix,
	// ascending, strictly past resumeKey.
	PrefixIterate(prefix, resumeKey string, fn func(key, value string) bool) error
	MetaGet(key string) (string, bool)
	MetaPut(key, value string) error
}
