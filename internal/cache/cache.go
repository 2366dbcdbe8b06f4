// Package cache provides best-effort caching for CLI-level lists such as
// the locally known payer registry.
//
// Entries are scoped per resource key, endpoint URL, and credential ID.
// Default TTL is 5 minutes. Disable with EXTRATA_NO_CACHE=1; set
// EXTRATA_CACHE_REDIS to a redis address to share entries across hosts.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

const (
	envNoCache = "EXTRATA_NO_CACHE"
	envRedis   = "EXTRATA_CACHE_REDIS"
)

// Store reads and writes one cache key.
type Store interface {
	// Get loads cached items into dst. Returns false on miss (absent,
	// expired, disabled, or backend unavailable).
	Get(dst any) bool
	// Put writes items to the cache. Silently no-ops on error or when
	// disabled.
	Put(items any)
	// Clear removes the entry.
	Clear()
}

// Open returns a Store for the given scope with the default TTL. The redis
// backend is selected when EXTRATA_CACHE_REDIS is set; otherwise entries
// live in files under dir.
func Open(dir, key, baseURL, credentialID string) Store {
	return OpenWithTTL(dir, key, baseURL, credentialID, DefaultTTL)
}

// OpenWithTTL is Open with a custom TTL.
func OpenWithTTL(dir, key, baseURL, credentialID string, ttl time.Duration) Store {
	if addr := strings.TrimSpace(os.Getenv(envRedis)); addr != "" {
		if s, err := NewRedisStore(addr, key, baseURL, credentialID, ttl); err == nil {
			return s
		}
	}
	return NewFileStoreWithTTL(dir, key, baseURL, credentialID, ttl)
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// FileStore keeps one cache entry in a JSON file.
type FileStore struct {
	path string
	ttl  time.Duration
}

// NewFileStore creates a FileStore with the default 5-minute TTL.
// dir is the cache directory (typically from DefaultDir), key the resource
// type (e.g. "payers").
func NewFileStore(dir, key, baseURL, credentialID string) *FileStore {
	return NewFileStoreWithTTL(dir, key, baseURL, credentialID, DefaultTTL)
}

// NewFileStoreWithTTL creates a FileStore with a custom TTL.
func NewFileStoreWithTTL(dir, key, baseURL, credentialID string, ttl time.Duration) *FileStore {
	filename := fmt.Sprintf("%s_%s_%s.json", sanitizeKey(key), shortHash(baseURL), shortHash(credentialID))
	return &FileStore{
		path: filepath.Join(dir, filename),
		ttl:  ttl,
	}
}

// Get loads cached items into dst. Returns false on miss (no file, expired, disabled).
func (s *FileStore) Get(dst any) bool {
	if disabled() {
		return false
	}
	e, ok := s.read()
	if !ok || time.Since(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

func (s *FileStore) read() (entry, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, false
	}
	return e, true
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *FileStore) Put(items any) {
	if disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{CachedAt: time.Now(), Items: raw})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}
	writeAtomic(s.path, data)
}

// writeAtomic writes via a temp file and rename so a concurrent reader
// never sees a partially written entry.
func writeAtomic(path string, data []byte) {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, path)
}

// Clear removes this cache file.
func (s *FileStore) Clear() {
	_ = os.Remove(s.path)
}

// ClearAll removes all cache files from the directory.
// For safety, it only removes files matching this project's cache filename scheme.
func ClearAll(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, e.Name()))
	}
}

// IsEntryFilename reports whether name matches the on-disk naming scheme
// for cache entries. ClearAll and the cache listing both use it, so files
// that merely live in the cache directory are never touched or shown.
func IsEntryFilename(name string) bool {
	return isCacheFilename(name)
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/extrata-cli" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "extrata-cli"), nil
}

func disabled() bool {
	return os.Getenv(envNoCache) != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '-'
		}
		return r
	}, key)
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:6])
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>_<12hex>.json"
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return false
	}
	parts := strings.Split(base, "_")
	return len(parts) == 3 && parts[0] != "" && isShortHash(parts[1]) && isShortHash(parts[2])
}

// isShortHash matches the hex digests shortHash produces.
func isShortHash(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
