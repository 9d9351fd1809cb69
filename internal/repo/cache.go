package repo

import (
	"strings"
)

// Show output is cached only when the key is anchored to a full commit hash,
// whose content is immutable. Mutable refs like HEAD bypass the cache.
func cacheable(key string) bool {
	ref := key
	if i := strings.IndexByte(key, ':'); i >= 0 {
		ref = key[:i]
	}
	return isCommitHash(ref)
}

func isCommitHash(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (r *Repository) cachedShow(key string) (string, bool) {
	if !cacheable(key) {
		return "", false
	}
	return r.showCache.Get(key)
}

func (r *Repository) cacheShow(key, content string) {
	if cacheable(key) {
		r.showCache.Add(key, content)
	}
}
