package membuffer

import (
	"fmt"

	"go.uber.org/zap"
)

// handlerCache memoizes compiled handlers of a single buffer
//
// a nil *handlerCache is valid and caches nothing
type handlerCache struct {
	key     func(Schema) string
	readers map[string]reader
	writers map[string]writer
}

func newHandlerCache(key func(Schema) string) *handlerCache {
	return &handlerCache{
		key:     key,
		readers: make(map[string]reader),
		writers: make(map[string]writer),
	}
}

// keyOf returns the cache key of s, "" when s must not be cached
func (c *handlerCache) keyOf(s Schema) string {
	if c == nil || s == nil || hasCustom(s) {
		return ""
	}
	if c.key != nil {
		k := c.key(s)
		if k == "" {
			return ""
		}
		// a key function cannot hand an object handler to a primitive
		return fmt.Sprintf("%T:%s", s, k)
	}
	return s.String()
}

// hasCustom reports whether s contains a Custom schema. Closures created
// from the same literal share a code pointer, so no key can tell them apart.
func hasCustom(s Schema) bool {
	switch s := s.(type) {
	case Custom:
		return true
	case Object:
		for _, f := range s {
			if hasCustom(f.Schema) {
				return true
			}
		}
	}
	return false
}

func (c *handlerCache) reader(key string) (reader, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	r, ok := c.readers[key]
	return r, ok
}

func (c *handlerCache) putReader(key string, r reader) {
	if c == nil || key == "" {
		return
	}
	c.readers[key] = r
	logCompiled("reader", key)
}

func (c *handlerCache) writer(key string) (writer, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	w, ok := c.writers[key]
	return w, ok
}

func (c *handlerCache) putWriter(key string, w writer) {
	if c == nil || key == "" {
		return
	}
	c.writers[key] = w
	logCompiled("writer", key)
}

// Len returns the number of cached handlers
func (c *handlerCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.readers) + len(c.writers)
}

func logCompiled(kind, key string) {
	if logging {
		logger.Info("compiled schema handler",
			zap.String("module", "schema"),
			zap.String("handler", kind),
			zap.String("key", key),
		)
	}
}
