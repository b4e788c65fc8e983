// Package names converts class names between the external dotted notation
// (java.lang.Object) and the internal slash notation (java/lang/Object).
package names

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of entries kept per direction by NewCache
// when size is not positive.
const DefaultCacheSize = 4096

// ToInternal converts a dotted class name to slash notation.
func ToInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// ToExternal converts a slash class name to dotted notation.
func ToExternal(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// Cache memoizes conversions in both directions. Each direction is a fixed
// size least-recently-used cache, so memory stays bounded while a bulk job
// touches many classes. A Cache is safe for concurrent use and may be shared
// by any number of class files.
//
// A nil *Cache is valid and converts without caching.
type Cache struct {
	internal *lru.Cache[string, string]
	external *lru.Cache[string, string]
}

// NewCache creates a Cache holding up to size entries per direction.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	in, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	ex, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{internal: in, external: ex}, nil
}

// ToInternal converts a dotted class name to slash notation.
func (c *Cache) ToInternal(name string) string {
	if c == nil {
		return ToInternal(name)
	}
	if v, ok := c.internal.Get(name); ok {
		return v
	}
	v := ToInternal(name)
	c.internal.Add(name, v)
	return v
}

// ToExternal converts a slash class name to dotted notation.
func (c *Cache) ToExternal(name string) string {
	if c == nil {
		return ToExternal(name)
	}
	if v, ok := c.external.Get(name); ok {
		return v
	}
	v := ToExternal(name)
	c.external.Add(name, v)
	return v
}

// Len returns the number of cached conversions in both directions.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.internal.Len() + c.external.Len()
}

// SourceFileName returns the conventional source file name of a class,
// "Foo.java" for "a.b.Foo". Either notation is accepted.
func SourceFileName(name string) string {
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		name = name[i+1:]
	}
	return name + ".java"
}

// PackageName returns the package part of a dotted or slash class name, or ""
// for the default package. The result uses the notation of the input.
func PackageName(name string) string {
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		return name[:i]
	}
	return ""
}
