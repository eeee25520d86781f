package seqtree

import (
	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProgramCacheSize bounds NewLRUProgramCache when size is not positive.
const DefaultProgramCacheSize = 256

type lruProgramCache struct {
	programs *lru.Cache[string, any]
}

// NewLRUProgramCache returns a ProgramCache that keeps the size most recently
// used programs. It is safe for concurrent use, so one cache can be shared by
// many Reconstruct calls.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	programs, err := lru.New[string, any](size)
	if err != nil {
		return nil, errors.Wrap(err, "seqtree: program cache")
	}
	return &lruProgramCache{programs: programs}, nil
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.programs.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.programs.Add(key, value)
}
