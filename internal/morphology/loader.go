package morphology

import (
	"container/list"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/nvandessel/dendsyn/internal/constants"
	"golang.org/x/sync/singleflight"
)

// ErrMorphologyTooLarge is returned for morphology files above the size limit.
var ErrMorphologyTooLarge = errors.New("morphology file too large")

// Loader reads morphologies from a directory of SWC files and caches their
// Stats by name. Cells commonly share morphologies, so concurrent requests
// for the same name are collapsed into a single read. It is safe for
// concurrent use.
type Loader struct {
	dir      string
	maxBytes uint64

	group singleflight.Group

	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element

	hits, misses int
}

type cacheEntry struct {
	name  string
	stats Stats
}

// NewLoader creates a loader for dir. maxBytes of 0 disables the size check;
// cacheSize of 0 disables caching.
func NewLoader(dir string, maxBytes uint64, cacheSize int) *Loader {
	return &Loader{
		dir:      dir,
		maxBytes: maxBytes,
		capacity: cacheSize,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Path returns the file path of a morphology.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.dir, name+constants.MorphologyExt)
}

// Load reads and parses a morphology. Results are not cached.
func (l *Loader) Load(name string) (*Morphology, error) {
	path := l.Path(name)

	if l.maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("morphology %s: %w", name, err)
		}
		if uint64(info.Size()) > l.maxBytes {
			return nil, fmt.Errorf("%w: %s is %s (limit %s)", ErrMorphologyTooLarge, path,
				datasize.ByteSize(info.Size()).HumanReadable(), datasize.ByteSize(l.maxBytes).HumanReadable())
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("morphology %s: %w", name, err)
	}
	defer f.Close()

	return ParseSWC(name, f)
}

// Stats returns the neurite lengths of a morphology, from cache when possible.
func (l *Loader) Stats(name string) (Stats, error) {
	if s, ok := l.cached(name, true); ok {
		return s, nil
	}

	v, err, _ := l.group.Do(name, func() (any, error) {
		if s, ok := l.cached(name, false); ok {
			return s, nil
		}
		m, err := l.Load(name)
		if err != nil {
			return Stats{}, err
		}
		s := m.Stats()
		l.store(name, s)
		return s, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

// CacheStats returns the number of cache hits and misses so far.
func (l *Loader) CacheStats() (hits, misses int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hits, l.misses
}

func (l *Loader) cached(name string, count bool) (Stats, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.entries[name]
	if count {
		if ok {
			l.hits++
		} else {
			l.misses++
		}
	}
	if !ok {
		return Stats{}, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*cacheEntry).stats, true
}

func (l *Loader) store(name string, s Stats) {
	if l.capacity <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.entries[name]; ok {
		el.Value.(*cacheEntry).stats = s
		l.order.MoveToFront(el)
		return
	}

	l.entries[name] = l.order.PushFront(&cacheEntry{name: name, stats: s})
	for l.order.Len() > l.capacity {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.entries, oldest.Value.(*cacheEntry).name)
	}
}
