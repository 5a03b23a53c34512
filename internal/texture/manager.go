package texture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
)

// Manager loads source textures through a list of search paths and caches
// decoded results. Safe for concurrent use by bake workers.
type Manager struct {
	searchPaths []string

	mu     sync.RWMutex
	images map[string]*image.RGBA
	sizes  map[string][2]int

	hits   int
	misses int
}

// NewManager creates a manager searching the given directories in order.
func NewManager(searchPaths ...string) *Manager {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}
	return &Manager{
		searchPaths: searchPaths,
		images:      make(map[string]*image.RGBA),
		sizes:       make(map[string][2]int),
	}
}

// Load returns the decoded texture as RGBA. Results are cached by path.
func (m *Manager) Load(path string) (*image.RGBA, error) {
	m.mu.Lock()
	img, ok := m.images[path]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()
	if ok {
		return img, nil
	}

	data, err := m.read(path)
	if err != nil {
		return nil, err
	}
	decoded, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	rgba := ToRGBA(decoded)

	m.mu.Lock()
	m.images[path] = rgba
	m.sizes[path] = [2]int{rgba.Bounds().Dx(), rgba.Bounds().Dy()}
	m.mu.Unlock()
	return rgba, nil
}

// Size returns texture dimensions, decoding only the header when the
// image is not already cached.
func (m *Manager) Size(path string) (w, h int, err error) {
	m.mu.RLock()
	size, ok := m.sizes[path]
	m.mu.RUnlock()
	if ok {
		return size[0], size[1], nil
	}

	data, err := m.read(path)
	if err != nil {
		return 0, 0, err
	}
	w, h, err = DecodeSize(path, data)
	if err != nil {
		return 0, 0, err
	}

	m.mu.Lock()
	m.sizes[path] = [2]int{w, h}
	m.mu.Unlock()
	return w, h, nil
}

// Stats returns cache hit/miss counters.
func (m *Manager) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

// read finds the file through the search path list.
func (m *Manager) read(path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		return os.ReadFile(path)
	}
	for _, dir := range m.searchPaths {
		data, err := os.ReadFile(filepath.Join(dir, path))
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("texture not found in search paths: %s", path)
}
