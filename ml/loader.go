package ml

import "sync"

// Loader loads one bundle at most once and hands the same result, error
// included, to every caller.
type Loader struct {
	path string
	load func() (*Bundle, error)
}

func NewLoader(path string) *Loader {
	l := &Loader{path: path}
	l.load = sync.OnceValues(func() (*Bundle, error) {
		return LoadBundle(path)
	})
	return l
}

func (l *Loader) Get() (*Bundle, error) {
	return l.load()
}

func (l *Loader) Path() string {
	return l.path
}

// 全局加载器
var (
	defaultPath   = DefaultArtifactPath
	defaultLoader *Loader
	defaultMu     sync.Mutex
)

// SetArtifactPath points the process-wide loader at path. It only takes
// effect if the bundle has not been requested yet.
func SetArtifactPath(path string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLoader == nil {
		defaultPath = path
	}
}

// DefaultLoader returns the process-wide loader.
func DefaultLoader() *Loader {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLoader == nil {
		defaultLoader = NewLoader(defaultPath)
	}
	return defaultLoader
}

// GetArtifacts returns the process-wide bundle, loading it on first use.
func GetArtifacts() (*Bundle, error) {
	return DefaultLoader().Get()
}

// ResetArtifacts drops the process-wide loader (for tests).
func ResetArtifacts() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLoader = nil
	defaultPath = DefaultArtifactPath
}
