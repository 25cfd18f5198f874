package dicomcheck

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// LoaderRegistry maintains a registry of slice loaders keyed by extension
type LoaderRegistry struct {
	loaders       map[string]SliceLoader
	defaultLoader SliceLoader
	mutex         sync.RWMutex
}

// NewLoaderRegistry creates a registry with the DICOM loader registered
func NewLoaderRegistry() *LoaderRegistry {
	registry := &LoaderRegistry{
		loaders: make(map[string]SliceLoader),
	}

	dicomLoader := NewDicomLoader()
	registry.RegisterLoader(".dcm", dicomLoader)
	registry.RegisterLoader(".dicom", dicomLoader)
	// Kaggle exports and PACS dumps often drop the extension.
	registry.RegisterLoader("", dicomLoader)
	registry.defaultLoader = dicomLoader

	return registry
}

// RegisterLoader registers a loader for a specific file extension
func (r *LoaderRegistry) RegisterLoader(ext string, loader SliceLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader for the given path, falling back to the default
func (r *LoaderRegistry) GetLoader(path string) SliceLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}
	return r.defaultLoader
}

// CanLoadFile checks if a loader is registered for the file's extension
func (r *LoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadSlice loads a slice with the appropriate registered loader
func (r *LoaderRegistry) LoadSlice(path string) (*Slice, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, path)
	}
	return loader.LoadSlice(path)
}
