package cache

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Tracks where remote uris are (or will be) stored on local disk
type Manager struct {
	mu     sync.RWMutex
	dir    string
	uriMap map[string]string // remote uri -> local file

	ForceRedownload bool // ignore cached copies when queueing reads
}

func New(dir string) (new *Manager, err error) {
	if dir == "" {
		err = fmt.Errorf("cache directory not set")
		return
	}
	err = os.MkdirAll(dir, 0o750)
	if err != nil {
		err = fmt.Errorf("failed to create cache directory: %w", err)
		return
	}
	new = &Manager{
		dir:    dir,
		uriMap: make(map[string]string),
	}
	return
}

func (manager *Manager) Dir() string { return manager.dir }

// Records (or replaces) the local file backing uri
func (manager *Manager) MapFileToURI(uri, file string) {
	manager.mu.Lock()
	manager.uriMap[uri] = file
	manager.mu.Unlock()
}

func (manager *Manager) FileFromURIMap(uri string) (file string, found bool) {
	manager.mu.RLock()
	file, found = manager.uriMap[uri]
	manager.mu.RUnlock()
	return
}

// Absolute path in the cache a download of uri is written to.
// Files land in a per-origin subdirectory (blake2b of the uri without its file name)
// so equally named files from different locations do not overwrite each other.
func (manager *Manager) FilenameFromURI(uri string) (file string) {
	if mapped, found := manager.FileFromURIMap(uri); found {
		file = mapped
		return
	}

	clean := uri
	if index := strings.Index(clean, "?"); index >= 0 {
		clean = clean[:index]
	}
	if decoded, err := url.PathUnescape(clean); err == nil {
		clean = decoded
	}

	dirPart, name := splitURI(clean)
	name = stripVersionSuffix(name)

	sum := blake2b.Sum256([]byte(dirPart))
	file = filepath.Join(manager.dir, hex.EncodeToString(sum[:8]), name)
	return
}

// Files currently present in the cache directory, sorted
func (manager *Manager) CachedFiles() (files []string, err error) {
	err = filepath.WalkDir(manager.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return
}

// Total bytes held in the cache directory
func (manager *Manager) Size() (size int64, err error) {
	err = filepath.WalkDir(manager.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return
}

// Removes one cached file (absolute or relative to the cache) and any uri mapped to it
func (manager *Manager) DeleteFromCache(target string) (err error) {
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(manager.dir, path)
	}
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(manager.dir)+string(filepath.Separator)) {
		err = fmt.Errorf("refusing to delete %q outside of cache directory", target)
		return
	}

	err = os.RemoveAll(path)
	if err != nil {
		err = fmt.Errorf("failed to remove cached file: %w", err)
		return
	}

	manager.mu.Lock()
	for uri, file := range manager.uriMap {
		if file == path {
			delete(manager.uriMap, uri)
		}
	}
	manager.mu.Unlock()
	return
}

// Deletes the cache directory contents and recreates it empty
func (manager *Manager) Clear() (err error) {
	err = os.RemoveAll(manager.dir)
	if err != nil {
		err = fmt.Errorf("failed to remove cache directory: %w", err)
		return
	}
	err = os.MkdirAll(manager.dir, 0o750)
	if err != nil {
		err = fmt.Errorf("unable to recreate cache directory after clearing it: %w", err)
		return
	}

	manager.mu.Lock()
	manager.uriMap = make(map[string]string)
	manager.mu.Unlock()
	return
}

func splitURI(uri string) (dirPart, name string) {
	index := strings.LastIndex(uri, "/")
	if index < 0 {
		name = uri
		return
	}
	dirPart = uri[:index]
	name = uri[index+1:]
	return
}

// "brain.nrrd_3" -> "brain.nrrd"
func stripVersionSuffix(name string) (clean string) {
	clean = name
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return
	}
	extension := name[dot:]
	if underscore := strings.Index(extension, "_"); underscore >= 0 {
		clean = name[:dot] + extension[:underscore]
	}
	return
}
