package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"slicerlogic/internal/scene"
	"strings"
	"sync"
)

var (
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrUnsupportedWrite = errors.New("writing is not supported for this file type")
	ErrWrongTarget      = errors.New("storage cannot hold data for this node class")
)

// Failure while loading node data. Every ReadData error is of this type.
type ReadError struct {
	Kind     scene.Class
	FileName string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: failed to read %q: %v", e.Kind, e.FileName, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Progress of the most recent read
const (
	StateIdle    = "Idle"
	StateReading = "Reading"
	StateDone    = "Done"
	StateFailed  = "Failed"
)

// File name, uri and read state shared by all storage kinds
type fileStorage struct {
	mu        sync.Mutex
	fileName  string
	uri       string
	readState string
}

func (storage *fileStorage) FileName() (name string) {
	storage.mu.Lock()
	name = storage.fileName
	storage.mu.Unlock()
	return
}

func (storage *fileStorage) SetFileName(name string) {
	storage.mu.Lock()
	storage.fileName = name
	storage.mu.Unlock()
}

func (storage *fileStorage) URI() (uri string) {
	storage.mu.Lock()
	uri = storage.uri
	storage.mu.Unlock()
	return
}

func (storage *fileStorage) SetURI(uri string) {
	storage.mu.Lock()
	storage.uri = uri
	storage.mu.Unlock()
}

func (storage *fileStorage) ReadState() (state string) {
	storage.mu.Lock()
	state = storage.readState
	storage.mu.Unlock()
	if state == "" {
		state = StateIdle
	}
	return
}

func (storage *fileStorage) setReadState(state string) {
	storage.mu.Lock()
	storage.readState = state
	storage.mu.Unlock()
}

func (storage *fileStorage) copyFrom(other *fileStorage) {
	storage.fileName = other.FileName()
	storage.uri = other.URI()
}

// Wraps a read in state tracking and converts failures into *ReadError
func (storage *fileStorage) read(kind scene.Class, fn func(fileName string) error) (err error) {
	fileName := storage.FileName()
	storage.setReadState(StateReading)

	err = fn(fileName)
	if err != nil {
		storage.setReadState(StateFailed)
		err = &ReadError{Kind: kind, FileName: fileName, Err: err}
		return
	}
	storage.setReadState(StateDone)
	return
}

// Lower-cased extension ignoring a trailing .gz ("brain.nrrd.gz" -> ".nrrd")
func extension(fileName string) (ext string) {
	name := strings.ToLower(fileName)
	name = strings.TrimSuffix(name, ".gz")
	ext = filepath.Ext(name)
	return
}

func hasExtension(fileName string, supported ...string) bool {
	ext := extension(fileName)
	for _, candidate := range supported {
		if ext == candidate {
			return true
		}
	}
	return false
}
