package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() (err error) {
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if closeErr := rc.closers[i].Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return
}

// Opens a data file, transparently decompressing .gz files
func openData(fileName string) (reader io.ReadCloser, err error) {
	file, err := os.Open(fileName)
	if err != nil {
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".gz") {
		reader = &readCloser{Reader: bufio.NewReader(file), closers: []io.Closer{file}}
		return
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		err = fmt.Errorf("invalid gzip stream: %w", err)
		return
	}
	reader = &readCloser{Reader: bufio.NewReader(gz), closers: []io.Closer{file, gz}}
	return
}

type writeCloser struct {
	io.Writer
	flush   func() error
	closers []io.Closer
}

func (wc *writeCloser) Close() (err error) {
	err = wc.flush()
	for i := len(wc.closers) - 1; i >= 0; i-- {
		if closeErr := wc.closers[i].Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return
}

// Creates a data file, compressing when the name ends in .gz
func createData(fileName string) (writer io.WriteCloser, err error) {
	file, err := os.Create(fileName)
	if err != nil {
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".gz") {
		buffered := bufio.NewWriter(file)
		writer = &writeCloser{Writer: buffered, flush: buffered.Flush, closers: []io.Closer{file}}
		return
	}

	gz := gzip.NewWriter(file)
	buffered := bufio.NewWriter(gz)
	writer = &writeCloser{Writer: buffered, flush: buffered.Flush, closers: []io.Closer{file, gz}}
	return
}
