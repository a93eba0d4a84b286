package scene

import (
	"fmt"
	"os"
	"strings"
)

// Text file storage: reads file content into attribute "loaded", writes attribute "payload"
type mockStorage struct {
	fileName string
	uri      string
	reads    int
	writes   int
}

func (m *mockStorage) Kind() Class                   { return ModelStorage }
func (m *mockStorage) FileName() string              { return m.fileName }
func (m *mockStorage) SetFileName(name string)       { m.fileName = name }
func (m *mockStorage) URI() string                   { return m.uri }
func (m *mockStorage) SetURI(uri string)             { m.uri = uri }
func (m *mockStorage) ReadState() string             { return "idle" }
func (m *mockStorage) SupportedFileType(string) bool { return true }
func (m *mockStorage) Clone() Storable               { c := *m; return &c }

func (m *mockStorage) ReadData(target *Node) error {
	m.reads++
	raw, err := os.ReadFile(m.fileName)
	if err != nil {
		return fmt.Errorf("mock read: %w", err)
	}
	target.Attributes["loaded"] = strings.TrimSpace(string(raw))
	return nil
}

func (m *mockStorage) WriteData(target *Node) error {
	m.writes++
	return os.WriteFile(m.fileName, []byte(target.Attributes["payload"]), 0o600)
}

type mockResolver struct{}

func (mockResolver) ByKind(kind Class) (Storable, error) {
	if kind != ModelStorage {
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
	return &mockStorage{}, nil
}
