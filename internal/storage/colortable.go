package storage

import (
	"bufio"
	"fmt"
	"io"
	"slicerlogic/internal/scene"
	"strconv"
	"strings"
)

// Text color lookup tables: "index name r g b a" per line with 0-255 components
type ColorTableStorage struct {
	fileStorage
}

func NewColorTable() scene.Storable { return &ColorTableStorage{} }

func (storage *ColorTableStorage) Kind() scene.Class { return scene.ColorTableStorage }

func (storage *ColorTableStorage) SupportedFileType(name string) bool {
	return hasExtension(name, ".ctbl", ".txt")
}

func (storage *ColorTableStorage) Clone() scene.Storable {
	clone := &ColorTableStorage{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *ColorTableStorage) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		if target.Class != scene.ColorTable {
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		reader, err := openData(fileName)
		if err != nil {
			return
		}
		defer reader.Close()
		table, err := parseColorTable(reader)
		if err != nil {
			return
		}
		target.Data = table
		return
	})
	return
}

func (storage *ColorTableStorage) WriteData(target *scene.Node) (err error) {
	table, ok := target.Data.(*scene.ColorTableData)
	if !ok {
		err = fmt.Errorf("node %s holds no color table", target.ID())
		return
	}
	writer, err := createData(storage.FileName())
	if err != nil {
		return
	}
	fmt.Fprintf(writer, "# Color table file %s\n# %d values\n", target.Name, len(table.Entries))
	for _, entry := range table.Entries {
		fmt.Fprintf(writer, "%d %s %d %d %d %d\n", entry.Index, entry.Name,
			toByte(entry.RGBA[0]), toByte(entry.RGBA[1]), toByte(entry.RGBA[2]), toByte(entry.RGBA[3]))
	}
	err = writer.Close()
	return
}

func parseColorTable(reader io.Reader) (table *scene.ColorTableData, err error) {
	table = &scene.ColorTableData{}
	seen := make(map[int]bool)
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			err = fmt.Errorf("line %d: expected 6 fields, found %d", lineNumber, len(fields))
			return
		}

		var entry scene.ColorEntry
		entry.Index, err = strconv.Atoi(fields[0])
		if err != nil || entry.Index < 0 {
			err = fmt.Errorf("line %d: invalid index %q", lineNumber, fields[0])
			return
		}
		if seen[entry.Index] {
			err = fmt.Errorf("line %d: duplicate index %d", lineNumber, entry.Index)
			return
		}
		seen[entry.Index] = true
		entry.Name = fields[1]
		for i, field := range fields[2:] {
			var component int
			component, err = strconv.Atoi(field)
			if err != nil || component < 0 || component > 255 {
				err = fmt.Errorf("line %d: color component %q out of range", lineNumber, field)
				return
			}
			entry.RGBA[i] = float64(component) / 255
		}
		table.Entries = append(table.Entries, entry)
	}
	err = scanner.Err()
	if err != nil {
		return
	}
	if len(table.Entries) == 0 {
		err = fmt.Errorf("color table has no entries")
	}
	return
}

func toByte(value float64) int {
	if value <= 0 {
		return 0
	}
	if value >= 1 {
		return 255
	}
	return int(value*255 + 0.5)
}
