package script

import (
	"slicerlogic/internal/scene"
	"strings"
)

// Textual command batch handed to the scheduler as a modified object.
// Each line is evaluated independently when the batch is drained.
type Batch struct {
	scene.Object
	Name  string
	lines []string
}

func NewBatch(name, text string) (batch *Batch) {
	batch = &Batch{Name: name}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		batch.lines = append(batch.lines, line)
	}
	return
}

func (batch *Batch) Lines() (lines []string) {
	lines = append(lines, batch.lines...)
	return
}
