package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"strings"

	"gopkg.in/yaml.v3"
)

const descriptionVersion = 1

// On-disk scene description
type description struct {
	Version int               `yaml:"version"`
	Nodes   []nodeDescription `yaml:"nodes"`
}

type nodeDescription struct {
	ID         string              `yaml:"id"`
	Class      Class               `yaml:"class"`
	Name       string              `yaml:"name,omitempty"`
	LabelMap   bool                `yaml:"labelMap,omitempty"`
	Visible    bool                `yaml:"visible"`
	Parent     string              `yaml:"parent,omitempty"`
	Attributes map[string]string   `yaml:"attributes,omitempty"`
	References map[string][]string `yaml:"references,omitempty"`
	Storage    *storageDescription `yaml:"storage,omitempty"`
}

type storageDescription struct {
	Kind     Class  `yaml:"kind"`
	FileName string `yaml:"fileName,omitempty"`
	URI      string `yaml:"uri,omitempty"`
}

// Adds every node described by the file at URL to the scene and loads their data.
// Ids already present are reassigned and references to them rewritten.
// Nodes whose data fails to load stay in the scene; all load errors are returned joined.
func (scene *Scene) Import() (err error) {
	if scene.url == "" {
		err = fmt.Errorf("scene url not set")
		return
	}

	raw, err := os.ReadFile(scene.url)
	if err != nil {
		err = fmt.Errorf("failed to read scene description: %w", err)
		return
	}

	var desc description
	err = yaml.Unmarshal(raw, &desc)
	if err != nil {
		err = fmt.Errorf("invalid scene description %q: %w", scene.url, err)
		return
	}
	if desc.Version != descriptionVersion {
		err = fmt.Errorf("unsupported scene description version %d", desc.Version)
		return
	}

	baseDir := filepath.Dir(scene.url)
	remap := make(map[string]string)
	added := make([]*Node, 0, len(desc.Nodes))

	for _, nodeDesc := range desc.Nodes {
		node := NewNode(nodeDesc.Class, nodeDesc.Name)
		node.id = nodeDesc.ID
		node.LabelMap = nodeDesc.LabelMap
		node.Visible = nodeDesc.Visible
		node.ParentID = nodeDesc.Parent
		for key, value := range nodeDesc.Attributes {
			node.Attributes[key] = value
		}
		for role, ids := range nodeDesc.References {
			node.references[role] = append([]string(nil), ids...)
		}

		if nodeDesc.Storage != nil {
			node.Storage, err = scene.resolveStorage(nodeDesc.Storage, baseDir)
			if err != nil {
				err = fmt.Errorf("node %q: %w", nodeDesc.ID, err)
				return
			}
		}

		scene.AddNode(node)
		if node.id != nodeDesc.ID {
			remap[nodeDesc.ID] = node.id
		}
		added = append(added, node)
	}

	for _, node := range added {
		if newID, ok := remap[node.ParentID]; ok {
			node.ParentID = newID
		}
		for role, ids := range node.references {
			for i, id := range ids {
				if newID, ok := remap[id]; ok {
					node.references[role][i] = newID
				}
			}
		}
	}

	var loadErrors []error
	for _, node := range added {
		if !node.Class.IsStorable() {
			continue
		}
		for _, storageNode := range scene.StorageNodesFor(node) {
			if storageNode.Storage == nil {
				continue
			}
			readErr := storageNode.Storage.ReadData(node)
			if readErr != nil {
				loadErrors = append(loadErrors, fmt.Errorf("node %s: %w", node.id, readErr))
			}
		}
	}

	scene.notify(MutImport, "")
	logctx.LogEvent(scene.ctx, global.VerbosityProgress, global.InfoLog,
		"Imported %d nodes from %s\n", len(added), scene.url)

	err = errors.Join(loadErrors...)
	return
}

// Writes modified node data through their storage nodes, then the description itself.
// An empty url keeps the current one.
func (scene *Scene) Commit(url string) (err error) {
	if url != "" {
		scene.url = url
	}
	if scene.url == "" {
		err = fmt.Errorf("scene url not set")
		return
	}
	baseDir := filepath.Dir(scene.url)

	var writeErrors []error
	for _, node := range scene.Nodes() {
		if !node.Class.IsStorable() || !node.ModifiedSinceRead {
			continue
		}
		for _, storageNode := range scene.StorageNodesFor(node) {
			if storageNode.Storage == nil {
				continue
			}
			if storageNode.Storage.FileName() == "" {
				logctx.LogEvent(scene.ctx, global.VerbosityStandard, global.WarnLog,
					"Node %s has no file name for its storage %s, data not written\n", node.id, storageNode.id)
				continue
			}
			writeErr := storageNode.Storage.WriteData(node)
			if writeErr != nil {
				writeErrors = append(writeErrors, fmt.Errorf("node %s: %w", node.id, writeErr))
				continue
			}
			node.ModifiedSinceRead = false
		}
	}

	desc := description{Version: descriptionVersion}
	for _, node := range scene.Nodes() {
		nodeDesc := nodeDescription{
			ID:         node.id,
			Class:      node.Class,
			Name:       node.Name,
			LabelMap:   node.LabelMap,
			Visible:    node.Visible,
			Parent:     node.ParentID,
			Attributes: node.Attributes,
			References: node.references,
		}
		if node.Storage != nil {
			nodeDesc.Storage = &storageDescription{
				Kind:     node.Storage.Kind(),
				FileName: relativeTo(baseDir, node.Storage.FileName()),
				URI:      node.Storage.URI(),
			}
		}
		desc.Nodes = append(desc.Nodes, nodeDesc)
	}

	raw, err := yaml.Marshal(desc)
	if err != nil {
		err = fmt.Errorf("failed to encode scene description: %w", err)
		return
	}

	err = os.MkdirAll(baseDir, 0o750)
	if err != nil {
		err = fmt.Errorf("failed to create scene directory: %w", err)
		return
	}
	tmp := scene.url + ".tmp"
	err = os.WriteFile(tmp, raw, 0o640)
	if err != nil {
		err = fmt.Errorf("failed to write scene description: %w", err)
		return
	}
	err = os.Rename(tmp, scene.url)
	if err != nil {
		err = fmt.Errorf("failed to replace scene description: %w", err)
		return
	}

	scene.notify(MutCommit, "")
	logctx.LogEvent(scene.ctx, global.VerbosityProgress, global.InfoLog,
		"Committed %d nodes to %s\n", len(desc.Nodes), scene.url)

	err = errors.Join(writeErrors...)
	return
}

func (scene *Scene) resolveStorage(storageDesc *storageDescription, baseDir string) (storable Storable, err error) {
	if scene.resolver == nil {
		err = fmt.Errorf("no storage resolver for kind %s", storageDesc.Kind)
		return
	}
	storable, err = scene.resolver.ByKind(storageDesc.Kind)
	if err != nil {
		return
	}

	fileName := storageDesc.FileName
	if fileName != "" && !filepath.IsAbs(fileName) {
		fileName = filepath.Join(baseDir, fileName)
	}
	storable.SetFileName(fileName)
	storable.SetURI(storageDesc.URI)
	return
}

func relativeTo(baseDir, fileName string) (rel string) {
	rel = fileName
	if fileName == "" || !filepath.IsAbs(fileName) {
		return
	}
	candidate, err := filepath.Rel(baseDir, fileName)
	if err == nil && !strings.HasPrefix(candidate, "..") {
		rel = candidate
	}
	return
}
