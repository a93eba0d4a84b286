// In-memory scene graph mutated by a single owner goroutine
package scene

import (
	"context"
	"fmt"
	"slicerlogic/internal/cache"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
)

// Kinds of scene level mutation reported to the mutation hook
type Mutation string

const (
	MutAdd    Mutation = "add"
	MutRemove Mutation = "remove"
	MutCopy   Mutation = "copy"
	MutImport Mutation = "import"
	MutCommit Mutation = "commit"
	MutSelect Mutation = "select"
)

// Creates storage implementations by kind while importing scene descriptions
type StorageResolver interface {
	ByKind(kind Class) (Storable, error)
}

type Selection struct {
	ActiveVolumeID      string
	ActiveLabelVolumeID string
}

type Scene struct {
	ctx context.Context

	nodes    map[string]*Node
	order    []string
	counters map[Class]int
	url      string

	resolver StorageResolver
	cache    *cache.Manager

	selection    Selection
	propagations []func(Selection)
	onMutation   func(op Mutation, nodeID string)
}

func New(ctx context.Context, cacheManager *cache.Manager) (new *Scene) {
	new = &Scene{
		ctx:      logctx.AppendCtxTag(ctx, global.NSScene),
		nodes:    make(map[string]*Node),
		counters: make(map[Class]int),
		cache:    cacheManager,
	}
	return
}

// Empty scene sharing storage resolution and cache, used as an import staging area
func (scene *Scene) NewScratch() (scratch *Scene) {
	scratch = New(logctx.RemoveLastCtxTag(scene.ctx), scene.cache)
	scratch.resolver = scene.resolver
	return
}

func (scene *Scene) SetStorageResolver(resolver StorageResolver) { scene.resolver = resolver }

// Receives every scene level mutation. Intended for instrumentation.
func (scene *Scene) SetMutationHook(hook func(op Mutation, nodeID string)) { scene.onMutation = hook }

func (scene *Scene) Cache() *cache.Manager { return scene.cache }

func (scene *Scene) SetURL(url string) { scene.url = url }
func (scene *Scene) URL() string       { return scene.url }

func (scene *Scene) NodeByID(id string) (node *Node) {
	node = scene.nodes[id]
	return
}

// Inserts node, assigning a fresh id when it has none or its id is taken
func (scene *Scene) AddNode(node *Node) (added *Node) {
	if node == nil {
		return
	}
	if node.id == "" || scene.nodes[node.id] != nil {
		node.id = scene.nextID(node.Class)
	}
	scene.nodes[node.id] = node
	scene.order = append(scene.order, node.id)
	scene.notify(MutAdd, node.id)
	added = node
	return
}

func (scene *Scene) RemoveNode(node *Node) {
	if node == nil || scene.nodes[node.id] != node {
		return
	}
	delete(scene.nodes, node.id)
	for i, id := range scene.order {
		if id == node.id {
			scene.order = append(scene.order[:i], scene.order[i+1:]...)
			break
		}
	}
	if scene.selection.ActiveVolumeID == node.id {
		scene.selection.ActiveVolumeID = ""
	}
	if scene.selection.ActiveLabelVolumeID == node.id {
		scene.selection.ActiveLabelVolumeID = ""
	}
	// Dangling references to the removed node
	for _, id := range scene.order {
		other := scene.nodes[id]
		for _, role := range other.ReferenceRoles() {
			other.RemoveReference(role, node.id)
		}
	}
	scene.notify(MutRemove, node.id)
}

// Adds a duplicate of node (which may belong to another scene) under a new id
func (scene *Scene) CopyNode(node *Node) (copied *Node) {
	if node == nil {
		return
	}
	copied = node.clone()
	copied.id = scene.nextID(copied.Class)
	scene.nodes[copied.id] = copied
	scene.order = append(scene.order, copied.id)
	scene.notify(MutCopy, copied.id)
	return
}

// Copies source content into target, keeping target identity
func (scene *Scene) CopyInto(target, source *Node) {
	if target == nil || source == nil {
		return
	}
	target.CopyContent(source)
	scene.notify(MutCopy, target.id)
}

// All nodes in insertion order
func (scene *Scene) Nodes() (nodes []*Node) {
	nodes = make([]*Node, 0, len(scene.order))
	for _, id := range scene.order {
		nodes = append(nodes, scene.nodes[id])
	}
	return
}

func (scene *Scene) NodesByClass(class Class) (nodes []*Node) {
	for _, id := range scene.order {
		if node := scene.nodes[id]; node.Class == class {
			nodes = append(nodes, node)
		}
	}
	return
}

func (scene *Scene) NumberOfNodesByClass(class Class) int {
	return len(scene.NodesByClass(class))
}

func (scene *Scene) NthNodeByClass(n int, class Class) (node *Node) {
	nodes := scene.NodesByClass(class)
	if n >= 0 && n < len(nodes) {
		node = nodes[n]
	}
	return
}

// Storage nodes referenced by node that exist in this scene
func (scene *Scene) StorageNodesFor(node *Node) (storage []*Node) {
	for _, found := range scene.referenced(node, RoleStorage) {
		if found.Class.IsStorage() {
			storage = append(storage, found)
		}
	}
	return
}

// Display nodes referenced by node that exist in this scene
func (scene *Scene) DisplayNodesFor(node *Node) (display []*Node) {
	for _, found := range scene.referenced(node, RoleDisplay) {
		if found.Class.IsDisplay() {
			display = append(display, found)
		}
	}
	return
}

// Nodes whose hierarchy parent is node
func (scene *Scene) Children(node *Node) (children []*Node) {
	for _, id := range scene.order {
		if child := scene.nodes[id]; child.ParentID == node.id {
			children = append(children, child)
		}
	}
	return
}

func (scene *Scene) referenced(node *Node, role string) (found []*Node) {
	if node == nil {
		return
	}
	for _, id := range node.References(role) {
		if referenced := scene.nodes[id]; referenced != nil {
			found = append(found, referenced)
		}
	}
	return
}

func (scene *Scene) nextID(class Class) (id string) {
	for {
		scene.counters[class]++
		id = fmt.Sprintf("vtkMRML%sNode%d", class, scene.counters[class])
		if scene.nodes[id] == nil {
			return
		}
	}
}

func (scene *Scene) notify(op Mutation, nodeID string) {
	if scene.onMutation != nil {
		scene.onMutation(op, nodeID)
	}
}
