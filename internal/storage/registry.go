package storage

import (
	"fmt"
	"slicerlogic/internal/scene"
	"sync"
)

type Constructor func() scene.Storable

// One row of the dispatch table. Candidates are probed in order with
// SupportedFileType and the last candidate is used when none match.
type Entry struct {
	Name       string
	Accepts    func(class scene.Class) bool
	Candidates []scene.Class
}

// Storage kind selection by target node class, queried in fixed priority order
type Registry struct {
	mu           sync.RWMutex
	constructors map[scene.Class]Constructor
	entries      []Entry
}

func classIn(classes ...scene.Class) func(scene.Class) bool {
	return func(class scene.Class) bool {
		for _, candidate := range classes {
			if class == candidate {
				return true
			}
		}
		return false
	}
}

// Registry with every built-in storage kind
func NewRegistry() (registry *Registry) {
	registry = &Registry{constructors: make(map[scene.Class]Constructor)}
	registry.Register(scene.VolumeArchetypeStorage, NewVolumeArchetype)
	registry.Register(scene.NRRDStorage, NewNRRD)
	registry.Register(scene.FiberBundleStorage, NewFiberBundle)
	registry.Register(scene.ColorTableStorage, NewColorTable)
	registry.Register(scene.ModelStorage, NewModel)
	registry.Register(scene.FreeSurferModelStorage, NewFreeSurferModel)
	registry.Register(scene.FreeSurferModelOverlayStorage, NewFreeSurferModelOverlay)
	registry.Register(scene.TransformStorage, NewTransform)

	registry.entries = []Entry{
		{
			Name:       "diffusion",
			Accepts:    classIn(scene.DiffusionWeightedVolume, scene.DiffusionTensorVolume),
			Candidates: []scene.Class{scene.NRRDStorage},
		},
		{
			Name:       "volume",
			Accepts:    classIn(scene.ScalarVolume, scene.VectorVolume),
			Candidates: []scene.Class{scene.VolumeArchetypeStorage},
		},
		{
			Name:       "fiber bundle",
			Accepts:    classIn(scene.FiberBundle),
			Candidates: []scene.Class{scene.FiberBundleStorage},
		},
		{
			Name:       "color table",
			Accepts:    classIn(scene.ColorTable),
			Candidates: []scene.Class{scene.ColorTableStorage},
		},
		{
			Name:    "model",
			Accepts: classIn(scene.Model),
			Candidates: []scene.Class{
				scene.ModelStorage,
				scene.FreeSurferModelStorage,
				scene.FreeSurferModelOverlayStorage,
			},
		},
		{
			Name:       "transform",
			Accepts:    scene.Class.IsTransform,
			Candidates: []scene.Class{scene.TransformStorage},
		},
	}
	return
}

// Adds or replaces the constructor for a storage kind
func (registry *Registry) Register(kind scene.Class, constructor Constructor) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.constructors[kind] = constructor
}

// Candidate storage kinds for a node class in probe order
func (registry *Registry) Order(class scene.Class) (kinds []scene.Class) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, entry := range registry.entries {
		if entry.Accepts(class) {
			kinds = append(kinds, entry.Candidates...)
			return
		}
	}
	return
}

// New storage node of the given kind
func (registry *Registry) ByKind(kind scene.Class) (storable scene.Storable, err error) {
	registry.mu.RLock()
	constructor, ok := registry.constructors[kind]
	registry.mu.RUnlock()
	if !ok {
		err = fmt.Errorf("%w: no storage kind %q", ErrUnsupportedFile, kind)
		return
	}
	storable = constructor()
	return
}

// New storage node able to load fileName into target
func (registry *Registry) ForTarget(target *scene.Node, fileName string) (storable scene.Storable, err error) {
	kinds := registry.Order(target.Class)
	if len(kinds) == 0 {
		err = fmt.Errorf("%w: no storage for %s nodes", ErrUnsupportedFile, target.Class)
		return
	}

	for i, kind := range kinds {
		storable, err = registry.ByKind(kind)
		if err != nil {
			return
		}
		if i == len(kinds)-1 || storable.SupportedFileType(fileName) {
			return
		}
	}
	return
}
