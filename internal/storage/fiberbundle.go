package storage

import (
	"fmt"
	"slicerlogic/internal/scene"
)

// Tractography streamlines stored as VTK polydata lines
type FiberBundleStorage struct {
	fileStorage
}

func NewFiberBundle() scene.Storable { return &FiberBundleStorage{} }

func (storage *FiberBundleStorage) Kind() scene.Class { return scene.FiberBundleStorage }

func (storage *FiberBundleStorage) SupportedFileType(name string) bool {
	return hasExtension(name, ".vtk")
}

func (storage *FiberBundleStorage) Clone() scene.Storable {
	clone := &FiberBundleStorage{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *FiberBundleStorage) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		if target.Class != scene.FiberBundle {
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		poly, err := readVTKFile(fileName)
		if err != nil {
			return
		}
		if len(poly.Lines) == 0 {
			err = fmt.Errorf("file holds no fiber lines")
			return
		}
		target.Data = poly
		return
	})
	return
}

func (storage *FiberBundleStorage) WriteData(target *scene.Node) (err error) {
	poly, ok := target.Data.(*scene.PolyData)
	if !ok {
		err = fmt.Errorf("node %s holds no fiber data", target.ID())
		return
	}
	err = writeVTKFile(storage.FileName(), poly, target.Name)
	return
}
