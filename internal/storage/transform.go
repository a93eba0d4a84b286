package storage

import (
	"bufio"
	"fmt"
	"io"
	"slicerlogic/internal/scene"
	"strings"
)

const itkTransformMagic = "#Insight Transform File V1.0"

// ITK text transforms (.tfm/.txt) and displacement field volumes
type TransformStorage struct {
	fileStorage
}

func NewTransform() scene.Storable { return &TransformStorage{} }

func (storage *TransformStorage) Kind() scene.Class { return scene.TransformStorage }

func (storage *TransformStorage) SupportedFileType(name string) bool {
	return hasExtension(name, ".tfm", ".txt", ".nrrd", ".nhdr", ".mha", ".mhd")
}

func (storage *TransformStorage) Clone() scene.Storable {
	clone := &TransformStorage{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *TransformStorage) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		var transform *scene.TransformData
		switch target.Class {
		case scene.GridTransform:
			var field *scene.ImageData
			field, err = readVolume(fileName)
			if err != nil {
				return
			}
			if field.Components != 3 {
				err = fmt.Errorf("displacement field has %d components", field.Components)
				return
			}
			transform = &scene.TransformData{Matrix: scene.Identity(), Displacement: field}
		case scene.LinearTransform, scene.BSplineTransform:
			var reader io.ReadCloser
			reader, err = openData(fileName)
			if err != nil {
				return
			}
			defer reader.Close()
			var entry itkTransform
			entry, err = parseITKTransform(reader)
			if err != nil {
				return
			}
			transform, err = entry.toData(target.Class)
			if err != nil {
				return
			}
		default:
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		target.Data = transform
		return
	})
	return
}

func (storage *TransformStorage) WriteData(target *scene.Node) (err error) {
	transform, ok := target.Data.(*scene.TransformData)
	if !ok {
		err = fmt.Errorf("node %s holds no transform", target.ID())
		return
	}
	switch target.Class {
	case scene.LinearTransform:
		err = writeITKAffine(storage.FileName(), transform.Matrix)
	case scene.GridTransform:
		if transform.Displacement == nil || !hasExtension(storage.FileName(), ".nrrd") {
			err = fmt.Errorf("%w: %s", ErrUnsupportedWrite, storage.FileName())
			return
		}
		err = writeNRRD(storage.FileName(), transform.Displacement, nil, nil)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedWrite, target.Class)
	}
	return
}

// First transform entry of an ITK transform file
type itkTransform struct {
	name       string
	parameters []float64
	fixed      []float64
}

func parseITKTransform(reader io.Reader) (entry itkTransform, err error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != itkTransformMagic {
		err = fmt.Errorf("not an itk transform file")
		return
	}
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Transform":
			if entry.name != "" {
				// Composite files: only the first transform is used
				return
			}
			entry.name = value
		case "Parameters":
			entry.parameters, err = parseFloats(value)
		case "FixedParameters":
			entry.fixed, err = parseFloats(value)
		}
		if err != nil {
			return
		}
	}
	err = scanner.Err()
	if err == nil && entry.name == "" {
		err = fmt.Errorf("itk transform file holds no transform")
	}
	return
}

func (entry itkTransform) toData(class scene.Class) (transform *scene.TransformData, err error) {
	isBSpline := strings.HasPrefix(entry.name, "BSplineDeformableTransform") ||
		strings.HasPrefix(entry.name, "BSplineTransform")
	if class == scene.BSplineTransform {
		if !isBSpline {
			err = fmt.Errorf("transform type %q is not a bspline", entry.name)
			return
		}
		transform = &scene.TransformData{
			Matrix:     scene.Identity(),
			Parameters: entry.parameters,
			Fixed:      entry.fixed,
		}
		return
	}
	if isBSpline {
		err = fmt.Errorf("transform type %q is not linear", entry.name)
		return
	}

	// Affine: 9 matrix values then 3 translation values, center in the fixed parameters
	if len(entry.parameters) != 12 {
		err = fmt.Errorf("linear transform %q has %d parameters", entry.name, len(entry.parameters))
		return
	}
	var center [3]float64
	if len(entry.fixed) == 3 {
		copy(center[:], entry.fixed)
	}
	matrix := scene.Identity()
	for row := 0; row < 3; row++ {
		offset := entry.parameters[9+row] + center[row]
		for col := 0; col < 3; col++ {
			value := entry.parameters[row*3+col]
			matrix[row*4+col] = value
			offset -= value * center[col]
		}
		matrix[row*4+3] = offset
	}
	transform = &scene.TransformData{Matrix: matrix}
	return
}

func writeITKAffine(fileName string, matrix [16]float64) (err error) {
	writer, err := createData(fileName)
	if err != nil {
		return
	}
	fmt.Fprintf(writer, "%s\n#Transform 0\nTransform: AffineTransform_double_3_3\nParameters:", itkTransformMagic)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			fmt.Fprintf(writer, " %g", matrix[row*4+col])
		}
	}
	for row := 0; row < 3; row++ {
		fmt.Fprintf(writer, " %g", matrix[row*4+3])
	}
	fmt.Fprintf(writer, "\nFixedParameters: 0 0 0\n")
	err = writer.Close()
	return
}
