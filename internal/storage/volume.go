package storage

import (
	"fmt"
	"math"
	"slicerlogic/internal/scene"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scalar and vector volumes in NRRD or MetaImage format
type VolumeArchetype struct {
	fileStorage
}

func NewVolumeArchetype() scene.Storable { return &VolumeArchetype{} }

func (storage *VolumeArchetype) Kind() scene.Class { return scene.VolumeArchetypeStorage }

func (storage *VolumeArchetype) SupportedFileType(name string) bool {
	return hasExtension(name, ".nrrd", ".nhdr", ".mha", ".mhd")
}

func (storage *VolumeArchetype) Clone() scene.Storable {
	clone := &VolumeArchetype{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *VolumeArchetype) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		if target.Class != scene.ScalarVolume && target.Class != scene.VectorVolume {
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		image, err := readVolume(fileName)
		if err != nil {
			return
		}
		if target.Class == scene.ScalarVolume && image.Components != 1 {
			err = fmt.Errorf("scalar volume file has %d components", image.Components)
			return
		}
		if image.Components == 1 {
			image.Stats = computeStats(image.Scalars)
		}
		target.Data = image
		return
	})
	return
}

func (storage *VolumeArchetype) WriteData(target *scene.Node) (err error) {
	image, ok := target.Data.(*scene.ImageData)
	if !ok {
		err = fmt.Errorf("node %s holds no image data", target.ID())
		return
	}
	if !hasExtension(storage.FileName(), ".nrrd") {
		err = fmt.Errorf("%w: %s", ErrUnsupportedWrite, storage.FileName())
		return
	}
	err = writeNRRD(storage.FileName(), image, nil, nil)
	return
}

// Diffusion weighted and diffusion tensor volumes in NRRD format
type NRRD struct {
	fileStorage
}

func NewNRRD() scene.Storable { return &NRRD{} }

func (storage *NRRD) Kind() scene.Class { return scene.NRRDStorage }

func (storage *NRRD) SupportedFileType(name string) bool {
	return hasExtension(name, ".nrrd", ".nhdr")
}

func (storage *NRRD) Clone() scene.Storable {
	clone := &NRRD{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

const (
	keyModality = "modality"
	keyBValue   = "DWMRI_b-value"
	keyGradient = "DWMRI_gradient_"
)

func (storage *NRRD) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		image, header, err := readNRRD(fileName)
		if err != nil {
			return
		}

		switch target.Class {
		case scene.DiffusionWeightedVolume:
			image.Gradients, image.BValues, err = parseGradients(header.keyValues)
			if err != nil {
				return
			}
			if len(image.Gradients) != image.Components {
				err = fmt.Errorf("%d gradients for %d diffusion components", len(image.Gradients), image.Components)
				return
			}
		case scene.DiffusionTensorVolume:
			switch image.Components {
			case 6, 7, 9:
			default:
				err = fmt.Errorf("tensor volume with %d components", image.Components)
				return
			}
		default:
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		target.Data = image
		return
	})
	return
}

func (storage *NRRD) WriteData(target *scene.Node) (err error) {
	image, ok := target.Data.(*scene.ImageData)
	if !ok {
		err = fmt.Errorf("node %s holds no image data", target.ID())
		return
	}

	keyValues := make(map[string]string)
	var kinds []string
	switch target.Class {
	case scene.DiffusionWeightedVolume:
		keyValues[keyModality] = "DWMRI"
		maxB := 0.0
		if len(image.BValues) > 0 {
			maxB = floats.Max(image.BValues)
		}
		keyValues[keyBValue] = strconv.FormatFloat(maxB, 'g', -1, 64)
		for i, gradient := range image.Gradients {
			scale := 1.0
			if maxB > 0 && i < len(image.BValues) {
				scale = math.Sqrt(image.BValues[i] / maxB)
			}
			keyValues[fmt.Sprintf("%s%04d", keyGradient, i)] = fmt.Sprintf("%g %g %g",
				gradient[0]*scale, gradient[1]*scale, gradient[2]*scale)
		}
	case scene.DiffusionTensorVolume:
		if image.Components == 9 {
			kinds = []string{"3D-matrix", "space", "space", "space"}
		} else if image.Components == 7 {
			kinds = []string{"3D-masked-symmetric-matrix", "space", "space", "space"}
		}
	default:
		err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
		return
	}
	err = writeNRRD(storage.FileName(), image, kinds, keyValues)
	return
}

// Gradient directions (unit length) with per gradient b-values scaled by squared gradient norm
func parseGradients(keyValues map[string]string) (gradients [][3]float64, bValues []float64, err error) {
	rawB, ok := keyValues[keyBValue]
	if !ok {
		err = fmt.Errorf("missing %s", keyBValue)
		return
	}
	maxB, err := strconv.ParseFloat(strings.TrimSpace(rawB), 64)
	if err != nil {
		err = fmt.Errorf("invalid %s %q", keyBValue, rawB)
		return
	}

	var keys []string
	for key := range keyValues {
		if strings.HasPrefix(key, keyGradient) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		err = fmt.Errorf("no gradient directions")
		return
	}
	sort.Strings(keys)

	for _, key := range keys {
		var components []float64
		components, err = parseFloats(keyValues[key])
		if err != nil || len(components) != 3 {
			err = fmt.Errorf("invalid gradient %s %q", key, keyValues[key])
			return
		}
		norm := floats.Norm(components, 2)
		var gradient [3]float64
		if norm > 0 {
			for i := range gradient {
				gradient[i] = components[i] / norm
			}
		}
		gradients = append(gradients, gradient)
		bValues = append(bValues, maxB*norm*norm)
	}
	return
}

func readVolume(fileName string) (image *scene.ImageData, err error) {
	if hasExtension(fileName, ".mha", ".mhd") {
		image, err = readMetaImage(fileName)
		return
	}
	image, _, err = readNRRD(fileName)
	return
}

// Intensity statistics used for default window/level
func computeStats(values []float64) (stats scene.Stats) {
	if len(values) == 0 {
		return
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Mean, stats.StdDev = stat.MeanStdDev(sorted, nil)
	if math.IsNaN(stats.StdDev) {
		stats.StdDev = 0
	}
	stats.Low = stat.Quantile(0.01, stat.Empirical, sorted, nil)
	stats.High = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return
}
