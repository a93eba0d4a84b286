package scene

// Bulk payload held by a storable node
type Data interface {
	Clone() Data
}

// Intensity statistics of a scalar image
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Low    float64 // 1st percentile
	High   float64 // 99th percentile
}

// Regular grid of samples, possibly multi-component (tensors, gradients)
type ImageData struct {
	Dimensions [3]int
	Spacing    [3]float64
	Origin     [3]float64
	Components int
	Scalars    []float64
	Stats      Stats

	// Diffusion acquisition parameters, empty for plain scalar images
	Gradients [][3]float64
	BValues   []float64
}

func (image *ImageData) Clone() Data {
	clone := *image
	clone.Scalars = append([]float64(nil), image.Scalars...)
	clone.Gradients = append([][3]float64(nil), image.Gradients...)
	clone.BValues = append([]float64(nil), image.BValues...)
	return &clone
}

func (image *ImageData) NumberOfVoxels() int {
	return image.Dimensions[0] * image.Dimensions[1] * image.Dimensions[2]
}

// Points with line and polygon connectivity (models, fiber tracts)
type PolyData struct {
	Points       [][3]float64
	Lines        [][]int
	Polys        [][]int
	PointScalars []float64 // per point overlay values
}

func (poly *PolyData) Clone() Data {
	clone := &PolyData{
		Points:       append([][3]float64(nil), poly.Points...),
		PointScalars: append([]float64(nil), poly.PointScalars...),
		Lines:        make([][]int, len(poly.Lines)),
		Polys:        make([][]int, len(poly.Polys)),
	}
	for i, line := range poly.Lines {
		clone.Lines[i] = append([]int(nil), line...)
	}
	for i, poly := range poly.Polys {
		clone.Polys[i] = append([]int(nil), poly...)
	}
	return clone
}

type ColorEntry struct {
	Index int
	Name  string
	RGBA  [4]float64
}

type ColorTableData struct {
	Entries []ColorEntry
}

func (table *ColorTableData) Clone() Data {
	return &ColorTableData{Entries: append([]ColorEntry(nil), table.Entries...)}
}

// Affine matrix (row major) or displacement grid depending on the owning node class
type TransformData struct {
	Matrix       [16]float64
	Displacement *ImageData
	Parameters   []float64 // bspline coefficients
	Fixed        []float64 // bspline grid geometry
}

func Identity() (matrix [16]float64) {
	matrix[0], matrix[5], matrix[10], matrix[15] = 1, 1, 1, 1
	return
}

func (transform *TransformData) Clone() Data {
	clone := &TransformData{
		Matrix:     transform.Matrix,
		Parameters: append([]float64(nil), transform.Parameters...),
		Fixed:      append([]float64(nil), transform.Fixed...),
	}
	if transform.Displacement != nil {
		clone.Displacement = transform.Displacement.Clone().(*ImageData)
	}
	return clone
}
