package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"slicerlogic/internal/scene"
	"strconv"
	"strings"
)

// Surface models in VTK legacy, STL or OBJ format
type ModelStorage struct {
	fileStorage
}

func NewModel() scene.Storable { return &ModelStorage{} }

func (storage *ModelStorage) Kind() scene.Class { return scene.ModelStorage }

func (storage *ModelStorage) SupportedFileType(name string) bool {
	return hasExtension(name, ".vtk", ".stl", ".obj", ".ply")
}

func (storage *ModelStorage) Clone() scene.Storable {
	clone := &ModelStorage{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *ModelStorage) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		if target.Class != scene.Model {
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		var poly *scene.PolyData
		switch extension(fileName) {
		case ".vtk":
			poly, err = readVTKFile(fileName)
		case ".stl":
			poly, err = readSTL(fileName)
		case ".obj":
			poly, err = readOBJ(fileName)
		case ".ply":
			poly, err = readPLY(fileName)
		default:
			err = ErrUnsupportedFile
		}
		if err != nil {
			return
		}
		target.Data = poly
		return
	})
	return
}

func (storage *ModelStorage) WriteData(target *scene.Node) (err error) {
	poly, ok := target.Data.(*scene.PolyData)
	if !ok {
		err = fmt.Errorf("node %s holds no surface data", target.ID())
		return
	}
	if extension(storage.FileName()) != ".vtk" {
		err = fmt.Errorf("%w: %s", ErrUnsupportedWrite, storage.FileName())
		return
	}
	err = writeVTKFile(storage.FileName(), poly, target.Name)
	return
}

// Merges coincident vertices while building triangle connectivity
type pointIndex struct {
	poly  *scene.PolyData
	index map[[3]float64]int
}

func newPointIndex() *pointIndex {
	return &pointIndex{poly: &scene.PolyData{}, index: make(map[[3]float64]int)}
}

func (pi *pointIndex) add(point [3]float64) (id int) {
	id, ok := pi.index[point]
	if ok {
		return
	}
	id = len(pi.poly.Points)
	pi.poly.Points = append(pi.poly.Points, point)
	pi.index[point] = id
	return
}

func readSTL(fileName string) (poly *scene.PolyData, err error) {
	raw, err := os.ReadFile(fileName)
	if err != nil {
		return
	}
	if len(raw) >= 84 {
		count := binary.LittleEndian.Uint32(raw[80:84])
		if uint64(len(raw)) == 84+uint64(count)*50 {
			poly, err = parseBinarySTL(raw[84:], int(count))
			return
		}
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("solid")) {
		err = fmt.Errorf("not an stl file")
		return
	}
	poly, err = parseASCIISTL(bytes.NewReader(raw))
	return
}

func parseBinarySTL(raw []byte, count int) (poly *scene.PolyData, err error) {
	points := newPointIndex()
	for i := 0; i < count; i++ {
		record := raw[i*50 : (i+1)*50]
		triangle := make([]int, 3)
		for corner := 0; corner < 3; corner++ {
			var point [3]float64
			for axis := 0; axis < 3; axis++ {
				offset := 12 + corner*12 + axis*4 // skip facet normal
				point[axis] = float64(math.Float32frombits(binary.LittleEndian.Uint32(record[offset:])))
			}
			triangle[corner] = points.add(point)
		}
		points.poly.Polys = append(points.poly.Polys, triangle)
	}
	poly = points.poly
	return
}

func parseASCIISTL(reader io.Reader) (poly *scene.PolyData, err error) {
	points := newPointIndex()
	var facet []int
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				err = fmt.Errorf("malformed vertex line %q", scanner.Text())
				return
			}
			var values []float64
			values, err = parseFloats(strings.Join(fields[1:], " "))
			if err != nil {
				return
			}
			facet = append(facet, points.add([3]float64{values[0], values[1], values[2]}))
		case "endfacet":
			if len(facet) >= 3 {
				points.poly.Polys = append(points.poly.Polys, facet)
			}
			facet = nil
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}
	if len(points.poly.Polys) == 0 {
		err = fmt.Errorf("stl file holds no facets")
		return
	}
	poly = points.poly
	return
}

func readOBJ(fileName string) (poly *scene.PolyData, err error) {
	reader, err := openData(fileName)
	if err != nil {
		return
	}
	defer reader.Close()

	poly = &scene.PolyData{}
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				err = fmt.Errorf("line %d: vertex needs three coordinates", lineNumber)
				return
			}
			var values []float64
			values, err = parseFloats(strings.Join(fields[1:4], " "))
			if err != nil {
				err = fmt.Errorf("line %d: %w", lineNumber, err)
				return
			}
			poly.Points = append(poly.Points, [3]float64{values[0], values[1], values[2]})
		case "f", "l":
			cell := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				// v, v/vt, v/vt/vn and v//vn forms, 1-based or negative relative
				var index int
				index, err = strconv.Atoi(strings.SplitN(ref, "/", 2)[0])
				if err != nil {
					err = fmt.Errorf("line %d: invalid vertex reference %q", lineNumber, ref)
					return
				}
				if index < 0 {
					index = len(poly.Points) + index
				} else {
					index--
				}
				cell = append(cell, index)
			}
			if fields[0] == "f" {
				poly.Polys = append(poly.Polys, cell)
			} else {
				poly.Lines = append(poly.Lines, cell)
			}
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}
	err = validatePolyData(poly)
	return
}

// ASCII PLY with vertex and face elements; other elements are skipped
func readPLY(fileName string) (poly *scene.PolyData, err error) {
	reader, err := openData(fileName)
	if err != nil {
		return
	}
	defer reader.Close()

	type element struct {
		name       string
		count      int
		properties int
	}
	var elements []element

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		err = fmt.Errorf("not a ply file")
		return
	}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "end_header" {
			break
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				err = fmt.Errorf("unsupported ply format %q", scanner.Text())
				return
			}
		case "element":
			if len(fields) != 3 {
				err = fmt.Errorf("malformed ply element %q", scanner.Text())
				return
			}
			var count int
			count, err = strconv.Atoi(fields[2])
			if err != nil {
				return
			}
			elements = append(elements, element{name: fields[1], count: count})
		case "property":
			if len(elements) == 0 {
				err = fmt.Errorf("ply property before element")
				return
			}
			elements[len(elements)-1].properties++
		}
	}

	poly = &scene.PolyData{}
	for _, elem := range elements {
		for i := 0; i < elem.count; i++ {
			if !scanner.Scan() {
				err = fmt.Errorf("ply %s %d: %w", elem.name, i, io.ErrUnexpectedEOF)
				return
			}
			fields := strings.Fields(scanner.Text())
			switch elem.name {
			case "vertex":
				if len(fields) < 3 {
					err = fmt.Errorf("ply vertex %d needs three coordinates", i)
					return
				}
				var values []float64
				values, err = parseFloats(strings.Join(fields[:3], " "))
				if err != nil {
					return
				}
				poly.Points = append(poly.Points, [3]float64{values[0], values[1], values[2]})
			case "face":
				var size int
				size, err = strconv.Atoi(fields[0])
				if err != nil || len(fields) < size+1 {
					err = fmt.Errorf("malformed ply face %d", i)
					return
				}
				face := make([]int, size)
				for j := range face {
					face[j], err = strconv.Atoi(fields[j+1])
					if err != nil {
						return
					}
				}
				poly.Polys = append(poly.Polys, face)
			}
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}
	err = validatePolyData(poly)
	return
}

const (
	freeSurferTriangleMagic = 0xFFFFFE
	freeSurferCurvMagic     = 0xFFFFFF
)

// FreeSurfer binary triangle surfaces (lh.pial, rh.white, ...)
type FreeSurferModel struct {
	fileStorage
}

func NewFreeSurferModel() scene.Storable { return &FreeSurferModel{} }

func (storage *FreeSurferModel) Kind() scene.Class { return scene.FreeSurferModelStorage }

func (storage *FreeSurferModel) SupportedFileType(name string) bool {
	return hasExtension(name, ".orig", ".inflated", ".sphere", ".white", ".smoothwm", ".pial")
}

func (storage *FreeSurferModel) Clone() scene.Storable {
	clone := &FreeSurferModel{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *FreeSurferModel) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		if target.Class != scene.Model {
			err = fmt.Errorf("%w: %s", ErrWrongTarget, target.Class)
			return
		}
		reader, err := openData(fileName)
		if err != nil {
			return
		}
		defer reader.Close()
		poly, err := readFreeSurferSurface(bufio.NewReader(reader))
		if err != nil {
			return
		}
		target.Data = poly
		return
	})
	return
}

func (storage *FreeSurferModel) WriteData(target *scene.Node) (err error) {
	err = fmt.Errorf("%w: %s", ErrUnsupportedWrite, storage.FileName())
	return
}

func readMagic(reader io.Reader) (magic uint32, err error) {
	var raw [3]byte
	_, err = io.ReadFull(reader, raw[:])
	if err != nil {
		return
	}
	magic = uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	return
}

func readFreeSurferSurface(reader *bufio.Reader) (poly *scene.PolyData, err error) {
	magic, err := readMagic(reader)
	if err != nil {
		return
	}
	if magic != freeSurferTriangleMagic {
		err = fmt.Errorf("unexpected surface magic %#x", magic)
		return
	}
	// Creator comment is terminated by two newlines
	for newlines := 0; newlines < 2; {
		var b byte
		b, err = reader.ReadByte()
		if err != nil {
			return
		}
		if b == '\n' {
			newlines++
		} else {
			newlines = 0
		}
	}

	var counts [2]int32
	err = binary.Read(reader, binary.BigEndian, &counts)
	if err != nil {
		return
	}
	vertexCount, faceCount := int(counts[0]), int(counts[1])
	if vertexCount < 0 || faceCount < 0 {
		err = fmt.Errorf("invalid surface sizes %d/%d", vertexCount, faceCount)
		return
	}

	coords := make([]float32, vertexCount*3)
	err = binary.Read(reader, binary.BigEndian, coords)
	if err != nil {
		return
	}
	faces := make([]int32, faceCount*3)
	err = binary.Read(reader, binary.BigEndian, faces)
	if err != nil {
		return
	}

	poly = &scene.PolyData{Points: make([][3]float64, vertexCount), Polys: make([][]int, faceCount)}
	for i := range poly.Points {
		poly.Points[i] = [3]float64{float64(coords[i*3]), float64(coords[i*3+1]), float64(coords[i*3+2])}
	}
	for i := range poly.Polys {
		poly.Polys[i] = []int{int(faces[i*3]), int(faces[i*3+1]), int(faces[i*3+2])}
	}
	err = validatePolyData(poly)
	return
}

// FreeSurfer per vertex scalar overlays loaded onto an existing model
type FreeSurferModelOverlay struct {
	fileStorage
}

func NewFreeSurferModelOverlay() scene.Storable { return &FreeSurferModelOverlay{} }

func (storage *FreeSurferModelOverlay) Kind() scene.Class {
	return scene.FreeSurferModelOverlayStorage
}

func (storage *FreeSurferModelOverlay) SupportedFileType(name string) bool {
	return hasExtension(name, ".curv", ".thickness", ".sulc", ".area")
}

func (storage *FreeSurferModelOverlay) Clone() scene.Storable {
	clone := &FreeSurferModelOverlay{}
	clone.copyFrom(&storage.fileStorage)
	return clone
}

func (storage *FreeSurferModelOverlay) ReadData(target *scene.Node) (err error) {
	err = storage.read(storage.Kind(), func(fileName string) (err error) {
		poly, ok := target.Data.(*scene.PolyData)
		if target.Class != scene.Model || !ok {
			err = fmt.Errorf("%w: overlay requires a loaded model", ErrWrongTarget)
			return
		}
		reader, err := openData(fileName)
		if err != nil {
			return
		}
		defer reader.Close()
		values, err := readFreeSurferCurv(reader)
		if err != nil {
			return
		}
		if len(values) != len(poly.Points) {
			err = fmt.Errorf("overlay has %d values for %d vertices", len(values), len(poly.Points))
			return
		}
		poly.PointScalars = values
		return
	})
	return
}

func (storage *FreeSurferModelOverlay) WriteData(target *scene.Node) (err error) {
	err = fmt.Errorf("%w: %s", ErrUnsupportedWrite, storage.FileName())
	return
}

func readFreeSurferCurv(reader io.Reader) (values []float64, err error) {
	magic, err := readMagic(reader)
	if err != nil {
		return
	}
	if magic != freeSurferCurvMagic {
		err = fmt.Errorf("unexpected overlay magic %#x", magic)
		return
	}
	var header [3]int32 // vertices, faces, values per vertex
	err = binary.Read(reader, binary.BigEndian, &header)
	if err != nil {
		return
	}
	if header[0] < 0 || header[2] != 1 {
		err = fmt.Errorf("unsupported overlay layout %v", header)
		return
	}
	raw := make([]float32, header[0])
	err = binary.Read(reader, binary.BigEndian, raw)
	if err != nil {
		return
	}
	values = make([]float64, len(raw))
	for i, value := range raw {
		values[i] = float64(value)
	}
	return
}
