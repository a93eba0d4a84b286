package storage

import (
	"bufio"
	"fmt"
	"io"
	"slicerlogic/internal/scene"
	"strconv"
	"strings"
)

// Token stream over an ASCII VTK legacy file
type vtkTokens struct {
	scanner *bufio.Scanner
}

func newVTKTokens(reader io.Reader) (tokens *vtkTokens) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)
	tokens = &vtkTokens{scanner: scanner}
	return
}

func (tokens *vtkTokens) next() (token string, ok bool) {
	if !tokens.scanner.Scan() {
		return
	}
	token, ok = tokens.scanner.Text(), true
	return
}

func (tokens *vtkTokens) nextInt() (value int, err error) {
	token, ok := tokens.next()
	if !ok {
		err = io.ErrUnexpectedEOF
		return
	}
	value, err = strconv.Atoi(token)
	return
}

func (tokens *vtkTokens) nextFloat() (value float64, err error) {
	token, ok := tokens.next()
	if !ok {
		err = io.ErrUnexpectedEOF
		return
	}
	value, err = strconv.ParseFloat(token, 64)
	return
}

// Reads ASCII VTK legacy POLYDATA (points, lines, polygons, point scalars)
func readVTKPolyData(reader io.Reader) (poly *scene.PolyData, err error) {
	lines := bufio.NewReader(reader)
	magic, err := lines.ReadString('\n')
	if err != nil || !strings.HasPrefix(magic, "# vtk DataFile") {
		err = fmt.Errorf("not a vtk legacy file")
		return
	}
	_, err = lines.ReadString('\n') // title
	if err != nil {
		return
	}
	format, err := lines.ReadString('\n')
	if err != nil {
		return
	}
	if strings.ToUpper(strings.TrimSpace(format)) != "ASCII" {
		err = fmt.Errorf("unsupported vtk encoding %q", strings.TrimSpace(format))
		return
	}

	tokens := newVTKTokens(lines)
	poly = &scene.PolyData{}
	for {
		keyword, ok := tokens.next()
		if !ok {
			break
		}
		switch strings.ToUpper(keyword) {
		case "DATASET":
			kind, _ := tokens.next()
			if strings.ToUpper(kind) != "POLYDATA" {
				err = fmt.Errorf("unsupported vtk dataset %q", kind)
				return
			}
		case "POINTS":
			var count int
			count, err = tokens.nextInt()
			if err != nil {
				return
			}
			tokens.next() // sample type
			poly.Points = make([][3]float64, count)
			for i := 0; i < count; i++ {
				for axis := 0; axis < 3; axis++ {
					poly.Points[i][axis], err = tokens.nextFloat()
					if err != nil {
						err = fmt.Errorf("point %d: %w", i, err)
						return
					}
				}
			}
		case "LINES", "POLYGONS":
			var cells [][]int
			cells, err = readVTKCells(tokens)
			if err != nil {
				err = fmt.Errorf("%s: %w", keyword, err)
				return
			}
			if strings.ToUpper(keyword) == "LINES" {
				poly.Lines = cells
			} else {
				poly.Polys = cells
			}
		case "VERTICES", "TRIANGLE_STRIPS":
			_, err = readVTKCells(tokens)
			if err != nil {
				return
			}
		case "POINT_DATA":
			_, err = tokens.nextInt()
			if err != nil {
				return
			}
		case "SCALARS":
			tokens.next() // name
			tokens.next() // type
			token, _ := tokens.next()
			if strings.ToUpper(token) != "LOOKUP_TABLE" {
				tokens.next() // component count precedes the table keyword
			}
			tokens.next() // table name
			poly.PointScalars = make([]float64, len(poly.Points))
			for i := range poly.PointScalars {
				poly.PointScalars[i], err = tokens.nextFloat()
				if err != nil {
					err = fmt.Errorf("scalar %d: %w", i, err)
					return
				}
			}
		}
	}
	err = tokens.scanner.Err()
	if err != nil {
		return
	}
	err = validatePolyData(poly)
	return
}

func readVTKCells(tokens *vtkTokens) (cells [][]int, err error) {
	count, err := tokens.nextInt()
	if err != nil {
		return
	}
	if _, err = tokens.nextInt(); err != nil {
		return
	}
	cells = make([][]int, count)
	for i := range cells {
		var size int
		size, err = tokens.nextInt()
		if err != nil {
			return
		}
		cells[i] = make([]int, size)
		for j := range cells[i] {
			cells[i][j], err = tokens.nextInt()
			if err != nil {
				return
			}
		}
	}
	return
}

func validatePolyData(poly *scene.PolyData) (err error) {
	for _, cells := range [][][]int{poly.Lines, poly.Polys} {
		for _, cell := range cells {
			for _, index := range cell {
				if index < 0 || index >= len(poly.Points) {
					err = fmt.Errorf("cell references point %d of %d", index, len(poly.Points))
					return
				}
			}
		}
	}
	return
}

func writeVTKPolyData(writer io.Writer, poly *scene.PolyData, title string) (err error) {
	buffered := bufio.NewWriter(writer)
	fmt.Fprintf(buffered, "# vtk DataFile Version 3.0\n%s\nASCII\nDATASET POLYDATA\n", title)
	fmt.Fprintf(buffered, "POINTS %d double\n", len(poly.Points))
	for _, point := range poly.Points {
		fmt.Fprintf(buffered, "%g %g %g\n", point[0], point[1], point[2])
	}
	writeCells := func(keyword string, cells [][]int) {
		if len(cells) == 0 {
			return
		}
		size := 0
		for _, cell := range cells {
			size += len(cell) + 1
		}
		fmt.Fprintf(buffered, "%s %d %d\n", keyword, len(cells), size)
		for _, cell := range cells {
			buffered.WriteString(strconv.Itoa(len(cell)))
			for _, index := range cell {
				buffered.WriteByte(' ')
				buffered.WriteString(strconv.Itoa(index))
			}
			buffered.WriteByte('\n')
		}
	}
	writeCells("LINES", poly.Lines)
	writeCells("POLYGONS", poly.Polys)
	if len(poly.PointScalars) == len(poly.Points) && len(poly.Points) > 0 {
		fmt.Fprintf(buffered, "POINT_DATA %d\nSCALARS scalars double 1\nLOOKUP_TABLE default\n", len(poly.Points))
		for _, value := range poly.PointScalars {
			fmt.Fprintf(buffered, "%g\n", value)
		}
	}
	err = buffered.Flush()
	return
}

func readVTKFile(fileName string) (poly *scene.PolyData, err error) {
	reader, err := openData(fileName)
	if err != nil {
		return
	}
	defer reader.Close()
	poly, err = readVTKPolyData(reader)
	return
}

func writeVTKFile(fileName string, poly *scene.PolyData, title string) (err error) {
	writer, err := createData(fileName)
	if err != nil {
		return
	}
	err = writeVTKPolyData(writer, poly, title)
	closeErr := writer.Close()
	if err == nil {
		err = closeErr
	}
	return
}
