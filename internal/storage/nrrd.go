package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slicerlogic/internal/scene"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

type nrrdHeader struct {
	sampleType      string
	dimension       int
	sizes           []int
	encoding        string
	endian          binary.ByteOrder
	spaceDirections [][]float64 // nil entry for "none" axes
	spacings        []float64
	origin          [3]float64
	kinds           []string
	dataFile        string
	byteSkip        int
	keyValues       map[string]string
}

var nrrdTypes = map[string]string{
	"signed char": sampleInt8, "int8": sampleInt8, "int8_t": sampleInt8, "char": sampleInt8,
	"uchar": sampleUint8, "unsigned char": sampleUint8, "uint8": sampleUint8, "uint8_t": sampleUint8,
	"short": sampleInt16, "short int": sampleInt16, "signed short": sampleInt16, "signed short int": sampleInt16, "int16": sampleInt16, "int16_t": sampleInt16,
	"ushort": sampleUint16, "unsigned short": sampleUint16, "unsigned short int": sampleUint16, "uint16": sampleUint16, "uint16_t": sampleUint16,
	"int": sampleInt32, "signed int": sampleInt32, "int32": sampleInt32, "int32_t": sampleInt32,
	"uint": sampleUint32, "unsigned int": sampleUint32, "uint32": sampleUint32, "uint32_t": sampleUint32,
	"longlong": sampleInt64, "long long": sampleInt64, "long long int": sampleInt64, "int64": sampleInt64, "int64_t": sampleInt64,
	"ulonglong": sampleUint64, "unsigned long long": sampleUint64, "unsigned long long int": sampleUint64, "uint64": sampleUint64, "uint64_t": sampleUint64,
	"float":  sampleFloat32,
	"double": sampleFloat64,
}

// Reads a NRRD file (attached or detached data) into an image
func readNRRD(fileName string) (image *scene.ImageData, header nrrdHeader, err error) {
	source, err := openData(fileName)
	if err != nil {
		return
	}
	defer source.Close()

	reader := bufio.NewReader(source)
	header, err = parseNRRDHeader(reader)
	if err != nil {
		return
	}

	image, err = header.geometry()
	if err != nil {
		return
	}

	var data io.Reader = reader
	if header.dataFile != "" && header.dataFile != "LOCAL" {
		dataPath := header.dataFile
		if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(filepath.Dir(fileName), dataPath)
		}
		var detached *os.File
		detached, err = os.Open(dataPath)
		if err != nil {
			err = fmt.Errorf("failed to open detached data file: %w", err)
			return
		}
		defer detached.Close()
		data = bufio.NewReader(detached)
	}

	if header.byteSkip > 0 && header.encoding == "raw" {
		_, err = io.CopyN(io.Discard, data, int64(header.byteSkip))
		if err != nil {
			err = fmt.Errorf("failed to skip %d bytes: %w", header.byteSkip, err)
			return
		}
	}

	count := image.NumberOfVoxels() * image.Components
	switch header.encoding {
	case "raw":
		image.Scalars, err = decodeSamples(data, header.sampleType, header.endian, count)
	case "gzip", "gz":
		var gz *gzip.Reader
		gz, err = gzip.NewReader(data)
		if err != nil {
			err = fmt.Errorf("invalid gzip data: %w", err)
			return
		}
		defer gz.Close()
		image.Scalars, err = decodeSamples(gz, header.sampleType, header.endian, count)
	case "ascii", "text", "txt":
		image.Scalars, err = decodeTextSamples(data, count)
	default:
		err = fmt.Errorf("unsupported nrrd encoding %q", header.encoding)
	}
	return
}

func parseNRRDHeader(reader *bufio.Reader) (header nrrdHeader, err error) {
	magic, err := reader.ReadString('\n')
	if err != nil || !strings.HasPrefix(magic, "NRRD000") {
		err = fmt.Errorf("missing NRRD magic")
		return
	}

	header.endian = binary.LittleEndian
	header.encoding = "raw"
	header.keyValues = make(map[string]string)

	for {
		var line string
		line, err = reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err == io.EOF && line == "" {
			err = nil
			break // detached header
		}
		if err != nil && err != io.EOF {
			return
		}
		if line == "" {
			err = nil
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		if key, value, found := strings.Cut(line, ":="); found {
			header.keyValues[key] = value
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if !found {
			err = fmt.Errorf("malformed header line %q", line)
			return
		}
		err = header.setField(strings.ToLower(strings.TrimSpace(field)), strings.TrimSpace(value))
		if err != nil {
			return
		}
	}

	if header.sampleType == "" || header.dimension == 0 || len(header.sizes) != header.dimension {
		err = fmt.Errorf("incomplete header (type %q, dimension %d, %d sizes)", header.sampleType, header.dimension, len(header.sizes))
	}
	return
}

func (header *nrrdHeader) setField(field, value string) (err error) {
	switch field {
	case "type":
		sampleType, ok := nrrdTypes[strings.ToLower(value)]
		if !ok {
			err = fmt.Errorf("unsupported nrrd type %q", value)
			return
		}
		header.sampleType = sampleType
	case "dimension":
		header.dimension, err = strconv.Atoi(value)
		if err == nil && (header.dimension < 2 || header.dimension > 4) {
			err = fmt.Errorf("unsupported dimension %d", header.dimension)
		}
	case "sizes":
		for _, token := range strings.Fields(value) {
			var size int
			size, err = strconv.Atoi(token)
			if err != nil || size <= 0 {
				err = fmt.Errorf("invalid size %q", token)
				return
			}
			header.sizes = append(header.sizes, size)
		}
	case "encoding":
		header.encoding = strings.ToLower(value)
	case "endian":
		if strings.ToLower(value) == "big" {
			header.endian = binary.BigEndian
		}
	case "space directions":
		header.spaceDirections, err = parseVectors(value)
	case "spacings":
		for _, token := range strings.Fields(value) {
			spacing, parseErr := strconv.ParseFloat(token, 64)
			if parseErr != nil {
				spacing = math.NaN()
			}
			header.spacings = append(header.spacings, spacing)
		}
	case "space origin":
		var vectors [][]float64
		vectors, err = parseVectors(value)
		if err == nil && len(vectors) == 1 && len(vectors[0]) == 3 {
			copy(header.origin[:], vectors[0])
		}
	case "kinds":
		header.kinds = strings.Fields(value)
	case "data file", "datafile":
		header.dataFile = value
	case "byte skip", "byteskip":
		header.byteSkip, err = strconv.Atoi(value)
	}
	if err != nil {
		err = fmt.Errorf("field %q: %w", field, err)
	}
	return
}

// "(1,0,0) none (0,0,2.5)"
func parseVectors(value string) (vectors [][]float64, err error) {
	for _, token := range strings.Fields(value) {
		if token == "none" {
			vectors = append(vectors, nil)
			continue
		}
		token = strings.Trim(token, "()")
		var vector []float64
		for _, part := range strings.Split(token, ",") {
			var component float64
			component, err = strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				err = fmt.Errorf("invalid vector %q", token)
				return
			}
			vector = append(vector, component)
		}
		vectors = append(vectors, vector)
	}
	return
}

// Dimensions, components, spacing and origin from sizes and space fields.
// A leading non-spatial axis of a 4D image holds the components.
func (header nrrdHeader) geometry() (image *scene.ImageData, err error) {
	image = &scene.ImageData{Components: 1, Spacing: [3]float64{1, 1, 1}, Origin: header.origin}

	axisOffset := 0
	if header.dimension == 4 {
		image.Components = header.sizes[0]
		axisOffset = 1
	}
	for axis := 0; axis < 3; axis++ {
		image.Dimensions[axis] = 1
		index := axis + axisOffset
		if index >= header.dimension {
			continue
		}
		image.Dimensions[axis] = header.sizes[index]

		if index < len(header.spaceDirections) && header.spaceDirections[index] != nil {
			var norm float64
			for _, component := range header.spaceDirections[index] {
				norm += component * component
			}
			image.Spacing[axis] = math.Sqrt(norm)
		} else if index < len(header.spacings) && !math.IsNaN(header.spacings[index]) {
			image.Spacing[axis] = header.spacings[index]
		}
	}
	return
}

// Writes image as a gzip encoded NRRD with attached data
func writeNRRD(fileName string, image *scene.ImageData, kinds []string, keyValues map[string]string) (err error) {
	file, err := os.Create(fileName)
	if err != nil {
		return
	}
	defer func() {
		closeErr := file.Close()
		if err == nil {
			err = closeErr
		}
	}()

	buffered := bufio.NewWriter(file)
	dimension := 3
	sizes := fmt.Sprintf("%d %d %d", image.Dimensions[0], image.Dimensions[1], image.Dimensions[2])
	directions := fmt.Sprintf("(%g,0,0) (0,%g,0) (0,0,%g)", image.Spacing[0], image.Spacing[1], image.Spacing[2])
	kindField := "domain domain domain"
	if image.Components > 1 {
		dimension = 4
		sizes = fmt.Sprintf("%d %s", image.Components, sizes)
		directions = "none " + directions
		kindField = "list " + kindField
	}
	if len(kinds) > 0 {
		kindField = strings.Join(kinds, " ")
	}

	fmt.Fprintf(buffered, "NRRD0004\n")
	fmt.Fprintf(buffered, "type: double\n")
	fmt.Fprintf(buffered, "dimension: %d\n", dimension)
	fmt.Fprintf(buffered, "space: right-anterior-superior\n")
	fmt.Fprintf(buffered, "sizes: %s\n", sizes)
	fmt.Fprintf(buffered, "space directions: %s\n", directions)
	fmt.Fprintf(buffered, "kinds: %s\n", kindField)
	fmt.Fprintf(buffered, "endian: little\n")
	fmt.Fprintf(buffered, "encoding: gzip\n")
	fmt.Fprintf(buffered, "space origin: (%g,%g,%g)\n", image.Origin[0], image.Origin[1], image.Origin[2])

	keys := make([]string, 0, len(keyValues))
	for key := range keyValues {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(buffered, "%s:=%s\n", key, keyValues[key])
	}
	fmt.Fprintf(buffered, "\n")

	gz := gzip.NewWriter(buffered)
	err = encodeSamples(gz, image.Scalars)
	if err != nil {
		return
	}
	err = gz.Close()
	if err != nil {
		return
	}
	err = buffered.Flush()
	return
}
