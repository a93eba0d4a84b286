package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slicerlogic/internal/scene"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

var metaTypes = map[string]string{
	"MET_CHAR":   sampleInt8,
	"MET_UCHAR":  sampleUint8,
	"MET_SHORT":  sampleInt16,
	"MET_USHORT": sampleUint16,
	"MET_INT":    sampleInt32,
	"MET_UINT":   sampleUint32,
	"MET_LONG":   sampleInt32,
	"MET_ULONG":  sampleUint32,
	"MET_FLOAT":  sampleFloat32,
	"MET_DOUBLE": sampleFloat64,
}

// Reads a MetaImage (.mha with LOCAL data, or .mhd with a detached raw file)
func readMetaImage(fileName string) (image *scene.ImageData, err error) {
	source, err := openData(fileName)
	if err != nil {
		return
	}
	defer source.Close()

	reader := bufio.NewReader(source)
	fields := make(map[string]string)
	for {
		var line string
		line, err = reader.ReadString('\n')
		if err != nil {
			err = fmt.Errorf("header ended before ElementDataFile: %w", err)
			return
		}
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		fields[key] = strings.TrimSpace(value)
		if key == "ElementDataFile" {
			break
		}
	}

	image = &scene.ImageData{Components: 1, Spacing: [3]float64{1, 1, 1}, Dimensions: [3]int{1, 1, 1}}

	dims, err := parseFloats(fields["DimSize"])
	if err != nil || len(dims) < 2 || len(dims) > 3 {
		err = fmt.Errorf("invalid DimSize %q", fields["DimSize"])
		return
	}
	for i, dim := range dims {
		image.Dimensions[i] = int(dim)
	}
	if spacing, parseErr := parseFloats(fields["ElementSpacing"]); parseErr == nil {
		copy(image.Spacing[:], spacing)
	}
	offsetField := fields["Offset"]
	if offsetField == "" {
		offsetField = fields["Position"]
	}
	if offset, parseErr := parseFloats(offsetField); parseErr == nil {
		copy(image.Origin[:], offset)
	}
	if channels := fields["ElementNumberOfChannels"]; channels != "" {
		image.Components, err = strconv.Atoi(channels)
		if err != nil || image.Components < 1 {
			err = fmt.Errorf("invalid ElementNumberOfChannels %q", channels)
			return
		}
	}

	sampleType, ok := metaTypes[fields["ElementType"]]
	if !ok {
		err = fmt.Errorf("unsupported ElementType %q", fields["ElementType"])
		return
	}
	var order binary.ByteOrder = binary.LittleEndian
	msb := strings.ToLower(fields["BinaryDataByteOrderMSB"] + fields["ElementByteOrderMSB"])
	if strings.HasPrefix(msb, "true") {
		order = binary.BigEndian
	}

	var data io.Reader = reader
	if dataFile := fields["ElementDataFile"]; dataFile != "LOCAL" {
		if !filepath.IsAbs(dataFile) {
			dataFile = filepath.Join(filepath.Dir(fileName), dataFile)
		}
		var detached *os.File
		detached, err = os.Open(dataFile)
		if err != nil {
			err = fmt.Errorf("failed to open element data file: %w", err)
			return
		}
		defer detached.Close()
		data = bufio.NewReader(detached)
	}

	if strings.EqualFold(fields["CompressedData"], "true") {
		var inflater io.ReadCloser
		inflater, err = zlib.NewReader(data)
		if err != nil {
			err = fmt.Errorf("invalid compressed element data: %w", err)
			return
		}
		defer inflater.Close()
		data = inflater
	}

	image.Scalars, err = decodeSamples(data, sampleType, order, image.NumberOfVoxels()*image.Components)
	return
}

func parseFloats(value string) (values []float64, err error) {
	for _, token := range strings.Fields(value) {
		var parsed float64
		parsed, err = strconv.ParseFloat(token, 64)
		if err != nil {
			return
		}
		values = append(values, parsed)
	}
	if len(values) == 0 {
		err = fmt.Errorf("no values")
	}
	return
}
