package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Canonical sample type names shared by the NRRD and MetaImage readers
const (
	sampleInt8    = "int8"
	sampleUint8   = "uint8"
	sampleInt16   = "int16"
	sampleUint16  = "uint16"
	sampleInt32   = "int32"
	sampleUint32  = "uint32"
	sampleInt64   = "int64"
	sampleUint64  = "uint64"
	sampleFloat32 = "float32"
	sampleFloat64 = "float64"
)

func sampleSize(sampleType string) (size int, err error) {
	switch sampleType {
	case sampleInt8, sampleUint8:
		size = 1
	case sampleInt16, sampleUint16:
		size = 2
	case sampleInt32, sampleUint32, sampleFloat32:
		size = 4
	case sampleInt64, sampleUint64, sampleFloat64:
		size = 8
	default:
		err = fmt.Errorf("unknown sample type %q", sampleType)
	}
	return
}

// Reads count binary samples of sampleType
func decodeSamples(reader io.Reader, sampleType string, order binary.ByteOrder, count int) (samples []float64, err error) {
	size, err := sampleSize(sampleType)
	if err != nil {
		return
	}

	raw := make([]byte, size*count)
	_, err = io.ReadFull(reader, raw)
	if err != nil {
		err = fmt.Errorf("expected %d bytes of %s samples: %w", len(raw), sampleType, err)
		return
	}

	samples = make([]float64, count)
	for i := 0; i < count; i++ {
		b := raw[i*size : (i+1)*size]
		switch sampleType {
		case sampleInt8:
			samples[i] = float64(int8(b[0]))
		case sampleUint8:
			samples[i] = float64(b[0])
		case sampleInt16:
			samples[i] = float64(int16(order.Uint16(b)))
		case sampleUint16:
			samples[i] = float64(order.Uint16(b))
		case sampleInt32:
			samples[i] = float64(int32(order.Uint32(b)))
		case sampleUint32:
			samples[i] = float64(order.Uint32(b))
		case sampleInt64:
			samples[i] = float64(int64(order.Uint64(b)))
		case sampleUint64:
			samples[i] = float64(order.Uint64(b))
		case sampleFloat32:
			samples[i] = float64(math.Float32frombits(order.Uint32(b)))
		case sampleFloat64:
			samples[i] = math.Float64frombits(order.Uint64(b))
		}
	}
	return
}

// Reads count whitespace separated text samples
func decodeTextSamples(reader io.Reader, count int) (samples []float64, err error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	samples = make([]float64, 0, count)
	for len(samples) < count && scanner.Scan() {
		var value float64
		value, err = strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			err = fmt.Errorf("invalid text sample %q", scanner.Text())
			return
		}
		samples = append(samples, value)
	}
	if err = scanner.Err(); err != nil {
		return
	}
	if len(samples) != count {
		err = fmt.Errorf("expected %d text samples, found %d", count, len(samples))
	}
	return
}

// Writes samples as little endian float64
func encodeSamples(writer io.Writer, samples []float64) (err error) {
	buf := make([]byte, 8)
	for _, sample := range samples {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(sample))
		_, err = writer.Write(buf)
		if err != nil {
			return
		}
	}
	return
}
