package dbf

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"go.uber.org/zap"
)

// Parses according to https://www.geofabrik.de/data/geofabrik-osm-gis-standard-0.7.pdf

const (
	preambleSize   = 32
	descriptorSize = 32
	nameSize       = 11
	typeTagOffset  = 11
	sizeOffset     = 16

	deletedFlag = '*'
	eofMarker   = 0x1A
)

// headerTerminator is the header end byte followed by the deletion flag of the first record.
var headerTerminator = []byte{0x0D, 0x20}

func parseDescriptor(line []byte) (Attribute, error) {
	if len(line) != descriptorSize {
		return Attribute{}, util.WrapErrorf(nil, ErrMalformedHeaderLine,
			"header lines must be %d bytes long, got %d", descriptorSize, len(line))
	}

	name := strings.TrimRight(string(line[:nameSize]), "\x00")
	tag := line[typeTagOffset]
	ft, ok := fieldTypes[tag]
	if !ok {
		return Attribute{}, util.WrapErrorf(nil, ErrUnknownFieldType,
			"attribute %q has unknown datatype %q", name, string(tag))
	}

	return Attribute{
		name:      name,
		fieldType: ft.fieldType,
		size:      int(line[sizeOffset]),
		decode:    ft.decode,
	}, nil
}

// ReadHeader consumes the 32 byte preamble and the field descriptors up to and including the
// terminator. r is left positioned on the first byte of the first record.
func ReadHeader(r io.Reader) (*Schema, error) {
	preamble := make([]byte, preambleSize)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, util.WrapErrorf(err, ErrMalformedHeaderLine, "dbf preamble must be %d bytes long", preambleSize)
	}

	attributes := make([]Attribute, 0, 8)
	firstFlag := headerTerminator[1]
	for {
		start := make([]byte, len(headerTerminator))
		n, err := io.ReadFull(r, start)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if bytes.Equal(start[:n], headerTerminator) {
			break
		}
		if n >= 1 && start[0] == headerTerminator[0] {
			// a deleted first record, or no records at all
			if n == 2 && start[1] != eofMarker {
				firstFlag = start[1]
			}
			break
		}

		line := make([]byte, descriptorSize)
		copy(line, start[:n])
		m, err := io.ReadFull(r, line[n:])
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}

		attribute, err := parseDescriptor(line[:n+m])
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, attribute)
	}

	schema := NewSchema(attributes)
	schema.firstFlag = firstFlag
	return schema, nil
}

// DecodeRecord slices line at the cumulative attribute offsets of schema and decodes every slice
// with the decoder of its attribute type.
func DecodeRecord(line []byte, schema *Schema) (Record, error) {
	if len(line) < schema.totalSize {
		return Record{}, util.WrapErrorf(nil, ErrRecordLength,
			"record is %d bytes, schema needs %d", len(line), schema.totalSize)
	}

	depth := 0
	values := make(map[string]interface{}, len(schema.attributes))
	for _, attribute := range schema.attributes {
		section := line[depth : depth+attribute.size]
		v, err := attribute.decode(section)
		if err != nil {
			return Record{}, util.WrapErrorf(err, ErrInvalidNumeric,
				"attribute %q: cannot decode %q", attribute.name, string(section))
		}
		values[attribute.name] = v
		depth += attribute.size
	}

	return Record{values: values}, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 0x7F {
			return false
		}
	}
	return true
}

// ReadBody reads records of TotalSize+1 bytes until a short read. The extra byte of each read is
// the deletion flag of the following record (the first one was consumed with the header
// terminator). Deleted, non-ascii and undecodable records are skipped with a warning.
func ReadBody(r io.Reader, schema *Schema, log *zap.Logger) ([]Record, error) {
	requestSize := schema.totalSize + 1
	buf := make([]byte, requestSize)
	records := make([]Record, 0, 64)

	flag := schema.firstFlag
	for row := 0; ; row++ {
		n, err := io.ReadFull(r, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if n == 0 || n < schema.totalSize {
			break
		}

		line := buf[:schema.totalSize]
		deleted := flag == deletedFlag
		if n > schema.totalSize {
			flag = buf[schema.totalSize]
		}

		if deleted {
			log.Debug("skipped deleted record", zap.Int("row", row))
			continue
		}
		if !isASCII(line) {
			log.Warn("removed non-ascii record", zap.Int("row", row), zap.ByteString("record", line))
			continue
		}

		record, err := DecodeRecord(line, schema)
		if err != nil {
			log.Warn("removed undecodable record", zap.Int("row", row), zap.Error(err))
			continue
		}
		record.row = row
		records = append(records, record)
	}

	return records, nil
}

// ReadTable reads a single dbf file.
func ReadTable(path string, log *zap.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	schema, err := ReadHeader(br)
	if err != nil {
		return nil, util.WrapErrorf(err, util.Code(err), "reading header of %s", path)
	}

	records, err := ReadBody(br, schema, log)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	size := uint64(0)
	if info, err := f.Stat(); err == nil {
		size = uint64(info.Size())
	}
	log.Info("read file", zap.String("file", filename), zap.Int("records", len(records)),
		zap.String("size", humanize.Bytes(size)))

	return NewTable(filename, schema, records), nil
}

// ReadMany reads the named dbf files of folder in order. any failure aborts the whole batch.
func ReadMany(folder string, filenames []string, log *zap.Logger) ([]*Table, error) {
	tables := make([]*Table, 0, len(filenames))
	for _, name := range filenames {
		table, err := ReadTable(filepath.Join(folder, name), log)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}
