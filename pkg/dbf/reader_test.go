package dbf

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testField struct {
	name string
	tag  byte
	size int
}

func descriptor(f testField) []byte {
	line := make([]byte, descriptorSize)
	copy(line, f.name)
	line[typeTagOffset] = f.tag
	line[sizeOffset] = byte(f.size)
	return line
}

func header(fields []testField) []byte {
	var buf bytes.Buffer
	preamble := make([]byte, preambleSize)
	preamble[0] = 0x03
	buf.Write(preamble)
	for _, f := range fields {
		buf.Write(descriptor(f))
	}
	buf.WriteByte(0x0D)
	return buf.Bytes()
}

// buildDBF lays out a dBase file the way shapefile writers do: header, 0x0D, then every record
// prefixed with its deletion flag, then the 0x1A end marker.
func buildDBF(fields []testField, rows [][]string, flags []byte) []byte {
	var buf bytes.Buffer
	buf.Write(header(fields))
	for i, row := range rows {
		flag := byte(' ')
		if flags != nil {
			flag = flags[i]
		}
		buf.WriteByte(flag)
		for j, f := range fields {
			v := row[j]
			if f.tag == 'N' {
				buf.WriteString(strings.Repeat(" ", f.size-len(v)) + v)
			} else {
				buf.WriteString(v + strings.Repeat(" ", f.size-len(v)))
			}
		}
	}
	buf.WriteByte(eofMarker)
	return buf.Bytes()
}

var roadFields = []testField{
	{name: "osm_id", tag: 'C', size: 10},
	{name: "code", tag: 'N', size: 4},
	{name: "fclass", tag: 'C', size: 28},
	{name: "maxspeed", tag: 'N', size: 3},
}

func TestReadHeader(t *testing.T) {
	testCases := []struct {
		name      string
		fields    []testField
		wantTotal int
	}{
		{name: "single text field", fields: []testField{{name: "name", tag: 'C', size: 100}}, wantTotal: 100},
		{name: "road schema", fields: roadFields, wantTotal: 45},
		{name: "eleven byte name", fields: []testField{{name: "abcdefghijk", tag: 'N', size: 7}}, wantTotal: 7},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := ReadHeader(bytes.NewReader(buildDBF(tt.fields, nil, nil)))
			require.NoError(t, err)

			require.Equal(t, len(tt.fields), schema.NumberOfAttributes())
			sum := 0
			for i, a := range schema.GetAttributes() {
				assert.Equal(t, tt.fields[i].name, a.GetName())
				assert.Equal(t, tt.fields[i].size, a.GetSize())
				sum += a.GetSize()
			}
			assert.Equal(t, sum, schema.GetTotalSize())
			assert.Equal(t, tt.wantTotal, schema.GetTotalSize())
		})
	}
}

func TestReadHeaderStopsAtTerminator(t *testing.T) {
	rows := [][]string{{"1", "5111", "primary", "60"}}
	data := buildDBF(roadFields, rows, nil)

	r := bytes.NewReader(data)
	_, err := ReadHeader(r)
	require.NoError(t, err)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)

	// header, 0x0D and the first deletion flag are consumed, nothing more
	consumed := preambleSize + descriptorSize*len(roadFields) + 2
	assert.Equal(t, data[consumed:], rest)
	assert.Equal(t, byte('1'), rest[0])
}

func TestReadHeaderErrors(t *testing.T) {
	t.Run("unknown field type", func(t *testing.T) {
		data := buildDBF([]testField{{name: "ratio", tag: 'F', size: 8}}, nil, nil)
		_, err := ReadHeader(bytes.NewReader(data))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownFieldType)
	})

	t.Run("truncated descriptor", func(t *testing.T) {
		data := header(roadFields)
		// cut in the middle of the last descriptor
		data = data[:preambleSize+descriptorSize*3+10]
		_, err := ReadHeader(bytes.NewReader(data))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedHeaderLine)
	})

	t.Run("truncated preamble", func(t *testing.T) {
		_, err := ReadHeader(bytes.NewReader(make([]byte, 12)))
		assert.ErrorIs(t, err, ErrMalformedHeaderLine)
	})
}

func TestReadBodyRoundTrip(t *testing.T) {
	rows := [][]string{
		{"1001", "5111", "motorway", "100"},
		{"1002", "5122", "residential", "30"},
		{"1003", "5141", "service", ""},
	}
	data := buildDBF(roadFields, rows, nil)
	r := bytes.NewReader(data)

	schema, err := ReadHeader(r)
	require.NoError(t, err)
	records, err := ReadBody(r, schema, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "1001", records[0].GetString("osm_id"))
	assert.Equal(t, 5111, records[0].GetInt("code"))
	assert.Equal(t, "motorway", records[0].GetString("fclass"))
	assert.Equal(t, 100, records[0].GetInt("maxspeed"))

	assert.Equal(t, "residential", records[1].GetString("fclass"))
	assert.Equal(t, 30, records[1].GetInt("maxspeed"))

	assert.Equal(t, "service", records[2].GetString("fclass"))
	assert.Equal(t, 0, records[2].GetInt("maxspeed"))

	for i, rec := range records {
		assert.Equal(t, i, rec.GetRow())
		assert.Equal(t, 4, rec.Len())
	}
}

func TestReadBodyWithoutEndMarker(t *testing.T) {
	rows := [][]string{{"1", "5111", "primary", "60"}, {"2", "5112", "secondary", "50"}}
	data := buildDBF(roadFields, rows, nil)
	data = data[:len(data)-1]

	r := bytes.NewReader(data)
	schema, err := ReadHeader(r)
	require.NoError(t, err)
	records, err := ReadBody(r, schema, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "secondary", records[1].GetString("fclass"))
}

func TestReadBodySkipsRecords(t *testing.T) {
	rows := [][]string{
		{"1", "5111", "primary", "60"},
		{"2", "5112", "caf\xc3\xa9", "50"},
		{"3", "5113", "tertiary", "4x"},
		{"4", "5114", "unclassified", "40"},
		{"5", "5115", "residential", "30"},
	}
	flags := []byte{' ', ' ', ' ', '*', ' '}
	data := buildDBF(roadFields, rows, flags)

	r := bytes.NewReader(data)
	schema, err := ReadHeader(r)
	require.NoError(t, err)
	records, err := ReadBody(r, schema, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "primary", records[0].GetString("fclass"))
	assert.Equal(t, 0, records[0].GetRow())
	assert.Equal(t, "residential", records[1].GetString("fclass"))
	assert.Equal(t, 4, records[1].GetRow())

	table := NewTable("roads.dbf", schema, records)
	_, ok := table.Lookup(1)
	assert.False(t, ok)
	rec, ok := table.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, "5", rec.GetString("osm_id"))
}

func TestReadBodyDeletedFirstRecord(t *testing.T) {
	rows := [][]string{
		{"1", "5111", "primary", "60"},
		{"2", "5112", "secondary", "50"},
	}
	data := buildDBF(roadFields, rows, []byte{'*', ' '})

	r := bytes.NewReader(data)
	schema, err := ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, len(roadFields), schema.NumberOfAttributes())

	records, err := ReadBody(r, schema, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "secondary", records[0].GetString("fclass"))
	assert.Equal(t, 1, records[0].GetRow())
}

func TestReadEmptyTable(t *testing.T) {
	data := buildDBF(roadFields, nil, nil)
	r := bytes.NewReader(data)
	schema, err := ReadHeader(r)
	require.NoError(t, err)
	records, err := ReadBody(r, schema, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeRecord(t *testing.T) {
	schema := NewSchema([]Attribute{
		NewAttribute("fclass", TEXT, 6),
		NewAttribute("maxspeed", INTEGER, 3),
	})

	rec, err := DecodeRecord([]byte("park   25"), schema)
	require.NoError(t, err)
	assert.Equal(t, "park", rec.GetString("fclass"))
	assert.Equal(t, 25, rec.GetInt("maxspeed"))

	_, err = DecodeRecord([]byte("park  "), schema)
	assert.ErrorIs(t, err, ErrRecordLength)
}

func TestReadMany(t *testing.T) {
	dir := t.TempDir()
	landuse := []testField{{name: "code", tag: 'N', size: 4}, {name: "fclass", tag: 'C', size: 20}}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roads.dbf"),
		buildDBF(roadFields, [][]string{{"1", "5111", "primary", "60"}}, nil), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "landuse.dbf"),
		buildDBF(landuse, [][]string{{"7201", "forest"}, {"7202", "park"}}, nil), 0644))

	tables, err := ReadMany(dir, []string{"landuse.dbf", "roads.dbf"}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "landuse.dbf", tables[0].GetFilename())
	assert.Equal(t, 2, tables[0].NumberOfRecords())
	assert.Equal(t, "roads.dbf", tables[1].GetFilename())

	_, err = ReadMany(dir, []string{"roads.dbf", "missing.dbf"}, zap.NewNop())
	assert.Error(t, err)
}

func TestClassifyGeometry(t *testing.T) {
	testCases := []struct {
		code int
		want GeometryKind
	}{
		{code: 7201, want: POLYGON},
		{code: 1500, want: POLYGON},
		{code: 5111, want: LINE},
		{code: 6101, want: LINE},
		{code: 9101, want: LINE},
		{code: 5201, want: POINT},
		{code: 2001, want: POINT},
		{code: 0, want: POINT},
	}

	for _, tt := range testCases {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGeometry(tt.code))
		})
	}
}
