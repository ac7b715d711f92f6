package dbf

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrMalformedHeaderLine = errors.New("malformed dbf header line")
	ErrUnknownFieldType    = errors.New("unknown dbf field type")
	ErrRecordLength        = errors.New("dbf record shorter than schema")
	ErrInvalidNumeric      = errors.New("invalid dbf numeric value")
)

// FieldType is the closed set of dBase field types this decoder understands.
type FieldType uint8

const (
	TEXT FieldType = iota
	INTEGER
)

type fieldDecoder func(raw []byte) (interface{}, error)

type fieldSpec struct {
	fieldType FieldType
	decode    fieldDecoder
}

// fieldTypes maps the type tag of a field descriptor to its variant.
// every tag not listed here is rejected while the header is parsed.
var fieldTypes = map[byte]fieldSpec{
	'C': {fieldType: TEXT, decode: decodeText},
	'N': {fieldType: INTEGER, decode: decodeInteger},
}

func (t FieldType) String() string {
	switch t {
	case TEXT:
		return "text"
	case INTEGER:
		return "integer"
	default:
		return "unknown"
	}
}

func trimField(raw []byte) string {
	return strings.TrimFunc(string(raw), func(r rune) bool {
		return r == ' ' || r == 0
	})
}

func decodeText(raw []byte) (interface{}, error) {
	return trimField(raw), nil
}

// decodeInteger parses a right aligned numeric field. a blank field is dBase NULL and decodes to 0.
func decodeInteger(raw []byte) (interface{}, error) {
	s := trimField(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type Attribute struct {
	name      string
	fieldType FieldType
	size      int
	decode    fieldDecoder
}

func NewAttribute(name string, fieldType FieldType, size int) Attribute {
	attr := Attribute{name: name, fieldType: fieldType, size: size}
	for _, ft := range fieldTypes {
		if ft.fieldType == fieldType {
			attr.decode = ft.decode
		}
	}
	return attr
}

func (a Attribute) GetName() string {
	return a.name
}

func (a Attribute) GetType() FieldType {
	return a.fieldType
}

func (a Attribute) GetSize() int {
	return a.size
}

// Schema is the ordered list of attributes that fixes the layout of every record of a table.
type Schema struct {
	attributes []Attribute
	totalSize  int
	firstFlag  byte // deletion flag of the first record, read together with the header end byte
}

func NewSchema(attributes []Attribute) *Schema {
	total := 0
	for _, a := range attributes {
		total += a.size
	}
	return &Schema{attributes: attributes, totalSize: total, firstFlag: headerTerminator[1]}
}

func (s *Schema) GetAttributes() []Attribute {
	return s.attributes
}

func (s *Schema) GetTotalSize() int {
	return s.totalSize
}

func (s *Schema) NumberOfAttributes() int {
	return len(s.attributes)
}

// Record is one decoded body line. row is the zero based position of the line in the table body,
// skipped lines still consume a row number.
type Record struct {
	row    int
	values map[string]interface{}
}

func NewRecord(row int, values map[string]interface{}) Record {
	return Record{row: row, values: values}
}

func (r Record) GetRow() int {
	return r.row
}

func (r Record) Get(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// GetString returns the text value of name, or "" if absent or not text.
func (r Record) GetString(name string) string {
	v, ok := r.values[name].(string)
	if !ok {
		return ""
	}
	return v
}

// GetInt returns the integer value of name, or 0 if absent or not an integer.
func (r Record) GetInt(name string) int {
	v, ok := r.values[name].(int)
	if !ok {
		return 0
	}
	return v
}

// Values returns a copy of the decoded values keyed by attribute name.
func (r Record) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return values
}

func (r Record) Len() int {
	return len(r.values)
}

// Table is the decoded form of one .dbf file.
type Table struct {
	filename string
	schema   *Schema
	records  []Record
	byRow    map[int]int
}

func NewTable(filename string, schema *Schema, records []Record) *Table {
	byRow := make(map[int]int, len(records))
	for i, rec := range records {
		byRow[rec.row] = i
	}
	return &Table{
		filename: filename,
		schema:   schema,
		records:  records,
		byRow:    byRow,
	}
}

func (t *Table) GetFilename() string {
	return t.filename
}

func (t *Table) GetSchema() *Schema {
	return t.schema
}

func (t *Table) GetRecords() []Record {
	return t.records
}

func (t *Table) NumberOfRecords() int {
	return len(t.records)
}

// Lookup returns the record decoded from body row, false if that row was skipped or does not exist.
func (t *Table) Lookup(row int) (Record, bool) {
	i, ok := t.byRow[row]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}
