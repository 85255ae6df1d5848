package for009

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

const NUM_FIELDS = 23

// Column positions of the for009 layout:
// evt par typ flg reg t x y z Px Py Pz Bx By Bz wt Ex Ey Ez arc polX polY polZ
const (
	COL_EVT = 0
	COL_PAR = 1
	COL_TYP = 2
	COL_FLG = 3
	COL_REG = 4
	COL_T   = 5
	COL_X   = 6
	COL_Y   = 7
	COL_Z   = 8
	COL_PX  = 9
	COL_PY  = 10
	COL_PZ  = 11
	COL_BX  = 12
	COL_BY  = 13
	COL_BZ  = 14
	COL_WT  = 15
)

const HEADER = "#  evt region x y z px py pz station_number\n"

// Marker that the text form of an undefined value contains.
const INVALID_MARKER = "nan"

// Record is one for009 row. All columns are stored as float64, the same way the
// downstream tool reads them back.
type Record [NUM_FIELDS]float64

// Only these columns are printed as %g, the rest are integers.
var floatColumns = [NUM_FIELDS]bool{
	COL_T: true, COL_X: true, COL_Y: true, COL_Z: true,
	COL_PX: true, COL_PY: true, COL_PZ: true,
}

// NewRecord fills the constant columns: a positive muon (typ 2) with unit time,
// field and weight placeholders; the remaining columns are not measured.
func NewRecord(evt int, region int, pos ThreeVector, mom ThreeVector) Record {
	var r Record
	r[COL_EVT] = float64(evt)
	r[COL_PAR] = 1
	r[COL_TYP] = 2
	r[COL_FLG] = 0
	r[COL_REG] = float64(region)
	r[COL_T] = 1
	r[COL_X] = pos.X
	r[COL_Y] = pos.Y
	r[COL_Z] = pos.Z
	r[COL_PX] = mom.X
	r[COL_PY] = mom.Y
	r[COL_PZ] = mom.Z
	r[COL_BX] = 1
	r[COL_BY] = 1
	r[COL_BZ] = 1
	r[COL_WT] = 1
	return r
}

func (r Record) Event() float64 {
	return r[COL_EVT]
}

func (r Record) Region() float64 {
	return r[COL_REG]
}

func (r Record) HasNaN() bool {
	for _, v := range r {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Format returns the record as one line, newline included.
func (r Record) Format() string {
	var sb strings.Builder
	for i, v := range r {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if floatColumns[i] {
			sb.WriteString(formatG(v))
		} else {
			sb.WriteString(formatInt(v))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// formatG mimics C's "%g": six significant digits, trailing zeros removed and
// lower case names for the non-finite values.
func formatG(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// formatInt mimics "%i" applied to a float: truncation toward zero, printed as an
// exact integer even outside the int64 range.
func formatInt(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatG(v)
	}
	if v > -(1<<63) && v < 1<<63 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(math.Trunc(v), 'f', 0, 64)
}

// isDecimalToken reports whether a token is written the way the downstream reader
// accepts it: decimal digits with an optional sign, point and exponent, or one of the
// nan / inf spellings. strconv also takes hex floats and underscores, which it refuses.
func isDecimalToken(token string) bool {
	body := strings.TrimLeft(token, "+-")
	switch strings.ToLower(body) {
	case "nan", "inf", "infinity":
		return len(token)-len(body) <= 1
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if !('0' <= c && c <= '9') && c != '+' && c != '-' && c != '.' && c != 'e' && c != 'E' {
			return false
		}
	}
	return true
}

// ParseRecord parses one whitespace separated line. lineNumber is only used for errors.
func ParseRecord(line string, lineNumber int) (Record, error) {
	var r Record
	fields := strings.Fields(line)
	if len(fields) != NUM_FIELDS {
		return r, &ErrFieldCount{Line: lineNumber, Found: len(fields)}
	}
	for i, token := range fields {
		if !isDecimalToken(token) {
			return r, &ErrParseField{Line: lineNumber, Field: i, Token: token, Err: strconv.ErrSyntax}
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return r, &ErrParseField{Line: lineNumber, Field: i, Token: token, Err: err}
		}
		r[i] = v
	}
	return r, nil
}

// ReadRecords parses a for009 stream. Blank lines and '#' comments are ignored.
func ReadRecords(in io.Reader) ([]Record, error) {
	records := make([]Record, 0)
	scanner := bufio.NewScanner(in)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := ParseRecord(line, lineNumber)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func WriteRecords(out io.Writer, records []Record) error {
	w := bufio.NewWriter(out)
	for _, record := range records {
		if _, err := w.WriteString(record.Format()); err != nil {
			return err
		}
	}
	return w.Flush()
}
