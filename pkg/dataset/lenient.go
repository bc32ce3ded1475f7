package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type fieldState int

const (
	startField fieldState = iota
	inField
	inQuoted
	quoteInQuoted
)

// readLenient splits data into records the way spreadsheet exports are
// usually read: a quote opens a quoted field only at the start of a field,
// a doubled quote inside it is a literal quote, and text after the closing
// quote is appended to the same field. Quotes inside an unquoted field are
// literal. Blank lines are skipped. A quoted field still open at the end
// of the data is an error.
func readLenient(data []byte, delim rune) ([][]string, error) {
	var (
		records [][]string
		record  []string
		field   strings.Builder
		state   = startField
		line    = 1
		opened  = 0
	)
	endField := func() {
		record = append(record, field.String())
		field.Reset()
	}
	endRecord := func() {
		endField()
		records = append(records, record)
		record = nil
		state = startField
	}

	s := string(data)
	for i := 0; i < len(s); {
		c, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if c == '\r' || c == '\n' {
			if c == '\r' && i < len(s) && s[i] == '\n' {
				i++
			}
			if state == inQuoted {
				field.WriteByte('\n')
				line++
				continue
			}
			line++
			if state == startField && len(record) == 0 {
				continue
			}
			endRecord()
			continue
		}

		switch state {
		case startField:
			switch c {
			case '"':
				state = inQuoted
				opened = line
			case delim:
				endField()
			default:
				field.WriteRune(c)
				state = inField
			}
		case inField:
			if c == delim {
				endField()
				state = startField
			} else {
				field.WriteRune(c)
			}
		case inQuoted:
			if c == '"' {
				state = quoteInQuoted
			} else {
				field.WriteRune(c)
			}
		case quoteInQuoted:
			switch c {
			case '"':
				field.WriteRune('"')
				state = inQuoted
			case delim:
				endField()
				state = startField
			default:
				field.WriteRune(c)
				state = inField
			}
		}
	}

	switch {
	case state == inQuoted:
		return nil, fmt.Errorf("line %d: quoted field never closed", opened)
	case state != startField || len(record) > 0:
		endRecord()
	}
	return records, nil
}
