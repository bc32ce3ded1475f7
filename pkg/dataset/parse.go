package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultPath is the well-known location of the bundled review file.
const DefaultPath = "/mnt/data/Restaurant_Reviews.tsv"

// sniffLines bounds how much of the input the delimiter sniffer inspects.
const sniffLines = 20

// sniffCandidates are tried in preference order.
var sniffCandidates = []rune{',', '\t', ';', '|', ':'}

// ErrNoDelimiter is returned when no candidate delimiter splits the sample consistently.
var ErrNoDelimiter = errors.New("could not determine delimiter")

// Options control how a delimited file is decoded.
type Options struct {
	// Encoding is a WHATWG label (e.g. "windows-1252"). Empty means UTF-8.
	Encoding string
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// LoadDefault reads the file at path with delimiter auto-detection.
// It returns nil if the file does not exist or no parse strategy succeeds.
func LoadDefault(path string, opts Options) *Dataset {
	log := opts.logger()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("default dataset absent", "path", path)
		} else {
			log.Warn("open default dataset", "path", path, "error", err)
		}
		return nil
	}
	defer f.Close()

	ds, err := Parse(f, opts)
	if err != nil {
		log.Warn("default dataset unreadable", "path", path, "error", err)
		return nil
	}
	log.Info("default dataset loaded", "path", path, "rows", ds.Len(), "columns", len(ds.Header))
	return ds
}

// Parse reads a delimited table with a header row. Strategies are tried in
// order: sniffed delimiter, tab, comma. A fallback that collapses the table
// into a single column whose header still holds a tab (or the sniffed
// delimiter) is rejected. The error of the last strategy is returned when
// all fail.
func Parse(r io.Reader, opts Options) (*Dataset, error) {
	data, err := readAll(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	var errs []error
	sniffed, err := Sniff(data)
	if err == nil {
		ds, err := ParseDelimited(data, sniffed)
		if err == nil {
			return ds, nil
		}
		errs = append(errs, fmt.Errorf("sniffed %q: %w", sniffed, err))
	} else {
		errs = append(errs, fmt.Errorf("sniff: %w", err))
	}

	for _, delim := range []rune{'\t', ','} {
		ds, err := ParseDelimited(data, delim)
		if err == nil {
			err = checkCollapsed(ds, sniffed)
		}
		if err == nil {
			return ds, nil
		}
		errs = append(errs, fmt.Errorf("delimiter %q: %w", delim, err))
	}
	opts.logger().Debug("all parse strategies failed", "error", errors.Join(errs...))
	return nil, errs[len(errs)-1]
}

// checkCollapsed rejects a one-column table whose header contains a tab or
// the sniffed delimiter: the real delimiter was missed.
func checkCollapsed(ds *Dataset, sniffed rune) error {
	if len(ds.Header) != 1 {
		return nil
	}
	for _, d := range []rune{'\t', sniffed} {
		if d != 0 && d != ds.Delimiter && strings.ContainsRune(ds.Header[0], d) {
			return fmt.Errorf("single column %q still contains delimiter %q", ds.Header[0], d)
		}
	}
	return nil
}

// ParseDelimited parses data with a fixed delimiter. Every row must have as
// many fields as the header. Well-formed input goes through encoding/csv;
// on a quoting error the data is re-read leniently, keeping text that
// follows a closing quote (`"Great" food` reads as `Great food`).
func ParseDelimited(data []byte, delim rune) (*Dataset, error) {
	records, err := readStrict(data, delim)
	if errors.Is(err, csv.ErrQuote) || errors.Is(err, csv.ErrBareQuote) {
		records, err = readLenient(data, delim)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	ds := &Dataset{Header: header, Delimiter: delim, Rows: records[1:]}
	for i, row := range ds.Rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d: %d fields, header has %d", i+1, len(row), len(header))
		}
	}
	return ds, nil
}

func readStrict(data []byte, delim rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return records, nil
}

// Sniff guesses the delimiter from the first lines of data: the first
// candidate that occurs the same non-zero number of times on every sampled
// line wins. Quoted sections are ignored.
func Sniff(data []byte) (rune, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && len(lines) < sniffLines {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return 0, ErrNoDelimiter
	}

	for _, cand := range sniffCandidates {
		want := countUnquoted(lines[0], cand)
		if want == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if countUnquoted(line, cand) != want {
				consistent = false
				break
			}
		}
		if consistent {
			return cand, nil
		}
	}
	return 0, ErrNoDelimiter
}

func countUnquoted(line string, delim rune) int {
	n := 0
	quoted := false
	for _, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
		case c == delim && !quoted:
			n++
		}
	}
	return n
}

func readAll(r io.Reader, encoding string) ([]byte, error) {
	if encoding != "" && !isUTF8(encoding) {
		e, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
