package ihex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultRecordCapacity is the default initial capacity for the record slice
const DefaultRecordCapacity = 256

// Parse parses an Intel HEX file from the given file path.
// Returns every record in file order or an error if parsing fails.
//
// Example:
//
//	records, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Parse(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses Intel HEX records from any io.Reader.
//
// Surrounding whitespace (including CR of CRLF files) is trimmed and empty
// lines are skipped. Every other line must be a valid record, including
// lines after the end of file record. Record errors carry the 1-based line
// number.
func ParseReader(r io.Reader) ([]*Record, error) {
	scanner := bufio.NewScanner(r)
	records := make([]*Record, 0, DefaultRecordCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		rec, err := parseLine(scanner.Text(), lineNum)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return records, nil
}

// ParseLines parses records from lines already split from their source.
// It applies the same rules as ParseReader.
func ParseLines(lines []string) ([]*Record, error) {
	records := make([]*Record, 0, len(lines))
	for i, line := range lines {
		rec, err := parseLine(line, i+1)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// parseLine parses one input line, returning nil for blank lines.
func parseLine(line string, lineNum int) (*Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	rec, err := ParseRecord(line)
	if err != nil {
		switch e := err.(type) {
		case *FormatError:
			e.Line = lineNum
		case *MalformedLineError:
			e.Line = lineNum
		}
		return nil, err
	}
	return rec, nil
}
