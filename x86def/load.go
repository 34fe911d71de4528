package x86def

import (
	"bufio"
	"io"
	"strings"
)

// Record is one logical definition record, possibly joined from several
// physical lines.
type Record struct {
	Line int // first physical line, counting from 1
	Text string
}

// ReadRecords splits a definition file into records. Everything from a
// '#' to the end of the line is a comment. A line ending in a comma
// continues on the next line.
func ReadRecords(r io.Reader) ([]Record, error) {
	var ret []Record
	var pending strings.Builder
	pendingLine := 0

	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(trimComments(sc.Text()))
		if line == "" {
			continue
		}

		if pending.Len() == 0 {
			pendingLine = lineNum
		} else {
			pending.WriteByte(' ')
		}
		pending.WriteString(line)

		if strings.HasSuffix(line, ",") {
			continue
		}

		ret = append(ret, Record{Line: pendingLine, Text: pending.String()})
		pending.Reset()
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// A dangling continuation still forms a record, which the parser then
	// reports as malformed.
	if pending.Len() > 0 {
		ret = append(ret, Record{Line: pendingLine, Text: pending.String()})
	}

	return ret, nil
}

func trimComments(line string) string {
	hash := strings.IndexByte(line, '#')
	if hash == -1 {
		return line
	}
	return line[:hash]
}
