package subtitle

import (
	"bufio"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseError describes malformed SRT input
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("srt parse error at line %d: %s", e.Line, e.Msg)
}

// separatorPattern matches any unusual whitespace or separator character
// so it can be normalized to a plain ASCII space
var separatorPattern = regexp.MustCompile(`[\p{Z}\s]`)

// Parse parses subtitle text in the SRT format into an ordered sequence of
// timed entries. Trailing blank lines end parsing cleanly.
func Parse(srt string) (*Subtitles, error) {
	sc := &lineScanner{scanner: bufio.NewScanner(strings.NewReader(srt))}
	// subtitle lines can be long; grow beyond the default token size
	sc.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry

	line, ok := sc.next()
	for ok && strings.TrimSpace(line) != "" {
		id, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return nil, &ParseError{Line: sc.line, Msg: fmt.Sprintf("invalid sequence line %q", line)}
		}

		timeLine, ok2 := sc.next()
		if !ok2 {
			return nil, &ParseError{Line: sc.line, Msg: "missing time range line"}
		}
		timeFrame, err := parseTimeFrame(timeLine)
		if err != nil {
			return nil, &ParseError{Line: sc.line, Msg: err.Error()}
		}

		// collect caption lines until a blank line or end of input;
		// the first caption line is kept even when it is empty
		var lines []string
		line, ok = sc.next()
		for {
			if ok {
				lines = append(lines, normalizeSeparators(line))
			}
			line, ok = sc.next()
			if !ok || line == "" {
				break
			}
		}

		entries = append(entries, Entry{ID: id, TimeFrame: timeFrame, Lines: lines})

		line, ok = sc.next()
	}

	return &Subtitles{entries: entries}, nil
}

// normalizeSeparators replaces any separator character with an ASCII space
func normalizeSeparators(line string) string {
	return separatorPattern.ReplaceAllString(line, " ")
}

// parseTimeFrame parses a line of the form
// "HH:MM:SS,mmm --> HH:MM:SS,mmm" into a TimeFrame
func parseTimeFrame(line string) (TimeFrame, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return TimeFrame{}, fmt.Errorf("invalid time range line %q", line)
	}

	start, err := parseTimecode(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeFrame{}, err
	}
	end, err := parseTimecode(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeFrame{}, err
	}

	tf := TimeFrame{Start: start, End: end}
	if err := tf.Validate(); err != nil {
		return TimeFrame{}, err
	}
	return tf, nil
}

// parseTimecode converts "HH:MM:SS,mmm" into fractional seconds. The part
// after the comma is a decimal fraction of a second, so ",5" reads as half a
// second rather than five milliseconds.
func parseTimecode(timecode string) (float64, error) {
	fields := strings.Split(timecode, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}

	secFields := strings.SplitN(fields[2], ",", 2)
	if len(secFields) != 2 {
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}

	hours, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}
	seconds, err := strconv.Atoi(secFields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}
	fraction, err := parseSecondFraction(secFields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}

	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + fraction, nil
}

// parseSecondFraction parses the digits after the comma of a timecode as a
// decimal fraction of a second
func parseSecondFraction(field string) (float64, error) {
	if field == "" {
		return 0, fmt.Errorf("empty fraction")
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit fraction %q", field)
		}
	}
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	return float64(value) / math.Pow10(len(field)), nil
}

// lineScanner reads input line by line while tracking the current line number
type lineScanner struct {
	scanner *bufio.Scanner
	line    int
}

func (ls *lineScanner) next() (string, bool) {
	if ls.scanner.Scan() {
		ls.line++
		return ls.scanner.Text(), true
	}
	return "", false
}
