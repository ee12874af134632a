package annot

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// MagicVersion is the CSV_BI format marker expected in file metadata.
const MagicVersion = "csv_v1.0.0"

var metaRe = regexp.MustCompile(`^#\s*(\w+)\s*=\s*(.+)$`)

// Parse reads a CSV_BI annotation stream. Comment lines carry
// "key = value" metadata, a header row precedes the data rows, and
// malformed data rows are skipped with a warning rather than aborting.
func Parse(r io.Reader) (*File, error) {
	meta := make(map[string]string)
	var events []Event

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if m := metaRe.FindStringSubmatch(line); m != nil {
				meta[m[1]] = strings.TrimSpace(m[2])
			}
			continue
		}
		if strings.HasPrefix(line, "channel,") {
			continue
		}
		ev, err := ParseEventLine(line)
		if err != nil {
			slog.Warn("skipping malformed annotation row", "line", lineNo, "err", err)
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}

	duration := 0.0
	if ds, ok := meta["duration"]; ok {
		ds = strings.TrimSpace(strings.TrimSuffix(ds, "secs"))
		if v, err := strconv.ParseFloat(ds, 64); err == nil {
			duration = v
		} else {
			slog.Warn("unparseable duration metadata", "value", meta["duration"])
		}
	}

	// bname is the NEDC alias for patient
	patient := meta["patient"]
	if patient == "" {
		patient = meta["bname"]
	}
	if patient == "" {
		patient = "unknown"
	}

	version := meta["version"]
	if version == "" {
		version = "unknown"
	}
	session := meta["session"]
	if session == "" {
		session = "unknown"
	}

	return &File{
		Version:  version,
		Patient:  patient,
		Session:  session,
		Events:   events,
		Duration: duration,
	}, nil
}

// ParseFile reads and parses a CSV_BI file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
