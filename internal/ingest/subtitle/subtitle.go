// Package subtitle parses SRT-style subtitle files into typed [types.Segment]
// values. It is the first stage of the ingestion pipeline: bytes in, typed
// segments out, no reordering and no deduplication.
package subtitle

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// ErrFileNotFound is returned by [ParseFile] when the path does not exist.
var ErrFileNotFound = errors.New("subtitle: file not found")

// ParseError reports a malformed subtitle block. The block is identified by
// its 1-based position among blocks seen so far, not by the parsed segment
// ID (which may itself be malformed).
type ParseError struct {
	BlockIndex int
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("subtitle: block %d: %s", e.BlockIndex, e.Reason)
}

// Parser turns raw subtitle bytes into an ordered slice of [types.Segment].
// The zero value is ready to use.
type Parser struct {
	// Logger receives a warning for each malformed block that is skipped.
	// When nil, slog.Default() is used.
	Logger *slog.Logger
}

// New returns a ready-to-use Parser.
func New(logger *slog.Logger) *Parser {
	return &Parser{Logger: logger}
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// ParseFile reads path and parses it with [Parser.Parse]. Returns
// [ErrFileNotFound] (wrapped) when path does not exist.
func (p *Parser) ParseFile(path string) ([]types.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subtitle: read %q: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("subtitle: read %q: %w", path, err)
	}
	return p.Parse(data)
}

// Parse splits data into blank-line-separated blocks and parses each block
// that has at least 3 non-empty lines into a [types.Segment]. Blocks with
// fewer lines are skipped with a warning rather than failing the whole file.
// An empty input yields zero segments and no error.
func (p *Parser) Parse(data []byte) ([]types.Segment, error) {
	blocks := splitBlocks(data)

	segments := make([]types.Segment, 0, len(blocks))
	for i, block := range blocks {
		seg, ok, err := parseBlock(block)
		if err != nil {
			return nil, fmt.Errorf("subtitle: parse: %w", &ParseError{BlockIndex: i + 1, Reason: err.Error()})
		}
		if !ok {
			p.logger().Warn("subtitle: skipping malformed block", "block", i+1)
			continue
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// splitBlocks splits data on runs of one or more blank lines, trimming a
// leading UTF-8 BOM if present. No reordering is performed.
func splitBlocks(data []byte) [][]string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var blocks [][]string
	var current []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

var timecodeSep = "-->"

// parseBlock parses one block's lines into a Segment. ok is false when the
// block has fewer than 3 non-empty lines (malformed, skip with warning).
func parseBlock(lines []string) (types.Segment, bool, error) {
	if len(lines) < 3 {
		return types.Segment{}, false, nil
	}

	id, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return types.Segment{}, false, fmt.Errorf("invalid id %q: %w", lines[0], err)
	}

	startStr, endStr, ok := splitTimecodeLine(lines[1])
	if !ok {
		return types.Segment{}, false, fmt.Errorf("invalid timecode line %q", lines[1])
	}
	startMs, err := parseTimecode(startStr)
	if err != nil {
		return types.Segment{}, false, fmt.Errorf("invalid start timecode %q: %w", startStr, err)
	}
	endMs, err := parseTimecode(endStr)
	if err != nil {
		return types.Segment{}, false, fmt.Errorf("invalid end timecode %q: %w", endStr, err)
	}
	if startMs > endMs {
		return types.Segment{}, false, fmt.Errorf("start %dms after end %dms", startMs, endMs)
	}

	text := strings.Join(lines[2:], " ")

	return types.Segment{
		ID:          id,
		StartTime:   startStr,
		EndTime:     endStr,
		StartMs:     startMs,
		EndMs:       endMs,
		DurationSec: float64(endMs-startMs) / 1000.0,
		Text:        text,
		TextLength:  len([]rune(text)),
	}, true, nil
}

func splitTimecodeLine(line string) (start, end string, ok bool) {
	idx := strings.Index(line, timecodeSep)
	if idx < 0 {
		return "", "", false
	}
	start = strings.TrimSpace(line[:idx])
	end = strings.TrimSpace(line[idx+len(timecodeSep):])
	return start, end, start != "" && end != ""
}

// parseTimecode parses "HH:MM:SS,mmm" into milliseconds since the start of
// the file.
func parseTimecode(s string) (int, error) {
	s = strings.ReplaceAll(s, ".", ",")
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("missing millisecond component")
	}
	t, err := time.Parse("15:04:05", parts[0])
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds %q: %w", parts[1], err)
	}
	total := (t.Hour()*3600+t.Minute()*60+t.Second())*1000 + ms
	return total, nil
}
