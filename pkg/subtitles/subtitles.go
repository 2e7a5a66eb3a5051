// Package subtitles parses SubRip files and measures their text for
// adaptive font sizing.
package subtitles

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Cue is a single subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Track is a parsed subtitle file.
type Track struct {
	Cues []Cue
}

// LongestLine returns the character count of the longest line across all
// cues, measured after markup is stripped.
func (t *Track) LongestLine() int {
	if t == nil {
		return 0
	}
	longest := 0
	for _, cue := range t.Cues {
		for _, line := range cue.Lines {
			if n := utf8.RuneCountInString(StripMarkup(line)); n > longest {
				longest = n
			}
		}
	}
	return longest
}

var timestampRe = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})`)

// ParseSRT parses SubRip text. Malformed blocks are dropped instead of
// failing the whole file.
func ParseSRT(text string) *Track {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	track := &Track{}
	for _, block := range strings.Split(text, "\n\n") {
		if cue, ok := parseBlock(block); ok {
			track.Cues = append(track.Cues, cue)
		}
	}
	return track
}

func parseBlock(block string) (Cue, bool) {
	var cue Cue
	lines := strings.Split(block, "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return cue, false
	}
	if n, err := strconv.Atoi(strings.TrimSpace(lines[i])); err == nil {
		cue.Index = n
		i++
	}
	if i >= len(lines) || !strings.Contains(lines[i], "-->") {
		return cue, false
	}
	stamps := timestampRe.FindAllStringSubmatch(lines[i], 2)
	if len(stamps) != 2 {
		return cue, false
	}
	var err error
	if cue.Start, err = parseTimestamp(stamps[0]); err != nil {
		return cue, false
	}
	if cue.End, err = parseTimestamp(stamps[1]); err != nil {
		return cue, false
	}
	for i++; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cue.Lines = append(cue.Lines, line)
	}
	return cue, true
}

func parseTimestamp(m []string) (time.Duration, error) {
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("timestamp %q out of range", m[0])
	}
	frac := m[4]
	for len(frac) < 3 {
		frac += "0"
	}
	millis, _ := strconv.Atoi(frac)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadTrack reads and parses a subtitle file from disk.
func LoadTrack(path string) (*Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	text, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}
	return ParseSRT(text), nil
}

// DecodeText converts raw subtitle bytes to a UTF-8 string. Bytes that are
// not valid UTF-8 are decoded as Windows-1252 before giving up.
func DecodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode subtitles: %w", err)
	}
	return string(decoded), nil
}
