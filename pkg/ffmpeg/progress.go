package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// Progress is one status block from ffmpeg's -progress output. During an
// encode ffmpeg emits a block roughly every half second; fields missing
// from a block keep their previous value.
type Progress struct {
	Frame     int64
	FPS       float64
	Bitrate   string
	TotalSize int64
	OutTimeUS int64
	Speed     string
	// Progress is "continue" while encoding and "end" on the final block.
	Progress string
}

// OutTime returns how much of the output timeline has been written.
func (p Progress) OutTime() time.Duration {
	return time.Duration(p.OutTimeUS) * time.Microsecond
}

// readProgress decodes key=value status blocks from r, delivering one
// Progress per block on ch. It returns when the final block arrives or r
// is exhausted.
func readProgress(r io.Reader, ch chan<- Progress) {
	var cur Progress
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "frame":
			cur.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			cur.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			cur.Bitrate = value
		case "total_size":
			cur.TotalSize, _ = strconv.ParseInt(value, 10, 64)
		case "out_time_us":
			cur.OutTimeUS, _ = strconv.ParseInt(value, 10, 64)
		case "speed":
			cur.Speed = value
		case "progress":
			cur.Progress = value
			ch <- cur
			if value == "end" {
				return
			}
		}
	}
}
