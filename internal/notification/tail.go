package notification

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Follow passes every complete line of r to emit. With follow set it keeps
// polling r for appended lines every interval until ctx is done; a trailing
// partial line is held back until its newline arrives.
func Follow(ctx context.Context, r io.Reader, follow bool, every time.Duration, emit func(line string)) error {
	br := bufio.NewReader(r)
	var pending strings.Builder
	for {
		chunk, err := br.ReadString('\n')
		pending.WriteString(chunk)
		if err == nil {
			emit(strings.TrimRight(pending.String(), "\r\n"))
			pending.Reset()
			continue
		}
		if !errors.Is(err, io.EOF) {
			return err
		}
		if !follow {
			if pending.Len() > 0 {
				emit(pending.String())
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(every):
		}
	}
}

// Replay echoes a line read back from the log file, colored by its level tag.
// It goes to the console only.
func (n *Notifier) Replay(line string) {
	color := ""
	for _, lv := range []struct{ tag, color string }{
		{"[ERROR]", colorRed},
		{"[WARN]", colorYellow},
		{"[INFO]", colorGreen},
		{"[DEBUG]", colorCyan},
	} {
		if strings.Contains(line, lv.tag) {
			color = lv.color
			break
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.colorEnabled && color != "" {
		fmt.Fprintf(n.out, "%s%s%s\n", color, line, colorReset)
		return
	}
	fmt.Fprintln(n.out, line)
}

// FormatAuditLine renders one JSON audit line for reading. Anything that is
// not valid JSON is returned unchanged.
func FormatAuditLine(line string) string {
	if !gjson.Valid(line) {
		return line
	}
	e := gjson.Parse(line)
	s := fmt.Sprintf("%s %-14s", FormatTimestamp(e.Get("timestamp").Time()), e.Get("event").String())

	if r := e.Get("result"); r.Exists() {
		s += fmt.Sprintf(" PID=%-7d %-24s %s", r.Get("pid").Int(), r.Get("name").String(), r.Get("outcome").String())
		if m := r.Get("method").String(); m != "" {
			s += " via " + m
		}
		if c := r.Get("cause").String(); c != "" {
			s += " (" + c + ")"
		}
	}
	if r := e.Get("recommendation"); r.Exists() {
		s += fmt.Sprintf(" PID=%-7d %-24s %s %.0f%%", r.Get("pid").Int(), r.Get("name").String(),
			r.Get("action").String(), r.Get("confidence").Float()*100)
	}
	if d := e.Get("details").String(); d != "" {
		s += " " + d
	}
	return s
}
