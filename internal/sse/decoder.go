package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
)

const (
	DataPrefix   = "data: "
	DoneSentinel = "[DONE]"

	readSize = 4096
)

// Decoder turns a chunked chat-completions body into text deltas.
// The zero value is ready to use.
type Decoder struct {
	buf  []byte
	done bool
}

// Feed appends chunk to the pending buffer and decodes every complete line.
// The unterminated tail stays buffered for the next call.
func (d *Decoder) Feed(chunk []byte) []string {
	d.buf = append(d.buf, chunk...)

	idx := bytes.LastIndexByte(d.buf, '\n')
	if idx < 0 {
		return nil
	}
	complete := string(d.buf[:idx])
	d.buf = append(d.buf[:0], d.buf[idx+1:]...)

	var deltas []string
	for _, line := range strings.Split(complete, "\n") {
		text, stop := d.decodeLine(line)
		if stop {
			break
		}
		if text != "" {
			deltas = append(deltas, text)
		}
	}
	return deltas
}

// Flush decodes whatever is left in the buffer as a final line.
func (d *Decoder) Flush() []string {
	if len(d.buf) == 0 {
		return nil
	}
	line := string(d.buf)
	d.buf = d.buf[:0]
	if text, _ := d.decodeLine(line); text != "" {
		return []string{text}
	}
	return nil
}

// Buffered reports the bytes waiting for a line terminator.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) decodeLine(line string) (text string, stop bool) {
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(line, DataPrefix)
	if strings.TrimSpace(payload) == DoneSentinel {
		d.done = true
		return "", true
	}

	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("sse: skipping malformed line %q: %v", payload, err)
		return "", false
	}
	text, _ = event.Text()
	return text, false
}

// Decode reads r until EOF and calls onDelta, in stream order, with each
// delta and the cumulative text so far. It returns the final text.
func Decode(r io.Reader, onDelta func(delta, full string)) (string, error) {
	var (
		dec  Decoder
		full strings.Builder
	)
	emit := func(deltas []string) {
		for _, delta := range deltas {
			full.WriteString(delta)
			if onDelta != nil {
				onDelta(delta, full.String())
			}
		}
	}

	chunk := make([]byte, readSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			emit(dec.Feed(chunk[:n]))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), err
		}
	}
	emit(dec.Flush())

	return full.String(), nil
}
