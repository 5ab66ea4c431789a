package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/seatsync/pkg/protocol"
)

// Capture is the root JSON structure of an exported recording.
type Capture struct {
	Name    string         `json:"name"`
	Started time.Time      `json:"started"`
	Packets []CapturedJSON `json:"packets"`
}

// CapturedJSON is one packet in a capture.
type CapturedJSON struct {
	Seq    uint64             `json:"seq"`
	Offset int64              `json:"offsetMs"`
	Packet *protocol.Envelope `json:"packet"`
}

// BuildCapture converts the recorded entries into their wire form.
func (r *Recorder) BuildCapture(name string) (Capture, error) {
	entries := r.All()
	c := Capture{Name: name, Packets: make([]CapturedJSON, 0, len(entries))}
	if len(entries) > 0 {
		c.Started = entries[0].Time
	}

	for _, e := range entries {
		env, err := protocol.NewEnvelope(e.Observer, e.Packet)
		if err != nil {
			return Capture{}, fmt.Errorf("encoding packet %d: %w", e.Seq, err)
		}
		c.Packets = append(c.Packets, CapturedJSON{
			Seq:    e.Seq,
			Offset: e.Time.Sub(c.Started).Milliseconds(),
			Packet: &env,
		})
	}
	return c, nil
}

// Export writes the recording to dir as JSON, gzipped when compress is set,
// and returns the file path.
func (r *Recorder) Export(dir, name string, compress bool) (string, error) {
	capture, err := r.BuildCapture(name)
	if err != nil {
		return "", err
	}

	base := strings.NewReplacer(" ", "_", ":", "_").Replace(name)
	filename := fmt.Sprintf("%s_%s.json", base, capture.Started.Format("20060102_150405"))
	if compress {
		filename += ".gz"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}
	if err := json.NewEncoder(w).Encode(capture); err != nil {
		return "", fmt.Errorf("failed to write capture: %w", err)
	}
	return path, nil
}
