package sampler

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Format names a Sink implementation.
type Format string

const (
	FormatText Format = "text"
	FormatCBOR Format = "cbor"
)

// NewSink returns the sink for format writing to w.
func NewSink(format Format, w io.Writer) (Sink, error) {
	switch format {
	case FormatText, "":
		return &TextSink{w: w}, nil
	case FormatCBOR:
		cs, err := NewCBORSink(w)
		if err != nil {
			return nil, err
		}
		return cs, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// TextSink prints one line per round. A single key prints just its value
// ("%f"), several keys print "KEY value" pairs separated by " | ".
type TextSink struct {
	mutex sync.Mutex
	w     io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (ts *TextSink) Write(samples []Sample) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if len(samples) == 1 {
		_, err := fmt.Fprintf(ts.w, "%f\n", samples[0].Value)
		return err
	}

	fields := make([]string, 0, len(samples))
	for _, s := range samples {
		fields = append(fields, fmt.Sprintf("%s %f", s.Key, s.Value))
	}
	_, err := fmt.Fprintln(ts.w, strings.Join(fields, " | "))
	return err
}

// CBORSink writes every round as one CBOR array of samples.
type CBORSink struct {
	mutex sync.Mutex
	enc   *cbor.Encoder
}

func NewCBORSink(w io.Writer) (*CBORSink, error) {
	em, err := cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder mode: %v", err)
	}
	return &CBORSink{enc: em.NewEncoder(w)}, nil
}

func (cs *CBORSink) Write(samples []Sample) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return cs.enc.Encode(samples)
}
