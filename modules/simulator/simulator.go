package simulator

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oblq/syspower/modules/smc"
)

var (
	ErrOpenFailed  = errors.New("simulator: open failed")
	ErrCloseFailed = errors.New("simulator: close failed")
	ErrCallFailed  = errors.New("simulator: call failed")
)

type entry struct {
	typ        smc.DataType
	attributes uint8
	raw        []byte
}

// Controller is an in-memory management controller. It answers the same
// structured calls as the hardware and can be told to fail any step.
type Controller struct {
	mutex sync.Mutex

	keys map[smc.Key]entry

	// FailOpen, FailClose and FailCall make the matching step fail
	// until reset.
	FailOpen  bool
	FailClose bool
	FailCall  bool

	Opens, Closes, Calls int
}

func New() *Controller {
	return &Controller{keys: make(map[smc.Key]entry)}
}

// Set stores raw bytes for key, reported with type t.
func (c *Controller) Set(key smc.Key, t smc.DataType, raw []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	r := make([]byte, len(raw))
	copy(r, raw)
	c.keys[key] = entry{typ: t, raw: r}
}

// SetValue encodes v according to t and stores it for key.
func (c *Controller) SetValue(key smc.Key, t smc.DataType, v float64) error {
	raw, err := Encode(t, v)
	if err != nil {
		return err
	}
	c.Set(key, t, raw)
	return nil
}

// Remove deletes key, subsequent lookups report it as not found.
func (c *Controller) Remove(key smc.Key) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.keys, key)
}

// smc.Conn interface implementation ----------------------------------------------------------------------------------

func (c *Controller) CallMethod(selector uint32) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch selector {
	case smc.SelectorOpen:
		c.Opens++
		if c.FailOpen {
			return ErrOpenFailed
		}
	case smc.SelectorClose:
		c.Closes++
		if c.FailClose {
			return ErrCloseFailed
		}
	default:
		return fmt.Errorf("unsupported selector %d", selector)
	}
	return nil
}

func (c *Controller) CallStructMethod(selector uint32, in []byte) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.Calls++
	if c.FailCall {
		return nil, ErrCallFailed
	}
	if selector != smc.SelectorCall {
		return nil, fmt.Errorf("unsupported selector %d", selector)
	}

	var req smc.Param
	if err := req.UnmarshalBinary(in); err != nil {
		return nil, err
	}

	out := smc.Param{Key: req.Key}
	e, ok := c.keys[req.Key]

	switch req.Op {
	case smc.OpGetKeyInfo:
		if !ok {
			out.Result = smc.ResultKeyNotFound
			break
		}
		out.KeyInfo = smc.KeyInfo{Size: uint32(len(e.raw)), Type: e.typ, Attributes: e.attributes}

	case smc.OpReadKey:
		if !ok {
			out.Result = smc.ResultKeyNotFound
			break
		}
		n := int(req.KeyInfo.Size)
		if n > len(e.raw) {
			n = len(e.raw)
		}
		copy(out.Bytes[:], e.raw[:n])

	default:
		return nil, fmt.Errorf("unsupported op %s", req.Op)
	}

	return out.MarshalBinary()
}

// ---------------------------------------------------------------------------------------------------------------------

// Encode is the inverse of smc.DataType.Decode for the types it knows.
func Encode(t smc.DataType, v float64) ([]byte, error) {
	switch t {
	case smc.TypeFlt:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		return b, nil
	case smc.TypeSP78:
		return toFixedPoint(v, 8), nil
	case smc.TypeSP87:
		return toFixedPoint(v, 7), nil
	case smc.TypeSPA5:
		return toFixedPoint(v, 5), nil
	}
	return nil, fmt.Errorf("cannot encode %q values", t)
}

func toFixedPoint(v float64, fractionBits uint) []byte {
	scaled := math.Round(v * float64(uint32(1)<<fractionBits))
	scaled = math.Max(math.MinInt16, math.Min(math.MaxInt16, scaled))

	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(int16(scaled)))
	return b
}

// fixture files -------------------------------------------------------------------------------------------------------

type fixtureKey struct {
	Type       string   `yaml:"type"`
	Value      *float64 `yaml:"value"`
	Bytes      []uint8  `yaml:"bytes"`
	Attributes uint8    `yaml:"attributes"`
}

type fixture struct {
	Keys map[string]fixtureKey `yaml:"keys"`

	FailOpen  bool `yaml:"fail_open"`
	FailClose bool `yaml:"fail_close"`
	FailCall  bool `yaml:"fail_call"`
}

// Load builds a Controller from a YAML fixture file:
//  keys:
//    PSTR: {type: "flt ", value: 42.5}
//    TC0P: {type: sp78, value: 45.25}
//    FNum: {type: "ui8 ", bytes: [2]}
func Load(path string) (*Controller, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Controller, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	c := New()
	c.FailOpen, c.FailClose, c.FailCall = f.FailOpen, f.FailClose, f.FailCall

	for name, fk := range f.Keys {
		key, err := smc.ParseKey(name)
		if err != nil {
			return nil, err
		}
		t, err := smc.ParseDataType(fk.Type)
		if err != nil {
			return nil, fmt.Errorf("key %s: %v", name, err)
		}

		var raw []byte
		switch {
		case fk.Bytes != nil:
			raw = fk.Bytes
		case fk.Value != nil:
			if raw, err = Encode(t, *fk.Value); err != nil {
				return nil, fmt.Errorf("key %s: %v", name, err)
			}
		default:
			return nil, fmt.Errorf("key %s: one of 'value' or 'bytes' is required", name)
		}

		c.keys[key] = entry{typ: t, attributes: fk.Attributes, raw: raw}
	}

	return c, nil
}
