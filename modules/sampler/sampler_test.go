package sampler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/oblq/syspower/modules/simulator"
	"github.com/oblq/syspower/modules/smc"
)

var epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type countingSink struct {
	mutex  sync.Mutex
	rounds [][]Sample
	err    error
}

func (cs *countingSink) Write(samples []Sample) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	cs.rounds = append(cs.rounds, samples)
	return cs.err
}

func (cs *countingSink) count() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return len(cs.rounds)
}

func newSources(t *testing.T) []Source {
	c := simulator.New()
	require.NoError(t, c.SetValue(smc.KeyTotalPower, smc.TypeFlt, 42.5))
	require.NoError(t, c.SetValue(smc.KeyCPUProximityTemp, smc.TypeSP78, 1.171875))

	return []Source{
		smc.NewKeyHandle(c, smc.KeyTotalPower),
		smc.NewKeyHandle(c, smc.KeyCPUProximityTemp),
		smc.NewKeyHandle(c, smc.KeyGPU0Power),
	}
}

func TestPoll(t *testing.T) {
	s := New(time.Second, &countingSink{}, newSources(t)...)
	s.now = func() time.Time { return epoch }

	got := s.Poll()
	require.Len(t, got, 3)
	require.Equal(t, Sample{Time: epoch, Key: "PSTR", Value: 42.5, Valid: true}, got[0])
	require.Equal(t, Sample{Time: epoch, Key: "TC0P", Value: 1.171875, Valid: true}, got[1])

	require.Equal(t, "PG0R", got[2].Key)
	require.False(t, got[2].Valid)
	require.Zero(t, got[2].Value)
	require.Contains(t, got[2].Err, smc.ErrKeyAbsent.Error())
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &countingSink{err: errors.New("broken pipe")}
	s := New(5*time.Millisecond, sink, newSources(t)...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("sampler did not stop")
	}
}

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(FormatText, &buf)
	require.NoError(t, err)

	require.NoError(t, sink.Write([]Sample{{Key: "PSTR", Value: 42.5, Valid: true}}))
	require.NoError(t, sink.Write([]Sample{
		{Key: "PSTR", Value: 42.5, Valid: true},
		{Key: "PG0R"},
	}))

	require.Equal(t, "42.500000\nPSTR 42.500000 | PG0R 0.000000\n", buf.String())
}

func TestCBORSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(FormatCBOR, &buf)
	require.NoError(t, err)

	round := []Sample{
		{Time: epoch, Key: "PSTR", Value: 42.5, Valid: true},
		{Time: epoch, Key: "PG0R", Err: "smc: key absent: PG0R"},
	}
	require.NoError(t, sink.Write(round))
	require.NoError(t, sink.Write(round[:1]))

	dec := cbor.NewDecoder(&buf)

	var got []Sample
	require.NoError(t, dec.Decode(&got))
	require.Equal(t, round, got)

	var second []Sample
	require.NoError(t, dec.Decode(&second))
	require.Len(t, second, 1)
}

func TestNewSinkUnknownFormat(t *testing.T) {
	_, err := NewSink("xml", &bytes.Buffer{})
	require.Error(t, err)
}

func TestOnce(t *testing.T) {
	sink := &countingSink{}
	s := New(time.Second, sink, newSources(t)...)

	require.NoError(t, s.Once())
	require.Equal(t, 1, sink.count())

	sink.err = errors.New("closed")
	require.Error(t, s.Once())
}
