package survey

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	idPrefixLayout = "060102_1504"
	idSeparator    = "_SurveyNo_"

	SchemeMinute   = "minute"
	SchemeSequence = "sequence"
	SchemeRandom   = "random"
)

// IDGenerator - creates the survey id of a submission made at t
type IDGenerator interface {
	NewID(ctx context.Context, t time.Time) (string, error)
}

// Sequencer - hands out 1, 2, 3... per key
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// NewIDGenerator returns the generator of a configured scheme
func NewIDGenerator(scheme string, seq Sequencer) (IDGenerator, error) {
	switch scheme {
	case SchemeMinute:
		return MinuteIDGenerator{}, nil
	case SchemeSequence, "":
		if seq == nil {
			seq = NewMemorySequencer()
		}
		return &SequenceIDGenerator{seq: seq}, nil
	case SchemeRandom:
		return RandomIDGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown survey id scheme %q", scheme)
}

func idPrefix(t time.Time) string {
	return t.Format(idPrefixLayout)
}

// MinuteIDGenerator always numbers a submission 01. Two submissions made
// within the same minute get the same id.
type MinuteIDGenerator struct{}

func (MinuteIDGenerator) NewID(_ context.Context, t time.Time) (string, error) {
	return idPrefix(t) + idSeparator + "01", nil
}

// SequenceIDGenerator numbers submissions within a minute from a sequencer
type SequenceIDGenerator struct {
	seq Sequencer
}

func NewSequenceIDGenerator(seq Sequencer) *SequenceIDGenerator {
	return &SequenceIDGenerator{seq: seq}
}

func (g *SequenceIDGenerator) NewID(ctx context.Context, t time.Time) (string, error) {
	prefix := idPrefix(t)
	n, err := g.seq.Next(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("next survey number of %s: %w", prefix, err)
	}
	return fmt.Sprintf("%s%s%02d", prefix, idSeparator, n), nil
}

// RandomIDGenerator suffixes the minute with 8 random hex digits
type RandomIDGenerator struct{}

func (RandomIDGenerator) NewID(_ context.Context, t time.Time) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	suffix := strings.ReplaceAll(u.String(), "-", "")[:8]
	return idPrefix(t) + idSeparator + suffix, nil
}

const memorySequencerKeys = 16

// MemorySequencer counts per key inside this process. Only the most
// recent keys are kept.
type MemorySequencer struct {
	sync.Mutex
	counters map[string]int64
}

func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counters: make(map[string]int64)}
}

func (s *MemorySequencer) Next(_ context.Context, key string) (int64, error) {
	s.Lock()
	defer s.Unlock()

	s.counters[key]++
	n := s.counters[key]

	if len(s.counters) > memorySequencerKeys {
		keys := make([]string, 0, len(s.counters))
		for k := range s.counters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys[:len(keys)-memorySequencerKeys] {
			delete(s.counters, k)
		}
	}

	return n, nil
}
