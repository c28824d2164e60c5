package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Rand is the only randomness the engine consumes: a uniform float in [0,1).
// *Stream and *math/rand.Rand both satisfy it.
type Rand interface {
	Float64() float64
}

// RunSeed is the canonical seed text of a game and the root of all its streams.
// Every event draw reads its own stream, so a year replays identically no matter
// how many draws earlier years consumed.
type RunSeed struct {
	Text string
	root uint64
}

// NewRunSeed hashes seedText into a root. Empty text is rejected.
func NewRunSeed(seedText string) (RunSeed, error) {
	if seedText == "" {
		return RunSeed{}, fmt.Errorf("seed text must not be empty")
	}
	h := sha256.Sum256([]byte(seedText))
	return RunSeed{Text: seedText, root: binary.LittleEndian.Uint64(h[:8])}, nil
}

// WithRunContext mixes an archive run id and the content version into the root, so two
// archived runs sharing a seed text still diverge. Both empty leaves the root as is.
func (r RunSeed) WithRunContext(runID, contentVersion string) RunSeed {
	if runID == "" && contentVersion == "" {
		return r
	}
	return RunSeed{Text: r.Text, root: mix(r.root, runID, "|", contentVersion)}
}

// Stream opens the stream named label.
func (r RunSeed) Stream(label string) *Stream {
	return &Stream{state: mix(r.root, label)}
}

// EventLabel names the stream used for one event draw of one year.
func EventLabel(year, draw int) string {
	return fmt.Sprintf("year:%d:draw:%d", year, draw)
}

// mix keys HMAC-SHA256 with base and folds parts into a new 64-bit seed.
func mix(base uint64, parts ...string) uint64 {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], base)
	m := hmac.New(sha256.New, key[:])
	for _, p := range parts {
		_, _ = m.Write([]byte(p))
	}
	return binary.LittleEndian.Uint64(m.Sum(nil)[:8])
}

// Stream is a SplitMix64 generator.
type Stream struct{ state uint64 }

// Uint64 returns the next raw value.
func (s *Stream) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a float in [0,1) built from the top 53 bits.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}
