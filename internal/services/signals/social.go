package signals

import (
	"context"
	"hash/fnv"

	"AXII/internal/domain/models"
	domsvc "AXII/internal/domain/service"
)

// SocialSignal is a synthetic stand-in for an audience engagement metric (EES).
// It hashes the artist name into [min,max]; it measures nothing.
type SocialSignal struct {
	min, max int
}

func NewSocialSignal(lo, hi int) *SocialSignal {
	lo, hi = models.ClampScore(lo), models.ClampScore(hi)
	if lo > hi {
		lo, hi = hi, lo
	}
	return &SocialSignal{min: lo, max: hi}
}

func (s *SocialSignal) Name() string { return "social" }

func (s *SocialSignal) Fetch(_ context.Context, artist string, _ models.Credentials) models.SignalResult {
	return models.SignalResult{
		Score:     SyntheticScore(artist, s.min, s.max),
		Succeeded: true,
		Synthetic: true,
	}
}

// SyntheticScore maps name deterministically into [lo,hi] using FNV-1a.
func SyntheticScore(name string, lo, hi int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	span := uint32(hi - lo + 1)
	return lo + int(h.Sum32()%span)
}

var _ domsvc.SignalSource = (*SocialSignal)(nil)
