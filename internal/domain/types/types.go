// Package types contains enums shared across the application.
package types

import (
	"fmt"
	"strings"
)

// Rank is the letter grade of a finished level, E lowest and SSS highest.
type Rank int

const (
	RankE Rank = iota
	RankD
	RankC
	RankB
	RankA
	RankS
	RankSS
	RankSSS
)

var rankNames = [...]string{"E", "D", "C", "B", "A", "S", "SS", "SSS"}

func (r Rank) String() string {
	if r < RankE || r > RankSSS {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Rank) MarshalText() ([]byte, error) {
	if r < RankE || r > RankSSS {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rank) UnmarshalText(b []byte) error {
	v, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRank parses a rank letter, case-insensitively.
func ParseRank(s string) (Rank, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == up {
			return Rank(i), nil
		}
	}
	return RankE, fmt.Errorf("unknown rank %q", s)
}

// LevelEndState tells how a level ended.
type LevelEndState int

const (
	EndCleared LevelEndState = iota
	EndFailed
	EndQuit
)

var endStateNames = [...]string{"cleared", "failed", "quit"}

func (s LevelEndState) String() string {
	if s < EndCleared || s > EndQuit {
		return fmt.Sprintf("LevelEndState(%d)", int(s))
	}
	return endStateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s LevelEndState) MarshalText() ([]byte, error) {
	if s < EndCleared || s > EndQuit {
		return nil, fmt.Errorf("invalid end state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LevelEndState) UnmarshalText(b []byte) error {
	v, err := ParseLevelEndState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseLevelEndState parses cleared, failed or quit.
func ParseLevelEndState(v string) (LevelEndState, error) {
	low := strings.ToLower(strings.TrimSpace(v))
	for i, name := range endStateNames {
		if name == low {
			return LevelEndState(i), nil
		}
	}
	return EndCleared, fmt.Errorf("unknown end state %q", v)
}
