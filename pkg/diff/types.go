package diff

import (
	"encoding/json"
	"fmt"
)

// Represents how a function pair was correlated across the two sides
type MatchClass uint

const (
	// Same name, identical strong hash
	MatchClass_Exact MatchClass = iota
	// Same name, different content; similarity given by the Hamming distance
	MatchClass_Fuzzy
	// Present on one side only
	MatchClass_None
)

func (c MatchClass) String() string {
	switch c {
	case MatchClass_Exact:
		return "Exact"
	case MatchClass_Fuzzy:
		return "Fuzzy"
	case MatchClass_None:
		return "None"
	}

	panic("unreachable")
}

// MatchKind is the match classification of one delta. Hamming is meaningful
// only for fuzzy matches.
type MatchKind struct {
	Class   MatchClass
	Hamming uint32
}

// MarshalJSON serializes exact and absent matches as bare strings and fuzzy
// matches as {"Fuzzy":{"hamming":n}}
func (k MatchKind) MarshalJSON() ([]byte, error) {
	switch k.Class {
	case MatchClass_Exact, MatchClass_None:
		return json.Marshal(k.Class.String())
	case MatchClass_Fuzzy:
		return json.Marshal(map[string]map[string]uint32{
			"Fuzzy": {"hamming": k.Hamming},
		})
	}

	return nil, fmt.Errorf("unknown match class %d", k.Class)
}

// FunctionDelta describes one function's fate across the two binaries.
// Exactly one side is absent for added/removed entries; both sides are
// present for exact and fuzzy matches.
type FunctionDelta struct {
	NameA       *string   `json:"name_a"`
	NameB       *string   `json:"name_b"`
	StartA      *uint64   `json:"start_a"`
	StartB      *uint64   `json:"start_b"`
	Kind        MatchKind `json:"kind"`
	Changed     bool      `json:"changed"`
	InsnCountA  *int      `json:"insn_count_a"`
	InsnCountB  *int      `json:"insn_count_b"`
	UnifiedDiff *string   `json:"unified_diff"`
}

// DiffResult partitions the union of both function sets: every function
// appears in exactly one of the four sequences.
type DiffResult struct {
	Added     []FunctionDelta `json:"added"`
	Removed   []FunctionDelta `json:"removed"`
	Modified  []FunctionDelta `json:"modified"`
	Unchanged []FunctionDelta `json:"unchanged"`
}
