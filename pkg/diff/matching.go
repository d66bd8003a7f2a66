package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/kernelstub/bindiff/pkg/analysis"
	"github.com/kernelstub/bindiff/pkg/disasm"
	"github.com/kernelstub/bindiff/pkg/utils"
)

// MatchFunctions correlates the two sides by symbol name and classifies every
// function into exactly one of the four output sequences. The hash slices run
// parallel to the IR slices.
//
// The matcher is purely functional: identical inputs in identical order give
// byte-identical outputs. Unchanged, modified, and removed follow side A's
// symbol order; added follows side B's. Duplicate names resolve
// deterministically: last wins on side B, first wins on side A.
func MatchFunctions(fa, fb []disasm.FunctionIR, ha, hb []analysis.FunctionHash) DiffResult {
	byNameB := make(map[string]int, len(hb))
	for j, h := range hb {
		byNameB[h.Name] = j
	}
	usedB := make([]bool, len(hb))

	result := DiffResult{
		Added:     []FunctionDelta{},
		Removed:   []FunctionDelta{},
		Modified:  []FunctionDelta{},
		Unchanged: []FunctionDelta{},
	}

	for i := range ha {
		hashA := &ha[i]

		j, found := byNameB[hashA.Name]
		if !found || usedB[j] {
			result.Removed = append(result.Removed, FunctionDelta{
				NameA:      ref(hashA.Name),
				StartA:     ref(hashA.Start),
				Kind:       MatchKind{Class: MatchClass_None},
				Changed:    true,
				InsnCountA: ref(hashA.NumInsns),
			})
			continue
		}
		usedB[j] = true
		hashB := &hb[j]

		if hashA.Strong == hashB.Strong {
			result.Unchanged = append(result.Unchanged, FunctionDelta{
				NameA:      ref(hashA.Name),
				NameB:      ref(hashB.Name),
				StartA:     ref(hashA.Start),
				StartB:     ref(hashB.Start),
				Kind:       MatchKind{Class: MatchClass_Exact},
				Changed:    false,
				InsnCountA: ref(hashA.NumInsns),
				InsnCountB: ref(hashB.NumInsns),
			})
		} else {
			result.Modified = append(result.Modified, FunctionDelta{
				NameA:  ref(hashA.Name),
				NameB:  ref(hashB.Name),
				StartA: ref(hashA.Start),
				StartB: ref(hashB.Start),
				Kind: MatchKind{
					Class:   MatchClass_Fuzzy,
					Hamming: analysis.Hamming(hashA.SimHash, hashB.SimHash),
				},
				Changed:     true,
				InsnCountA:  ref(hashA.NumInsns),
				InsnCountB:  ref(hashB.NumInsns),
				UnifiedDiff: ref(UnifiedDiff(&fa[i], &fb[j])),
			})
		}
	}

	for j := range hb {
		if usedB[j] {
			continue
		}
		hashB := &hb[j]
		result.Added = append(result.Added, FunctionDelta{
			NameB:      ref(hashB.Name),
			StartB:     ref(hashB.Start),
			Kind:       MatchKind{Class: MatchClass_None},
			Changed:    true,
			InsnCountB: ref(hashB.NumInsns),
		})
	}

	return result
}

func ref[T any](value T) *T {
	return &value
}

// renderInsns flattens a function into one rendered instruction per line
func renderInsns(f *disasm.FunctionIR) string {
	lines := utils.Map(f.Insns, func(insn disasm.Insn) string {
		return insn.String()
	})

	return strings.Join(lines, "\n") + "\n"
}

// UnifiedDiff produces a line-level diff of the two functions' rendered
// instruction streams: one change per line, prefixed '-', '+', or ' ', with a
// trailing newline per change. No hunk headers; the output is meant for
// humans, not for patch.
func UnifiedDiff(a, b *disasm.FunctionIR) string {
	dmp := diffmatchpatch.New()
	// A timeout would make the diff text depend on machine speed
	dmp.DiffTimeout = 0

	charsA, charsB, lineIndex := dmp.DiffLinesToChars(renderInsns(a), renderInsns(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lineIndex)

	var out strings.Builder
	for _, d := range diffs {
		sign := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sign = "-"
		case diffmatchpatch.DiffInsert:
			sign = "+"
		}

		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out.WriteString(sign)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}

	return out.String()
}
