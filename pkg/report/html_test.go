package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kernelstub/bindiff/pkg/diff"
)

func ref[T any](value T) *T {
	return &value
}

func sampleResult() *diff.DiffResult {
	return &diff.DiffResult{
		Added: []diff.FunctionDelta{{
			NameB:   ref("fresh"),
			StartB:  ref(uint64(0x400)),
			Kind:    diff.MatchKind{Class: diff.MatchClass_None},
			Changed: true,
		}},
		Removed: []diff.FunctionDelta{{
			NameA:   ref("gone"),
			StartA:  ref(uint64(0x100)),
			Kind:    diff.MatchKind{Class: diff.MatchClass_None},
			Changed: true,
		}},
		Modified: []diff.FunctionDelta{{
			NameA:       ref("edited"),
			NameB:       ref("edited"),
			Kind:        diff.MatchKind{Class: diff.MatchClass_Fuzzy, Hamming: 9},
			Changed:     true,
			UnifiedDiff: ref("-ADD REG(EAX),IMM\n+SUB REG(EAX),IMM\n"),
		}},
		Unchanged: []diff.FunctionDelta{{
			NameA: ref("stable"),
			NameB: ref("stable"),
			Kind:  diff.MatchKind{Class: diff.MatchClass_Exact},
		}},
	}
}

func TestRenderHTMLSections(t *testing.T) {
	html, err := RenderHTML(sampleResult())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, "edited → edited")
	assert.Contains(t, html, "SimHash Hamming distance: 9")
	assert.Contains(t, html, "-ADD REG(EAX),IMM")
	assert.Contains(t, html, "<li class='card fn'>fresh</li>")
	assert.Contains(t, html, "<li class='card fn'>gone</li>")
	assert.Contains(t, html, "<li class='card fn'>stable</li>")
}

func TestRenderHTMLEscapesNames(t *testing.T) {
	result := &diff.DiffResult{
		Added: []diff.FunctionDelta{{
			NameB:   ref(`operator<< <a&b>`),
			Kind:    diff.MatchKind{Class: diff.MatchClass_None},
			Changed: true,
		}},
		Removed:   []diff.FunctionDelta{},
		Modified:  []diff.FunctionDelta{},
		Unchanged: []diff.FunctionDelta{},
	}

	html, err := RenderHTML(result)
	require.NoError(t, err)

	assert.NotContains(t, html, "operator<<")
	assert.Contains(t, html, "operator&lt;&lt; &lt;a&amp;b&gt;")
}

func TestDeltaLabel(t *testing.T) {
	pair := diff.FunctionDelta{NameA: ref("old"), NameB: ref("new")}
	assert.Equal(t, "old → new", DeltaLabel(&pair))

	onlyA := diff.FunctionDelta{NameA: ref("old")}
	assert.Equal(t, "old", DeltaLabel(&onlyA))

	onlyB := diff.FunctionDelta{NameB: ref("new")}
	assert.Equal(t, "new", DeltaLabel(&onlyB))

	assert.Equal(t, "?", DeltaLabel(&diff.FunctionDelta{}))
}
