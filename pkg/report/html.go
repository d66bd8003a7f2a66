package report

import (
	"html/template"
	"os"
	"strings"

	"github.com/kernelstub/bindiff/pkg/diff"
	"github.com/kernelstub/bindiff/pkg/utils"
)

// Self-contained report document. html/template escapes every interpolated
// string, which covers the function names and diff bodies coming straight
// from symbol tables.
const htmlTemplate = `<!doctype html>
<html>
<head>
<meta charset='utf-8'>
<meta name='viewport' content='width=device-width, initial-scale=1'>
<title>bindiff report</title>
<style>
body { font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Ubuntu, Cantarell, Noto Sans, Helvetica, Arial; margin: 2rem; }
.summary { display: flex; gap: 1rem; }
.card { border: 1px solid #ddd; border-radius: 12px; padding: 1rem; }
.badge { padding: .25rem .5rem; border-radius: 8px; font-weight: 700; }
.badge.green { background: #d1fae5; color: #065f46; }
.badge.yellow { background: #fef9c3; color: #854d0e; }
.badge.red { background: #fee2e2; color: #991b1b; }
.badge.blue { background: #dbeafe; color: #1e3a8a; }
pre { background: #0b1020; color: #d1d5db; padding: 1rem; border-radius: 8px; overflow-x: auto; }
h2 { margin-top: 2rem; }
.fn { margin-bottom: 1rem; }
.fn h3 { margin: 0; font-size: 1rem; }
</style>
</head>
<body>
<h1>bindiff report</h1>
<div class='summary'>
  <div class='card'><span class='badge green'>Unchanged</span> {{len .Unchanged}}</div>
  <div class='card'><span class='badge yellow'>Modified</span> {{len .Modified}}</div>
  <div class='card'><span class='badge blue'>Added</span> {{len .Added}}</div>
  <div class='card'><span class='badge red'>Removed</span> {{len .Removed}}</div>
</div>

<h2>Modified</h2>
{{range .Modified}}
<div class='fn card'>
  <h3>{{.Label}}</h3>
  <div>SimHash Hamming distance: {{.Hamming}}</div>
  {{if .Diff}}
  <details open><summary>Unified diff</summary>
  <pre>{{.Diff}}</pre>
  </details>
  {{end}}
</div>
{{end}}

<h2>Added</h2>
<ul>
{{range .Added}}
  <li class='card fn'>{{.}}</li>
{{end}}
</ul>

<h2>Removed</h2>
<ul>
{{range .Removed}}
  <li class='card fn'>{{.}}</li>
{{end}}
</ul>

<h2>Unchanged</h2>
<ul>
{{range .Unchanged}}
  <li class='card fn'>{{.}}</li>
{{end}}
</ul>

</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type modifiedEntry struct {
	Label   string
	Hamming uint32
	Diff    string
}

type reportView struct {
	Modified  []modifiedEntry
	Added     []string
	Removed   []string
	Unchanged []string
}

func deref(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}

// DeltaLabel renders the cross-side name of a delta, "name_a → name_b" for
// matched pairs and the present side's name otherwise
func DeltaLabel(d *diff.FunctionDelta) string {
	switch {
	case d.NameA != nil && d.NameB != nil:
		return *d.NameA + " → " + *d.NameB
	case d.NameA != nil:
		return *d.NameA
	case d.NameB != nil:
		return *d.NameB
	}
	return "?"
}

// RenderHTML renders the whole result as one self-contained HTML document
func RenderHTML(result *diff.DiffResult) (string, error) {
	view := reportView{
		Modified: utils.Map(result.Modified, func(d diff.FunctionDelta) modifiedEntry {
			entry := modifiedEntry{
				Label:   deref(d.NameA) + " → " + deref(d.NameB),
				Hamming: d.Kind.Hamming,
			}
			if d.UnifiedDiff != nil {
				entry.Diff = *d.UnifiedDiff
			}
			return entry
		}),
		Added:     utils.Map(result.Added, func(d diff.FunctionDelta) string { return deref(d.NameB) }),
		Removed:   utils.Map(result.Removed, func(d diff.FunctionDelta) string { return deref(d.NameA) }),
		Unchanged: utils.Map(result.Unchanged, func(d diff.FunctionDelta) string { return deref(d.NameA) }),
	}

	var out strings.Builder
	if err := reportTemplate.Execute(&out, view); err != nil {
		return "", utils.MakeError(utils.ErrReport, "failed to render HTML report: %v", err)
	}

	return out.String(), nil
}

// WriteHTML renders the result and writes it to path
func WriteHTML(result *diff.DiffResult, path string) error {
	html, err := RenderHTML(result)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return utils.MakeError(utils.ErrReport, "failed to write HTML report to %q: %v", path, err)
	}

	return nil
}
