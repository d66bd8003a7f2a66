package cmd

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kernelstub/bindiff/pkg/disasm"
	"github.com/kernelstub/bindiff/pkg/utils"
)

// applySymbolMap renames the old binary's function symbols according to a
// flat "old-name: new-name" YAML mapping, so known renames match by name
// instead of surfacing as one removed plus one added entry.
func applySymbolMap(path string, fns []disasm.FunctionIR) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return utils.MakeError(utils.ErrIO, "failed to read symbol map %q: %v", path, err)
	}

	var mapping map[string]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return utils.MakeError(utils.ErrFormat, "failed to parse symbol map %q: %v", path, err)
	}

	renamed := 0
	for i := range fns {
		if newName, ok := mapping[fns[i].Name]; ok {
			fns[i].Name = newName
			renamed++
		}
	}

	slog.Debug("applied symbol map", "path", path, "entries", len(mapping), "renamed", renamed)

	return nil
}
