package diff

import (
	"encoding/json"
	"os"

	"github.com/kernelstub/bindiff/pkg/utils"
)

// WriteJSON serializes the result to path as an indented JSON document with
// the four delta arrays. Absent sides serialize as null.
func WriteJSON(result *DiffResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return utils.MakeError(utils.ErrReport, "failed to serialize JSON report: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return utils.MakeError(utils.ErrReport, "failed to write JSON report to %q: %v", path, err)
	}

	return nil
}
