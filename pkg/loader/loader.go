package loader

import (
	"bytes"
	"debug/elf"
	"debug/pe"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kernelstub/bindiff/pkg/utils"
)

// PE optional header magic for PE32+ images
const pe32PlusMagic = 0x20b

// FunctionSymbol is a named entry in an object file's symbol or export table
// denoting executable code. Start is a virtual address for ELF and a relative
// virtual address for PE. Size is zero when the table does not provide one.
type FunctionSymbol struct {
	Name  string
	Start uint64
	Size  uint64
}

// BinaryImage is a loaded object file: its function symbol inventory plus the
// raw file bytes. Data is the whole file, indexed directly by symbol Start;
// it is read-only after Load returns.
type BinaryImage struct {
	Path      string
	Arch      string
	Bits      int
	Functions []FunctionSymbol
	Data      []byte
}

// Load reads the file at path and parses its function symbol inventory.
// Format is dispatched on magic bytes: MZ for PE, \x7fELF for ELF. Any other
// format is a hard error. x86-family inputs get the arch tag "x86"; other
// machines load fine but carry a machine-derived tag so the disassembler,
// the only component that enforces the ISA, can refuse them.
func Load(path string) (*BinaryImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.MakeError(utils.ErrIO, "failed to read %q: %v", path, err)
	}

	switch {
	case len(data) >= 2 && data[0] == 'M' && data[1] == 'Z':
		return loadPE(path, data)
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x7f, 'E', 'L', 'F'}):
		return loadELF(path, data)
	}

	return nil, utils.MakeError(utils.ErrFormat, "%q is neither ELF nor PE", path)
}

func loadELF(path string, data []byte) (*BinaryImage, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, utils.MakeError(utils.ErrFormat, "failed to parse ELF %q: %v", path, err)
	}

	bits := 32
	if f.Class == elf.ELFCLASS64 {
		bits = 64
	}

	syms, err := f.Symbols()
	if err != nil {
		// Stripped binaries have no static symtab; fall back to the dynamic one
		syms, err = f.DynamicSymbols()
		if err != nil {
			syms = nil
		}
	}

	funcs := collectELFFunctions(syms)

	arch := "x86"
	switch f.Machine {
	case elf.EM_X86_64, elf.EM_386:
	default:
		// Tag non-x86 machines so the disassembler can refuse them
		arch = strings.ToLower(strings.TrimPrefix(f.Machine.String(), "EM_"))
	}

	return &BinaryImage{
		Path:      path,
		Arch:      arch,
		Bits:      bits,
		Functions: funcs,
		Data:      data,
	}, nil
}

// collectELFFunctions keeps a symbol iff its type is STT_FUNC, its declared
// size is strictly positive, and its name resolved in the string table.
func collectELFFunctions(syms []elf.Symbol) []FunctionSymbol {
	var funcs []FunctionSymbol

	for _, sym := range syms {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		if sym.Size == 0 || sym.Name == "" {
			continue
		}

		funcs = append(funcs, FunctionSymbol{
			Name:  sym.Name,
			Start: sym.Value,
			Size:  sym.Size,
		})
	}

	return funcs
}

func loadPE(path string, data []byte) (*BinaryImage, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, utils.MakeError(utils.ErrFormat, "failed to parse PE %q: %v", path, err)
	}

	bits := 64
	switch hdr := f.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		if hdr.Magic != pe32PlusMagic {
			bits = 32
		}
	case *pe.OptionalHeader32:
		bits = 32
	default:
		// No optional header at all. Guessing 64-bit matches most modern
		// images but can mislabel 32-bit-only binaries, so say so out loud.
		slog.Warn("PE image has no optional header, assuming 64-bit", "path", path)
	}

	funcs, err := collectPEExports(f, data)
	if err != nil {
		return nil, utils.MakeError(utils.ErrFormat, "bad export table in %q: %v", path, err)
	}

	arch := "x86"
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_AMD64, pe.IMAGE_FILE_MACHINE_I386:
	default:
		arch = fmt.Sprintf("machine_0x%x", f.Machine)
	}

	return &BinaryImage{
		Path:      path,
		Arch:      arch,
		Bits:      bits,
		Functions: funcs,
		Data:      data,
	}, nil
}
