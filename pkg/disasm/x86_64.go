package disasm

import (
	"log/slog"

	"github.com/kernelstub/bindiff/pkg/loader"
	"github.com/kernelstub/bindiff/pkg/utils"
	"golang.org/x/arch/x86/x86asm"
)

// Decode budget for symbols whose table entry declares no size (PE exports)
const fallbackBudget = 4096

// Return-family mnemonics as the decoder spells them. Halting on any of these
// keeps trailing alignment padding out of the instruction stream, which would
// otherwise perturb the fingerprint; symbol sizes are unreliable in PE
// exports and sometimes inflated in ELF.
var returnMnemonics = map[string]bool{
	"RET":   true,
	"LRET":  true,
	"IRET":  true,
	"IRETD": true,
	"IRETQ": true,
}

// Reports whether a normalized mnemonic belongs to the return family
func IsReturn(mnemonic string) bool {
	return returnMnemonics[mnemonic]
}

// DisassembleFunctions linearly decodes every function symbol of the image
// into a normalized instruction stream. Functions are emitted in symbol
// order; symbols that start out of bounds or decode to nothing are skipped
// silently. This is the only component that enforces the ISA: anything but
// 64-bit x86 is rejected.
func DisassembleFunctions(img *loader.BinaryImage) ([]FunctionIR, error) {
	if img.Arch != "x86" || img.Bits != 64 {
		return nil, utils.MakeError(utils.ErrUnsupported, "%q is %s/%d-bit, only x86/64-bit is supported", img.Path, img.Arch, img.Bits)
	}

	var out []FunctionIR
	for _, sym := range img.Functions {
		if fn, ok := disassembleFunction(img.Data, sym); ok {
			out = append(out, fn)
		}
	}

	slog.Debug("disassembled image", "path", img.Path, "symbols", len(img.Functions), "functions", len(out))

	return out, nil
}

func disassembleFunction(data []byte, sym loader.FunctionSymbol) (FunctionIR, bool) {
	start := int(sym.Start)
	if start < 0 || start >= len(data) {
		return FunctionIR{}, false
	}

	budget := len(data) - start
	if sym.Size > 0 && int(sym.Size) < budget {
		budget = int(sym.Size)
	} else if sym.Size == 0 && budget > fallbackBudget {
		budget = fallbackBudget
	}

	var insns []Insn
	cursor := 0
	for cursor < budget {
		off := start + cursor
		inst, err := x86asm.Decode(data[off:], 64)
		if err != nil || inst.Len == 0 {
			break
		}

		insns = append(insns, normalizeInstruction(uint64(off), inst))
		cursor += inst.Len

		if IsReturn(inst.Op.String()) {
			break
		}
	}

	if len(insns) == 0 {
		return FunctionIR{}, false
	}

	return FunctionIR{
		Name:  sym.Name,
		Start: sym.Start,
		Size:  sym.Size,
		Insns: insns,
	}, true
}

func normalizeInstruction(addr uint64, inst x86asm.Inst) Insn {
	var kinds []OperandKind
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		kinds = append(kinds, normalizeOperand(arg))
	}

	return Insn{
		Addr:     addr,
		Mnemonic: inst.Op.String(),
		OpKinds:  kinds,
	}
}

// normalizeOperand erases an operand to its kind tag. PC-relative branch
// targets come out of the decoder as x86asm.Rel, which is neither register,
// memory, nor immediate, so they fall through to Other.
func normalizeOperand(arg x86asm.Arg) OperandKind {
	switch a := arg.(type) {
	case x86asm.Reg:
		return OperandKind{Class: OperandClass_Reg, Reg: a.String()}
	case x86asm.Mem:
		return OperandKind{Class: OperandClass_Mem}
	case x86asm.Imm:
		return OperandKind{Class: OperandClass_Imm}
	}

	return OperandKind{Class: OperandClass_Other}
}
