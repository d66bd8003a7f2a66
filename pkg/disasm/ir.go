package disasm

import (
	"fmt"

	"github.com/kernelstub/bindiff/pkg/utils"
)

// Represents the class of a normalized operand (register, memory, immediate...)
type OperandClass uint

const (
	OperandClass_Reg OperandClass = iota
	OperandClass_Mem
	OperandClass_Imm
	OperandClass_Other
)

func (c OperandClass) String() string {
	switch c {
	case OperandClass_Reg:
		return "Reg"
	case OperandClass_Mem:
		return "Mem"
	case OperandClass_Imm:
		return "Imm"
	case OperandClass_Other:
		return "Other"
	}

	panic("unreachable")
}

// OperandKind is a decoded operand with its concrete value erased: immediates
// and memory displacements keep only their class tag, registers keep their
// normalized textual name. This erasure is what makes fingerprints tolerant
// to address relocations.
type OperandKind struct {
	Class OperandClass
	// Normalized register name, set only for OperandClass_Reg
	Reg string
}

func (k OperandKind) String() string {
	switch k.Class {
	case OperandClass_Reg:
		return fmt.Sprintf("REG(%s)", k.Reg)
	case OperandClass_Mem:
		return "MEM"
	case OperandClass_Imm:
		return "IMM"
	case OperandClass_Other:
		return "O"
	}

	panic("unreachable")
}

// Insn is one normalized instruction
type Insn struct {
	Addr     uint64
	Mnemonic string
	OpKinds  []OperandKind
}

// Renders the instruction as "<mnemonic> <tag1>,<tag2>,..."
func (i Insn) String() string {
	return fmt.Sprintf("%s %s", i.Mnemonic, utils.FormatSlice(i.OpKinds, ","))
}

// FunctionIR is one function's normalized instruction stream. It is created
// by the disassembler; afterward only Name may change (the CLI's --symbol-map
// renames side A before hashing). Insns is non-empty for any function the
// disassembler emits.
type FunctionIR struct {
	Name  string
	Start uint64
	// Declared symbol size; zero when the symbol table gave none
	Size  uint64
	Insns []Insn
}
