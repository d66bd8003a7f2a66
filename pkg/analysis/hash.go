package analysis

import (
	"encoding/binary"
	"math/bits"

	"github.com/kernelstub/bindiff/pkg/disasm"
	"lukechampine.com/blake3"
)

// FunctionHash is the per-function fingerprint pair: a 256-bit content hash
// for equality and a 64-bit locality-sensitive hash for similarity. Computed
// once per FunctionIR.
type FunctionHash struct {
	Name     string
	Start    uint64
	Strong   [32]byte
	SimHash  uint64
	NumInsns int
}

// tokenBytes builds one token per instruction: the mnemonic followed by a
// tag per operand. Registers whose name starts with 'R' collapse to REG64,
// every other register to REG, so fingerprints survive the erasure of
// concrete registers. The 'R' test also catches the R8B/R8W/R8L-style
// sub-registers of R8-R15, so it separates widths only for the legacy
// registers.
func tokenBytes(insn disasm.Insn) []byte {
	token := []byte(insn.Mnemonic)

	for _, kind := range insn.OpKinds {
		switch kind.Class {
		case disasm.OperandClass_Reg:
			if len(kind.Reg) > 0 && kind.Reg[0] == 'R' {
				token = append(token, "REG64"...)
			} else {
				token = append(token, "REG"...)
			}
		case disasm.OperandClass_Mem:
			token = append(token, "MEM"...)
		case disasm.OperandClass_Imm:
			token = append(token, "IMM"...)
		default:
			token = append(token, 'O')
		}
	}

	return token
}

// HashFunction computes both fingerprints over the function's token stream.
// The strong hash digests the tokens in order; the simhash is order-agnostic
// by construction.
func HashFunction(f *disasm.FunctionIR) FunctionHash {
	hasher := blake3.New(32, nil)
	tokens := make([][]byte, 0, len(f.Insns))

	for _, insn := range f.Insns {
		token := tokenBytes(insn)
		hasher.Write(token)
		tokens = append(tokens, token)
	}

	var strong [32]byte
	copy(strong[:], hasher.Sum(nil))

	return FunctionHash{
		Name:     f.Name,
		Start:    f.Start,
		Strong:   strong,
		SimHash:  simHash(tokens),
		NumInsns: len(f.Insns),
	}
}

// simHash sign-votes each token's hash into 64 counters and emits one bit per
// counter: 1 iff the counter ended non-negative.
func simHash(tokens [][]byte) uint64 {
	var acc [64]int32

	for _, token := range tokens {
		digest := blake3.Sum256(token)
		v := binary.LittleEndian.Uint64(digest[:8])

		for i := 0; i < 64; i++ {
			if (v>>i)&1 == 1 {
				acc[i]++
			} else {
				acc[i]--
			}
		}
	}

	var out uint64
	for i := 0; i < 64; i++ {
		if acc[i] >= 0 {
			out |= 1 << i
		}
	}

	return out
}

// Hamming returns the number of differing simhash bits, in [0, 64]
func Hamming(a, b uint64) uint32 {
	return uint32(bits.OnesCount64(a ^ b))
}
