package loader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPE64 writes a minimal PE32+ image with one .edata section holding an
// export directory of three code exports (two named, one by ordinal only)
// plus one forwarder entry that must be ignored.
func buildPE64(t *testing.T) string {
	t.Helper()

	const (
		peSigOffset   = 0x40
		coffOffset    = peSigOffset + 4
		optOffset     = coffOffset + 20
		optSize       = 240
		secOffset     = optOffset + optSize
		sectionRVA    = 0x1000
		sectionRaw    = 0x200
		sectionSize   = 0x200
		exportDirRVA  = sectionRVA
		exportDirLen  = 0x80
		funcTableRVA  = sectionRVA + 0x28
		nameTableRVA  = sectionRVA + 0x38
		ordTableRVA   = sectionRVA + 0x40
		nameAlphaRVA  = sectionRVA + 0x50
		nameBetaRVA   = sectionRVA + 0x56
		forwarderRVA  = sectionRVA + 0x60
		codeAlphaRVA  = sectionRVA + 0x100
		codeBetaRVA   = sectionRVA + 0x110
		codeNoNameRVA = sectionRVA + 0x120
	)

	image := make([]byte, sectionRaw+sectionSize)

	// DOS stub: magic plus the PE header offset at 0x3c
	image[0] = 'M'
	image[1] = 'Z'
	binary.LittleEndian.PutUint32(image[0x3c:], peSigOffset)

	copy(image[peSigOffset:], []byte{'P', 'E', 0, 0})

	// COFF header
	binary.LittleEndian.PutUint16(image[coffOffset:], 0x8664) // IMAGE_FILE_MACHINE_AMD64
	binary.LittleEndian.PutUint16(image[coffOffset+2:], 1)    // one section
	binary.LittleEndian.PutUint16(image[coffOffset+16:], optSize)
	binary.LittleEndian.PutUint16(image[coffOffset+18:], 0x2022) // EXECUTABLE | DLL

	// Optional header, PE32+
	binary.LittleEndian.PutUint16(image[optOffset:], pe32PlusMagic)
	binary.LittleEndian.PutUint32(image[optOffset+32:], 0x1000) // SectionAlignment
	binary.LittleEndian.PutUint32(image[optOffset+36:], 0x200)  // FileAlignment
	binary.LittleEndian.PutUint32(image[optOffset+56:], 0x2000) // SizeOfImage
	binary.LittleEndian.PutUint32(image[optOffset+60:], 0x200)  // SizeOfHeaders
	binary.LittleEndian.PutUint32(image[optOffset+108:], 16)    // NumberOfRvaAndSizes
	// Export data directory
	binary.LittleEndian.PutUint32(image[optOffset+112:], exportDirRVA)
	binary.LittleEndian.PutUint32(image[optOffset+116:], exportDirLen)

	// Section header: .edata
	copy(image[secOffset:], ".edata\x00\x00")
	binary.LittleEndian.PutUint32(image[secOffset+8:], sectionSize)  // VirtualSize
	binary.LittleEndian.PutUint32(image[secOffset+12:], sectionRVA)  // VirtualAddress
	binary.LittleEndian.PutUint32(image[secOffset+16:], sectionSize) // SizeOfRawData
	binary.LittleEndian.PutUint32(image[secOffset+20:], sectionRaw)  // PointerToRawData
	binary.LittleEndian.PutUint32(image[secOffset+36:], 0x40000040)  // INITIALIZED_DATA | READ

	at := func(rva uint32) uint32 { return rva - sectionRVA + sectionRaw }

	// Export directory
	dir := at(exportDirRVA)
	binary.LittleEndian.PutUint32(image[dir+exportDirNumberOfFunctions:], 4)
	binary.LittleEndian.PutUint32(image[dir+exportDirNumberOfNames:], 2)
	binary.LittleEndian.PutUint32(image[dir+exportDirAddressOfFunctions:], funcTableRVA)
	binary.LittleEndian.PutUint32(image[dir+exportDirAddressOfNames:], nameTableRVA)
	binary.LittleEndian.PutUint32(image[dir+exportDirAddressOfNameOrdinals:], ordTableRVA)

	// Function table: alpha, beta, ordinal-only, forwarder
	funcs := at(funcTableRVA)
	binary.LittleEndian.PutUint32(image[funcs:], codeAlphaRVA)
	binary.LittleEndian.PutUint32(image[funcs+4:], codeBetaRVA)
	binary.LittleEndian.PutUint32(image[funcs+8:], codeNoNameRVA)
	binary.LittleEndian.PutUint32(image[funcs+12:], forwarderRVA)

	// Name table and ordinal table
	names := at(nameTableRVA)
	binary.LittleEndian.PutUint32(image[names:], nameAlphaRVA)
	binary.LittleEndian.PutUint32(image[names+4:], nameBetaRVA)
	ords := at(ordTableRVA)
	binary.LittleEndian.PutUint16(image[ords:], 0)
	binary.LittleEndian.PutUint16(image[ords+2:], 1)

	copy(image[at(nameAlphaRVA):], "alpha\x00")
	copy(image[at(nameBetaRVA):], "beta\x00")
	copy(image[at(forwarderRVA):], "OTHER.dll.target\x00")

	// Exported code bodies: mov eax, imm32; ret
	for _, rva := range []uint32{codeAlphaRVA, codeBetaRVA, codeNoNameRVA} {
		copy(image[at(rva):], []byte{0xb8, 0x2a, 0x00, 0x00, 0x00, 0xc3})
	}

	path := filepath.Join(t.TempDir(), "test.dll")
	require.NoError(t, os.WriteFile(path, image, 0644))

	return path
}

func TestLoadPEExportInventory(t *testing.T) {
	path := buildPE64(t)

	img, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "x86", img.Arch)
	assert.Equal(t, 64, img.Bits)

	require.Len(t, img.Functions, 3)

	assert.Equal(t, "alpha", img.Functions[0].Name)
	assert.Equal(t, uint64(0x1100), img.Functions[0].Start)
	assert.Zero(t, img.Functions[0].Size)

	assert.Equal(t, "beta", img.Functions[1].Name)
	assert.Equal(t, uint64(0x1110), img.Functions[1].Start)

	// Unnamed exports are synthesized from their rva
	assert.Equal(t, "ord_4384", img.Functions[2].Name)
	assert.Equal(t, uint64(0x1120), img.Functions[2].Start)
}

func TestLoadPEWithoutExportTable(t *testing.T) {
	path := buildPE64(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Zero out the export data directory
	binary.LittleEndian.PutUint32(data[0x58+112:], 0)
	binary.LittleEndian.PutUint32(data[0x58+116:], 0)

	stripped := filepath.Join(t.TempDir(), "noexports.dll")
	require.NoError(t, os.WriteFile(stripped, data, 0644))

	img, err := Load(stripped)
	require.NoError(t, err)
	assert.Empty(t, img.Functions)
}
