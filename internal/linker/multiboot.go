package linker

import "fmt"

// MultibootHeaderSymbol is the fixed symbol name the boot-image packager
// (out of scope) looks for when locating the multiboot header inside the
// finished object (spec.md §9 concrete scenario 5).
const MultibootHeaderSymbol = "<$>mosa-multiboot-header"

const (
	multibootMagic   uint32 = 0x1BADB002
	multibootFlags   uint32 = 0x00000003 // memory-info | modules-page-aligned
	multibootHdrSize        = 64
)

// writeMultibootHeaderLocked allocates the 64-byte multiboot header in
// .text, aligned 4, with magic/flags/checksum set and the address fields
// zeroed; patchMultibootAddressesLocked fills in header_addr/load_addr
// once section addresses are assigned, and the entry point is requested as
// an ordinary relocation so the general relocation pass resolves it
// (spec.md §9 concrete scenario 5; the field layout beyond entry point is
// per the multiboot 0.6.95 spec per spec.md's open question, not the
// source's half-committed comment).
func (l *Linker) writeMultibootHeaderLocked() error {
	if l.entrySymbol == "" {
		return fmt.Errorf("linker: NonELF build requires an EntrySymbol for the multiboot header")
	}
	w, err := l.allocateLocked(MultibootHeaderSymbol, SectionText, multibootHdrSize, 4)
	// w satisfies io.Writer via *symbolWriter's Write method.
	if err != nil {
		return err
	}
	buf := make([]byte, multibootHdrSize)
	putU32(buf, 0, multibootMagic)
	putU32(buf, 4, multibootFlags)
	putU32(buf, 8, checksum(multibootMagic, multibootFlags))
	// header_addr, load_addr, load_end_addr, bss_end_addr, entry_addr are
	// zeroed here and patched by patchMultibootAddressesLocked /
	// applyLocked once addresses are known; the remaining bytes out to 64
	// are reserved padding, left zero.
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("linker: failed to write multiboot header: %w", err)
	}
	return l.linkLocked(Relocation{
		Type:         LinkAbsolute,
		InSymbol:     MultibootHeaderSymbol,
		Offset:       28,
		TargetSymbol: l.entrySymbol,
	})
}

// patchMultibootAddressesLocked fills in header_addr (offset 12) and
// load_addr (offset 16) once every section has a virtual address.
// load_end_addr and bss_end_addr (offsets 20, 24) stay zero per spec.md
// §9 concrete scenario 5.
func (l *Linker) patchMultibootAddressesLocked() error {
	sym, ok := l.symbols[MultibootHeaderSymbol]
	if !ok {
		return fmt.Errorf("linker: multiboot header symbol missing")
	}
	sec := l.sections[sym.Section]
	headerAddr := sec.VirtualAddress + uint64(sym.SectionOffset)
	data := sec.buf.Bytes()
	putU32(data[sym.SectionOffset:], 12, uint32(headerAddr))
	putU32(data[sym.SectionOffset:], 16, uint32(l.base))
	return nil
}

func checksum(magic, flags uint32) uint32 {
	return uint32(-int64(magic) - int64(flags))
}

func putU32(buf []byte, off int, v uint32) {
	buf[off+0] = byte(v)
	buf[off+1] = byte(v >> 8)
	buf[off+2] = byte(v >> 16)
	buf[off+3] = byte(v >> 24)
}
