package linker

import "testing"

// TestMultibootHeader reproduces spec.md §8 concrete scenario 5: the
// 64-byte allocation at symbol "<$>mosa-multiboot-header" in .text, aligned
// 4, begins with magic 0x1BADB002, flags 0x00000003, a checksum that zeroes
// the magic+flags+checksum sum mod 2^32, followed by header_addr/load_addr
// filled in at Finalize and zeroed load/bss addresses.
func TestMultibootHeader(t *testing.T) {
	l := New(Config{
		BaseAddress: 0x100000,
		NonELF:      true,
		EntrySymbol: "$method$Kernel.Main",
	})

	w, err := l.Allocate("$method$Kernel.Main", SectionText, 4, 4)
	if err != nil {
		t.Fatalf("Allocate entry symbol: %v", err)
	}
	if _, err := w.Write([]byte{0x90, 0x90, 0x90, 0x90}); err != nil {
		t.Fatalf("write entry bytes: %v", err)
	}

	if err := l.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	sym, ok := l.GetSymbol(MultibootHeaderSymbol)
	if !ok {
		t.Fatalf("multiboot header symbol not allocated")
	}
	if sym.Section != SectionText {
		t.Fatalf("multiboot header section = %v, want .text", sym.Section)
	}
	if sym.SectionOffset%4 != 0 {
		t.Fatalf("multiboot header offset %d not 4-byte aligned", sym.SectionOffset)
	}

	sec := l.sections[SectionText]
	data := sec.Bytes()[sym.SectionOffset : sym.SectionOffset+multibootHdrSize]

	getU32 := func(off int) uint32 {
		return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
	}

	if got := getU32(0); got != multibootMagic {
		t.Fatalf("magic = 0x%X, want 0x%X", got, multibootMagic)
	}
	if got := getU32(4); got != multibootFlags {
		t.Fatalf("flags = 0x%X, want 0x%X", got, multibootFlags)
	}
	if sum := multibootMagic + multibootFlags + getU32(8); sum != 0 {
		t.Fatalf("magic+flags+checksum = 0x%X, want 0", sum)
	}

	wantHeaderAddr := sec.VirtualAddress + uint64(sym.SectionOffset)
	if got := getU32(12); uint64(got) != wantHeaderAddr {
		t.Fatalf("header_addr = 0x%X, want 0x%X", got, wantHeaderAddr)
	}
	if got := getU32(16); uint64(got) != l.BaseAddress() {
		t.Fatalf("load_addr = 0x%X, want 0x%X", got, l.BaseAddress())
	}
	if got := getU32(20); got != 0 {
		t.Fatalf("load_end_addr = 0x%X, want 0", got)
	}
	if got := getU32(24); got != 0 {
		t.Fatalf("bss_end_addr = 0x%X, want 0", got)
	}
}

// TestMultibootRequiresEntrySymbol checks that a NonELF linker without an
// EntrySymbol fails fast instead of writing an unresolvable relocation.
func TestMultibootRequiresEntrySymbol(t *testing.T) {
	l := New(Config{NonELF: true})
	if err := l.Finalize(); err == nil {
		t.Fatalf("expected Finalize to fail without an EntrySymbol")
	}
}
