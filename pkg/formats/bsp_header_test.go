package formats

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseBSPHeader_Valid(t *testing.T) {
	var dir [BSPLumpCount]BSPLump
	dir[LumpPlanes] = BSPLump{Offset: 1036, Length: 40, Version: 0}
	dir[LumpGameLump] = BSPLump{Offset: 2000, Length: 12, Version: 1, FourCC: [4]byte{'s', 'p', 'r', 'p'}}
	data := createTestBSPWithDirectory(21, dir, nil)

	header, err := ParseBSPHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseBSPHeader failed: %v", err)
	}

	if header.Ident != BSPMagic {
		t.Errorf("expected ident %#x, got %#x", BSPMagic, header.Ident)
	}
	if header.Version != 21 {
		t.Errorf("expected version 21, got %d", header.Version)
	}
	if len(header.Lumps) != 64 {
		t.Errorf("expected 64 lumps, got %d", len(header.Lumps))
	}
	if header.MapRevision != 7 {
		t.Errorf("expected map revision 7, got %d", header.MapRevision)
	}
	if got := header.Lump(LumpPlanes); got != dir[LumpPlanes] {
		t.Errorf("planes lump = %+v, want %+v", got, dir[LumpPlanes])
	}
	if got := header.Lump(LumpGameLump); got != dir[LumpGameLump] {
		t.Errorf("game lump = %+v, want %+v", got, dir[LumpGameLump])
	}
	if got := header.Lump(BSPLumpKind(99)); got != (BSPLump{}) {
		t.Errorf("out of range lump = %+v, want zero", got)
	}
}

func TestParseBSPHeader_ConsumesExactly1036Bytes(t *testing.T) {
	data := append(createTestBSP(20, nil), 0xAA, 0xBB)
	r := bytes.NewReader(data)

	if _, err := ParseBSPHeader(r); err != nil {
		t.Fatalf("ParseBSPHeader failed: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 unread bytes, got %d", r.Len())
	}
}

func TestParseBSPHeader_InvalidMagic(t *testing.T) {
	tests := []string{"IBSP", "vbsp", "PSBV", "\x00\x00\x00\x00"}

	for _, magic := range tests {
		data := createTestBSP(21, nil)
		copy(data, magic)

		header, err := ParseBSPHeader(bytes.NewReader(data))
		if !errors.Is(err, ErrInvalidBSPMagic) {
			t.Errorf("%q: expected ErrInvalidBSPMagic, got %v", magic, err)
		}
		if header != nil {
			t.Errorf("%q: expected nil header", magic)
		}
	}
}

func TestParseBSPHeader_InvalidMagicShortFile(t *testing.T) {
	// A wrong magic is reported even if the rest of the header is missing.
	_, err := ParseBSPHeader(bytes.NewReader([]byte("RIFF")))
	if !errors.Is(err, ErrInvalidBSPMagic) {
		t.Errorf("expected ErrInvalidBSPMagic, got %v", err)
	}
}

func TestParseBSPHeader_VersionNotValidated(t *testing.T) {
	for _, version := range []int32{0, 17, 19, 20, 21, 29, 1000} {
		header, err := ParseBSPHeader(bytes.NewReader(createTestBSP(version, nil)))
		if err != nil {
			t.Errorf("version %d: unexpected error %v", version, err)
			continue
		}
		if header.Version != version {
			t.Errorf("expected version %d, got %d", version, header.Version)
		}
	}
}

func TestBSPLump_End(t *testing.T) {
	l := BSPLump{Offset: 1036, Length: 20}
	if l.End() != 1056 {
		t.Errorf("End() = %d, want 1056", l.End())
	}
}

func TestBSPLumpKind_String(t *testing.T) {
	tests := []struct {
		kind     BSPLumpKind
		expected string
	}{
		{LumpEntities, "entities"},
		{LumpPlanes, "planes"},
		{LumpTexData, "texdata"},
		{LumpVertexes, "vertexes"},
		{LumpNodes, "nodes"},
		{LumpTexInfo, "texinfo"},
		{LumpFaces, "faces"},
		{LumpLeafs, "leafs"},
		{LumpEdges, "edges"},
		{LumpPakfile, "pakfile"},
		{LumpTexDataStringData, "texdatastringdata"},
		{LumpTexDataStringTable, "texdatastringtable"},
		{LumpDispMultiblend, "dispmultiblend"},
		{BSPLumpKind(64), "Unknown(64)"},
		{BSPLumpKind(-1), "Unknown(-1)"},
	}

	for _, tc := range tests {
		if tc.kind.String() != tc.expected {
			t.Errorf("%d.String() = %q, expected %q", int(tc.kind), tc.kind.String(), tc.expected)
		}
	}
}

func TestBSPLumpKind_Indices(t *testing.T) {
	tests := map[BSPLumpKind]int{
		LumpPlanes:             1,
		LumpTexData:            2,
		LumpVertexes:           3,
		LumpNodes:              5,
		LumpTexInfo:            6,
		LumpFaces:              7,
		LumpLeafs:              10,
		LumpEdges:              12,
		LumpModels:             14,
		LumpBrushes:            18,
		LumpPakfile:            40,
		LumpTexDataStringData:  43,
		LumpTexDataStringTable: 44,
		LumpDispMultiblend:     63,
	}

	for kind, idx := range tests {
		if int(kind) != idx {
			t.Errorf("%s has index %d, expected %d", kind, int(kind), idx)
		}
	}
}

func TestParseBSPLumpKind(t *testing.T) {
	tests := []struct {
		name string
		kind BSPLumpKind
		ok   bool
	}{
		{"planes", LumpPlanes, true},
		{"texdatastringtable", LumpTexDataStringTable, true},
		{"40", LumpPakfile, true},
		{"0", LumpEntities, true},
		{"64", 0, false},
		{"-1", 0, false},
		{"planez", 0, false},
	}

	for _, tc := range tests {
		kind, ok := ParseBSPLumpKind(tc.name)
		if ok != tc.ok || kind != tc.kind {
			t.Errorf("ParseBSPLumpKind(%q) = %v, %v; want %v, %v", tc.name, kind, ok, tc.kind, tc.ok)
		}
	}
}
