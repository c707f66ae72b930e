package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/romain-durban/bsploader/internal/config"
	"github.com/romain-durban/bsploader/pkg/formats"
	"github.com/romain-durban/bsploader/pkg/pak"
)

type testPlane struct {
	Normal [3]float32
	Dist   float32
	Type   int32
}

type testTexInfo struct {
	TextureVecs  [2][4]float32
	LightmapVecs [2][4]float32
	Flags        int32
	TexData      int32
}

type testTexData struct {
	Reflectivity      [3]float32
	NameStringTableID int32
	Width             int32
	Height            int32
	ViewWidth         int32
	ViewHeight        int32
}

type testModel struct {
	Mins, Maxs, Origin            [3]float32
	HeadNode, FirstFace, NumFaces int32
}

func encode(t *testing.T, records ...any) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	for _, rec := range records {
		if err := binary.Write(buf, binary.LittleEndian, rec); err != nil {
			t.Fatalf("encoding %T: %v", rec, err)
		}
	}
	return buf.Bytes()
}

func createTestPakfile(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	files := map[string]string{
		"materials/brick/brickwall001.vmt": `"LightmappedGeneric" {}`,
		"materials/maps/test/brick.vmt":    `"LightmappedGeneric" {}`,
		"materials/maps/test/water.vmt":    `"Water" {}`,
		"resource/overviews/test.txt":      "overview",
	}
	for name, body := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing pakfile: %v", err)
	}
	return buf.Bytes()
}

// createTestMap writes a small version 20 map and returns its path.
func createTestMap(t *testing.T) string {
	t.Helper()

	stringData := []byte("BRICK/BRICKWALL001\x00CAF\xc9/FLOOR\x00")
	lumps := map[formats.BSPLumpKind][]byte{
		formats.LumpPlanes: encode(t,
			testPlane{Normal: [3]float32{0, 0, 1}, Dist: 0, Type: formats.PlaneZ},
			testPlane{Normal: [3]float32{1, 0, 0}, Dist: 128, Type: formats.PlaneX},
			testPlane{Normal: [3]float32{0, 0, 0.5}, Dist: 8, Type: formats.PlaneAnyZ},
		),
		formats.LumpTexData: encode(t,
			testTexData{NameStringTableID: 0, Width: 512, Height: 256},
			testTexData{NameStringTableID: 1, Width: 128, Height: 128},
		),
		formats.LumpTexInfo: encode(t,
			testTexInfo{TexData: 0},
			testTexInfo{TexData: 0},
			testTexInfo{TexData: 1},
		),
		formats.LumpModels: encode(t, testModel{
			Mins: [3]float32{-512, -512, -64},
			Maxs: [3]float32{512, 512, 448},
		}),
		formats.LumpTexDataStringTable: encode(t, []int32{0, 19}),
		formats.LumpTexDataStringData:  stringData,
		formats.LumpPakfile:            createTestPakfile(t),
	}

	header := new(bytes.Buffer)
	body := new(bytes.Buffer)
	binary.Write(header, binary.LittleEndian, uint32(formats.BSPMagic))
	binary.Write(header, binary.LittleEndian, int32(20))
	for i := 0; i < formats.BSPLumpCount; i++ {
		data := lumps[formats.BSPLumpKind(i)]
		offset := int32(0)
		if len(data) > 0 {
			offset = int32(formats.BSPHeaderSize + body.Len())
			body.Write(data)
		}
		binary.Write(header, binary.LittleEndian, []int32{offset, int32(len(data)), 0, 0})
	}
	binary.Write(header, binary.LittleEndian, int32(42))

	path := filepath.Join(t.TempDir(), "test.bsp")
	if err := os.WriteFile(path, append(header.Bytes(), body.Bytes()...), 0644); err != nil {
		t.Fatalf("writing map: %v", err)
	}
	return path
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	out := new(bytes.Buffer)
	return &app{cfg: config.Default(), log: zap.NewNop(), out: out}, out
}

func TestInfo(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)

	if err := a.run("info", []string{path}); err != nil {
		t.Fatalf("info error: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Version:     20",
		"Revision:    42",
		"compression: none",
		"World:       (-512 -512 -64) to (512 512 448)",
		"center (0 0 192)",
		"1 planes with non-unit normals",
		"planes               3",
		"texdata              2",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("info output missing %q:\n%s", want, text)
		}
	}
}

func TestInfo_YAML(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)
	a.cfg.Output.Format = config.FormatYAML

	if err := a.run("info", []string{path}); err != nil {
		t.Fatalf("info error: %v", err)
	}

	var info mapInfo
	if err := yaml.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("info output is not YAML: %v\n%s", err, out.String())
	}
	if info.Version != 20 || info.MapRevision != 42 {
		t.Errorf("version/revision = %d/%d, want 20/42", info.Version, info.MapRevision)
	}
	if len(info.Checksum) != 32 {
		t.Errorf("checksum = %q", info.Checksum)
	}
	if info.Counts["texinfo"] != 3 || info.Counts["models"] != 1 {
		t.Errorf("counts = %v", info.Counts)
	}
	if info.WorldSize == nil || info.WorldSize.Z != 512 {
		t.Errorf("world size = %v", info.WorldSize)
	}
}

func TestLumps(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)

	if err := a.run("lumps", []string{path}); err != nil {
		t.Fatalf("lumps error: %v", err)
	}

	text := out.String()
	for _, want := range []string{"planes", "texdatastringdata", "pakfile"} {
		if !strings.Contains(text, want) {
			t.Errorf("lumps output missing %q", want)
		}
	}
	if strings.Contains(text, "visibility") {
		t.Error("empty lumps listed without -a")
	}

	out.Reset()
	if err := a.run("lumps", []string{"-a", path}); err != nil {
		t.Fatalf("lumps -a error: %v", err)
	}
	// Header line plus all 64 entries.
	if lines := strings.Count(out.String(), "\n"); lines != formats.BSPLumpCount+1 {
		t.Errorf("lumps -a printed %d lines, want %d", lines, formats.BSPLumpCount+1)
	}
}

func TestDump(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)

	if err := a.run("dump", []string{"planes", path}); err != nil {
		t.Fatalf("dump error: %v", err)
	}
	if got := strings.Count(out.String(), "\n"); got != 3 {
		t.Errorf("dump planes printed %d lines, want 3:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "Normal:(1 0 0)") {
		t.Errorf("plane normal not printed as a vector:\n%s", out.String())
	}

	out.Reset()
	a.cfg.Output.Limit = 1
	if err := a.run("dump", []string{"TexInfo", path}); err != nil {
		t.Fatalf("dump error: %v", err)
	}
	if !strings.Contains(out.String(), "... 2 more texinfo") {
		t.Errorf("limit note missing:\n%s", out.String())
	}
}

func TestDump_YAML(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)
	a.cfg.Output.Format = config.FormatYAML
	a.cfg.Output.Limit = 2

	if err := a.run("dump", []string{"planes", path}); err != nil {
		t.Fatalf("dump error: %v", err)
	}

	var doc recordDump[formats.BSPPlane]
	if err := yaml.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("dump output is not YAML: %v", err)
	}
	if doc.Lump != "planes" || doc.Count != 3 || len(doc.Records) != 2 {
		t.Errorf("dump = lump %s, count %d, %d records", doc.Lump, doc.Count, len(doc.Records))
	}
	if doc.Records[1].Dist != 128 {
		t.Errorf("second plane dist = %g, want 128", doc.Records[1].Dist)
	}
}

func TestDump_Errors(t *testing.T) {
	path := createTestMap(t)
	a, _ := newTestApp(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing map", []string{"planes"}},
		{"unknown lump", []string{"widgets", path}},
		{"undecoded lump", []string{"visibility", path}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.run("dump", tt.args); !errors.Is(err, errUsage) {
				t.Errorf("dump %v error = %v, want usage error", tt.args, err)
			}
		})
	}
}

func TestTextures(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)

	if err := a.run("textures", []string{path}); err != nil {
		t.Fatalf("textures error: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "512x256") || !strings.Contains(text, "BRICK/BRICKWALL001 (packed)") {
		t.Errorf("textures output missing brick:\n%s", text)
	}
	// 0xC9 decodes as É in windows-1252.
	if !strings.Contains(text, "CAFÉ/FLOOR") {
		t.Errorf("textures output missing decoded name:\n%s", text)
	}
}

func TestTextures_YAML(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)
	a.cfg.Output.Format = config.FormatYAML

	if err := a.run("textures", []string{path}); err != nil {
		t.Fatalf("textures error: %v", err)
	}

	var textures []textureInfo
	if err := yaml.Unmarshal(out.Bytes(), &textures); err != nil {
		t.Fatalf("textures output is not YAML: %v", err)
	}
	if len(textures) != 2 {
		t.Fatalf("got %d textures, want 2", len(textures))
	}
	if textures[0].TexInfos != 2 || textures[1].TexInfos != 1 {
		t.Errorf("texinfo use counts = %d, %d, want 2, 1", textures[0].TexInfos, textures[1].TexInfos)
	}
	if !textures[0].Packed || textures[1].Packed {
		t.Errorf("packed = %v, %v, want true, false", textures[0].Packed, textures[1].Packed)
	}
}

func TestPakList(t *testing.T) {
	path := createTestMap(t)
	a, out := newTestApp(t)

	if err := a.run("pak", []string{"list", path}); err != nil {
		t.Fatalf("pak list error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("pak list printed %d lines, want 4:\n%s", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], "materials/brick/brickwall001.vmt") {
		t.Errorf("first entry = %q", lines[0])
	}
}

func TestPakExtract(t *testing.T) {
	path := createTestMap(t)
	a, _ := newTestApp(t)
	outDir := t.TempDir()

	if err := a.run("pak", []string{"extract", path, "*.vmt", outDir}); err != nil {
		t.Fatalf("pak extract error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "materials", "maps", "test", "water.vmt"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != `"Water" {}` {
		t.Errorf("extracted content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(outDir, "resource")); !os.IsNotExist(err) {
		t.Error("pattern extracted a non-matching file")
	}

	single := t.TempDir()
	if err := a.run("pak", []string{"extract", path, "RESOURCE\\Overviews\\Test.txt", single}); err != nil {
		t.Fatalf("single extract error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(single, "resource", "overviews", "test.txt")); err != nil {
		t.Errorf("single extract missing: %v", err)
	}

	err = a.run("pak", []string{"extract", path, "missing.txt", single})
	if !errors.Is(err, pak.ErrPakFileNotFound) {
		t.Errorf("extract missing error = %v, want ErrPakFileNotFound", err)
	}
}

func TestConfigCommand(t *testing.T) {
	a, out := newTestApp(t)
	a.cfg.Output.Limit = 9

	if err := a.run("config", nil); err != nil {
		t.Fatalf("config error: %v", err)
	}
	if !strings.Contains(out.String(), "limit: 9") {
		t.Errorf("config output:\n%s", out.String())
	}

	path := filepath.Join(t.TempDir(), "bsptool.yaml")
	if err := a.run("config", []string{"save", path}); err != nil {
		t.Fatalf("config save error: %v", err)
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("saved config missing: %v", err)
	}
	if !strings.Contains(string(saved), "limit: 9") {
		t.Errorf("saved config:\n%s", saved)
	}
}

func TestRun_Errors(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.run("frobnicate", nil); !errors.Is(err, errUsage) {
		t.Errorf("unknown command error = %v, want usage error", err)
	}
	if err := a.run("info", nil); !errors.Is(err, errUsage) {
		t.Errorf("info without map error = %v, want usage error", err)
	}

	notMap := filepath.Join(t.TempDir(), "notmap.bsp")
	os.WriteFile(notMap, []byte("IBSP\x26\x00\x00\x00"), 0644)
	if err := a.run("info", []string{notMap}); !errors.Is(err, formats.ErrInvalidBSPMagic) {
		t.Errorf("info on IBSP error = %v, want ErrInvalidBSPMagic", err)
	}
}
