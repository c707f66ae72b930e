package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/romain-durban/bsploader/pkg/encoding"
	"github.com/romain-durban/bsploader/pkg/formats"
	"github.com/romain-durban/bsploader/pkg/math"
	"github.com/romain-durban/bsploader/pkg/pak"
)

// normalEpsilon is how far a plane normal's length may stray from 1.
const normalEpsilon = 1e-3

type mapInfo struct {
	File           string         `yaml:"file"`
	Size           int64          `yaml:"size"`
	Compression    string         `yaml:"compression"`
	Checksum       string         `yaml:"checksum"`
	Version        int32          `yaml:"version"`
	MapRevision    int32          `yaml:"map_revision"`
	WorldMins      *math.Vec3     `yaml:"world_mins,omitempty"`
	WorldMaxs      *math.Vec3     `yaml:"world_maxs,omitempty"`
	WorldSize      *math.Vec3     `yaml:"world_size,omitempty"`
	WorldCenter    *math.Vec3     `yaml:"world_center,omitempty"`
	NonUnitNormals int            `yaml:"non_unit_normals"`
	Counts         map[string]int `yaml:"counts"`
}

func (a *app) cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: info <map.bsp>", errUsage)
	}

	bsp, f, err := a.openMap(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	sum, err := f.Checksum()
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}

	info := mapInfo{
		File:        args[0],
		Size:        f.Size(),
		Compression: f.Compression().String(),
		Checksum:    sum,
		Version:     bsp.Header.Version,
		MapRevision: bsp.Header.MapRevision,
		Counts:      make(map[string]int),
	}
	if world := bsp.WorldModel(); world != nil {
		size := world.Maxs.Sub(world.Mins)
		center := world.Mins.Add(world.Maxs).Scale(0.5)
		info.WorldMins, info.WorldMaxs = &world.Mins, &world.Maxs
		info.WorldSize, info.WorldCenter = &size, &center
	}
	for i := range bsp.Planes {
		if !bsp.Planes[i].Normal.IsUnit(normalEpsilon) {
			info.NonUnitNormals++
		}
	}
	if info.NonUnitNormals > 0 {
		a.log.Warn("planes with non-unit normals", zap.Int("count", info.NonUnitNormals))
	}
	for kind := formats.BSPLumpKind(0); kind < formats.BSPLumpCount; kind++ {
		if n := bsp.LumpCount(kind); n >= 0 {
			info.Counts[kind.String()] = n
		}
	}

	if a.yamlOutput() {
		return a.writeYAML(info)
	}

	fmt.Fprintf(a.out, "File:        %s\n", info.File)
	fmt.Fprintf(a.out, "Size:        %d bytes (compression: %s)\n", info.Size, info.Compression)
	fmt.Fprintf(a.out, "Checksum:    %s\n", info.Checksum)
	fmt.Fprintf(a.out, "Version:     %d\n", info.Version)
	fmt.Fprintf(a.out, "Revision:    %d\n", info.MapRevision)
	if info.WorldSize != nil {
		fmt.Fprintf(a.out, "World:       %v to %v\n", *info.WorldMins, *info.WorldMaxs)
		fmt.Fprintf(a.out, "World size:  %v, center %v\n", *info.WorldSize, *info.WorldCenter)
	}
	if info.NonUnitNormals > 0 {
		fmt.Fprintf(a.out, "Warning:     %d planes with non-unit normals\n", info.NonUnitNormals)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Records:")
	for kind := formats.BSPLumpKind(0); kind < formats.BSPLumpCount; kind++ {
		if n, ok := info.Counts[kind.String()]; ok {
			fmt.Fprintf(a.out, "  %-20s %d\n", kind, n)
		}
	}
	return nil
}

type lumpInfo struct {
	Index   int    `yaml:"index"`
	Name    string `yaml:"name"`
	Offset  int32  `yaml:"offset"`
	Length  int32  `yaml:"length"`
	Version int32  `yaml:"version"`
	FourCC  string `yaml:"fourcc,omitempty"`
	Count   *int   `yaml:"count,omitempty"`
}

func (a *app) cmdLumps(args []string) error {
	fs := flag.NewFlagSet("lumps", flag.ContinueOnError)
	all := fs.Bool("a", false, "Include empty lumps")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: lumps [-a] <map.bsp>", errUsage)
	}

	bsp, f, err := a.openMap(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	var lumps []lumpInfo
	for i, l := range bsp.Header.Lumps {
		if l.Length == 0 && !*all {
			continue
		}
		kind := formats.BSPLumpKind(i)
		info := lumpInfo{
			Index:   i,
			Name:    kind.String(),
			Offset:  l.Offset,
			Length:  l.Length,
			Version: l.Version,
			FourCC:  encoding.TrimNullString(l.FourCC[:]),
		}
		if n := bsp.LumpCount(kind); n >= 0 {
			info.Count = &n
		}
		lumps = append(lumps, info)
	}

	if a.yamlOutput() {
		return a.writeYAML(lumps)
	}

	fmt.Fprintf(a.out, "%3s  %-28s %10s %10s %4s  %-4s  %s\n", "#", "name", "offset", "length", "ver", "cc", "records")
	for _, l := range lumps {
		count := "-"
		if l.Count != nil {
			count = fmt.Sprint(*l.Count)
		}
		fmt.Fprintf(a.out, "%3d  %-28s %10d %10d %4d  %-4s  %s\n",
			l.Index, l.Name, l.Offset, l.Length, l.Version, l.FourCC, count)
	}
	return nil
}

type recordDump[T any] struct {
	Lump    string `yaml:"lump"`
	Count   int    `yaml:"count"`
	Records []T    `yaml:"records"`
}

func (a *app) cmdDump(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: dump <kind> <map.bsp>", errUsage)
	}

	kind, ok := formats.ParseBSPLumpKind(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("%w: unknown lump %q", errUsage, args[0])
	}

	bsp, f, err := a.openMap(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	switch kind {
	case formats.LumpPlanes:
		return dumpRecords(a, kind, bsp.Planes)
	case formats.LumpVertexes:
		return dumpRecords(a, kind, bsp.Vertexes)
	case formats.LumpEdges:
		return dumpRecords(a, kind, bsp.Edges)
	case formats.LumpSurfEdges:
		return dumpRecords(a, kind, bsp.SurfEdges)
	case formats.LumpFaces:
		return dumpRecords(a, kind, bsp.Faces)
	case formats.LumpNodes:
		return dumpRecords(a, kind, bsp.Nodes)
	case formats.LumpLeafs:
		return dumpRecords(a, kind, bsp.Leafs)
	case formats.LumpLeafFaces:
		return dumpRecords(a, kind, bsp.LeafFaces)
	case formats.LumpLeafBrushes:
		return dumpRecords(a, kind, bsp.LeafBrushes)
	case formats.LumpTexInfo:
		return dumpRecords(a, kind, bsp.TexInfos)
	case formats.LumpTexData:
		return dumpRecords(a, kind, bsp.TexData)
	case formats.LumpBrushes:
		return dumpRecords(a, kind, bsp.Brushes)
	case formats.LumpBrushSides:
		return dumpRecords(a, kind, bsp.BrushSides)
	case formats.LumpModels:
		return dumpRecords(a, kind, bsp.Models)
	default:
		return fmt.Errorf("%w: lump %s is not decoded, use 'lumps' to see its extent", errUsage, kind)
	}
}

func dumpRecords[T any](a *app, kind formats.BSPLumpKind, records []T) error {
	shown := limitRecords(records, a.cfg.Output.Limit)

	if a.yamlOutput() {
		return a.writeYAML(recordDump[T]{Lump: kind.String(), Count: len(records), Records: shown})
	}

	for i, r := range shown {
		fmt.Fprintf(a.out, "%6d  %+v\n", i, r)
	}
	if rest := len(records) - len(shown); rest > 0 {
		fmt.Fprintf(a.out, "... %d more %s (use -limit 0 for all)\n", rest, kind)
	}
	return nil
}

type textureInfo struct {
	Index    int    `yaml:"index"`
	Name     string `yaml:"name"`
	Width    int32  `yaml:"width"`
	Height   int32  `yaml:"height"`
	TexInfos int    `yaml:"texinfos"`
	Packed   bool   `yaml:"packed"` // Material is embedded in the pakfile
}

func (a *app) cmdTextures(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: textures <map.bsp>", errUsage)
	}

	bsp, f, err := a.openMap(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	packed, err := a.readPak(bsp, f)
	if err != nil {
		a.log.Warn("pakfile unreadable, packed materials not reported", zap.Error(err))
	}

	uses := make([]int, len(bsp.TexData))
	for _, ti := range bsp.TexInfos {
		if ti.TexData >= 0 && int(ti.TexData) < len(uses) {
			uses[ti.TexData]++
		}
	}

	textures := make([]textureInfo, 0, len(bsp.TexData))
	for i, td := range bsp.TexData {
		tex := textureInfo{Index: i, Width: td.Width, Height: td.Height, TexInfos: uses[i]}

		raw, err := bsp.TexDataName(i)
		if err != nil {
			a.log.Warn("unresolved texture name", zap.Int("texdata", i), zap.Error(err))
		} else if tex.Name, err = encoding.ToUTF8(a.cfg.Names.Encoding, []byte(raw)); err != nil {
			return err
		}
		if packed != nil && tex.Name != "" {
			tex.Packed = packed.Contains("materials/" + encoding.NormalizeMaterialPath(tex.Name) + ".vmt")
		}
		textures = append(textures, tex)
	}
	textures = limitRecords(textures, a.cfg.Output.Limit)

	if a.yamlOutput() {
		return a.writeYAML(textures)
	}

	for _, t := range textures {
		name := t.Name
		if name == "" {
			name = "<unresolved>"
		}
		if t.Packed {
			name += " (packed)"
		}
		fmt.Fprintf(a.out, "%5d  %4dx%-4d  %4d  %s\n", t.Index, t.Width, t.Height, t.TexInfos, name)
	}
	return nil
}

func (a *app) cmdPak(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: pak list|extract <map.bsp> ...", errUsage)
	}

	switch args[0] {
	case "list", "ls":
		return a.cmdPakList(args[1:])
	case "extract", "x":
		return a.cmdPakExtract(args[1:])
	default:
		return fmt.Errorf("%w: unknown pak command %q", errUsage, args[0])
	}
}

// openPak opens a map and reads its pakfile lump.
func (a *app) openPak(path string) (*pak.Archive, error) {
	bsp, f, err := a.openMap(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return a.readPak(bsp, f)
}

func (a *app) readPak(bsp *formats.BSP, src io.ReadSeeker) (*pak.Archive, error) {
	data, err := formats.ReadBSPLump(src, &bsp.Header, formats.LumpPakfile)
	if err != nil {
		return nil, err
	}

	archive, err := pak.Open(data)
	if err != nil {
		return nil, err
	}
	a.log.Debug("opened pakfile", zap.Int("bytes", len(data)), zap.Int("files", archive.Len()))
	return archive, nil
}

type pakEntry struct {
	Name             string `yaml:"name"`
	CompressedSize   uint64 `yaml:"compressed_size"`
	UncompressedSize uint64 `yaml:"size"`
	Method           uint16 `yaml:"method"`
}

func (a *app) cmdPakList(args []string) error {
	archive, err := a.openPak(args[0])
	if err != nil {
		return err
	}

	var entries []pakEntry
	for _, name := range archive.List() {
		e, err := archive.Stat(name)
		if err != nil {
			return err
		}
		entries = append(entries, pakEntry(e))
	}

	if a.yamlOutput() {
		return a.writeYAML(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(a.out, "%10d  %s\n", e.UncompressedSize, e.Name)
	}
	fmt.Fprintf(os.Stderr, "\n(%d files)\n", len(entries))
	return nil
}

func (a *app) cmdPakExtract(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: pak extract <map.bsp> <path> [output_dir]", errUsage)
	}

	archive, err := a.openPak(args[0])
	if err != nil {
		return err
	}

	pattern := strings.ToLower(strings.ReplaceAll(args[1], "\\", "/"))
	outputDir := "."
	if len(args) > 2 {
		outputDir = args[2]
	}

	if !strings.ContainsAny(pattern, "*?[") {
		if !archive.Contains(pattern) {
			return fmt.Errorf("%w: %s", pak.ErrPakFileNotFound, args[1])
		}
		return a.extractFile(archive, pattern, outputDir)
	}

	extracted := 0
	for _, name := range archive.List() {
		full, _ := filepath.Match(pattern, name)
		base, _ := filepath.Match(pattern, filepath.Base(name))
		if !full && !base {
			continue
		}
		if err := a.extractFile(archive, name, outputDir); err != nil {
			a.log.Warn("extract failed", zap.String("file", name), zap.Error(err))
			continue
		}
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
	return nil
}

// extractFile writes one entry below outputDir, preserving its directory.
func (a *app) extractFile(archive *pak.Archive, name, outputDir string) error {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("refusing to extract %s outside the output directory", name)
	}

	data, err := archive.Read(name)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, rel)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	fmt.Fprintf(a.out, "Extracted: %s (%d bytes)\n", outputPath, len(data))
	return nil
}

func (a *app) cmdConfig(args []string) error {
	if len(args) == 0 {
		data, err := a.cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = a.out.Write(data)
		return err
	}

	if args[0] != "save" {
		return fmt.Errorf("%w: config [save [path]]", errUsage)
	}

	if len(args) > 1 {
		if err := a.cfg.SaveTo(args[1]); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(a.out, "Saved: %s\n", args[1])
		return nil
	}

	path, err := a.cfg.Save()
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(a.out, "Saved: %s\n", path)
	return nil
}
