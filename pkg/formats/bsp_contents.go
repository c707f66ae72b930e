package formats

import (
	"fmt"
	"strings"
)

// BSPContents is the contents bitmask carried by leaves and brushes.
type BSPContents int32

// Contents flags.
const (
	ContentsEmpty              BSPContents = 0
	ContentsSolid              BSPContents = 0x1
	ContentsWindow             BSPContents = 0x2
	ContentsAux                BSPContents = 0x4
	ContentsGrate              BSPContents = 0x8
	ContentsSlime              BSPContents = 0x10
	ContentsWater              BSPContents = 0x20
	ContentsMist               BSPContents = 0x40
	ContentsOpaque             BSPContents = 0x80
	ContentsTestFogVolume      BSPContents = 0x100
	ContentsUnused             BSPContents = 0x200
	ContentsUnused6            BSPContents = 0x400
	ContentsTeam1              BSPContents = 0x800
	ContentsTeam2              BSPContents = 0x1000
	ContentsIgnoreNodrawOpaque BSPContents = 0x2000
	ContentsMoveable           BSPContents = 0x4000
	ContentsAreaPortal         BSPContents = 0x8000
	ContentsPlayerClip         BSPContents = 0x10000
	ContentsMonsterClip        BSPContents = 0x20000
	ContentsCurrent0           BSPContents = 0x40000
	ContentsCurrent90          BSPContents = 0x80000
	ContentsCurrent180         BSPContents = 0x100000
	ContentsCurrent270         BSPContents = 0x200000
	ContentsCurrentUp          BSPContents = 0x400000
	ContentsCurrentDown        BSPContents = 0x800000
	ContentsOrigin             BSPContents = 0x1000000
	ContentsMonster            BSPContents = 0x2000000
	ContentsDebris             BSPContents = 0x4000000
	ContentsDetail             BSPContents = 0x8000000
	ContentsTranslucent        BSPContents = 0x10000000
	ContentsLadder             BSPContents = 0x20000000
	ContentsHitbox             BSPContents = 0x40000000
)

var bspContentsNames = []struct {
	flag BSPContents
	name string
}{
	{ContentsSolid, "solid"},
	{ContentsWindow, "window"},
	{ContentsAux, "aux"},
	{ContentsGrate, "grate"},
	{ContentsSlime, "slime"},
	{ContentsWater, "water"},
	{ContentsMist, "mist"},
	{ContentsOpaque, "opaque"},
	{ContentsTestFogVolume, "testfogvolume"},
	{ContentsUnused, "unused"},
	{ContentsUnused6, "unused6"},
	{ContentsTeam1, "team1"},
	{ContentsTeam2, "team2"},
	{ContentsIgnoreNodrawOpaque, "ignorenodrawopaque"},
	{ContentsMoveable, "moveable"},
	{ContentsAreaPortal, "areaportal"},
	{ContentsPlayerClip, "playerclip"},
	{ContentsMonsterClip, "monsterclip"},
	{ContentsCurrent0, "current0"},
	{ContentsCurrent90, "current90"},
	{ContentsCurrent180, "current180"},
	{ContentsCurrent270, "current270"},
	{ContentsCurrentUp, "currentup"},
	{ContentsCurrentDown, "currentdown"},
	{ContentsOrigin, "origin"},
	{ContentsMonster, "monster"},
	{ContentsDebris, "debris"},
	{ContentsDetail, "detail"},
	{ContentsTranslucent, "translucent"},
	{ContentsLadder, "ladder"},
	{ContentsHitbox, "hitbox"},
}

// Has reports whether every bit of flag is set.
func (c BSPContents) Has(flag BSPContents) bool {
	return c&flag == flag
}

// String returns the set flags joined by '|', or "empty".
func (c BSPContents) String() string {
	if c == ContentsEmpty {
		return "empty"
	}
	var parts []string
	rest := c
	for _, f := range bspContentsNames {
		if c&f.flag != 0 {
			parts = append(parts, f.name)
			rest &^= f.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// BSPSurfaceFlags is the texinfo flags bitmask.
type BSPSurfaceFlags int32

// Surface flags.
const (
	SurfLight     BSPSurfaceFlags = 0x1
	SurfSky2D     BSPSurfaceFlags = 0x2
	SurfSky       BSPSurfaceFlags = 0x4
	SurfWarp      BSPSurfaceFlags = 0x8
	SurfTrans     BSPSurfaceFlags = 0x10
	SurfNoPortal  BSPSurfaceFlags = 0x20
	SurfTrigger   BSPSurfaceFlags = 0x40
	SurfNoDraw    BSPSurfaceFlags = 0x80
	SurfHint      BSPSurfaceFlags = 0x100
	SurfSkip      BSPSurfaceFlags = 0x200
	SurfNoLight   BSPSurfaceFlags = 0x400
	SurfBumpLight BSPSurfaceFlags = 0x800
	SurfNoShadows BSPSurfaceFlags = 0x1000
	SurfNoDecals  BSPSurfaceFlags = 0x2000
	SurfNoChop    BSPSurfaceFlags = 0x4000
	SurfHitbox    BSPSurfaceFlags = 0x8000
)

// Has reports whether every bit of flag is set.
func (f BSPSurfaceFlags) Has(flag BSPSurfaceFlags) bool {
	return f&flag == flag
}
