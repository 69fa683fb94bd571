package properties

import (
	"os"
	"time"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}
func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}

func ArchiveClientID() string {
	return os.Getenv("LANDSAT_ARCHIVE_CLIENT_ID")
}
func ArchiveClientSecret() string {
	return os.Getenv("LANDSAT_ARCHIVE_CLIENT_SECRET")
}
func ArchiveTokenURL() string {
	return os.Getenv("LANDSAT_ARCHIVE_TOKEN_URL")
}
func ArchiveBaseURL() string {
	return os.Getenv("LANDSAT_ARCHIVE_BASE_URL")
}

type Color struct {
	R, G, B uint8
}

// ClassNames is the land-cover category list in priority order. The index of
// a name is its class code.
var ClassNames = []string{
	"Forest",
	"Tree Based Ag",
	"Wet Paddy",
	"Grassland",
	"Urban",
	"Shifting Cultivation",
	"Non-Tree Ag",
	"Other",
}

// ClassPalette maps class codes to render colors. Passed through to the
// output renderers untouched.
var ClassPalette = map[int]Color{
	0: {16, 96, 16},    // Forest
	1: {112, 168, 80},  // Tree Based Ag
	2: {64, 144, 192},  // Wet Paddy
	3: {208, 208, 112}, // Grassland
	4: {168, 48, 48},   // Urban
	5: {208, 144, 64},  // Shifting Cultivation
	6: {224, 208, 144}, // Non-Tree Ag
	7: {144, 144, 144}, // Other
}

type Tile struct {
	Path int
	Row  int
}

// RunConfig carries every knob of a tuning run. Built from defaults and passed
// explicitly into each stage, never read from globals.
type RunConfig struct {
	Year  int
	Month time.Month
	Tiles []Tile

	TreeCounts     []int
	SplitThreshold float64
	Seed           int64

	GroundSampleDistance float64

	CloudShadowBits   []uint
	ReflectanceScale  float64
	ReflectanceOffset float64

	SceneIndexFile string
	LabelFile      string
	OutputName     string
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Year:                 2024,
		Month:                time.January,
		TreeCounts:           []int{25, 50, 100, 150, 200, 250},
		SplitThreshold:       0.8,
		Seed:                 42,
		GroundSampleDistance: 30,
		CloudShadowBits:      []uint{1, 3, 4},
		ReflectanceScale:     0.0000275,
		ReflectanceOffset:    -0.2,
		SceneIndexFile:       "scenes.csv",
		LabelFile:            "ground_points.csv",
		OutputName:           "landcover",
	}
}

// CloudShadowMask folds the configured QA bits into a single bitmask.
func (c RunConfig) CloudShadowMask() uint64 {
	var mask uint64
	for _, bit := range c.CloudShadowBits {
		mask |= 1 << bit
	}
	return mask
}
