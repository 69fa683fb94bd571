package labels

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/paulmach/orb"
)

// UnresolvedClass marks a row matching no category flag. Such rows never
// reach either partition.
const UnresolvedClass = 99

// Row is one record of the ground-point table: a location plus eight binary
// category flags.
type Row struct {
	PointID             string   `csv:"point_id"`
	Lon                 *float64 `csv:"lon"`
	Lat                 *float64 `csv:"lat"`
	Forest              int      `csv:"forest"`
	TreeBasedAG         int      `csv:"tree_based_ag"`
	WetPaddy            int      `csv:"wet_paddy"`
	Grassland           int      `csv:"grassland"`
	Urban               int      `csv:"urban"`
	ShiftingCultivation int      `csv:"shifting_cultivation"`
	NonTreeAg           int      `csv:"non_tree_ag"`
	Other               int      `csv:"other"`
}

func (r Row) flags() [8]int {
	return [8]int{
		r.Forest, r.TreeBasedAG, r.WetPaddy, r.Grassland,
		r.Urban, r.ShiftingCultivation, r.NonTreeAg, r.Other,
	}
}

// Resolve applies the category precedence: the first flag set to 1, in
// declaration order, decides the class code. No flag set means the point is
// unusable and gets the sentinel code.
func Resolve(flags [8]int) int {
	for code, flag := range flags {
		if flag == 1 {
			return code
		}
	}
	return UnresolvedClass
}

// Point is a usable training point: resolved class plus the split key drawn
// once at join time.
type Point struct {
	ID       string
	Location orb.Point
	Class    int
	SplitKey float64
}

// JoinSummary reports what the join kept and dropped.
type JoinSummary struct {
	Total           int
	MissingLocation int
	Unresolved      int
	MultiFlag       int
	Train           int
	Test            int
}

// Join resolves every row to a class, drops rows without a location or a
// category, and splits survivors into train/test by a uniform key: key at or
// below the threshold trains, above it tests. MultiFlag counts rows where
// precedence silently decided between several set flags; the caller should
// surface it as a data-quality signal.
func Join(rows []*Row, seed int64, threshold float64) (train, test []Point, summary JoinSummary) {
	rng := rand.New(rand.NewSource(seed))
	summary.Total = len(rows)

	for _, row := range rows {
		if row.Lon == nil || row.Lat == nil {
			summary.MissingLocation++
			continue
		}

		flags := row.flags()
		set := 0
		for _, f := range flags {
			if f == 1 {
				set++
			}
		}
		if set > 1 {
			summary.MultiFlag++
		}

		class := Resolve(flags)
		if class == UnresolvedClass {
			summary.Unresolved++
			continue
		}

		point := Point{
			ID:       row.PointID,
			Location: orb.Point{*row.Lon, *row.Lat},
			Class:    class,
			SplitKey: rng.Float64(),
		}
		if point.SplitKey <= threshold {
			train = append(train, point)
		} else {
			test = append(test, point)
		}
	}

	summary.Train = len(train)
	summary.Test = len(test)
	return train, test, summary
}

// ReadRows loads the ground-point table.
func ReadRows(path string) ([]*Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening ground points file: %w", err)
	}
	defer file.Close()

	var rows []*Row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error unmarshalling ground points: %w", err)
	}
	return rows, nil
}
