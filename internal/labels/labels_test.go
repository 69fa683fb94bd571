package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestResolvePriorityChain(t *testing.T) {
	// Every combination of the eight flags resolves to the first set flag.
	for bits := 0; bits < 256; bits++ {
		var flags [8]int
		expected := UnresolvedClass
		for i := 0; i < 8; i++ {
			if bits&(1<<i) != 0 {
				flags[i] = 1
				if expected == UnresolvedClass {
					expected = i
				}
			}
		}
		assert.Equal(t, expected, Resolve(flags), "flags %v", flags)
	}
}

func TestJoinSkipsMissingLocation(t *testing.T) {
	rows := []*Row{
		{PointID: "a", Lon: nil, Lat: ptr(27.1), Forest: 1},
		{PointID: "b", Lon: ptr(93.5), Lat: nil, Forest: 1},
		{PointID: "c", Lon: ptr(93.5), Lat: ptr(27.1), Forest: 1},
	}
	train, test, summary := Join(rows, 1, 1.0)
	assert.Equal(t, 2, summary.MissingLocation)
	assert.Equal(t, 1, len(train)+len(test))
}

func TestJoinDropsUnresolvedRows(t *testing.T) {
	rows := []*Row{
		{PointID: "a", Lon: ptr(93.5), Lat: ptr(27.1)}, // no flag set
		{PointID: "b", Lon: ptr(93.6), Lat: ptr(27.2), Urban: 1},
	}
	train, test, summary := Join(rows, 1, 1.0)
	assert.Equal(t, 1, summary.Unresolved)
	require.Equal(t, 1, len(train)+len(test))

	survivors := append(train, test...)
	assert.Equal(t, "b", survivors[0].ID)
	assert.Equal(t, 4, survivors[0].Class)
}

func TestJoinCountsMultiFlagRows(t *testing.T) {
	rows := []*Row{
		{PointID: "a", Lon: ptr(93.5), Lat: ptr(27.1), WetPaddy: 1, Urban: 1},
	}
	train, test, summary := Join(rows, 1, 1.0)
	assert.Equal(t, 1, summary.MultiFlag)

	survivors := append(train, test...)
	require.Len(t, survivors, 1)
	// Precedence picks WetPaddy (code 2) over Urban (code 4).
	assert.Equal(t, 2, survivors[0].Class)
}

func TestJoinSplitProportion(t *testing.T) {
	const n = 20000
	rows := make([]*Row, n)
	for i := range rows {
		rows[i] = &Row{Lon: ptr(93.5), Lat: ptr(27.1), Forest: 1}
	}

	train, test, summary := Join(rows, 7, 0.8)
	require.Equal(t, n, len(train)+len(test))
	assert.Equal(t, len(train), summary.Train)
	assert.Equal(t, len(test), summary.Test)

	fraction := float64(len(train)) / float64(n)
	assert.InDelta(t, 0.8, fraction, 0.02, "train fraction should converge to the threshold")

	for _, point := range train {
		assert.LessOrEqual(t, point.SplitKey, 0.8)
	}
	for _, point := range test {
		assert.Greater(t, point.SplitKey, 0.8)
	}
}

func TestJoinIsStableForASeed(t *testing.T) {
	rows := make([]*Row, 500)
	for i := range rows {
		rows[i] = &Row{Lon: ptr(93.5), Lat: ptr(27.1), Grassland: 1}
	}

	train1, test1, _ := Join(rows, 99, 0.8)
	train2, test2, _ := Join(rows, 99, 0.8)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}
