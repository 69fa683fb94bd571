package delivery

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gis-hub/landcover-classifier-poc/internal/cache"
	"github.com/gis-hub/landcover-classifier-poc/internal/catalog"
	"github.com/gis-hub/landcover-classifier-poc/internal/composite"
	"github.com/gis-hub/landcover-classifier-poc/internal/features"
	"github.com/gis-hub/landcover-classifier-poc/internal/forest"
	"github.com/gis-hub/landcover-classifier-poc/internal/labels"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/gis-hub/landcover-classifier-poc/internal/sampling"
	"github.com/gis-hub/landcover-classifier-poc/internal/tuning"
	"github.com/gis-hub/landcover-classifier-poc/output"
)

// RunResult is everything a tuning run produces, for the CLI and the run
// notification.
type RunResult struct {
	JoinSummary  labels.JoinSummary
	TrainCount   int
	TestCount    int
	SkippedTrain int
	SkippedTest  int
	Candidates   []tuning.Candidate
	Best         tuning.Candidate
	Model        *forest.Forest
	Classified   *tuning.ClassRaster
	Report       string
}

type sampledPartitions struct {
	Train []sampling.Example `json:"train"`
	Test  []sampling.Example `json:"test"`
}

// RunTuning executes the whole pipeline: composite the month of scenes,
// stack features, join labels, sample both partitions, sweep the tree counts,
// retrain the winner and classify the full stack. Outputs land under
// data/result.
func RunTuning(cfg properties.RunConfig) (*RunResult, error) {
	fmt.Printf("Starting tuning run for %d-%02d over %d tiles\n", cfg.Year, cfg.Month, len(cfg.Tiles))

	sceneDir := filepath.Join(properties.RootPath(), "data", "scenes")
	cat, err := catalog.Open(filepath.Join(sceneDir, cfg.SceneIndexFile), sceneDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene catalog: %w", err)
	}

	metas := cat.Query(cfg.Tiles, cfg.Year, cfg.Month)
	fmt.Printf("Catalog matched %d scenes\n", len(metas))
	cat.EnsureLocal(metas)
	scenes := cat.LoadScenes(metas)

	comp := composite.Build(scenes, cfg)
	stack, err := features.Stack(comp)
	if err != nil {
		return nil, fmt.Errorf("failed to build feature stack: %w", err)
	}

	labelPath := filepath.Join(properties.RootPath(), "data", "training_input", cfg.LabelFile)
	rows, err := labels.ReadRows(labelPath)
	if err != nil {
		return nil, err
	}
	trainPoints, testPoints, summary := labels.Join(rows, cfg.Seed, cfg.SplitThreshold)
	fmt.Printf("Joined labels: %d train, %d test points (%d missing location, %d unresolved)\n",
		summary.Train, summary.Test, summary.MissingLocation, summary.Unresolved)
	if summary.MultiFlag > 0 {
		fmt.Printf("Warning: %d points had multiple category flags set; precedence order applied\n", summary.MultiFlag)
	}

	sceneIDs := make([]string, len(metas))
	for i, meta := range metas {
		sceneIDs[i] = meta.ID
	}
	partitions := samplePartitions(stack, trainPoints, testPoints, sceneIDs, fileChecksum(labelPath), cfg)

	result := &RunResult{
		JoinSummary:  summary,
		TrainCount:   len(partitions.Train),
		TestCount:    len(partitions.Test),
		SkippedTrain: len(trainPoints) - len(partitions.Train),
		SkippedTest:  len(testPoints) - len(partitions.Test),
	}
	fmt.Printf("Sampled %d train and %d test examples (%d points on unset pixels)\n",
		result.TrainCount, result.TestCount, result.SkippedTrain+result.SkippedTest)

	candidates, err := tuning.Sweep(partitions.Train, partitions.Test, cfg)
	if err != nil {
		return nil, err
	}
	best, err := tuning.Select(candidates)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Selected %d trees with accuracy %.4f\n", best.TreeCount, best.Accuracy)

	model, err := tuning.Retrain(best, partitions.Train, cfg)
	if err != nil {
		return nil, err
	}
	classified := tuning.ClassifyStack(model, stack)

	result.Candidates = candidates
	result.Best = best
	result.Model = model
	result.Classified = classified
	result.Report = buildReport(result, partitions)

	if err := writeOutputs(result, partitions, trainPoints, testPoints, cfg); err != nil {
		return nil, err
	}
	return result, nil
}

// fileChecksum hashes a file's content for cache keying. A missing or
// unreadable file yields an empty sum, which still keys differently from any
// readable table.
func fileChecksum(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// sampleCacheKey covers everything the sampled examples depend on: the run
// parameters, the scene set the composite was built from, and the content of
// the label table. A change in any of them must miss the cache.
func sampleCacheKey(sampleCache *cache.FileCache[sampledPartitions], sceneIDs []string, labelSum string, cfg properties.RunConfig) string {
	return sampleCache.GenerateKey(cfg.Tiles, cfg.Year, int(cfg.Month), cfg.Seed,
		cfg.SplitThreshold, cfg.GroundSampleDistance, features.StackBands,
		sceneIDs, cfg.LabelFile, labelSum)
}

// samplePartitions extracts the train/test example sets, reusing a cached
// extraction when the run parameters match.
func samplePartitions(stack *raster.Raster, trainPoints, testPoints []labels.Point, sceneIDs []string, labelSum string, cfg properties.RunConfig) sampledPartitions {
	sampleCache := cache.NewFileCache[sampledPartitions]("sample_cache")
	key := sampleCacheKey(sampleCache, sceneIDs, labelSum, cfg)

	if cached, ok := sampleCache.Get(key); ok {
		fmt.Println("Using cached sample extraction")
		return cached
	}

	trainExamples, trainSkipped := sampling.Sample(stack, trainPoints)
	testExamples, testSkipped := sampling.Sample(stack, testPoints)
	partitions := sampledPartitions{Train: trainExamples, Test: testExamples}
	if trainSkipped+testSkipped > 0 {
		fmt.Printf("Skipped %d points on unset pixels\n", trainSkipped+testSkipped)
	}

	if err := sampleCache.Set(key, partitions); err != nil {
		fmt.Printf("Warning: failed to cache samples: %v\n", err)
	}
	return partitions
}

func buildReport(result *RunResult, partitions sampledPartitions) string {
	report := tuning.FormatSweepReport(result.Candidates, result.Best)
	report += "\n" + tuning.FormatPartitionStats("Train", classCounts(partitions.Train), len(partitions.Train))
	report += "\n" + tuning.FormatPartitionStats("Test", classCounts(partitions.Test), len(partitions.Test))
	return report
}

func classCounts(examples []sampling.Example) map[int]int {
	counts := make(map[int]int)
	for _, example := range examples {
		counts[example.Class]++
	}
	return counts
}

// sampledPoints filters the joined points down to those that produced an
// example, so the export holds only samples the sweep actually saw.
func sampledPoints(points []labels.Point, partitions sampledPartitions) []labels.Point {
	sampled := make(map[string]bool, len(partitions.Train)+len(partitions.Test))
	for _, example := range partitions.Train {
		sampled[example.PointID] = true
	}
	for _, example := range partitions.Test {
		sampled[example.PointID] = true
	}

	var kept []labels.Point
	for _, point := range points {
		if sampled[point.ID] {
			kept = append(kept, point)
		}
	}
	return kept
}

func writeOutputs(result *RunResult, partitions sampledPartitions, trainPoints, testPoints []labels.Point, cfg properties.RunConfig) error {
	resultDir := filepath.Join(properties.RootPath(), "data", "result")
	if err := os.MkdirAll(resultDir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	tablePath := filepath.Join(resultDir, cfg.OutputName+"_sweep.csv")
	if err := output.CreateResultTable(result.Candidates, result.Best, tablePath); err != nil {
		return err
	}

	samplesPath := filepath.Join(resultDir, cfg.OutputName+"_samples.geojson")
	allPoints := append(append([]labels.Point{}, trainPoints...), testPoints...)
	if err := output.CreateSamplesGeoJSON(sampledPoints(allPoints, partitions), samplesPath); err != nil {
		return err
	}

	if result.Classified.Width > 0 && result.Classified.Height > 0 {
		mapPath := filepath.Join(resultDir, cfg.OutputName+"_map.png")
		if err := output.CreateClassifiedMap(result.Classified, mapPath); err != nil {
			return err
		}
		tiffPath := filepath.Join(resultDir, cfg.OutputName+"_map.tif")
		if err := raster.WriteGeoTIFF(classRasterToBand(result.Classified), tiffPath, -1); err != nil {
			return err
		}
	} else {
		fmt.Println("Classified raster is empty, skipping map outputs")
	}
	return nil
}

// classRasterToBand lifts the class codes into a single-band raster so the
// GeoTIFF writer can persist them, unset pixels as nodata.
func classRasterToBand(classified *tuning.ClassRaster) *raster.Raster {
	r := raster.New(classified.Width, classified.Height, classified.Transform)
	grid, _ := r.NewBand("class_code")
	for y := 0; y < classified.Height; y++ {
		for x := 0; x < classified.Width; x++ {
			if code, ok := classified.At(x, y); ok {
				grid.Set(x, y, float64(code))
			} else {
				grid.Set(x, y, math.NaN())
			}
		}
	}
	return r
}
