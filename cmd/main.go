package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/gis-hub/landcover-classifier-poc/internal/catalog"
	"github.com/gis-hub/landcover-classifier-poc/internal/delivery"
	"github.com/gis-hub/landcover-classifier-poc/internal/notification"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/joho/godotenv"
)

func printBanner() {
	figure1 := figure.NewFigure("Landcover", "isometric1", true)
	figure2 := figure.NewFigure("Tuner", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Printf("\033[34m%s\033[0m", prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// parseTiles reads a "path/row,path/row" list, e.g. "135/41,136/41".
func parseTiles(input string) ([]properties.Tile, error) {
	var tiles []properties.Tile
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pieces := strings.Split(part, "/")
		if len(pieces) != 2 {
			return nil, fmt.Errorf("invalid tile %q, expected path/row", part)
		}
		path, err := strconv.Atoi(pieces[0])
		if err != nil {
			return nil, fmt.Errorf("invalid tile path in %q", part)
		}
		row, err := strconv.Atoi(pieces[1])
		if err != nil {
			return nil, fmt.Errorf("invalid tile row in %q", part)
		}
		tiles = append(tiles, properties.Tile{Path: path, Row: row})
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no tiles given")
	}
	return tiles, nil
}

func runSweep(reader *bufio.Reader) {
	cfg := properties.DefaultRunConfig()

	fmt.Println("\033[33m\nWarning:\033[0m")
	fmt.Println("\033[33m- The scene index and GeoTIFFs should be present in the data/scenes folder.\033[0m")
	fmt.Println("\033[33m- The ground points '.csv' file should be present in the data/training_input folder.\n\033[0m")

	yearMonth := readLine(reader, "Enter the target month (YYYY-MM): ")
	target, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		fmt.Printf("\n\033[31mInvalid month: %s\033[0m\n", err.Error())
		return
	}
	cfg.Year = target.Year()
	cfg.Month = target.Month()

	tiles, err := parseTiles(readLine(reader, "Enter the tiles (path/row, comma separated): "))
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	cfg.Tiles = tiles

	if labelFile := readLine(reader, fmt.Sprintf("Enter the ground points file name (default %s): ", cfg.LabelFile)); labelFile != "" {
		cfg.LabelFile = labelFile
	}
	cfg.OutputName = fmt.Sprintf("landcover_%d-%02d", cfg.Year, cfg.Month)

	result, err := delivery.RunTuning(cfg)
	if err != nil {
		fmt.Printf("\n\033[31mError running tuning sweep: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("Landcover Tuner\n\nError running tuning sweep: %s", err.Error()))
		return
	}

	fmt.Printf("\n\033[32mTuning run finished!\n Best model: %d trees, accuracy %.4f\n Outputs located at: %s\033[0m\n",
		result.Best.TreeCount, result.Best.Accuracy, filepath.Join(properties.RootPath(), "data", "result"))
	fmt.Println()
	fmt.Println(result.Report)
	notification.SendDiscordSuccessNotification(fmt.Sprintf("Landcover Tuner\n\n%s", result.Report))
}

func runCompositeOnly(reader *bufio.Reader) {
	cfg := properties.DefaultRunConfig()

	yearMonth := readLine(reader, "Enter the target month (YYYY-MM): ")
	target, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		fmt.Printf("\n\033[31mInvalid month: %s\033[0m\n", err.Error())
		return
	}
	cfg.Year = target.Year()
	cfg.Month = target.Month()

	tiles, err := parseTiles(readLine(reader, "Enter the tiles (path/row, comma separated): "))
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	cfg.Tiles = tiles

	path, err := delivery.RunCompositeOnly(cfg)
	if err != nil {
		fmt.Printf("\n\033[31mError building composite: %s\033[0m\n", err.Error())
		return
	}
	fmt.Printf("\n\033[32mComposite saved at: %s\033[0m\n", path)
}

func renderLastMap() {
	path, err := delivery.RenderLastMap()
	if err != nil {
		fmt.Printf("\n\033[31mError rendering classified map: %s\033[0m\n", err.Error())
		return
	}
	fmt.Printf("\n\033[32mClassified map rendered at: %s\033[0m\n", path)
}

func listScenes() {
	cfg := properties.DefaultRunConfig()
	sceneDir := filepath.Join(properties.RootPath(), "data", "scenes")
	cat, err := catalog.Open(filepath.Join(sceneDir, cfg.SceneIndexFile), sceneDir)
	if err != nil {
		fmt.Printf("\n\033[31mError opening scene catalog: %s\033[0m\n", err.Error())
		return
	}

	scenes := cat.Scenes()
	if len(scenes) == 0 {
		fmt.Printf("\n\033[31mNo scenes in the catalog.\033[0m\n")
		return
	}
	fmt.Println("\033[32m\nAvailable scenes:\033[0m")
	for _, scene := range scenes {
		fmt.Printf("\033[32m- %s  tile %d/%d  %s  %.1f%% cloud\033[0m\n",
			scene.ID, scene.Path, scene.Row, scene.AcquiredAt.Format("2006-01-02"), scene.CloudCover)
	}
}

func showConfiguration() {
	cfg := properties.DefaultRunConfig()
	fmt.Println("\033[32m\nDefault configuration:\033[0m")
	fmt.Printf("\033[32m- Candidate tree counts: %v\033[0m\n", cfg.TreeCounts)
	fmt.Printf("\033[32m- Train/test split threshold: %.2f (seed %d)\033[0m\n", cfg.SplitThreshold, cfg.Seed)
	fmt.Printf("\033[32m- Ground sample distance: %.0f\033[0m\n", cfg.GroundSampleDistance)
	fmt.Printf("\033[32m- Cloud/shadow QA bits: %v (mask %#b)\033[0m\n", cfg.CloudShadowBits, cfg.CloudShadowMask())
	fmt.Printf("\033[32m- Reflectance rescale: scale %g, offset %g\033[0m\n", cfg.ReflectanceScale, cfg.ReflectanceOffset)
	fmt.Println("\033[32m- Classes:\033[0m")
	for code, name := range properties.ClassNames {
		fmt.Printf("\033[32m    %d. %s\033[0m\n", code, name)
	}
}

func initCLI() {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mExiting...\033[0m\n")

			stack := debug.Stack()
			errMessage := fmt.Sprintf("Landcover Tuner panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
		}
	}()
	printBanner()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("\033[34m===================\033[0m")
		fmt.Println("\033[34m1. Run a tuning sweep\033[0m")
		fmt.Println("\033[34m2. Build a composite only\033[0m")
		fmt.Println("\033[34m3. List catalog scenes\033[0m")
		fmt.Println("\033[34m4. Render the last classified map\033[0m")
		fmt.Println("\033[34m5. Show default configuration\033[0m")
		fmt.Println("\033[34m6. Exit\033[0m")
		fmt.Println("\033[34mEnter your choice:\033[0m")

		var choice int
		if _, err := fmt.Scan(&choice); err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			fmt.Scanln()
			continue
		}

		switch choice {
		case 1:
			runSweep(reader)
		case 2:
			runCompositeOnly(reader)
		case 3:
			listScenes()
		case 4:
			renderLastMap()
		case 5:
			showConfiguration()
		case 6:
			println("Exiting...")
			return
		default:
			println("Invalid choice. Please try again.")
		}
	}
}

func main() {
	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			godotenv.Load(".env")
		}
	}
	initCLI()
}
