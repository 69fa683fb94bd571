package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"golang.org/x/oauth2/clientcredentials"
)

// EnsureLocal downloads any scene GeoTIFF missing from the catalog directory
// from the configured archive. A scene that cannot be fetched is reported and
// skipped; the caller will simply composite without it.
func (c *Catalog) EnsureLocal(metas []SceneMeta) {
	var missing []SceneMeta
	for _, meta := range metas {
		if _, err := os.Stat(filepath.Join(c.dir, meta.File)); os.IsNotExist(err) {
			missing = append(missing, meta)
		}
	}
	if len(missing) == 0 {
		return
	}

	clientID := properties.ArchiveClientID()
	clientSecret := properties.ArchiveClientSecret()
	tokenURL := properties.ArchiveTokenURL()
	baseURL := properties.ArchiveBaseURL()
	if clientID == "" || clientSecret == "" || tokenURL == "" || baseURL == "" {
		fmt.Printf("Warning: %d scenes missing locally and archive credentials not configured\n", len(missing))
		return
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := config.Client(context.Background())

	for _, meta := range missing {
		if err := c.fetchScene(httpClient, baseURL, meta); err != nil {
			fmt.Printf("Warning: failed to fetch scene %s: %v\n", meta.ID, err)
		}
	}
}

func (c *Catalog) fetchScene(httpClient *http.Client, baseURL string, meta SceneMeta) error {
	url := fmt.Sprintf("%s/scenes/%s/surface-reflectance.tif", baseURL, meta.ID)

	retries := 5
	var response *http.Response
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		response, err = httpClient.Get(url)
		if err == nil && response.StatusCode == http.StatusOK {
			break
		}
		if response != nil {
			body, _ := io.ReadAll(response.Body)
			response.Body.Close()
			response = nil
			if err == nil {
				err = fmt.Errorf("archive returned %s", string(body))
			}
		}
		fmt.Printf("Attempt %d failed for scene %s: %v\n", attempt, meta.ID, err)
		time.Sleep(5 * time.Second)
	}
	if response == nil {
		return fmt.Errorf("failed to fetch scene after %d attempts: %w", retries, err)
	}
	defer response.Body.Close()

	target := filepath.Join(c.dir, meta.File)
	tmp := target + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(file, response.Body); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write scene file: %w", err)
	}
	file.Close()

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move scene file into place: %w", err)
	}
	fmt.Printf("Fetched scene %s to %s\n", meta.ID, target)
	return nil
}
