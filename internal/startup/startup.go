package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"poster-browser/internal/logging"
)

// Config holds everything the composition root wires together.
type Config struct {
	MediaDir      string
	PostersRoot   string
	CacheRoot     string
	CacheCapacity int
	RenderWorkers int
	BatchSize     int
	BatchWindow   time.Duration

	// TileWidth and TileHeight are the native render size for poster
	// tiles, used when preloading at startup. Tiles supply their own
	// size at load time.
	TileWidth  int
	TileHeight int

	MetricsPort    string
	MetricsEnabled bool
	MigrateOnStart bool
}

// LoadConfig reads configuration from the environment, logs it, and
// resolves the storage roots to absolute paths.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", "/media")
	postersRoot := getEnv("POSTERS_ROOT", "/data/posters")
	cacheRoot := getEnv("CACHE_ROOT", "/data/cache")
	cacheCapacity := getEnvInt("CACHE_CAPACITY", 512)
	renderWorkers := getEnvInt("RENDER_WORKERS", 0) // 0 = auto
	batchSize := getEnvInt("BATCH_SIZE", 16)
	batchWindowStr := getEnv("BATCH_WINDOW", "25ms")
	tileWidth := getEnvInt("TILE_WIDTH", 360)
	tileHeight := getEnvInt("TILE_HEIGHT", 540)
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	migrateOnStart := getEnvBool("MIGRATE_ON_START", false)

	logging.Info("  MEDIA_DIR:        %s", mediaDir)
	logging.Info("  POSTERS_ROOT:     %s", postersRoot)
	logging.Info("  CACHE_ROOT:       %s", cacheRoot)
	logging.Info("  CACHE_CAPACITY:   %d", cacheCapacity)
	logging.Info("  RENDER_WORKERS:   %d (0 = auto)", renderWorkers)
	logging.Info("  BATCH_SIZE:       %d", batchSize)
	logging.Info("  BATCH_WINDOW:     %s", batchWindowStr)
	logging.Info("  TILE_WIDTH:       %d", tileWidth)
	logging.Info("  TILE_HEIGHT:      %d", tileHeight)
	logging.Info("  METRICS_PORT:     %s", metricsPort)
	logging.Info("  METRICS_ENABLED:  %v", metricsEnabled)
	logging.Info("  MIGRATE_ON_START: %v", migrateOnStart)
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())

	batchWindow, err := time.ParseDuration(batchWindowStr)
	if err != nil {
		logging.Warn("  Invalid BATCH_WINDOW, using default: 25ms")
		batchWindow = 25 * time.Millisecond
	}

	mediaDir, err = filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	postersRoot, err = filepath.Abs(postersRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve posters root path: %w", err)
	}
	cacheRoot, err = filepath.Abs(cacheRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root path: %w", err)
	}

	for _, dir := range []string{postersRoot, cacheRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return &Config{
		MediaDir:       mediaDir,
		PostersRoot:    postersRoot,
		CacheRoot:      cacheRoot,
		CacheCapacity:  cacheCapacity,
		RenderWorkers:  renderWorkers,
		BatchSize:      batchSize,
		BatchWindow:    batchWindow,
		TileWidth:      tileWidth,
		TileHeight:     tileHeight,
		MetricsPort:    metricsPort,
		MetricsEnabled: metricsEnabled,
		MigrateOnStart: migrateOnStart,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logging.Warn("  Invalid %s=%q, using default %d", key, v, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logging.Warn("  Invalid %s=%q, using default %v", key, v, fallback)
	}
	return fallback
}
