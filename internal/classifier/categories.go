package classifier

import (
	"path/filepath"

	"github.com/rahulvramesh/vac/internal/types"
)

// CategoryInfo describes one well-known cleanup category
type CategoryInfo struct {
	Category    types.Category
	Label       string
	Description string
	// WholeRemoval marks categories whose root directory is disposable as a
	// whole. Everything else is cleared content-only.
	WholeRemoval bool
}

// policy is the ordered category table. Root scans walk it top to bottom.
var policy = []CategoryInfo{
	{types.CategorySystemCache, "System Cache", "Per-user application and system caches", false},
	{types.CategoryLogs, "Log Files", "System and application logs", false},
	{types.CategoryTemp, "Temporary Files", "Temporary files and directories", false},
	{types.CategoryDownloads, "Downloads", "Files in the Downloads folder", false},
	{types.CategoryTrash, "Trash", "Items already in the trash", false},
	{types.CategoryXcodeDerivedData, "Xcode DerivedData", "Xcode build products and indexes", true},
	{types.CategoryHomebrewCache, "Homebrew Cache", "Homebrew download cache", true},
	{types.CategoryCocoaPods, "CocoaPods Cache", "CocoaPods spec and pod cache", true},
	{types.CategoryNpmCache, "npm Cache", "npm content-addressable cache", true},
	{types.CategoryYarnCache, "Yarn Cache", "Yarn package cache", true},
	{types.CategoryPipCache, "pip Cache", "pip wheel and http cache", true},
	{types.CategoryGoBuildCache, "Go Build Cache", "Go compiler build cache", true},
	{types.CategoryGradleCache, "Gradle Cache", "Gradle dependency caches", false},
	{types.CategoryDockerData, "Docker Data", "Docker Desktop containers and images", false},
	{types.CategoryCargoCache, "Cargo Cache", "Cargo registry download cache", true},
	{types.CategoryCustom, "Custom", "Configured extra scan target", false},
}

// Categories returns the ordered category table
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(policy))
	copy(out, policy)
	return out
}

// Info returns the table row for a category
func Info(c types.Category) (CategoryInfo, bool) {
	for _, info := range policy {
		if info.Category == c {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

// Label returns the display label for a category, or the raw key
func Label(c types.Category) string {
	if info, ok := Info(c); ok {
		return info.Label
	}
	return string(c)
}

// candidates lists the locations probed for each category, in order
func (c *Classifier) candidates(cat types.Category) []string {
	home := c.home
	switch cat {
	case types.CategorySystemCache:
		return []string{
			filepath.Join(home, "Library", "Caches"),
			c.cacheHome(),
		}
	case types.CategoryLogs:
		return []string{filepath.Join(home, "Library", "Logs")}
	case types.CategoryTemp:
		return []string{"/tmp", "/var/tmp"}
	case types.CategoryDownloads:
		return []string{filepath.Join(home, "Downloads")}
	case types.CategoryTrash:
		return []string{
			filepath.Join(home, ".Trash"),
			filepath.Join(c.dataHome(), "Trash", "files"),
		}
	case types.CategoryXcodeDerivedData:
		return []string{filepath.Join(home, "Library", "Developer", "Xcode", "DerivedData")}
	case types.CategoryHomebrewCache:
		return []string{
			filepath.Join(home, "Library", "Caches", "Homebrew"),
			filepath.Join(c.cacheHome(), "Homebrew"),
		}
	case types.CategoryCocoaPods:
		return []string{filepath.Join(home, "Library", "Caches", "CocoaPods")}
	case types.CategoryNpmCache:
		return []string{filepath.Join(home, ".npm", "_cacache")}
	case types.CategoryYarnCache:
		return []string{
			filepath.Join(home, "Library", "Caches", "Yarn"),
			filepath.Join(c.cacheHome(), "yarn"),
		}
	case types.CategoryPipCache:
		return []string{
			filepath.Join(home, "Library", "Caches", "pip"),
			filepath.Join(c.cacheHome(), "pip"),
		}
	case types.CategoryGoBuildCache:
		if gocache := c.lookup("GOCACHE"); gocache != "" {
			return []string{gocache}
		}
		return []string{
			filepath.Join(home, "Library", "Caches", "go-build"),
			filepath.Join(c.cacheHome(), "go-build"),
		}
	case types.CategoryGradleCache:
		return []string{filepath.Join(home, ".gradle", "caches")}
	case types.CategoryDockerData:
		return []string{filepath.Join(home, "Library", "Containers", "com.docker.docker", "Data")}
	case types.CategoryCargoCache:
		cargoHome := c.lookup("CARGO_HOME")
		if cargoHome == "" {
			cargoHome = filepath.Join(home, ".cargo")
		}
		return []string{filepath.Join(cargoHome, "registry", "cache")}
	}
	return nil
}

func (c *Classifier) cacheHome() string {
	if dir := c.lookup("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(c.home, ".cache")
}

func (c *Classifier) dataHome() string {
	if dir := c.lookup("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(c.home, ".local", "share")
}
