package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	UserAgent   string
	// Geocoding
	NominatimURL  string
	CountryCodes  string
	RegionSuffix  string
	GeocodeLimit  int
	DebounceDelay time.Duration
	GeocodeTTL    time.Duration
	// Local data (credentials, offline route cache)
	DataDir string
}

func Load() Config {
	// Best effort; missing .env is the normal case outside dev.
	_ = godotenv.Load()

	return Config{
		APIBaseURL:    getenv("ROTALIZE_API_URL", "http://localhost:44350"),
		HTTPTimeout:   time.Duration(getenvInt("ROTALIZE_HTTP_TIMEOUT_SECONDS", 20)) * time.Second,
		UserAgent:     getenv("ROTALIZE_USER_AGENT", "RotalizeClient/1.0"),
		NominatimURL:  getenv("ROTALIZE_NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		CountryCodes:  getenv("ROTALIZE_COUNTRY_CODES", "br"),
		RegionSuffix:  getenv("ROTALIZE_REGION_SUFFIX", ", Paraná, Brasil"),
		GeocodeLimit:  getenvInt("ROTALIZE_GEOCODE_LIMIT", 5),
		DebounceDelay: time.Duration(getenvInt("ROTALIZE_DEBOUNCE_MS", 500)) * time.Millisecond,
		GeocodeTTL:    time.Duration(getenvInt("ROTALIZE_GEOCODE_TTL_SECONDS", 300)) * time.Second,
		DataDir:       getenv("ROTALIZE_DATA_DIR", defaultDataDir()),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rotalize"
	}
	return filepath.Join(home, ".rotalize")
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
