package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Starting viewport. Interactive coordinate prompting is an external
	// concern; the engine only consumes these values.
	StartLat  float64
	StartLon  float64
	StartZoom int

	// Region bounds clamp every navigation target.
	RegionMinLat float64
	RegionMaxLat float64
	RegionMinLon float64
	RegionMaxLon float64

	// Hard caps on detail-phase work.
	MaxComplexes int
	MaxListings  int

	UseMobileDetail     bool
	RequirePrevLease    bool
	BlockHeavyResources bool
	MinListingCount     int
	PrioritizeByCount   bool
	DetailWorkers       int

	// Grid sweep geometry and pacing.
	GridRings    int
	GridStepPx   float64
	SweepDwellMs int

	ZoomMin int
	ZoomMax int

	// Colon-separated asset families to query, e.g. "APT:VL".
	AssetTypes string

	GapFilterEnabled bool

	// Ordered visible-text candidates for the listing-marker mode switch
	// and the detail-page tab clicks. Comma-separated.
	ListingModeLabels []string
	TradeTabLabels    []string
	LeaseTabLabels    []string
	SaleTabLabels     []string

	Headless    bool
	ChromeBin   string
	RateLimitMs int
	MaxRetries  int

	CSVOutputPath string
	SQLitePath    string
	ExportLocale  string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StartLat:  getEnvFloat("START_LAT", 37.5608),
		StartLon:  getEnvFloat("START_LON", 126.9888),
		StartZoom: getEnvInt("START_ZOOM", 15),

		RegionMinLat: getEnvFloat("REGION_MIN_LAT", 33.0),
		RegionMaxLat: getEnvFloat("REGION_MAX_LAT", 39.5),
		RegionMinLon: getEnvFloat("REGION_MIN_LON", 124.0),
		RegionMaxLon: getEnvFloat("REGION_MAX_LON", 132.1),

		MaxComplexes: getEnvInt("MAX_COMPLEXES", 800),
		MaxListings:  getEnvInt("MAX_LISTINGS", 10000),

		UseMobileDetail:     getEnvBool("USE_MOBILE_DETAIL", true),
		RequirePrevLease:    getEnvBool("REQUIRE_PREV_LEASE", true),
		BlockHeavyResources: getEnvBool("BLOCK_HEAVY_RESOURCES", true),
		MinListingCount:     getEnvInt("MIN_LISTING_COUNT", 2),
		PrioritizeByCount:   getEnvBool("PRIORITIZE_BY_COUNT", false),
		DetailWorkers:       getEnvInt("DETAIL_WORKERS", 12),

		GridRings:    getEnvInt("GRID_RINGS", 1),
		GridStepPx:   getEnvFloat("GRID_STEP_PX", 480),
		SweepDwellMs: getEnvInt("SWEEP_DWELL_MS", 600),

		ZoomMin: getEnvInt("ZOOM_MIN", 15),
		ZoomMax: getEnvInt("ZOOM_MAX", 17),

		AssetTypes: getEnv("ASSET_TYPES", "APT:VL"),

		GapFilterEnabled: getEnvBool("GAP_FILTER_ENABLED", true),

		ListingModeLabels: getEnvList("LISTING_MODE_LABELS", "상세매물검색,매물,매물검색,매물 보기"),
		TradeTabLabels:    getEnvList("TRADE_TAB_LABELS", "실거래가"),
		LeaseTabLabels:    getEnvList("LEASE_TAB_LABELS", "전세"),
		SaleTabLabels:     getEnvList("SALE_TAB_LABELS", "매매"),

		Headless:    getEnvBool("HEADLESS", true),
		ChromeBin:   getEnv("CHROME_BIN", ""),
		RateLimitMs: getEnvInt("RATE_LIMIT_MS", 250),
		MaxRetries:  getEnvInt("MAX_RETRIES", 3),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/candidates.csv"),
		SQLitePath:    getEnv("SQLITE_PATH", "./output/session.db"),
		ExportLocale:  getEnv("EXPORT_LOCALE", "ko"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "land_gap_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// Bounds returns the configured region as an orb.Bound (points are lon,lat).
func (c *Config) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.RegionMinLon, c.RegionMinLat},
		Max: orb.Point{c.RegionMaxLon, c.RegionMaxLat},
	}
}

// AssetKinds expands ASSET_TYPES into (endpoint family, asset tag) pairs.
// "APT" is served by the complexes endpoints, "VL" by the houses endpoints.
func (c *Config) AssetKinds() [][2]string {
	var kinds [][2]string
	for _, s := range strings.Split(c.AssetTypes, ":") {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "APT":
			kinds = append(kinds, [2]string{"complexes", "APT"})
		case "VL":
			kinds = append(kinds, [2]string{"houses", "VL"})
		}
	}
	return kinds
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
