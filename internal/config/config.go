package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	ConflictPolicyRehomeLeague = "rehome_league"
	ConflictPolicyKeepOriginal = "keep_original"
)

// Config stores runtime configuration for the sync pipeline.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	LogLevel           logging.Level
	LogFormat          string
	DBURL              string
	DBBinaryParameters bool
	DBMaxOpenConns     int
	DBConnMaxLifetime  time.Duration

	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration

	TeamBatchSize      int
	FixtureBatchSize   int
	MaxDiagnostics     int
	ConflictPolicy     string
	ArchiveRawPayloads bool

	BroadcastTargetRegions    []string
	BroadcastForeignDenylist  []string
	BroadcastCompanionMarkers []string
	BroadcastNoCoverageWindow time.Duration

	// Default date windows when a run is started without --from/--to.
	BroadcastLookahead time.Duration
	ResultLookback     time.Duration

	// TeamOverrides maps provider -> provider team key -> canonical team name.
	TeamOverrides map[string]map[string]string

	MasterData ProviderConfig
	Broadcasts ProviderConfig
	Results    ProviderConfig

	Competitions []CompetitionConfig
}

// ProviderConfig holds transport and pacing settings for one upstream provider.
type ProviderConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	RateLimit      resilience.RateLimitConfig
	Retry          resilience.RetryConfig
	CircuitBreaker resilience.CircuitBreakerConfig
}

// CompetitionConfig is one entry of the competition catalog.
type CompetitionConfig struct {
	Code               string `mapstructure:"code"`
	Name               string `mapstructure:"name"`
	Country            string `mapstructure:"country"`
	Season             string `mapstructure:"season"`
	Type               string `mapstructure:"type"`
	TotalTeams         int    `mapstructure:"total_teams"`
	TotalRounds        int    `mapstructure:"total_rounds"`
	Visible            bool   `mapstructure:"visible"`
	APIFootballLeague  string `mapstructure:"apifootball_league"`
	FootballDataCode   string `mapstructure:"footballdata_code"`
	SportMonksLeagueID string `mapstructure:"sportmonks_league"`
}

// Load reads configuration from the environment and, when SYNC_CONFIG_FILE
// is set, from that file.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. Environment variables win
// over file values.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if path == "" {
		path = strings.TrimSpace(v.GetString("SYNC_CONFIG_FILE"))
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	src := source{v: v}

	appEnv, err := parseAppEnv(src.str("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    src.str("SERVICE_NAME", "matchday-sync"),
		ServiceVersion: src.str("SERVICE_VERSION", "dev"),
		LogFormat:      strings.ToLower(src.str("LOG_FORMAT", logging.FormatJSON)),
		DBURL:          strings.TrimSpace(src.str("DB_URL", "")),
	}

	level, ok := logging.ParseLevel(src.str("LOG_LEVEL", "info"))
	if !ok {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL %q", src.str("LOG_LEVEL", ""))
	}
	cfg.LogLevel = level
	if cfg.LogFormat != logging.FormatJSON && cfg.LogFormat != logging.FormatConsole {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q, expected json or console", cfg.LogFormat)
	}

	if cfg.DBBinaryParameters, err = src.boolean("DB_BINARY_PARAMETERS", true); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = src.positiveInt("DB_MAX_OPEN_CONNS", 4); err != nil {
		return Config{}, err
	}
	if cfg.DBConnMaxLifetime, err = src.positiveDuration("DB_CONN_MAX_LIFETIME", "30m"); err != nil {
		return Config{}, err
	}

	if cfg.UptraceEnabled, err = src.boolean("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(src.str("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = src.boolean("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(src.str("PYROSCOPE_SERVER_ADDRESS", ""))
	cfg.PyroscopeAppName = src.str("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = src.str("PYROSCOPE_AUTH_TOKEN", "")
	if cfg.PyroscopeUploadRate, err = src.positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	if cfg.TeamBatchSize, err = src.positiveInt("SYNC_TEAM_BATCH_SIZE", 25); err != nil {
		return Config{}, err
	}
	if cfg.FixtureBatchSize, err = src.positiveInt("SYNC_FIXTURE_BATCH_SIZE", 50); err != nil {
		return Config{}, err
	}
	if cfg.MaxDiagnostics, err = src.positiveInt("SYNC_MAX_DIAGNOSTICS", 50); err != nil {
		return Config{}, err
	}
	cfg.ConflictPolicy = strings.ToLower(src.str("SYNC_CONFLICT_POLICY", ConflictPolicyRehomeLeague))
	if cfg.ConflictPolicy != ConflictPolicyRehomeLeague && cfg.ConflictPolicy != ConflictPolicyKeepOriginal {
		return Config{}, fmt.Errorf("invalid SYNC_CONFLICT_POLICY %q", cfg.ConflictPolicy)
	}
	if cfg.ArchiveRawPayloads, err = src.boolean("SYNC_ARCHIVE_RAW_PAYLOADS", true); err != nil {
		return Config{}, err
	}

	cfg.BroadcastTargetRegions = upperAll(src.list("BROADCAST_TARGET_REGIONS", []string{"GB", "UK"}))
	if len(cfg.BroadcastTargetRegions) == 0 {
		return Config{}, fmt.Errorf("BROADCAST_TARGET_REGIONS must not be empty")
	}
	cfg.BroadcastForeignDenylist = src.list("BROADCAST_FOREIGN_DENYLIST", defaultForeignDenylist)
	cfg.BroadcastCompanionMarkers = src.list("BROADCAST_COMPANION_MARKERS", defaultCompanionMarkers)
	if cfg.BroadcastNoCoverageWindow, err = src.positiveDuration("BROADCAST_NO_COVERAGE_WINDOW", "48h"); err != nil {
		return Config{}, err
	}

	if cfg.BroadcastLookahead, err = src.positiveDuration("SYNC_BROADCAST_LOOKAHEAD", "336h"); err != nil {
		return Config{}, err
	}
	if cfg.ResultLookback, err = src.positiveDuration("SYNC_RESULT_LOOKBACK", "72h"); err != nil {
		return Config{}, err
	}

	if cfg.MasterData, err = loadProvider(src, "APIFOOTBALL", "https://v3.football.api-sports.io", providerDefaults{minInterval: "700ms", hourlyBudget: 300}); err != nil {
		return Config{}, err
	}
	if cfg.Broadcasts, err = loadProvider(src, "SPORTMONKS", "https://api.sportmonks.com/v3", providerDefaults{minInterval: "400ms", hourlyBudget: 3000}); err != nil {
		return Config{}, err
	}
	if cfg.Results, err = loadProvider(src, "FOOTBALLDATA", "https://api.football-data.org/v4", providerDefaults{minInterval: "6s", hourlyBudget: 600}); err != nil {
		return Config{}, err
	}

	if cfg.Competitions, err = loadCompetitions(v); err != nil {
		return Config{}, err
	}
	if cfg.TeamOverrides, err = loadTeamOverrides(v); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Competition looks up a catalog entry by code.
func (c Config) Competition(code string) (CompetitionConfig, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, item := range c.Competitions {
		if item.Code == code {
			return item, true
		}
	}
	return CompetitionConfig{}, false
}

type providerDefaults struct {
	minInterval  string
	hourlyBudget int
}

func loadProvider(src source, prefix, baseURL string, defaults providerDefaults) (ProviderConfig, error) {
	var (
		out ProviderConfig
		err error
	)
	out.BaseURL = strings.TrimRight(src.str(prefix+"_BASE_URL", baseURL), "/")
	out.Token = strings.TrimSpace(src.str(prefix+"_TOKEN", ""))
	if out.Timeout, err = src.positiveDuration(prefix+"_TIMEOUT", "10s"); err != nil {
		return ProviderConfig{}, err
	}
	if out.RateLimit.MinInterval, err = src.duration(prefix+"_MIN_INTERVAL", defaults.minInterval); err != nil {
		return ProviderConfig{}, err
	}
	if out.RateLimit.HourlyBudget, err = src.integer(prefix+"_HOURLY_BUDGET", defaults.hourlyBudget); err != nil {
		return ProviderConfig{}, err
	}
	if out.RateLimit.HourlyBudget < 0 {
		return ProviderConfig{}, fmt.Errorf("%s_HOURLY_BUDGET must be >= 0", prefix)
	}
	if out.Retry.MaxRetries, err = src.integer(prefix+"_MAX_RETRIES", 2); err != nil {
		return ProviderConfig{}, err
	}
	if out.Retry.MaxRetries < 0 {
		return ProviderConfig{}, fmt.Errorf("%s_MAX_RETRIES must be >= 0", prefix)
	}
	if out.Retry.InitialBackoff, err = src.positiveDuration(prefix+"_RETRY_BACKOFF", "1s"); err != nil {
		return ProviderConfig{}, err
	}
	out.Retry.MaxBackoff = 8 * out.Retry.InitialBackoff

	if out.CircuitBreaker.Enabled, err = src.boolean(prefix+"_CIRCUIT_ENABLED", true); err != nil {
		return ProviderConfig{}, err
	}
	if out.CircuitBreaker.FailureThreshold, err = src.positiveInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return ProviderConfig{}, err
	}
	if out.CircuitBreaker.OpenTimeout, err = src.positiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return ProviderConfig{}, err
	}
	if out.CircuitBreaker.HalfOpenMaxReq, err = src.positiveInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return ProviderConfig{}, err
	}
	return out, nil
}

func loadCompetitions(v *viper.Viper) ([]CompetitionConfig, error) {
	items := defaultCompetitions()
	if v.IsSet("competitions") {
		items = nil
		if err := v.UnmarshalKey("competitions", &items); err != nil {
			return nil, fmt.Errorf("parse competitions: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(items))
	for i := range items {
		item := &items[i]
		item.Code = strings.ToLower(strings.TrimSpace(item.Code))
		item.Type = strings.ToLower(strings.TrimSpace(item.Type))
		if item.Code == "" {
			return nil, fmt.Errorf("competitions[%d]: code is required", i)
		}
		if _, dup := seen[item.Code]; dup {
			return nil, fmt.Errorf("competitions[%d]: duplicate code %q", i, item.Code)
		}
		seen[item.Code] = struct{}{}
		if item.Type != "league" && item.Type != "cup" {
			return nil, fmt.Errorf("competitions[%d]: type must be league or cup, got %q", i, item.Type)
		}
	}
	return items, nil
}

// loadTeamOverrides reads the manual name override map. Keys are lowercased
// so lookups do not depend on file casing.
func loadTeamOverrides(v *viper.Viper) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	if !v.IsSet("team_overrides") {
		return out, nil
	}
	raw := make(map[string]map[string]string)
	if err := v.UnmarshalKey("team_overrides", &raw); err != nil {
		return nil, fmt.Errorf("parse team_overrides: %w", err)
	}
	for provider, entries := range raw {
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider == "" {
			return nil, fmt.Errorf("team_overrides: provider name is required")
		}
		bucket := out[provider]
		if bucket == nil {
			bucket = make(map[string]string, len(entries))
			out[provider] = bucket
		}
		for key, name := range entries {
			key = strings.ToLower(strings.TrimSpace(key))
			name = strings.TrimSpace(name)
			if key == "" || name == "" {
				return nil, fmt.Errorf("team_overrides.%s: empty key or name", provider)
			}
			bucket[key] = name
		}
	}
	return out, nil
}

func parseAppEnv(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case EnvDev, "development", "local":
		return EnvDev, nil
	case EnvStaging:
		return EnvStaging, nil
	case EnvProd, "production":
		return EnvProd, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q, expected dev, staging or prod", v)
	}
}

func upperAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToUpper(item))
	}
	return out
}
