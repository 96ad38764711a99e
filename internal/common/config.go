package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	gormlogger "gorm.io/gorm/logger"
)

// Config는 애플리케이션의 모든 설정을 관리합니다.
type Config struct {
	App       AppConfig       `yaml:"app"`
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	Directory DirectoryConfig `yaml:"directory"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Discord   DiscordConfig   `yaml:"discord"`
}

// AppConfig는 애플리케이션 기본 설정입니다.
type AppConfig struct {
	// ENV는 실행 환경입니다 (development, production)
	ENV string `yaml:"env"`
	// LogLevel은 애플리케이션 로그 레벨입니다 (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// APIConfig는 HTTP API 서버 설정입니다.
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr는 listen 주소를 반환합니다.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL은 API 클라이언트가 사용할 기본 URL입니다.
func (c APIConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// DatabaseConfig는 데이터베이스 설정입니다.
type DatabaseConfig struct {
	// DSN은 데이터베이스 연결 문자열입니다. 비어 있으면 Directory.DBPath의 SQLite를 사용합니다.
	DSN string `yaml:"dsn"`
	// LogLevel은 GORM 로그 레벨입니다
	LogLevel gormlogger.LogLevel `yaml:"log_level"`
	// MaxIdleConns는 연결 풀의 idle 연결 개수입니다
	MaxIdleConns int `yaml:"max_idle_conns"`
	// MaxOpenConns는 연결 풀의 최대 연결 개수입니다
	MaxOpenConns int `yaml:"max_open_conns"`
	// ConnMaxLifetime은 연결의 최대 수명입니다
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DirectoryConfig는 디렉토리 경로 설정입니다.
type DirectoryConfig struct {
	// DataDir은 기본 데이터 디렉토리입니다 (기본값: $HOME/.littup)
	DataDir string `yaml:"data_dir"`
	// DBPath는 SQLite 데이터베이스 파일 경로입니다
	DBPath string `yaml:"db_path"`
	// ProjectsDir은 프로젝트 파일 트리의 루트입니다
	ProjectsDir string `yaml:"projects_dir"`
	// TemplatesDir은 프로젝트 템플릿 디렉토리입니다
	TemplatesDir string `yaml:"templates_dir"`
}

// SandboxConfig는 명령 실행 샌드박스 설정입니다.
type SandboxConfig struct {
	// Mode는 실행 방식입니다 (local, docker)
	Mode string `yaml:"mode"`
	// Timeout은 명령 하나의 최대 실행 시간입니다
	Timeout time.Duration `yaml:"timeout"`
	// Image는 docker 모드에서 사용할 이미지입니다
	Image string `yaml:"image"`
}

// DiscordConfig는 Memoria 알림용 Discord 설정입니다.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled는 Discord 알림이 설정되었는지 확인합니다.
func (c DiscordConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

const (
	SandboxModeLocal  = "local"
	SandboxModeDocker = "docker"

	defaultAPIHost        = "127.0.0.1"
	defaultAPIPort        = 8756
	defaultSandboxTimeout = 30 * time.Second
	defaultSandboxImage   = "python:3.12-slim"
)

// LoadConfig는 .env, YAML 파일, 환경 변수 순서로 설정을 구성합니다.
// configPath가 비어있으면 ${LITTUP_DATA_DIR}/config.yaml을 시도하고, 파일이 없으면 환경 변수만 사용합니다.
func LoadConfig(configPath string) (*Config, error) {
	// .env 파일은 선택 사항
	_ = godotenv.Load()

	if configPath == "" {
		configPath = filepath.Join(getDataDir(), "config.yaml")
		if _, err := os.Stat(configPath); err != nil {
			return LoadConfigFromEnv()
		}
	}

	return LoadConfigFromFile(configPath)
}

// LoadConfigFromFile은 YAML 파일에서 설정을 로드합니다.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}

	// YAML에서 로드한 후 환경 변수로 오버라이드
	cfg = mergeWithEnv(cfg)
	cfg.resolvePaths()

	return cfg, nil
}

// LoadConfigFromEnv는 환경 변수에서 설정을 로드합니다.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{
		App:       loadAppConfig(),
		API:       loadAPIConfig(),
		Database:  loadDatabaseConfig(),
		Directory: DirectoryConfig{DataDir: getDataDir()},
		Sandbox:   loadSandboxConfig(),
		Discord: DiscordConfig{
			Token:     os.Getenv("LITTUP_DISCORD_TOKEN"),
			ChannelID: os.Getenv("LITTUP_DISCORD_CHANNEL_ID"),
		},
	}
	cfg = mergeWithEnv(cfg)
	cfg.resolvePaths()

	return cfg, nil
}

// mergeWithEnv는 설정 값을 환경 변수로 오버라이드합니다.
func mergeWithEnv(cfg *Config) *Config {
	// App
	if env := os.Getenv("LITTUP_ENV"); env != "" {
		cfg.App.ENV = strings.ToLower(env)
	}
	if logLevel := os.Getenv("LITTUP_LOG_LEVEL"); logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	// API
	if host := os.Getenv("LITTUP_API_HOST"); host != "" {
		cfg.API.Host = host
	}
	if port := os.Getenv("LITTUP_API_PORT"); port != "" {
		cfg.API.Port = parseIntWithDefault(port, cfg.API.Port)
	}

	// Database
	if dsn := os.Getenv("LITTUP_DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if logLevel := os.Getenv("LITTUP_DB_LOG_LEVEL"); logLevel != "" {
		cfg.Database.LogLevel = parseLogLevel(logLevel)
	}

	// Directory
	if dataDir := os.Getenv("LITTUP_DATA_DIR"); dataDir != "" {
		cfg.Directory.DataDir = dataDir
	}
	if dbPath := os.Getenv("LITTUP_DB_PATH"); dbPath != "" {
		cfg.Directory.DBPath = dbPath
	}
	if projectsDir := os.Getenv("LITTUP_PROJECTS_DIR"); projectsDir != "" {
		cfg.Directory.ProjectsDir = projectsDir
	}
	if templatesDir := os.Getenv("LITTUP_TEMPLATES_DIR"); templatesDir != "" {
		cfg.Directory.TemplatesDir = templatesDir
	}

	// Sandbox
	if mode := os.Getenv("LITTUP_SANDBOX_MODE"); mode != "" {
		cfg.Sandbox.Mode = strings.ToLower(mode)
	}
	if timeout := os.Getenv("LITTUP_SANDBOX_TIMEOUT"); timeout != "" {
		cfg.Sandbox.Timeout = parseDurationWithDefault(timeout, cfg.Sandbox.Timeout)
	}
	if image := os.Getenv("LITTUP_SANDBOX_IMAGE"); image != "" {
		cfg.Sandbox.Image = image
	}

	// Discord
	if token := os.Getenv("LITTUP_DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if channelID := os.Getenv("LITTUP_DISCORD_CHANNEL_ID"); channelID != "" {
		cfg.Discord.ChannelID = channelID
	}

	return cfg
}

// resolvePaths는 비어 있는 경로를 DataDir 기준 기본값으로 채우고 절대 경로로 변환합니다.
func (c *Config) resolvePaths() {
	if c.Directory.DataDir == "" {
		c.Directory.DataDir = getDataDir()
	}
	c.Directory.DataDir = absPath(c.Directory.DataDir)

	if c.Directory.DBPath == "" {
		c.Directory.DBPath = filepath.Join(c.Directory.DataDir, "littup.db")
	}
	if c.Directory.ProjectsDir == "" {
		c.Directory.ProjectsDir = filepath.Join(c.Directory.DataDir, "projects")
	}
	if c.Directory.TemplatesDir == "" {
		c.Directory.TemplatesDir = filepath.Join(c.Directory.DataDir, "templates")
	}
	c.Directory.DBPath = absPath(c.Directory.DBPath)
	c.Directory.ProjectsDir = absPath(c.Directory.ProjectsDir)
	c.Directory.TemplatesDir = absPath(c.Directory.TemplatesDir)
}

func loadAppConfig() AppConfig {
	return AppConfig{
		ENV:      strings.ToLower(getEnvOrDefault("LITTUP_ENV", "development")),
		LogLevel: getEnvOrDefault("LITTUP_LOG_LEVEL", "info"),
	}
}

func loadAPIConfig() APIConfig {
	return APIConfig{
		Host: getEnvOrDefault("LITTUP_API_HOST", defaultAPIHost),
		Port: parseIntWithDefault(os.Getenv("LITTUP_API_PORT"), defaultAPIPort),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		DSN:             os.Getenv("LITTUP_DATABASE_URL"),
		LogLevel:        parseLogLevel(os.Getenv("LITTUP_DB_LOG_LEVEL")),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("LITTUP_DB_MAX_IDLE"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("LITTUP_DB_MAX_OPEN"), 20),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("LITTUP_DB_CONN_LIFETIME"), 30*time.Minute),
	}
}

func loadSandboxConfig() SandboxConfig {
	return SandboxConfig{
		Mode:    strings.ToLower(getEnvOrDefault("LITTUP_SANDBOX_MODE", SandboxModeLocal)),
		Timeout: parseDurationWithDefault(os.Getenv("LITTUP_SANDBOX_TIMEOUT"), defaultSandboxTimeout),
		Image:   getEnvOrDefault("LITTUP_SANDBOX_IMAGE", defaultSandboxImage),
	}
}

// getDataDir은 LITTUP_DATA_DIR 환경 변수를 반환하거나 기본값을 계산합니다.
func getDataDir() string {
	if dataDir := os.Getenv("LITTUP_DATA_DIR"); dataDir != "" {
		return dataDir
	}

	// LITTUP_DATA_DIR이 없으면 $HOME/.littup 사용
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		return filepath.Join(homeDir, ".littup")
	}

	// Fallback: ./data
	return "./data"
}

func absPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(value string) gormlogger.LogLevel {
	switch strings.ToLower(value) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func parseIntWithDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// Validate는 필수 설정 값들을 검증합니다.
func (c *Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("LITTUP_API_PORT out of range: %d", c.API.Port)
	}
	switch c.Sandbox.Mode {
	case SandboxModeLocal, SandboxModeDocker:
	default:
		return fmt.Errorf("LITTUP_SANDBOX_MODE must be %q or %q, got %q", SandboxModeLocal, SandboxModeDocker, c.Sandbox.Mode)
	}
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("LITTUP_SANDBOX_TIMEOUT must be positive")
	}
	if c.Discord.Token != "" && c.Discord.ChannelID == "" {
		return fmt.Errorf("LITTUP_DISCORD_CHANNEL_ID is required when LITTUP_DISCORD_TOKEN is set")
	}
	return nil
}
