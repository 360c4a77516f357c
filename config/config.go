package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputPath     string
	SheetName     string
	NameColumn    string
	AddressColumn string

	LoginURL string
	MapURL   string

	ElementTimeoutMs int
	PageLoadDelayMs  int
	SettleDelayMs    int
	RowDelayMs       int
	NavigateRetries  int

	Headless    bool
	ChromeBin   string
	UserDataDir string

	FailedCSVPath   string
	MetricsTextfile string
	Debug           bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		InputPath:     getEnv("INPUT_PATH", "./places.xlsx"),
		SheetName:     getEnv("SHEET_NAME", ""),
		NameColumn:    getEnv("NAME_COLUMN", "상호명"),
		AddressColumn: getEnv("ADDRESS_COLUMN", "주소"),

		LoginURL: getEnv("LOGIN_URL", "https://nid.naver.com/nidlogin.login"),
		MapURL:   getEnv("MAP_URL", "https://map.naver.com"),

		ElementTimeoutMs: getEnvInt("ELEMENT_TIMEOUT_MS", 20000),
		PageLoadDelayMs:  getEnvInt("PAGE_LOAD_DELAY_MS", 5000),
		SettleDelayMs:    getEnvInt("SETTLE_DELAY_MS", 3000),
		RowDelayMs:       getEnvInt("ROW_DELAY_MS", 2000),
		NavigateRetries:  getEnvInt("NAVIGATE_RETRIES", 3),

		Headless:    getEnvBool("HEADLESS", false),
		ChromeBin:   getEnv("CHROME_BIN", ""),
		UserDataDir: getEnv("USER_DATA_DIR", ""),

		FailedCSVPath:   getEnv("FAILED_CSV_PATH", ""),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		Debug:           getEnvBool("DEBUG", true),
	}
}

// ElementTimeout bounds the wait for each selector candidate.
func (c *Config) ElementTimeout() time.Duration {
	return ms(c.ElementTimeoutMs)
}

func (c *Config) PageLoadDelay() time.Duration {
	return ms(c.PageLoadDelayMs)
}

func (c *Config) SettleDelay() time.Duration {
	return ms(c.SettleDelayMs)
}

func (c *Config) RowDelay() time.Duration {
	return ms(c.RowDelayMs)
}

func ms(n int) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
