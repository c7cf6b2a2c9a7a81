package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения конвейера
const EnvPrefix = "ETL"

// PipelineConfig содержит конфигурацию конвейера
type PipelineConfig struct {
	// Каталог с подкаталогами initial/ и delta/
	DataDir string `json:"data_dir" yaml:"data_dir" split_words:"true" validate:"required"`

	// Каталог для итоговых таблиц <table>_final.<format>
	OutDir string `json:"out_dir" yaml:"out_dir" split_words:"true" validate:"required"`

	// Каталог для отчета support_report.<format>
	ReportDir string `json:"report_dir" yaml:"report_dir" split_words:"true" validate:"required"`

	// Формат вывода: csv, json или parquet
	Format string `json:"format" yaml:"format" split_words:"true" validate:"required"`

	// Коды YYYYMM пакетов дельт; пустой список означает все пакеты
	Months []string `json:"months" yaml:"months" split_words:"true" validate:"dive,len=6,numeric"`

	// Часовые пояса для преобразования временных меток
	SourceZone string `json:"source_zone" yaml:"source_zone" split_words:"true" validate:"required"`
	TargetZone string `json:"target_zone" yaml:"target_zone" split_words:"true" validate:"required"`

	// Интервал запуска по расписанию
	RunInterval time.Duration `json:"run_interval" yaml:"run_interval" split_words:"true" validate:"gt=0"`

	// Перезапуск конвейера при появлении новых файлов в delta/
	WatchDeltas bool `json:"watch_deltas" yaml:"watch_deltas" split_words:"true"`

	// Адрес HTTP-сервера отчетов
	HTTPAddr string `json:"http_addr" yaml:"http_addr" split_words:"true" validate:"required"`

	Log      LogConfig      `json:"log" yaml:"log" split_words:"true"`
	Database DatabaseConfig `json:"database" yaml:"database" split_words:"true"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Mode     string `json:"mode" yaml:"mode" split_words:"true" validate:"omitempty,oneof=dev development prod production"`
	Detailed bool   `json:"detailed" yaml:"detailed" split_words:"true"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" split_words:"true"`
	Driver   string `json:"driver" yaml:"driver" split_words:"true" validate:"omitempty,oneof=mysql sqlite"`
	Host     string `json:"host" yaml:"host" split_words:"true"`
	Port     int    `json:"port" yaml:"port" split_words:"true" validate:"gte=0,lte=65535"`
	User     string `json:"user" yaml:"user" split_words:"true"`
	Password string `json:"password" yaml:"password" split_words:"true"`
	DBName   string `json:"dbname" yaml:"dbname" split_words:"true"`
	Path     string `json:"path" yaml:"path" split_words:"true"` // файл SQLite
}

// Значения конфигурации по умолчанию
var (
	DefaultDatabaseConfig = DatabaseConfig{
		Driver: "sqlite",
		Host:   "localhost",
		Port:   3306,
		DBName: "support_analytics",
		Path:   "support_etl.db",
	}

	DefaultPipelineConfig = PipelineConfig{
		DataDir:     "./data",
		OutDir:      "./output",
		ReportDir:   "./report",
		Format:      "csv",
		SourceZone:  "UTC",
		TargetZone:  "US/Eastern",
		RunInterval: 1 * time.Hour,
		HTTPAddr:    ":8080",
		Log:         LogConfig{Mode: "development"},
		Database:    DefaultDatabaseConfig,
	}
)

var validate = validator.New()

// Load собирает конфигурацию: значения по умолчанию, YAML-файл, переменные окружения ETL_*.
// Пустой path означает путь из ETL_CONFIG или отсутствие файла.
func Load(path string) (PipelineConfig, error) {
	cfg := DefaultPipelineConfig

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("ошибка разбора файла конфигурации %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}

	cfg.Months = NormalizeMonths(cfg.Months)
	return cfg, cfg.Validate()
}

// Validate проверяет конфигурацию
func (c PipelineConfig) Validate() error {
	if !IsSupportedFormat(c.Format) {
		return &models.UnsupportedFormatError{Format: c.Format}
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("некорректная конфигурация: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}

	if err := ValidateMonths(c.Months); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.SourceZone); err != nil {
		return fmt.Errorf("неизвестный исходный часовой пояс %q: %w", c.SourceZone, err)
	}
	if _, err := time.LoadLocation(c.TargetZone); err != nil {
		return fmt.Errorf("неизвестный целевой часовой пояс %q: %w", c.TargetZone, err)
	}

	if c.Database.Enabled && c.Database.Driver == "" {
		return fmt.Errorf("некорректная конфигурация: database.driver обязателен при database.enabled")
	}

	return nil
}

// Locations возвращает исходный и целевой часовые пояса
func (c PipelineConfig) Locations() (*time.Location, *time.Location, error) {
	src, err := time.LoadLocation(c.SourceZone)
	if err != nil {
		return nil, nil, fmt.Errorf("неизвестный исходный часовой пояс %q: %w", c.SourceZone, err)
	}
	dst, err := time.LoadLocation(c.TargetZone)
	if err != nil {
		return nil, nil, fmt.Errorf("неизвестный целевой часовой пояс %q: %w", c.TargetZone, err)
	}
	return src, dst, nil
}

// ParseMonths разбирает список кодов через запятую: "202502, 202503"
func ParseMonths(raw string) []string {
	return NormalizeMonths(strings.Split(raw, ","))
}

// NormalizeMonths убирает пробелы, пустые значения и дубликаты, сохраняя порядок
func NormalizeMonths(months []string) []string {
	out := make([]string, 0, len(months))
	seen := make(map[string]struct{}, len(months))
	for _, m := range months {
		cleaned := strings.TrimSpace(m)
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

// ValidateMonths проверяет, что каждый код месяца имеет вид YYYYMM
func ValidateMonths(months []string) error {
	for _, m := range months {
		if len(m) != 6 {
			return fmt.Errorf("некорректный код месяца %q: ожидается YYYYMM", m)
		}
		if _, err := time.Parse("200601", m); err != nil {
			return fmt.Errorf("некорректный код месяца %q: ожидается YYYYMM", m)
		}
	}
	return nil
}

// IsSupportedFormat проверяет формат вывода
func IsSupportedFormat(format string) bool {
	switch format {
	case "csv", "json", "parquet":
		return true
	default:
		return false
	}
}
