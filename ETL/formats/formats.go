// Package formats читает и записывает таблицы в форматах csv, json и parquet
// (Apache Parquet со сжатием Snappy).
package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// Format формат файла таблицы
type Format string

const (
	CSV     Format = "csv"
	JSON    Format = "json"
	Parquet Format = "parquet"
)

// ParseFormat проверяет название формата
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case CSV, JSON, Parquet:
		return f, nil
	default:
		return "", &models.UnsupportedFormatError{Format: name}
	}
}

// FromPath определяет формат по расширению файла
func FromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", &models.UnsupportedFormatError{Format: filepath.Base(path)}
	}
	return ParseFormat(ext)
}

// Extension возвращает расширение файла с точкой
func (f Format) Extension() string {
	return "." + string(f)
}

// Read читает таблицу из файла; формат определяется по расширению
func Read(path, name string) (*models.Table, error) {
	format, err := FromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", path, err)
	}
	defer file.Close()

	var table *models.Table
	switch format {
	case CSV:
		table, err = readCSV(file, name)
	case JSON:
		table, err = readJSON(file, name)
	case Parquet:
		var info os.FileInfo
		if info, err = file.Stat(); err == nil {
			table, err = readParquet(file, info.Size(), name)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения таблицы %s из %s: %w", name, path, err)
	}
	return table, nil
}

// Write записывает таблицу в файл в указанном формате.
// Данные пишутся во временный файл рядом и переименовываются, так что читатель
// видит либо прежнюю версию файла, либо новую целиком.
func Write(table *models.Table, path string, format Format) error {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	file, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", path, err)
	}
	tmpPath := file.Name()

	switch format {
	case CSV:
		err = writeCSV(file, table)
	case JSON:
		err = writeJSON(file, table)
	case Parquet:
		err = writeParquet(file, table)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи таблицы %s в %s: %w", table.Name, path, err)
	}
	return nil
}
