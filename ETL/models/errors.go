package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Базовые ошибки для проверки через errors.Is
var (
	ErrSchema            = errors.New("schema error")
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrBatchName         = errors.New("invalid delta batch name")
)

// SchemaError во входной таблице нет обязательного столбца
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("таблица %s не содержит обязательный столбец '%s'", e.Table, e.Column)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// ValidationError пакет дельты содержит недопустимые значения action
// или строки без идентификатора (NullIdentityRows, номера строк с 1)
type ValidationError struct {
	Table            string
	Invalid          []string
	NullIdentityRows []int
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("недопустимые значения action: [%s]", strings.Join(e.Invalid, ", ")))
	}
	if len(e.NullIdentityRows) > 0 {
		rows := make([]string, len(e.NullIdentityRows))
		for i, n := range e.NullIdentityRows {
			rows[i] = strconv.Itoa(n)
		}
		parts = append(parts, fmt.Sprintf("пустой идентификатор в строках [%s]", strings.Join(rows, ", ")))
	}
	return fmt.Sprintf("некорректная дельта %s: %s", e.Table, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnsupportedFormatError запрошен формат, отличный от csv, json, parquet
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("неподдерживаемый формат: %q", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// BatchNameError из имени запрошенного пакета дельты не удалось извлечь код YYYYMM
type BatchNameError struct {
	Path string
}

func (e *BatchNameError) Error() string {
	return fmt.Sprintf("не удалось извлечь код YYYYMM из имени пакета дельты %s", e.Path)
}

func (e *BatchNameError) Unwrap() error { return ErrBatchName }

// ConversionWarning столбец с временными метками не удалось преобразовать.
// Не прерывает запуск: столбец остается в исходном виде.
type ConversionWarning struct {
	Table  string
	Column string
	Value  string
	Err    error
}

func (w *ConversionWarning) Error() string {
	return fmt.Sprintf("не удалось преобразовать столбец %s.%s (значение %q): %v", w.Table, w.Column, w.Value, w.Err)
}

func (w *ConversionWarning) Unwrap() error { return w.Err }
