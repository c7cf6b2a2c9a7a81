package formats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// readCSV читает таблицу с заголовком; пустая ячейка считается null
func readCSV(r io.Reader, name string) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewTable(name), nil
		}
		return nil, fmt.Errorf("ошибка чтения заголовка: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	table := models.NewTable(name, header...)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки %d: %w", line, err)
		}

		row := make(models.Row, len(header))
		for i, col := range header {
			if i >= len(record) || record[i] == "" {
				row[col] = models.Null()
				continue
			}
			row[col] = models.Value(record[i])
		}
		table.Append(row)
	}

	return table, nil
}

// writeCSV записывает таблицу; null записывается пустой ячейкой
func writeCSV(w io.Writer, table *models.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return err
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = row.Get(col).String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
