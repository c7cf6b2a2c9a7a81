package formats

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// readJSON читает массив записей; порядок столбцов берется из порядка ключей
func readJSON(r io.Reader, name string) (*models.Table, error) {
	table := models.NewTable(name)
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("ожидается массив записей, получено %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("ожидается объект записи, получено %v", tok)
		}

		row := make(models.Row)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("ожидается имя поля, получено %v", keyTok)
			}

			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("ошибка чтения поля %s: %w", key, err)
			}
			table.AddColumns(key)
			row[key] = cellFromJSON(raw)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		table.Append(row)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return table, nil
}

func cellFromJSON(raw json.RawMessage) models.Cell {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return models.Null()
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return models.Value(s)
		}
	}
	// числа, логические значения и вложенные структуры сохраняются как есть
	return models.Value(string(trimmed))
}

// writeJSON записывает таблицу массивом записей с отступом в 2 пробела
func writeJSON(w io.Writer, table *models.Table) error {
	bw := bufio.NewWriter(w)

	keys := make([][]byte, len(table.Columns))
	for i, col := range table.Columns {
		k, err := json.Marshal(col)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	bw.WriteString("[")
	for ri, row := range table.Rows {
		if ri > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n  {")
		for ci, col := range table.Columns {
			if ci > 0 {
				bw.WriteString(",")
			}
			bw.WriteString("\n    ")
			bw.Write(keys[ci])
			bw.WriteString(": ")

			cell := row.Get(col)
			if cell.IsNull() {
				bw.WriteString("null")
				continue
			}
			v, err := json.Marshal(cell.Value)
			if err != nil {
				return err
			}
			bw.Write(v)
		}
		bw.WriteString("\n  }")
	}
	if len(table.Rows) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")

	return bw.Flush()
}
