package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/golang/snappy"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

// Ключ метаданных с исходным порядком столбцов: схема parquet хранит поля по алфавиту
const parquetColumnsKey = "support_etl.columns"

const parquetReadBatch = 256

// snappyCodec сжатие страниц parquet блочным snappy
type snappyCodec struct{}

func (snappyCodec) String() string { return "SNAPPY" }

func (snappyCodec) CompressionCodec() format.CompressionCodec { return format.Snappy }

func (snappyCodec) Encode(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst[:cap(dst)], src), nil
}

func (snappyCodec) Decode(dst, src []byte) ([]byte, error) {
	return snappy.Decode(dst[:cap(dst)], src)
}

// parquetSchema все столбцы optional UTF8: null остается null, заглушки пишутся значением "Unknown"
func parquetSchema(table *models.Table) *parquet.Schema {
	group := make(parquet.Group, len(table.Columns))
	for _, col := range table.Columns {
		group[col] = parquet.Optional(parquet.String())
	}
	return parquet.NewSchema(table.Name, group)
}

// columnIndexes номер листового столбца схемы по имени
func columnIndexes(schema *parquet.Schema) map[string]int {
	paths := schema.Columns()
	out := make(map[string]int, len(paths))
	for i, path := range paths {
		if len(path) > 0 {
			out[path[0]] = i
		}
	}
	return out
}

func writeParquet(w io.Writer, table *models.Table) error {
	if len(table.Columns) == 0 {
		return errors.New("таблица без столбцов не может быть записана в parquet")
	}

	order, err := json.Marshal(table.Columns)
	if err != nil {
		return err
	}

	schema := parquetSchema(table)
	indexes := columnIndexes(schema)
	writer := parquet.NewWriter(w, schema,
		parquet.Compression(snappyCodec{}),
		parquet.KeyValueMetadata(parquetColumnsKey, string(order)),
	)

	rows := make([]parquet.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		values := make(parquet.Row, len(indexes))
		for col, idx := range indexes {
			cell := row.Get(col)
			if cell.IsNull() {
				values[idx] = parquet.NullValue().Level(0, 0, idx)
				continue
			}
			values[idx] = parquet.ByteArrayValue([]byte(cell.Value)).Level(0, 1, idx)
		}
		rows = append(rows, values)
	}

	if _, err := writer.WriteRows(rows); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func readParquet(r io.ReaderAt, size int64, name string) (*models.Table, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}

	paths := file.Schema().Columns()
	names := make([]string, len(paths))
	for i, path := range paths {
		if len(path) != 1 {
			return nil, fmt.Errorf("вложенный столбец %v не поддерживается", path)
		}
		names[i] = path[0]
	}

	table := models.NewTable(name, orderedColumns(file, names)...)
	buf := make([]parquet.Row, parquetReadBatch)
	for _, group := range file.RowGroups() {
		if err := readRowGroup(group, names, table, buf); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func readRowGroup(group parquet.RowGroup, names []string, table *models.Table, buf []parquet.Row) error {
	rows := group.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, values := range buf[:n] {
			row := make(models.Row, len(names))
			for _, name := range names {
				row[name] = models.Null()
			}
			for _, v := range values {
				col := v.Column()
				if col < 0 || col >= len(names) || v.IsNull() {
					continue
				}
				row[names[col]] = models.Value(string(v.ByteArray()))
			}
			table.Append(row)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// orderedColumns восстанавливает порядок столбцов из метаданных.
// Файлы без метаданных читаются в порядке схемы.
func orderedColumns(file *parquet.File, names []string) []string {
	raw, ok := file.Lookup(parquetColumnsKey)
	if !ok {
		return names
	}
	var order []string
	if err := json.Unmarshal([]byte(raw), &order); err != nil || len(order) != len(names) {
		return names
	}

	want := append([]string(nil), names...)
	got := append([]string(nil), order...)
	sort.Strings(want)
	sort.Strings(got)
	for i := range want {
		if want[i] != got[i] {
			return names
		}
	}
	return order
}
