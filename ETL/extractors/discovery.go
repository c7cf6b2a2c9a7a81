package extractors

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LilVoxy/support_etl/ETL/formats"
	"github.com/LilVoxy/support_etl/ETL/models"
)

// BatchRef найденный файл пакета дельты
type BatchRef struct {
	Table     models.TableSpec
	MonthCode string
	Path      string
}

// ParseMonthCode извлекает код YYYYMM из последнего токена имени файла
// (например agents_202402.csv -> 202402)
func ParseMonthCode(path string) (string, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return "", false
	}
	code := base[idx+1:]
	if !isMonthCode(code) {
		return "", false
	}
	return code, true
}

func isMonthCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := time.Parse("200601", code)
	return err == nil
}

// DiscoverDeltas ищет файлы delta/<table>_YYYYMM.<ext> и упорядочивает их по коду месяца.
// При пустом months файл с неразборчивым именем является ошибкой BatchNameError;
// при заданном фильтре такие файлы просто не попадают в выборку.
func (e *Extractor) DiscoverDeltas(spec models.TableSpec, months []string) ([]BatchRef, error) {
	dir := filepath.Join(e.dataDir, DeltaDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			e.logger.Debug("Каталог дельт %s отсутствует", dir)
			return nil, nil
		}
		return nil, err
	}

	wanted := make(map[string]bool, len(months))
	for _, m := range months {
		wanted[m] = false
	}

	var refs []BatchRef
	prefix := spec.Name + "_"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, err := formats.FromPath(name); err != nil {
			e.logger.Debug("Пропускаем файл %s: %v", name, err)
			continue
		}

		path := filepath.Join(dir, name)
		code, ok := ParseMonthCode(path)
		if !ok {
			if len(months) == 0 {
				return nil, &models.BatchNameError{Path: path}
			}
			continue
		}

		if len(months) > 0 {
			if _, requested := wanted[code]; !requested {
				continue
			}
			wanted[code] = true
		}

		refs = append(refs, BatchRef{Table: spec, MonthCode: code, Path: path})
	}

	for _, m := range months {
		if !wanted[m] {
			e.logger.Warn("Для таблицы %s не найден пакет дельты за месяц %s", spec.Name, m)
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].MonthCode != refs[j].MonthCode {
			return refs[i].MonthCode < refs[j].MonthCode
		}
		return refs[i].Path < refs[j].Path
	})

	return refs, nil
}
