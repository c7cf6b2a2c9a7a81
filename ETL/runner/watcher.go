package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LilVoxy/support_etl/ETL/extractors"
	"github.com/LilVoxy/support_etl/ETL/formats"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce пауза после последнего изменения в delta/ перед запуском
const DefaultWatchDebounce = 2 * time.Second

// WatchDeltas следит за каталогом delta/ и запускает конвейер, когда в нем
// появляются или меняются файлы пакетов. Серия изменений за debounce дает один запуск.
// Блокируется до отмены ctx.
func (r *ETLRunner) WatchDeltas(ctx context.Context, debounce time.Duration) error {
	dir := filepath.Join(r.config.DataDir, extractors.DeltaDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("ошибка подписки на каталог %s: %w", dir, err)
	}
	r.logger.Info("Наблюдение за каталогом дельт %s", dir)

	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Наблюдение за каталогом дельт остановлено")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isBatchEvent(event) {
				continue
			}
			r.logger.Debug("Изменение в каталоге дельт: %s (%s)", event.Name, event.Op)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("Ошибка наблюдателя: %v", err)

		case <-timer.C:
			r.logger.Info("Обнаружены новые пакеты дельт, запуск конвейера")
			if _, err := r.ExecuteETL(r.config.Months); err != nil {
				r.logger.Error("Ошибка при запуске по изменению дельт: %v", err)
			}
		}
	}
}

// isBatchEvent создание, запись или переименование файла поддерживаемого формата
func isBatchEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, err := formats.FromPath(event.Name)
	return err == nil
}
