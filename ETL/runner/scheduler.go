package runner

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// StartScheduler запускает планировщик для регулярного выполнения конвейера.
// Первый запуск выполняется сразу при старте.
// Блокируется до отмены ctx.
func (r *ETLRunner) StartScheduler(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	r.logger.Info("Запуск планировщика с интервалом %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).Do(func() {
		r.logger.Info("Запланированный запуск конвейера")
		if _, err := r.ExecuteETL(r.config.Months); err != nil {
			r.logger.Error("Ошибка при выполнении запланированного запуска: %v", err)
		}
	})
	if err != nil {
		r.logger.Error("Ошибка при настройке планировщика: %v", err)
		return err
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик
	scheduler.Stop()
	r.logger.Info("Планировщик остановлен")
	return nil
}
