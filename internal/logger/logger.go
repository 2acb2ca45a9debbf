package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/Lutefd/log-pipeline/internal/repository"
)

var (
	InfoLogger       *log.Logger
	WarnLogger       *log.Logger
	ErrorLogger      *log.Logger
	alertChan        chan model.Alert
	alertsDone       chan struct{}
	alertRepo        repository.AlertRepository
	loggerBufferSize = 1000
	SaveTimeout      = 5 * time.Second
)

func init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// InitLogger starts persisting emitted alerts to repo. Without it, alerts are
// only printed.
func InitLogger(repo repository.AlertRepository) {
	alertRepo = repo
	alertChan = make(chan model.Alert, loggerBufferSize)
	alertsDone = make(chan struct{})
	go processAlerts(repo, alertChan, alertsDone)
}

func processAlerts(repo repository.AlertRepository, alerts <-chan model.Alert, done chan<- struct{}) {
	defer close(done)
	for alert := range alerts {
		ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
		if err := repo.SaveAlert(ctx, alert); err != nil {
			ErrorLogger.Printf("failed to save alert: %v", err)
		}
		cancel()
	}
}

func Emit(alert model.Alert) {
	line := fmt.Sprintf("[%s] %s: %s", alert.Kind, alert.Service, alert.Message)
	switch alert.Level {
	case model.LogLevelError:
		ErrorLogger.Output(2, line)
	case model.LogLevelWarn:
		WarnLogger.Output(2, line)
	default:
		InfoLogger.Output(2, line)
	}

	if alertRepo == nil {
		return
	}
	select {
	case alertChan <- alert:
	default:
		ErrorLogger.Printf("alert channel full. Dropping alert: %v", alert.ID)
	}
}

func Info(v ...interface{}) {
	InfoLogger.Output(2, fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	InfoLogger.Output(2, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	WarnLogger.Output(2, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	ErrorLogger.Output(2, fmt.Sprintf(format, v...))
}

// Shutdown stops accepting alerts, waits for pending ones to be saved and
// closes the repository.
func Shutdown(ctx context.Context) error {
	if alertRepo == nil {
		return nil
	}
	repo := alertRepo
	alertRepo = nil
	close(alertChan)

	select {
	case <-alertsDone:
		return repo.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
