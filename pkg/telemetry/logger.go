package telemetry

import (
	"os"

	"github.com/sirupsen/logrus"
)

// serviceHook adiciona o nome do serviço em todas as entradas de log
type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}

// InitLogger configura o logger global do logrus em JSON
func InitLogger(serviceName, level string) {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.AddHook(serviceHook{service: serviceName})
}
