package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

type logFormatter struct {
	logrus.TextFormatter
}

func (f *logFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	prettyCaller := func(frame *runtime.Frame) string {
		_, fileName := filepath.Split(frame.File)
		return fmt.Sprintf("%s:%d", fileName, frame.Line)
	}

	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}
	b.WriteString(fmt.Sprintf("[%s] %s", entry.Time.Format(f.TimestampFormat), strings.ToUpper(entry.Level.String())))
	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf("[%s]", prettyCaller(entry.Caller)))
	}
	b.WriteString(fmt.Sprintf(" %s", entry.Message))
	for k, v := range entry.Data {
		b.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}
	b.WriteString("\n")

	return b.Bytes(), nil
}

func InitLogger() {
	logrus.SetReportCaller(true)
	logrus.SetFormatter(&logFormatter{logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05"}})
	if LoadAppConfig().Env != "production" {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
