package server

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type AuditLogEntry struct {
	Timestamp   time.Time     `json:"timestamp"`
	Handler     string        `json:"handler"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	StatusCode  int           `json:"status_code"`
	User        string        `json:"user,omitempty"`
	ContainerID string        `json:"container_id,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

func (e AuditLogEntry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddTime("timestamp", e.Timestamp)
	enc.AddString("handler", e.Handler)
	enc.AddString("method", e.Method)
	enc.AddString("path", e.Path)
	enc.AddInt("status_code", e.StatusCode)
	if e.User != "" {
		enc.AddString("user", e.User)
	}
	if e.ContainerID != "" {
		enc.AddString("container_id", e.ContainerID)
	}
	enc.AddDuration("duration", e.Duration)
	if e.Error != "" {
		enc.AddString("error", e.Error)
	}
	return nil
}

func (e AuditLogEntry) field() zap.Field {
	return zap.Object("entry", e)
}
