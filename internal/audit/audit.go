// Package audit writes the security audit trail: sign-ins, second factors,
// registrations, admin changes and throttled requests. It is a separate
// zap logger so the trail can be shipped and retained apart from the
// application log.
package audit

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Event string

const (
	LoginSuccess       Event = "LOGIN_SUCCESS"
	LoginFailed        Event = "LOGIN_FAILED"
	MFASent            Event = "MFA_SENT"
	MFAVerified        Event = "MFA_VERIFIED"
	MFAFailed          Event = "MFA_FAILED"
	Registration       Event = "REGISTRATION"
	EmailVerified      Event = "EMAIL_VERIFIED"
	AdminLogin         Event = "ADMIN_LOGIN"
	SettingsChanged    Event = "SETTINGS_CHANGED"
	VocabularyCreated  Event = "VOCABULARY_CREATED"
	VocabularyUpdated  Event = "VOCABULARY_UPDATED"
	VocabularyDeleted  Event = "VOCABULARY_DELETED"
	CSVImported        Event = "CSV_IMPORTED"
	InvitationSent     Event = "INVITATION_SENT"
	UserDeleted        Event = "USER_DELETED"
	CacheCleared       Event = "CACHE_CLEARED"
	RateLimited        Event = "RATE_LIMITED"
	SuspiciousActivity Event = "SUSPICIOUS_ACTIVITY"
)

// Entry describes one audited action. Email is masked before it is written.
type Entry struct {
	Event   Event
	Email   string
	UserID  string
	IP      string
	Details string
	Success bool
}

type Logger struct {
	z *zap.Logger
}

// New builds a production JSON logger writing to stderr.
func New() (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return Wrap(z), nil
}

// Wrap uses z for the trail.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{z: z.Named("audit")}
}

// Nop discards everything.
func Nop() *Logger { return Wrap(zap.NewNop()) }

func (l *Logger) Log(e Entry) {
	fields := []zap.Field{
		zap.String("event", string(e.Event)),
		zap.Bool("success", e.Success),
	}
	if e.Email != "" {
		fields = append(fields, zap.String("user", MaskEmail(e.Email)))
	}
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	if e.IP != "" {
		fields = append(fields, zap.String("ip", e.IP))
	}
	if e.Details != "" {
		fields = append(fields, zap.String("details", e.Details))
	}

	if e.Success {
		l.z.Info("audit", fields...)
	} else {
		l.z.Warn("audit", fields...)
	}
}

func (l *Logger) Sync() error { return l.z.Sync() }

// MaskEmail keeps the first and last character of the local part.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "***"
	}
	local, domain := []rune(email[:at]), email[at+1:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + "@" + domain
	}
	return string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1]) + "@" + domain
}
