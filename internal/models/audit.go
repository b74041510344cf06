package models

import "time"

type AuditKind string

const (
	AuditLoginSucceeded  AuditKind = "login.succeeded"
	AuditLoginFailed     AuditKind = "login.failed"
	AuditLoginThrottled  AuditKind = "login.throttled"
	AuditLogout          AuditKind = "logout"
	AuditPasswordChanged AuditKind = "password.changed"
)

type AuditEvent struct {
	ID         string
	Kind       AuditKind
	UserID     string
	Username   string
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}
