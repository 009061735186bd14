package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit actions recorded by services and the audit middleware.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionTokenRefresh   = "TOKEN_REFRESH"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionUserCreate     = "USER_CREATE"

	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"

	AuditActionIPCRFSubmit  = "IPCRF_SUBMIT"
	AuditActionIPCRFApprove = "IPCRF_APPROVE"
	AuditActionIPCRFRerate  = "IPCRF_RERATE"

	AuditActionPromotionApprove = "PROMOTION_APPROVE"
	AuditActionPromotionReject  = "PROMOTION_REJECT"

	AuditActionMOVUpload = "MOV_UPLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  JSONB     `db:"old_values" json:"old_values,omitempty" swaggertype:"object"`
	NewValues  JSONB     `db:"new_values" json:"new_values,omitempty" swaggertype:"object"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditLogFilter narrows audit log listings.
type AuditLogFilter struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// JSONB is a raw JSON column that renders inline in API responses.
type JSONB []byte

// Value implements driver.Valuer; empty values are stored as NULL.
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONB", value)
	}
	return nil
}

// MarshalJSON emits the stored document as is.
func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// MustJSONB marshals v, returning nil on failure. Used for audit payloads.
func MustJSONB(v interface{}) JSONB {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return JSONB(data)
}
