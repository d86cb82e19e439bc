package models

import "time"

// IdempotencyKey stores the first completed response for an Idempotency-Key header so a retried
// invoice creation or payment does not allocate a second number or record a second payment.
// It lives in the tenant schema.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex"`
	RequestHash    string     `json:"request_hash" gorm:"size:64"` // sha256 of method|path|body|schema|user
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	TenantSchema   string     `json:"tenant_schema" gorm:"size:64"`
	UserID         string     `json:"user_id" gorm:"size:128"`
	ResponseStatus int        `json:"response_status"` // 0 while the first request is in flight
	ContentType    string     `json:"content_type" gorm:"size:128"`
	ResponseBody   []byte     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}
