package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record is the shape persisted in the idempotency DynamoDB table.
type Record struct {
	Key            string    `dynamodbav:"idempotency_key"` // PK, scoped by caller and operation
	Status         string    `dynamodbav:"status"`
	Operation      string    `dynamodbav:"operation"`
	RequestHash    string    `dynamodbav:"request_hash"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"` // small JSON responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// ScopedKey namespaces a client key by caller and operation so two customers
// reusing the same header value never see each other's responses.
func ScopedKey(callerID, operation, key string) string {
	return callerID + "#" + operation + "#" + key
}

// Fingerprint identifies a request payload.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
