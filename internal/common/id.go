package common

import (
	"github.com/google/uuid"
)

// NewID generates a unique entity ID
func NewID() string {
	return uuid.New().String()
}

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}
