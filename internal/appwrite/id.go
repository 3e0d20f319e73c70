package appwrite

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueID returns a new identifier accepted for documents, files and
// accounts: 32 lowercase hex characters.
func UniqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
