package util

import (
	"strings"

	"github.com/google/uuid"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func GenerateUUID() uuid.UUID {
	return uuid.New()
}
