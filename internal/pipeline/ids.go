// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRunID generates a run identifier of the form
// <prefix>-YYYYMMDD-xxxxxxxx, e.g. "mlip-20260829-9f2c41aa". The date
// keeps identifiers human-sortable; the random fragment makes them
// collision-free across concurrent runs sharing a store.
func NewRunID(prefix string) string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, date, suffix)
}
