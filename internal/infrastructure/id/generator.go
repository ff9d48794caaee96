package id

import (
	"strings"

	"github.com/google/uuid"
)

const suffixLen = 16

// Generator mints prefixed entity ids (cus_…, pay_…) with a
// collision-resistant random suffix.
type Generator struct{}

func NewGenerator() Generator { return Generator{} }

func (Generator) NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:suffixLen]
}
