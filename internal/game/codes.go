package game

import (
	"crypto/rand"
	"strings"
)

const (
	codeLength      = 6
	maxCodeAttempts = 16
)

// CodeGenerator produces candidate room codes. Uniqueness is checked by the
// Registry, not by the generator.
type CodeGenerator interface {
	Generate() string
}

type CodeGeneratorFunc func() string

func (f CodeGeneratorFunc) Generate() string { return f() }

// RandomCodes draws 6 characters from the base32 alphabet (A-Z, 2-7).
func RandomCodes() CodeGenerator {
	return CodeGeneratorFunc(func() string {
		return rand.Text()[:codeLength]
	})
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
