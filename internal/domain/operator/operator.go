package operator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/kwsearch/internal/domain/fieldpath"
)

// MaxNameLength bounds operator names.
const MaxNameLength = 200

// MaxFieldPathLength bounds each raw field path. The relational store sizes
// its path columns to match.
const MaxFieldPathLength = 512

var nameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]+$`)

// Operator maps a keyword prefix to one or more document field paths (immutable value object).
type Operator struct {
	id              string
	name            string
	fieldPaths      []string
	normalizedPaths []string
	createdAt       int64
	updatedAt       int64
}

// ValidateName checks the operator name format.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("operator name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("operator name too long (max %d)", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("operator name must be alphanumeric and start with a letter")
	}
	return nil
}

// New validates and creates an Operator without identity.
// Normalized paths are derived from fieldPaths; they are never accepted from the caller.
func New(name string, fieldPaths []string) (Operator, error) {
	if err := ValidateName(name); err != nil {
		return Operator{}, err
	}
	if len(fieldPaths) == 0 {
		return Operator{}, fmt.Errorf("at least one field path is required")
	}

	raw := make([]string, 0, len(fieldPaths))
	normalized := make([]string, 0, len(fieldPaths))
	seenRaw := make(map[string]bool, len(fieldPaths))
	seenDot := make(map[string]bool, len(fieldPaths))
	for i, p := range fieldPaths {
		p = strings.TrimSpace(p)
		if len(p) > MaxFieldPathLength {
			return Operator{}, fmt.Errorf("field path %d too long (max %d bytes)", i+1, MaxFieldPathLength)
		}
		if err := fieldpath.Validate(p); err != nil {
			return Operator{}, fmt.Errorf("field path %d: %w", i+1, err)
		}
		if seenRaw[p] {
			return Operator{}, fmt.Errorf("duplicate field path: %s", p)
		}
		seenRaw[p] = true

		dot := fieldpath.ToDotNotation(p)
		if dot == "" {
			return Operator{}, fmt.Errorf("field path %d: %q has no element steps", i+1, p)
		}
		if seenDot[dot] {
			return Operator{}, fmt.Errorf("field paths normalize to the same path: %s", dot)
		}
		seenDot[dot] = true

		raw = append(raw, p)
		normalized = append(normalized, dot)
	}

	now := time.Now().UnixMilli()
	return Operator{
		name:            name,
		fieldPaths:      raw,
		normalizedPaths: normalized,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct creates an Operator without validation (storage hydration).
func Reconstruct(
	id, name string, fieldPaths, normalizedPaths []string,
	createdAt, updatedAt int64,
) Operator {
	return Operator{
		id:              id,
		name:            name,
		fieldPaths:      fieldPaths,
		normalizedPaths: normalizedPaths,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// WithIdentity returns a copy bound to an id and creation time.
// Used when a freshly validated operator replaces a stored one.
func (o Operator) WithIdentity(id string, createdAt int64) Operator {
	o.id = id
	if createdAt > 0 {
		o.createdAt = createdAt
	}
	return o
}

// ID returns the operator id (empty until stored).
func (o Operator) ID() string { return o.id }

// Name returns the keyword prefix.
func (o Operator) Name() string { return o.name }

// FieldPaths returns the raw XPath list.
func (o Operator) FieldPaths() []string { return slices.Clone(o.fieldPaths) }

// NormalizedPaths returns the dot-notation paths, 1:1 with FieldPaths.
func (o Operator) NormalizedPaths() []string { return slices.Clone(o.normalizedPaths) }

// CreatedAt returns the creation time in unix milliseconds.
func (o Operator) CreatedAt() int64 { return o.createdAt }

// UpdatedAt returns the last write time in unix milliseconds.
func (o Operator) UpdatedAt() int64 { return o.updatedAt }

// PathSetKey returns the order-independent identity of the normalized path set.
func (o Operator) PathSetKey() string { return PathSetKey(o.normalizedPaths) }

// PathSetKey hashes a path set: sorted, deduplicated, then sha256.
// Two lists with the same members yield the same key regardless of order.
func PathSetKey(paths []string) string {
	set := slices.Clone(paths)
	slices.Sort(set)
	set = slices.Compact(set)
	sum := sha256.Sum256([]byte(strings.Join(set, "\n")))
	return hex.EncodeToString(sum[:])
}
