// Package query translates raw request query parameters into a structured,
// store-safe specification: filtering, sorting, field projection and
// pagination. Building a Spec never touches the network or the store.
package query

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wildtrails/tours-api/internal/domain"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000
)

// DefaultSortField orders listings newest-first when no sort is requested.
const DefaultSortField = "createdAt"

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Condition is one filter clause: field <op> value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// SortField is one step of the sort tie-break chain.
type SortField struct {
	Field string
	Desc  bool
}

// Spec is the structured form of a request's query parameters. It is built
// fresh per request and never persisted.
type Spec struct {
	Filter []Condition
	Sort   []SortField

	// Fields is the projection list; Exclude flips it from an inclusion
	// list to an exclusion list. Empty means "all fields".
	Fields  []string
	Exclude bool

	Page  int
	Limit int
}

// reserved parameters never become filter conditions.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	paramRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)(?:\[([A-Za-z]+)\])?$`)
)

// Build parses raw query parameters into a Spec. Filter and projection
// problems are validation errors; malformed pagination values fall back to
// defaults so that browsing links stay robust against bad input.
func Build(values url.Values) (*Spec, error) {
	spec := &Spec{
		Page:  positiveInt(values.Get("page"), DefaultPage),
		Limit: positiveInt(values.Get("limit"), DefaultLimit),
	}
	if spec.Limit > MaxLimit {
		spec.Limit = MaxLimit
	}

	// Deterministic condition order regardless of map iteration.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m := paramRe.FindStringSubmatch(key)
		if m == nil {
			return nil, domain.BadRequest("invalid query parameter %q", key)
		}
		field, opName := m[1], m[2]
		if reserved[field] {
			continue
		}
		op := OpEq
		if opName != "" {
			op = Op(opName)
			if _, ok := sqlOps[op]; !ok || op == OpEq {
				return nil, domain.BadRequest("unknown filter operator %q for field %q", opName, field)
			}
		}
		for _, raw := range values[key] {
			spec.Filter = append(spec.Filter, Condition{Field: field, Op: op, Value: parseValue(raw)})
		}
	}

	if err := parseSort(values.Get("sort"), spec); err != nil {
		return nil, err
	}
	if err := parseFields(values.Get("fields"), spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseSort(raw string, spec *Spec) error {
	if strings.TrimSpace(raw) == "" {
		spec.Sort = []SortField{{Field: DefaultSortField, Desc: true}}
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sf := SortField{Field: part}
		if strings.HasPrefix(part, "-") {
			sf = SortField{Field: part[1:], Desc: true}
		}
		if !identRe.MatchString(sf.Field) {
			return domain.BadRequest("invalid sort field %q", sf.Field)
		}
		spec.Sort = append(spec.Sort, sf)
	}
	return nil
}

func parseFields(raw string, spec *Spec) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var include, exclude []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			exclude = append(exclude, part[1:])
		} else {
			include = append(include, part)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return domain.BadRequest("cannot mix inclusion and exclusion in the fields parameter")
	}
	fields := include
	if len(exclude) > 0 {
		fields = exclude
		spec.Exclude = true
	}
	for _, f := range fields {
		if !identRe.MatchString(f) {
			return domain.BadRequest("invalid projection field %q", f)
		}
	}
	spec.Fields = fields
	return nil
}

// Skip is the row offset implied by page and limit.
func (s *Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// Apply attaches the filter, sort chain and pagination window to a GORM
// query. Field names were validated as identifiers at build time and are
// mapped to snake_case columns here; values always travel as placeholders.
func (s *Spec) Apply(db *gorm.DB) *gorm.DB {
	for _, c := range s.Filter {
		db = db.Where(fmt.Sprintf("%s %s ?", ColumnName(c.Field), sqlOps[c.Op]), c.Value)
	}
	for _, sf := range s.Sort {
		dir := "ASC"
		if sf.Desc {
			dir = "DESC"
		}
		db = db.Order(ColumnName(sf.Field) + " " + dir)
	}
	return db.Offset(s.Skip()).Limit(s.Limit)
}

// Project reduces one decoded response object to the requested field set.
// The identifier survives every projection.
func (s *Spec) Project(obj map[string]any) map[string]any {
	if len(s.Fields) == 0 {
		return obj
	}
	if s.Exclude {
		for _, f := range s.Fields {
			if f != "id" {
				delete(obj, f)
			}
		}
		return obj
	}
	out := make(map[string]any, len(s.Fields)+1)
	if id, ok := obj["id"]; ok {
		out["id"] = id
	}
	for _, f := range s.Fields {
		if v, ok := obj[f]; ok {
			out[f] = v
		}
	}
	return out
}

// ColumnName maps a camelCase request field to its snake_case column.
func ColumnName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// positiveInt parses a positive integer, falling back instead of failing.
func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseValue types a raw filter value so comparisons against numeric and
// boolean columns behave as expected.
func parseValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
