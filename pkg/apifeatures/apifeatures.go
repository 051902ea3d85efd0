// Package apifeatures turns list-endpoint query strings into gorm queries.
//
// Stages run in a fixed order: Filter, Sort, LimitFields, Paginate. Each stage
// mutates the builder and returns it so calls chain; the query only runs when
// the caller executes Query().
//
// Query keys use the JSON names of the model. Keys that do not name a
// serialised column are ignored, so clients cannot reach internal columns.
package apifeatures

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"trip/pkg/utils"
)

const (
	DefaultPage  = 1
	DefaultLimit = 40
	DefaultSort  = "-createdAt"
)

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var operatorKey = regexp.MustCompile(`^(\w+)\[(gte|gt|lte|lt)\]$`)

var uuidType = reflect.TypeOf(uuid.UUID{})

type APIFeatures struct {
	query       *gorm.DB
	queryString url.Values
	columns     map[string]*schema.Field
	fields      []string
	maxLimit    int

	// Err holds the first value that could not be cast to its column type.
	Err error
}

// New prepares a builder for model, which must be a pointer to a gorm model.
func New(query *gorm.DB, model any, queryString url.Values) *APIFeatures {
	f := &APIFeatures{query: query, queryString: queryString, columns: map[string]*schema.Field{}}

	stmt := &gorm.Statement{DB: query}
	if err := stmt.Parse(model); err != nil {
		f.Err = err
		return f
	}
	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" || !field.Readable {
			continue
		}
		name := jsonName(field)
		if name == "" {
			continue
		}
		f.columns[name] = field
	}
	return f
}

// WithMaxLimit caps the page size; 0 leaves it unbounded.
func (f *APIFeatures) WithMaxLimit(n int) *APIFeatures {
	f.maxLimit = n
	return f
}

// Filter turns field=value into equality, repeated keys into IN, and
// field[gte|gt|lte|lt]=value into comparisons.
func (f *APIFeatures) Filter() *APIFeatures {
	for key, values := range f.queryString {
		if reserved[key] || len(values) == 0 {
			continue
		}

		name, op := key, ""
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			name, op = m[1], m[2]
		}

		field, ok := f.columns[name]
		if !ok || !filterable(field) {
			continue
		}

		cast := make([]any, 0, len(values))
		for _, raw := range values {
			v, err := castValue(field, raw)
			if err != nil {
				f.fail(&utils.CastError{Field: name, Value: raw, Err: err})
				return f
			}
			cast = append(cast, v)
		}

		col := clause.Column{Table: clause.CurrentTable, Name: field.DBName}
		switch op {
		case "gte":
			f.query = f.query.Where(clause.Gte{Column: col, Value: cast[0]})
		case "gt":
			f.query = f.query.Where(clause.Gt{Column: col, Value: cast[0]})
		case "lte":
			f.query = f.query.Where(clause.Lte{Column: col, Value: cast[0]})
		case "lt":
			f.query = f.query.Where(clause.Lt{Column: col, Value: cast[0]})
		default:
			if len(cast) == 1 {
				f.query = f.query.Where(clause.Eq{Column: col, Value: cast[0]})
			} else {
				f.query = f.query.Where(clause.IN{Column: col, Values: cast})
			}
		}
	}
	return f
}

// Sort applies sort=a,-b. Without it, newest first when the model has createdAt.
func (f *APIFeatures) Sort() *APIFeatures {
	spec := f.queryString.Get("sort")
	if spec == "" {
		if _, ok := f.columns[strings.TrimPrefix(DefaultSort, "-")]; !ok {
			return f
		}
		spec = DefaultSort
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field, ok := f.columns[strings.TrimPrefix(part, "-")]
		if !ok {
			continue
		}
		f.query = f.query.Order(clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: field.DBName},
			Desc:   desc,
		})
	}
	return f
}

// LimitFields selects only fields=a,b (plus id). Fields() reports the selection
// so callers can project the response.
func (f *APIFeatures) LimitFields() *APIFeatures {
	spec := f.queryString.Get("fields")
	if spec == "" {
		return f
	}

	selected := []string{"id"}
	dbNames := []string{"id"}
	for _, part := range strings.Split(spec, ",") {
		name := strings.TrimSpace(part)
		field, ok := f.columns[name]
		if !ok || name == "id" {
			continue
		}
		selected = append(selected, name)
		dbNames = append(dbNames, field.DBName)
	}

	f.fields = selected
	f.query = f.query.Select(dbNames)
	return f
}

// Paginate reads page and limit; missing, non-numeric or non-positive values use the defaults.
func (f *APIFeatures) Paginate() *APIFeatures {
	page := positiveInt(f.queryString.Get("page"), DefaultPage)
	limit := positiveInt(f.queryString.Get("limit"), DefaultLimit)
	if f.maxLimit > 0 && limit > f.maxLimit {
		limit = f.maxLimit
	}

	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}
	f.query = f.query.Offset(offset).Limit(limit)
	return f
}

func (f *APIFeatures) Query() *gorm.DB { return f.query }

// Fields returns the JSON names picked by LimitFields, or nil for all fields.
func (f *APIFeatures) Fields() []string { return f.fields }

func (f *APIFeatures) fail(err error) {
	if f.Err == nil {
		f.Err = err
	}
}

// Project reduces each item to the given JSON fields.
func Project[T any](items []T, fields []string) ([]map[string]any, error) {
	keep := make(map[string]bool, len(fields))
	for _, name := range fields {
		keep[name] = true
	}

	out := make([]map[string]any, 0, len(items))
	for i := range items {
		raw, err := json.Marshal(items[i])
		if err != nil {
			return nil, err
		}
		var full map[string]any
		if err := json.Unmarshal(raw, &full); err != nil {
			return nil, err
		}
		for k := range full {
			if !keep[k] {
				delete(full, k)
			}
		}
		out = append(out, full)
	}
	return out, nil
}

func jsonName(field *schema.Field) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

// filterable excludes JSON and other composite columns.
func filterable(field *schema.Field) bool {
	if field.IndirectFieldType == uuidType || field.DataType == schema.Time {
		return true
	}
	switch field.IndirectFieldType.Kind() {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func castValue(field *schema.Field, raw string) (any, error) {
	if field.IndirectFieldType == uuidType {
		return uuid.Parse(raw)
	}
	if field.DataType == schema.Time {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("cannot parse %q as a date", raw)
	}

	switch field.IndirectFieldType.Kind() {
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(raw, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(raw, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(raw, 64)
	}
	return raw, nil
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
