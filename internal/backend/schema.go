package backend

import (
	"fmt"
	"strings"
)

// tableDef is what the backend needs to know about a table to build
// generic inserts and upserts: column order and the primary key.
type tableDef struct {
	name string
	cols []string
	pk   []string
}

type schemaDef struct {
	tables map[string]tableDef
}

// parseSchema pulls table definitions out of the bundled DDL. It only
// understands the CREATE TABLE shapes the schema actually uses; views and
// anything else are skipped.
func parseSchema(ddl string) (*schemaDef, error) {
	s := &schemaDef{tables: make(map[string]tableDef)}
	rest := ddl
	for {
		idx := indexFold(rest, "CREATE TABLE")
		if idx < 0 {
			break
		}
		rest = rest[idx+len("CREATE TABLE"):]

		open := strings.Index(rest, "(")
		if open < 0 {
			return nil, fmt.Errorf("schema: CREATE TABLE without column list")
		}
		name := strings.ToLower(strings.TrimSpace(rest[:open]))
		if name == "" {
			return nil, fmt.Errorf("schema: CREATE TABLE without a name")
		}

		body, end, err := matchParen(rest[open:])
		if err != nil {
			return nil, fmt.Errorf("schema: table %s: %w", name, err)
		}
		rest = rest[open+end:]

		def := tableDef{name: name}
		for _, item := range splitTop(body) {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			upper := strings.ToUpper(item)
			if strings.HasPrefix(upper, "PRIMARY KEY") {
				open := strings.Index(item, "(")
				if open < 0 {
					return nil, fmt.Errorf("schema: table %s: PRIMARY KEY without column list", name)
				}
				inner, _, err := matchParen(item[open:])
				if err != nil {
					return nil, fmt.Errorf("schema: table %s: %w", name, err)
				}
				for _, c := range strings.Split(inner, ",") {
					def.pk = append(def.pk, strings.ToLower(strings.TrimSpace(c)))
				}
				continue
			}
			col := strings.ToLower(strings.Fields(item)[0])
			def.cols = append(def.cols, col)
			if strings.Contains(upper, "PRIMARY KEY") {
				def.pk = append(def.pk, col)
			}
		}
		s.tables[name] = def
	}
	if len(s.tables) == 0 {
		return nil, fmt.Errorf("schema: no tables found")
	}
	return s, nil
}

func (s *schemaDef) table(name string) (tableDef, error) {
	def, ok := s.tables[strings.ToLower(name)]
	if !ok {
		return tableDef{}, fmt.Errorf("schema: unknown table %q", name)
	}
	return def, nil
}

func (d tableDef) isKey(col string) bool {
	for _, k := range d.pk {
		if k == col {
			return true
		}
	}
	return false
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToUpper(s), strings.ToUpper(substr))
}

// matchParen returns the content of the parenthesized group that s starts
// with, plus the offset just past the closing paren.
func matchParen(s string) (string, int, error) {
	if len(s) == 0 || s[0] != '(' {
		return "", 0, fmt.Errorf("expected parenthesized list")
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], i + 1, nil
			}
		}
	}
	return "", 0, fmt.Errorf("unbalanced parentheses")
}

// splitTop splits on commas that are not nested inside parentheses.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
