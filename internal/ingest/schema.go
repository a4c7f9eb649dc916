package ingest

import (
	"strconv"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
)

// columnRole is a resolved canonical column: a semantic role bound to a
// physical column index.
type columnRole struct {
	Canonical string
	Physical  string
	Index     int
	Numeric   bool
	Required  bool
	Synthetic bool
}

// schemaResolver binds canonical column roles to physical CSV columns by
// case-insensitive alias matching against the first block's header.
type schemaResolver struct {
	header []string
	roles  map[string]columnRole // canonical name -> binding
}

// resolveSchema matches the configured canonical columns against the header.
// When the id role is unbound and createMissingID is set, a synthetic
// sequential id column is appended to the schema.
func resolveSchema(header []string, cfg config.IngestionConfig) (*schemaResolver, error) {
	r := &schemaResolver{
		header: append([]string(nil), header...),
		roles:  make(map[string]columnRole),
	}

	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, cc := range cfg.CanonicalColumns {
		idx := -1
		for i, h := range lower {
			if matchesAlias(h, cc) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			r.roles[cc.Name] = columnRole{
				Canonical: cc.Name,
				Physical:  header[idx],
				Index:     idx,
				Numeric:   cc.Numeric,
				Required:  cc.Required,
			}
			continue
		}
		if cc.Required {
			return nil, agent.Errorf(agent.KindConfig, "required canonical column %q not found in header", cc.Name)
		}
	}

	if _, ok := r.roles[cfg.IDColumn]; !ok && cfg.CreateMissingID {
		r.header = append(r.header, cfg.IDColumn)
		r.roles[cfg.IDColumn] = columnRole{
			Canonical: cfg.IDColumn,
			Physical:  cfg.IDColumn,
			Index:     len(r.header) - 1,
			Numeric:   true,
			Synthetic: true,
		}
	}

	return r, nil
}

func matchesAlias(lowerHeader string, cc config.CanonicalColumn) bool {
	if lowerHeader == strings.ToLower(cc.Name) {
		return true
	}
	for _, a := range cc.Aliases {
		if lowerHeader == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// validate checks that a subsequent block's header still binds every
// canonical role to the same physical column as the first block.
// The synthesized id is exempt: it never appears in the file.
func (r *schemaResolver) validate(header []string, cfg config.IngestionConfig) error {
	other, err := resolveSchema(header, cfg)
	if err != nil {
		return err
	}
	for name, role := range r.roles {
		if role.Synthetic {
			continue
		}
		got, ok := other.roles[name]
		if !ok || got.Index != role.Index || got.Physical != role.Physical {
			return agent.Errorf(agent.KindSchemaDrift,
				"canonical column %q moved: bound to %q (index %d) on the first block", name, role.Physical, role.Index)
		}
	}
	return nil
}

// mapping returns the canonical -> physical column name mapping.
func (r *schemaResolver) mapping() map[string]string {
	m := make(map[string]string, len(r.roles))
	for name, role := range r.roles {
		m[name] = role.Physical
	}
	return m
}

// role returns the binding for a canonical name.
func (r *schemaResolver) role(name string) (columnRole, bool) {
	role, ok := r.roles[name]
	return role, ok
}

// coerceNumerics parses declared-numeric canonical columns in place.
// Non-parseable cells become nulls (empty strings).
func (r *schemaResolver) coerceNumerics(rows [][]string) {
	for _, role := range r.roles {
		if !role.Numeric || role.Synthetic {
			continue
		}
		for _, row := range rows {
			if role.Index >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[role.Index])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64); err != nil {
				row[role.Index] = ""
			} else {
				row[role.Index] = strings.ReplaceAll(cell, ",", ".")
			}
		}
	}
}
