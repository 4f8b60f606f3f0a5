package sql

import (
	"fmt"
	"strings"

	"github.com/nickyhof/StructDB/core"
)

// CreateTable compiles a descriptor into the statements that create its
// table: any dialect setup (sequences) followed by CREATE TABLE. Columns are
// sequenced identity first, scalars in declaration order, reference columns
// with their constraints last.
func CreateTable(t *core.Table, d Dialect) []string {
	id := t.Identity()
	idDef, stmts := d.IdentityColumn(t.Name, id.Name)

	defs := []string{idDef}
	for _, c := range t.Columns {
		if c.PrimaryKey || c.Kind == core.RefKind {
			continue
		}
		defs = append(defs, columnDef(c, d))
	}

	var constraints []string
	for _, c := range t.Refs() {
		defs = append(defs, columnDef(c, d))
		constraints = append(constraints, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			d.Quote(c.Name), d.Quote(c.RefTable), d.Quote(c.RefColumn)))
	}
	defs = append(defs, constraints...)

	create := fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(t.Name), strings.Join(defs, ", "))
	return append(stmts, create)
}

func columnDef(c core.Column, d Dialect) string {
	def := d.Quote(c.Name) + " " + d.TypeName(c.Kind)
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def
}

// DropTable compiles the DROP TABLE statement. Without ifExists, dropping a
// missing table is a schema error surfaced by the executing backend.
func DropTable(t *core.Table, d Dialect, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + d.Quote(t.Name)
	}
	return "DROP TABLE " + d.Quote(t.Name)
}
