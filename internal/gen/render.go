package gen

import (
	"bytes"
	"go/format"
	"strings"
	"text/template"
	"unicode"

	"github.com/cockroachdb/errors"
)

const modelTemplate = `// Code generated by simpledb gen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}

	"github.com/waveofmymind/simple-db/model"
)

// {{.StructName}} is a row of table {{.Table}}.
type {{.StructName}} struct {
{{- range .Fields}}
	{{.Name}} {{.GoType}}{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
}

// {{.StructName}}Shape maps {{.Table}} rows onto {{.StructName}}.
var {{.StructName}}Shape = model.Define("{{.Table}}",
{{- range .Fields}}
	model.{{.Mapper}}("{{.Column}}", func(m *{{$.StructName}}, v {{.GoType}}) { m.{{.Name}} = v }),
{{- end}}
)
`

var tmpl = template.Must(template.New("model").Parse(modelTemplate))

type field struct {
	Name    string
	Column  string
	GoType  string
	Mapper  string
	Comment string
}

type modelData struct {
	Package    string
	Table      string
	StructName string
	Imports    []string
	Fields     []field
}

// Render writes a formatted Go file declaring the record type for table and
// its model shape.
func Render(pkg, table string, cols []Column) ([]byte, error) {
	data := modelData{
		Package:    pkg,
		Table:      table,
		StructName: snakeToCamel(table, true),
	}
	var needTime, needSQL bool
	for _, c := range cols {
		goType, mapper := mapType(c)
		switch goType {
		case "time.Time":
			needTime = true
		case "sql.NullTime":
			needSQL = true
		}
		data.Fields = append(data.Fields, field{
			Name:    snakeToCamel(c.Name, true),
			Column:  c.Name,
			GoType:  goType,
			Mapper:  mapper,
			Comment: strings.Join(strings.Fields(c.Comment), " "),
		})
	}
	if needSQL {
		data.Imports = append(data.Imports, "database/sql")
	}
	if needTime {
		data.Imports = append(data.Imports, "time")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "render %s", table)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "format %s", table)
	}
	return src, nil
}

// mapType picks the Go type and model field constructor for a column.
func mapType(c Column) (goType, mapper string) {
	t := baseType(c.DBType)
	switch {
	case t == "BOOLEAN" || t == "BOOL" || t == "BIT" || strings.HasPrefix(strings.ToUpper(c.DBType), "TINYINT(1)"):
		return "bool", "Bool"
	case strings.Contains(t, "INT") || t == "SERIAL" || t == "BIGSERIAL":
		return "int64", "Int64"
	case t == "DECIMAL" || t == "NUMERIC" || t == "FLOAT" || t == "DOUBLE" || t == "REAL" || t == "DOUBLE PRECISION":
		return "float64", "Float64"
	case t == "DATE" || t == "DATETIME" || strings.HasPrefix(t, "TIMESTAMP"):
		if c.NotNull {
			return "time.Time", "Time"
		}
		return "sql.NullTime", "NullTime"
	case strings.Contains(t, "BLOB") || strings.Contains(t, "BINARY") || t == "BYTEA":
		return "[]byte", "Bytes"
	}
	return "string", "String"
}

// snakeToCamel converts created_date to CreatedDate and keeps camelCase
// names such as createdDate intact apart from the first letter.
func snakeToCamel(s string, upperFirst bool) string {
	parts := strings.Split(s, "_")
	for i := range parts {
		if i == 0 && !upperFirst {
			continue
		}
		if strings.EqualFold(parts[i], "id") {
			parts[i] = "ID"
		} else if len(parts[i]) > 0 {
			runes := []rune(parts[i])
			runes[0] = unicode.ToUpper(runes[0])
			parts[i] = string(runes)
		}
	}
	return strings.Join(parts, "")
}
