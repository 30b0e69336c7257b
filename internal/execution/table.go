package execution

import "github.com/aws/aws-sdk-go-v2/service/athena/types"

// Table is a materialized result set: an ordered column list plus one
// column-name-to-value mapping per data row. Nil cell values are engine
// nulls and stay nil so JSON renders them as null.
type Table struct {
	Columns []string             `json:"columns"`
	Rows    []map[string]*string `json:"rows"`
}

// Materialize converts Athena's row-list wire shape into a Table. The first
// row is the header; cells pair with header names by position. No rows at
// all yields an empty table rather than an error.
func Materialize(rows []types.Row) Table {
	table := Table{Columns: []string{}, Rows: []map[string]*string{}}
	if len(rows) == 0 {
		return table
	}

	for _, cell := range rows[0].Data {
		name := ""
		if cell.VarCharValue != nil {
			name = *cell.VarCharValue
		}
		table.Columns = append(table.Columns, name)
	}

	for _, row := range rows[1:] {
		mapped := make(map[string]*string, len(table.Columns))
		for i, name := range table.Columns {
			if i < len(row.Data) {
				mapped[name] = row.Data[i].VarCharValue
			} else {
				mapped[name] = nil
			}
		}
		table.Rows = append(table.Rows, mapped)
	}
	return table
}
