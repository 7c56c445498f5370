package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/talent-pipeline/internal/query"
)

// predicateColumns maps filterable fields to column expressions.
var predicateColumns = map[query.Field]string{
	query.FieldEmployeeMode:   "employee_mode",
	query.FieldClientCompany:  "client_company_id",
	query.FieldStaffingAgency: "staffing_agency_id",
	query.FieldContractStart:  "contract_start",
	query.FieldContractEnd:    "contract_end",
	query.FieldStage:          "stage_id",
	query.FieldHired:          "hired",
	query.FieldCanceled:       "canceled",
	query.FieldSource:         "source",
	query.FieldEmail:          "lower(email)",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// appendPredicates renders predicates as " AND ..." clauses numbered after the existing args.
func appendPredicates(sql string, args []any, preds []query.Predicate) (string, []any, error) {
	var b strings.Builder
	b.WriteString(sql)

	for _, p := range preds {
		col, ok := predicateColumns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", p.Field)
		}
		value := p.Value
		if t, isTime := value.(time.Time); isTime {
			value = t.UTC()
		}
		argNum := len(args) + 1

		switch p.Op {
		case query.OpEq:
			fmt.Fprintf(&b, " AND %s = $%d", col, argNum)
		case query.OpGte:
			fmt.Fprintf(&b, " AND %s >= $%d", col, argNum)
		case query.OpLte:
			fmt.Fprintf(&b, " AND %s <= $%d", col, argNum)
		case query.OpContains:
			s, isString := value.(string)
			if !isString {
				return "", nil, fmt.Errorf("contains filter on %q needs a string", p.Field)
			}
			fmt.Fprintf(&b, ` AND %s LIKE $%d ESCAPE '\'`, col, argNum)
			value = "%" + likeEscaper.Replace(s) + "%"
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", p.Op)
		}
		args = append(args, value)
	}
	return b.String(), args, nil
}
