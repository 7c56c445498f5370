package query

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Match reports whether the application satisfies every predicate.
func Match(preds []Predicate, app *types.Application) bool {
	for _, p := range preds {
		if !matchOne(p, app) {
			return false
		}
	}
	return true
}

func matchOne(p Predicate, app *types.Application) bool {
	flat := types.Flatten(app.Staffing)

	switch p.Field {
	case FieldEmployeeMode:
		return string(flat.Mode) == p.Value
	case FieldClientCompany:
		return uuidEq(flat.ClientCompanyID, p.Value)
	case FieldStaffingAgency:
		return uuidEq(flat.StaffingAgencyID, p.Value)
	case FieldContractStart:
		return timeCmp(flat.ContractStart, p)
	case FieldContractEnd:
		return timeCmp(flat.ContractEnd, p)
	case FieldStage:
		id, ok := p.Value.(uuid.UUID)
		return ok && app.StageID == id
	case FieldHired:
		return app.Hired == p.Value
	case FieldCanceled:
		return app.Canceled == p.Value
	case FieldSource:
		return string(app.Source) == p.Value
	case FieldEmail:
		needle, _ := p.Value.(string)
		return strings.Contains(strings.ToLower(app.Email), needle)
	default:
		return false
	}
}

func uuidEq(have *uuid.UUID, want any) bool {
	id, ok := want.(uuid.UUID)
	return ok && have != nil && *have == id
}

// timeCmp compares dates at day granularity. A missing value never matches a range.
func timeCmp(have *time.Time, p Predicate) bool {
	bound, ok := p.Value.(time.Time)
	if !ok || have == nil {
		return false
	}
	h := have.UTC().Format(time.DateOnly)
	b := bound.UTC().Format(time.DateOnly)
	switch p.Op {
	case OpGte:
		return h >= b
	case OpLte:
		return h <= b
	case OpEq:
		return h == b
	default:
		return false
	}
}
