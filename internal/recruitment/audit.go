package recruitment

import (
	"context"
	"iter"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Audited values are stored in a canonical string form so that replaying history
// reproduces a record's snapshot exactly. "" means unset and is omitted from snapshots.

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtBool(b bool) string {
	return strconv.FormatBool(b)
}

func fmtID(id *uuid.UUID) string {
	if id == nil || *id == uuid.Nil {
		return ""
	}
	return id.String()
}

func fmtInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func putDetails(m map[string]string, d types.PersonalDetails) {
	m["name"] = d.Name
	m["mobile"] = d.Mobile
	m["portfolio"] = d.Portfolio
	m["resume_ref"] = d.ResumeRef
	m["profile_image_ref"] = d.ProfileImageRef
	m["address"] = d.Address
	m["country"] = d.Country
	m["state"] = d.State
	m["city"] = d.City
	m["zip"] = d.Zip
	m["dob"] = fmtDate(d.DOB)
	m["gender"] = string(d.Gender)
	m["source"] = string(d.Source)
	m["referral_id"] = fmtID(d.ReferralID)
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}

// SnapshotCandidate returns the audited fields of a profile in canonical form.
func SnapshotCandidate(c *types.Candidate) map[string]string {
	if c == nil {
		return map[string]string{}
	}
	m := map[string]string{
		"email":                 c.Email,
		"converted":             fmtBool(c.Converted),
		"converted_employee_id": fmtID(c.ConvertedEmployeeID),
		"archived":              fmtBool(c.Archived),
	}
	putDetails(m, c.PersonalDetails)
	return compact(m)
}

// SnapshotApplication returns the audited fields of an application in canonical form.
// Sequence and version are bookkeeping and are not audited.
func SnapshotApplication(a *types.Application) map[string]string {
	if a == nil {
		return map[string]string{}
	}
	flat := types.Flatten(a.Staffing)
	m := map[string]string{
		"email":                 a.Email,
		"recruitment_id":        a.RecruitmentID.String(),
		"job_position_id":       fmtID(a.JobPositionID),
		"employee_mode":         string(flat.Mode),
		"client_company_id":     fmtID(flat.ClientCompanyID),
		"staffing_agency_id":    fmtID(flat.StaffingAgencyID),
		"billing_rate_cents":    fmtInt(flat.BillingRateCents),
		"pay_rate_cents":        fmtInt(flat.PayRateCents),
		"contract_start":        fmtDate(flat.ContractStart),
		"contract_end":          fmtDate(flat.ContractEnd),
		"stage_id":              a.StageID.String(),
		"schedule_date":         fmtTime(a.ScheduleDate),
		"hired":                 fmtBool(a.Hired),
		"canceled":              fmtBool(a.Canceled),
		"start_onboard":         fmtBool(a.StartOnboard),
		"cancel_reason":         a.CancelReason,
		"offer_letter_status":   string(a.OfferLetterStatus),
		"joining_date":          fmtDate(a.JoiningDate),
		"probation_end":         fmtDate(a.ProbationEnd),
		"hired_date":            fmtTime(a.HiredDate),
		"converted_employee_id": fmtID(a.ConvertedEmployeeID),
		"archived":              fmtBool(a.Archived),
	}
	putDetails(m, a.PersonalDetails)
	return compact(m)
}

// Diff lists the fields whose canonical value differs, sorted by field name.
func Diff(before, after map[string]string) []types.FieldChange {
	var changes []types.FieldChange
	for k, v := range after {
		if before[k] != v {
			changes = append(changes, types.FieldChange{Field: k, Old: before[k], New: v})
		}
	}
	for k, v := range before {
		if _, ok := after[k]; !ok {
			changes = append(changes, types.FieldChange{Field: k, Old: v})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// Replay folds entries in order into the field values they describe. The result equals
// the snapshot of the record the entries were written for.
func Replay(entries []types.AuditEntry) map[string]string {
	state := map[string]string{}
	for _, e := range entries {
		for _, ch := range e.Changes {
			if ch.New == "" {
				delete(state, ch.Field)
				continue
			}
			state[ch.Field] = ch.New
		}
	}
	return state
}

// History returns the audit trail of an entity ordered by seq. Pages are fetched
// lazily as the caller ranges; every range starts again from the first entry. An entity
// that does not exist yields *ErrNotFound.
func (s *Service) History(ctx context.Context, entityType types.EntityType, entityID uuid.UUID) iter.Seq2[types.AuditEntry, error] {
	return func(yield func(types.AuditEntry, error) bool) {
		var after int64
		for {
			page, err := s.store.AuditPage(ctx, entityType, entityID, after, s.pageSize)
			if err == nil && after == 0 && len(page) == 0 {
				err = s.checkEntity(ctx, entityType, entityID)
			}
			if err != nil {
				yield(types.AuditEntry{}, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
				after = e.Seq
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}

// checkEntity reports whether an entity without history exists at all.
func (s *Service) checkEntity(ctx context.Context, entityType types.EntityType, entityID uuid.UUID) error {
	var err error
	switch entityType {
	case types.EntityCandidate:
		_, err = s.loadCandidate(ctx, entityID)
	case types.EntityApplication:
		_, err = s.loadApplication(ctx, entityID)
	default:
		err = notFound(string(entityType), entityID)
	}
	return err
}

// CollectHistory drains History into a slice.
func (s *Service) CollectHistory(ctx context.Context, entityType types.EntityType, entityID uuid.UUID) ([]types.AuditEntry, error) {
	var entries []types.AuditEntry
	for e, err := range s.History(ctx, entityType, entityID) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
