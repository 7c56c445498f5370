package recruitment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// CreateProfile creates a candidate profile. Email is unique across all profiles,
// archived or not, compared case-insensitively.
func (s *Service) CreateProfile(ctx context.Context, actor types.Actor, req types.CreateProfileRequest) (*types.Candidate, error) {
	c, entry, err := s.newProfile(actor, req)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetCandidateByEmail(ctx, c.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if existing != nil {
		return nil, &ErrDuplicateProfile{Email: c.Email}
	}
	if err := s.store.InsertCandidate(ctx, c, entry); err != nil {
		return nil, err
	}
	return c, nil
}

// newProfile validates req and builds the profile with its create entry.
func (s *Service) newProfile(actor types.Actor, req types.CreateProfileRequest) (*types.Candidate, *types.AuditEntry, error) {
	if err := types.Validate(req); err != nil {
		return nil, nil, validationError(err)
	}
	if err := validateDetails(req.Details); err != nil {
		return nil, nil, err
	}
	now := s.clock()
	c := &types.Candidate{
		ID:              uuid.New(),
		Email:           normalizeEmail(req.Email),
		PersonalDetails: req.Details,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return c, s.newEntry(types.EntityCandidate, c.ID, actor, types.ActionCreate, nil, SnapshotCandidate(c)), nil
}

// GetProfile returns a profile by id.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	return s.loadCandidate(ctx, id)
}

// GetProfileByEmail returns a profile by email.
func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*types.Candidate, error) {
	email = normalizeEmail(email)
	c, err := s.store.GetCandidateByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &ErrNotFound{Entity: "candidate", ID: email}
	}
	return c, nil
}

// UpdateProfile patches a profile. The email is immutable; applications keep their own
// snapshot and are never touched.
func (s *Service) UpdateProfile(ctx context.Context, actor types.Actor, id uuid.UUID, patch types.ProfilePatch) (*types.Candidate, error) {
	if err := types.Validate(patch); err != nil {
		return nil, validationError(err)
	}
	c, err := s.loadCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil && normalizeEmail(*patch.Email) != c.Email {
		return nil, &ErrValidation{Field: "email", Message: "profile email cannot be changed"}
	}

	next := *c
	applyDetails(&next.PersonalDetails, patch)
	if err := validateDetails(next.PersonalDetails); err != nil {
		return nil, err
	}
	return s.commitCandidate(ctx, actor, c, &next, types.ActionUpdate)
}

// ArchiveProfile soft-deletes a profile. Profiles are never hard-deleted.
func (s *Service) ArchiveProfile(ctx context.Context, actor types.Actor, id uuid.UUID) (*types.Candidate, error) {
	c, err := s.loadCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *c
	next.Archived = true
	return s.commitCandidate(ctx, actor, c, &next, types.ActionArchive)
}

// commitCandidate writes next over prev with one audit entry. Unchanged writes are no-ops.
func (s *Service) commitCandidate(ctx context.Context, actor types.Actor, prev, next *types.Candidate, action types.AuditAction) (*types.Candidate, error) {
	entry := s.newEntry(types.EntityCandidate, prev.ID, actor, action, SnapshotCandidate(prev), SnapshotCandidate(next))
	if len(entry.Changes) == 0 {
		return prev, nil
	}
	next.Version = prev.Version + 1
	next.UpdatedAt = entry.CreatedAt
	if err := s.store.UpdateCandidate(ctx, CandidateWrite{Candidate: next, ExpectedVersion: prev.Version, Entry: entry}); err != nil {
		return nil, err
	}
	return next, nil
}

func validateDetails(d types.PersonalDetails) error {
	if !d.Source.Valid() {
		return &ErrValidation{Field: "source", Message: fmt.Sprintf("unknown source %q", d.Source)}
	}
	switch d.Gender {
	case "", types.GenderMale, types.GenderFemale, types.GenderOther:
	default:
		return &ErrValidation{Field: "gender", Message: fmt.Sprintf("unknown gender %q", d.Gender)}
	}
	return nil
}

// applyDetails copies the set fields of a patch onto personal details.
func applyDetails(d *types.PersonalDetails, p types.ProfilePatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&d.Name, p.Name)
	setString(&d.Mobile, p.Mobile)
	setString(&d.Portfolio, p.Portfolio)
	setString(&d.ResumeRef, p.ResumeRef)
	setString(&d.ProfileImageRef, p.ProfileImageRef)
	setString(&d.Address, p.Address)
	setString(&d.Country, p.Country)
	setString(&d.State, p.State)
	setString(&d.City, p.City)
	setString(&d.Zip, p.Zip)
	if p.DOB != nil {
		dob := *p.DOB
		d.DOB = &dob
	}
	if p.Gender != nil {
		d.Gender = *p.Gender
	}
	if p.Source != nil {
		d.Source = *p.Source
	}
	if p.ReferralID != nil {
		ref := *p.ReferralID
		d.ReferralID = &ref
	}
}
