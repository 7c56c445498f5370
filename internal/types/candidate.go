// Package types provides the domain types shared by the recruitment core, its storage engines and the HTTP layer.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Source describes how a candidate entered the recruitment funnel.
type Source string

// Source values
const (
	SourceApplication Source = "application"
	SourceSoftware    Source = "software"
	SourceReferral    Source = "referral"
	SourceLinkedIn    Source = "linkedin"
	SourceWebsite     Source = "website"
	SourceOther       Source = "other"
)

// Valid reports whether s is a known source. The empty source is valid (unknown).
func (s Source) Valid() bool {
	switch s {
	case "", SourceApplication, SourceSoftware, SourceReferral, SourceLinkedIn, SourceWebsite, SourceOther:
		return true
	default:
		return false
	}
}

// Gender values accepted on profiles and applications.
type Gender string

// Gender values
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// PersonalDetails holds the person-level data a profile owns and an application snapshots.
type PersonalDetails struct {
	Name            string     `json:"name"`
	Mobile          string     `json:"mobile,omitempty"`
	Portfolio       string     `json:"portfolio,omitempty"`
	ResumeRef       string     `json:"resume_ref,omitempty"`
	ProfileImageRef string     `json:"profile_image_ref,omitempty"`
	Address         string     `json:"address,omitempty"`
	Country         string     `json:"country,omitempty"`
	State           string     `json:"state,omitempty"`
	City            string     `json:"city,omitempty"`
	Zip             string     `json:"zip,omitempty"`
	DOB             *time.Time `json:"dob,omitempty"`
	Gender          Gender     `json:"gender,omitempty"`
	Source          Source     `json:"source,omitempty"`
	ReferralID      *uuid.UUID `json:"referral_id,omitempty"`
}

// Candidate is the recruitment-agnostic profile of a person.
// Applications link to it by email, never by foreign key.
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	PersonalDetails
	Converted           bool       `json:"converted"`
	ConvertedEmployeeID *uuid.UUID `json:"converted_employee_id,omitempty"`
	Archived            bool       `json:"archived"`
	Version             int        `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
