package workflow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
)

// VisaOption is a catalogue entry shown on the portal's first step.
type VisaOption struct {
	Value       models.VisaType `json:"value"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
}

var visaCatalogue = []VisaOption{
	{models.VisaStudent, string(models.VisaStudent), "For studying at an Australian educational institution"},
	{models.VisaSkilledWorker, string(models.VisaSkilledWorker), "For skilled workers seeking permanent residence"},
	{models.VisaPartner, string(models.VisaPartner), "For partners of Australian citizens or residents"},
	{models.VisaVisitor, string(models.VisaVisitor), "For tourism, business, or visiting family and friends"},
	{models.VisaBusiness, string(models.VisaBusiness), "For business owners and investors"},
}

// VisaTypes returns the catalogue in display order.
func VisaTypes() []VisaOption {
	return append([]VisaOption(nil), visaCatalogue...)
}

// ParseVisaType returns the catalogue entry named s.
func ParseVisaType(s string) (models.VisaType, error) {
	for _, opt := range visaCatalogue {
		if string(opt.Value) == s {
			return opt.Value, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("Unknown visa type %q", s), map[string]string{"visaType": "unknown visa type"})
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// IsEmail is the loose address check the forms apply.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateForm checks that every required field of the questionnaire for
// visaType is filled in and that the applicant email looks like one.
// All problems are reported together.
func ValidateForm(visaType models.VisaType, form models.FormData) error {
	fields := map[string]string{}
	require := func(path, value, label string) {
		if strings.TrimSpace(value) == "" {
			fields[path] = label + " is required"
		}
	}

	p := form.PersonalInfo
	require("personalInfo.firstName", p.FirstName, "First name")
	require("personalInfo.lastName", p.LastName, "Last name")
	require("personalInfo.dateOfBirth", p.DateOfBirth, "Date of birth")
	require("personalInfo.nationality", p.Nationality, "Nationality")
	require("personalInfo.passportNumber", p.PassportNumber, "Passport number")
	require("personalInfo.passportExpiry", p.PassportExpiry, "Passport expiry")
	require("personalInfo.email", p.Email, "Email")
	require("personalInfo.phone", p.Phone, "Phone")
	if _, missing := fields["personalInfo.email"]; !missing && !IsEmail(p.Email) {
		fields["personalInfo.email"] = "Please enter a valid email"
	}

	d := form.ApplicationDetails
	require("applicationDetails.purpose", d.Purpose, "Purpose of visit")
	require("applicationDetails.plannedArrival", d.PlannedArrival, "Planned arrival date")
	require("applicationDetails.criminalHistory", d.CriminalHistory, "Criminal history")
	switch visaType {
	case models.VisaStudent:
		require("applicationDetails.institution", d.Institution, "Educational institution")
	case models.VisaSkilledWorker:
		require("applicationDetails.occupation", d.Occupation, "Occupation")
	case models.VisaPartner:
		require("applicationDetails.partnerName", d.PartnerName, "Partner's full name")
	}

	require("financialInfo.funds", form.FinancialInfo.Funds, "Available funds")
	require("financialInfo.employment", form.FinancialInfo.Employment, "Employment status")

	if len(fields) > 0 {
		return apperr.Validation("Please complete all required fields", fields)
	}
	return nil
}
