package models

import (
	"time"
)

// Status is a step of the application workflow. The set is closed; the
// allowed moves between statuses live in the workflow package.
type Status string

const (
	StatusNew                    Status = "New"
	StatusInReview               Status = "In Review"
	StatusAdditionalInfoRequired Status = "Additional Info Required"
	StatusReadyToSubmit          Status = "Ready to Submit"
	StatusSubmitted              Status = "Submitted"
)

// VisaType is one of the five visa categories a client can apply for.
type VisaType string

const (
	VisaStudent       VisaType = "Student Visa (Subclass 500)"
	VisaSkilledWorker VisaType = "Skilled Worker Visa (Subclass 189)"
	VisaPartner       VisaType = "Partner Visa (Subclass 820)"
	VisaVisitor       VisaType = "Visitor Visa (Subclass 600)"
	VisaBusiness      VisaType = "Business Visa (Subclass 188)"
)

// Client is a person the agency is preparing applications for.
//
// PortalLink ("portal/<token>") is the only key the self-service portal
// uses to find a client. ActiveApplicationID points at the application the
// portal works on; it is set when an application is created for the client
// and stays nil for clients that never had one.
type Client struct {
	ID                  int64     `json:"Id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	PortalLink          string    `json:"portalLink"`
	ActiveApplicationID *int64    `json:"activeApplicationId,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// ClientPatch carries the fields of a partial client update.
// A nil field is left untouched.
type ClientPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Application is a visa application owned by exactly one client.
type Application struct {
	ID        int64      `json:"Id"`
	ClientID  int64      `json:"clientId"`
	VisaType  VisaType   `json:"visaType"`
	Status    Status     `json:"status"`
	FormData  FormData   `json:"formData"`
	Documents []Document `json:"documents"`
	Messages  []Message  `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ApplicationPatch carries the fields of a partial application update.
// Nil pointers and nil slices are "absent"; an empty, non-nil Documents
// slice clears the documents. Messages are append-only and cannot be
// patched.
type ApplicationPatch struct {
	ClientID  *int64     `json:"clientId"`
	VisaType  *VisaType  `json:"visaType"`
	Status    *Status    `json:"status"`
	FormData  *FormData  `json:"formData"`
	Documents []Document `json:"documents"`
}

// FormData is the questionnaire a client fills in through the portal.
type FormData struct {
	PersonalInfo       PersonalInfo       `json:"personalInfo"`
	ApplicationDetails ApplicationDetails `json:"applicationDetails"`
	FinancialInfo      FinancialInfo      `json:"financialInfo"`
}

type PersonalInfo struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	DateOfBirth    string `json:"dateOfBirth"`
	Nationality    string `json:"nationality"`
	PassportNumber string `json:"passportNumber"`
	PassportExpiry string `json:"passportExpiry"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

// ApplicationDetails holds the trip details. Institution, Occupation and
// PartnerName only apply to the student, skilled worker and partner visas.
type ApplicationDetails struct {
	Purpose          string `json:"purpose"`
	PlannedArrival   string `json:"plannedArrival"`
	PlannedDeparture string `json:"plannedDeparture"`
	PreviousVisas    string `json:"previousVisas"`
	CriminalHistory  string `json:"criminalHistory"`
	Institution      string `json:"institution,omitempty"`
	Occupation       string `json:"occupation,omitempty"`
	PartnerName      string `json:"partnerName,omitempty"`
}

type FinancialInfo struct {
	Funds      string `json:"funds"`
	Employment string `json:"employment"`
	Sponsor    string `json:"sponsor"`
}

// Document is an uploaded supporting file. Only its metadata is kept.
type Document struct {
	ID         int64     `json:"Id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Message is one entry of the agent/client conversation on an application.
type Message struct {
	ID        int64     `json:"Id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// Clone returns a copy of c that shares no memory with it.
func (c Client) Clone() Client {
	cp := c
	if c.ActiveApplicationID != nil {
		id := *c.ActiveApplicationID
		cp.ActiveApplicationID = &id
	}
	return cp
}

// Clone returns a copy of a that shares no memory with it. Nil document
// and message slices come back as empty slices so they encode as [].
func (a Application) Clone() Application {
	cp := a
	cp.Documents = append(make([]Document, 0, len(a.Documents)), a.Documents...)
	cp.Messages = append(make([]Message, 0, len(a.Messages)), a.Messages...)
	return cp
}
