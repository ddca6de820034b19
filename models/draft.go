package models

import "time"

// MaxTravelers caps the traveler roster of a single booking.
const MaxTravelers = 20

type PaymentMethod string

const (
	PaymentMethodPaytm        PaymentMethod = "paytm"
	PaymentMethodGPay         PaymentMethod = "gpay"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

// PaymentMethods lists the selectable payment methods in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodPaytm,
	PaymentMethodGPay,
	PaymentMethodBankTransfer,
	PaymentMethodCash,
}

// Valid reports whether m is one of the enumerated payment methods. The unset value is not valid.
func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type IDProofType string

const (
	IDProofAadhar         IDProofType = "Aadhar"
	IDProofPassport       IDProofType = "Passport"
	IDProofDrivingLicense IDProofType = "Driving License"
	IDProofVoterID        IDProofType = "Voter ID"
)

func (t IDProofType) Valid() bool {
	switch t {
	case "", IDProofAadhar, IDProofPassport, IDProofDrivingLicense, IDProofVoterID:
		return true
	}
	return false
}

// Attachment is an identity document carried with a traveler until submission.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data,omitempty"`
}

// Contact holds the lead traveler's contact details.
type Contact struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// TravelerRecord describes one person on the booking. Only Name is required.
type TravelerRecord struct {
	Name        string      `json:"name"`
	Age         *int        `json:"age,omitempty"`
	Gender      Gender      `json:"gender,omitempty"`
	IDProofType IDProofType `json:"idProofType,omitempty"`
	IDProof     *Attachment `json:"idProof,omitempty"`
}

// TravelerPatch carries a partial update of a traveler record; nil fields are left as they are.
type TravelerPatch struct {
	Name        *string      `json:"name"`
	Age         *int         `json:"age"`
	Gender      *Gender      `json:"gender"`
	IDProofType *IDProofType `json:"idProofType"`
}

// BookingDraft is the in-progress booking owned by a wizard until submission.
type BookingDraft struct {
	Contact        Contact          `json:"contact"`
	TravelDate     *time.Time       `json:"travelDate,omitempty"`
	TravelerCount  int              `json:"travelerCount"`
	Travelers      []TravelerRecord `json:"travelers"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod,omitempty"`
	SpecialRequest string           `json:"specialRequest,omitempty"`
}

// NewBookingDraft returns an empty draft for a single traveler.
func NewBookingDraft() BookingDraft {
	return BookingDraft{
		TravelerCount: 1,
		Travelers:     []TravelerRecord{{}},
	}
}

// ContactUpdate is the step one form payload. Nil fields are left untouched.
type ContactUpdate struct {
	FullName       *string `json:"fullName"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	TravelDate     *string `json:"travelDate"` // YYYY-MM-DD
	TravelerCount  *int    `json:"travelerCount"`
	SpecialRequest *string `json:"specialRequest"`
}
