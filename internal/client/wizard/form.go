package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
)

// ErrInvalidForm is returned when a step is saved with required fields
// missing.
var ErrInvalidForm = errors.New("form is incomplete")

// Address is a postal address as the operator types it.
type Address struct {
	State         string `json:"state"`
	District      string `json:"district"`
	Taluk         string `json:"taluk"`
	PostalAddress string `json:"postalAddress"`
}

// PinCode is the last word of the postal address.
func (a Address) PinCode() string {
	f := strings.Fields(a.PostalAddress)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

type GeneralForm struct {
	EMISAvailable              bool   `json:"emisAvailable"`
	EMISID                     string `json:"emisId"`
	Salutation                 string `json:"salutation"`
	Name                       string `json:"studentNameCertificate"`
	DateOfBirth                string `json:"dateOfBirth"`
	Gender                     string `json:"gender"`
	BloodGroup                 string `json:"bloodGroup"`
	Nationality                string `json:"nationality"`
	Religion                   string `json:"religion"`
	Community                  string `json:"community"`
	Caste                      string `json:"caste"`
	CommunityCertificateNumber string `json:"communityCertificateNumber"`
	AadhaarNumber              string `json:"aadhaarNumber"`
	FirstGraduate              bool   `json:"firstGraduate"`
	SpecialQuota               bool   `json:"specialQuota"`
	DifferentlyAbled           bool   `json:"differentlyAbled"`
}

type ContactForm struct {
	MobileNumber         string  `json:"mobileNumber"`
	EmailID              string  `json:"emailId"`
	PermanentAddress     Address `json:"permanentAddress"`
	CommunicationAddress Address `json:"communicationAddress"`
	SameAsPermanent      bool    `json:"sameAsPermanent"`
}

type AcademicForm struct {
	DateOfAdmission    string `json:"dateOfAdmission"`
	RegistrationNumber string `json:"registrationNumber"`
	IsLateralEntry     bool   `json:"isLateralEntry"`
	IsHosteler         bool   `json:"isHosteler"`
	YearOfStudy        string `json:"yearOfStudy"`
}

// StudentForm is everything the operator enters for one student.
type StudentForm struct {
	General  GeneralForm              `json:"general"`
	Contact  ContactForm              `json:"contact"`
	Family   models.FamilyInformation `json:"family"`
	Bank     models.BankInformation   `json:"bank"`
	Academic AcademicForm             `json:"academic"`
}

// LoadForm reads a StudentForm from a JSON file.
func LoadForm(path string) (*StudentForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f StudentForm
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse form %s: %w", path, err)
	}
	return &f, nil
}

func required(step Step, fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s needs %s", ErrInvalidForm, step, strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks the fields step cannot be saved without.
func (f *StudentForm) Validate(step Step) error {
	switch step {
	case StepGeneral:
		return required(step,
			[2]string{"studentNameCertificate", f.General.Name},
			[2]string{"dateOfBirth", f.General.DateOfBirth},
			[2]string{"gender", f.General.Gender},
		)
	case StepContact:
		return required(step,
			[2]string{"mobileNumber", f.Contact.MobileNumber},
			[2]string{"permanentAddress.postalAddress", f.Contact.PermanentAddress.PostalAddress},
		)
	case StepFamily:
		if f.Family.IsOrphan {
			return required(step, [2]string{"guardianName", f.Family.GuardianName})
		}
		return required(step,
			[2]string{"fatherName", f.Family.FatherName},
			[2]string{"motherName", f.Family.MotherName},
		)
	case StepBank:
		return required(step,
			[2]string{"accountNumber", f.Bank.AccountNumber},
			[2]string{"ifsc", f.Bank.IFSC},
		)
	case StepAcademic:
		return required(step,
			[2]string{"dateOfAdmission", f.Academic.DateOfAdmission},
			[2]string{"yearOfStudy", f.Academic.YearOfStudy},
		)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// GeneralPayload maps the general step to the registry's shape.
func GeneralPayload(f *StudentForm, studentID, instituteID int64) models.GeneralInformation {
	g := f.General
	perm := f.Contact.PermanentAddress
	comm := f.Contact.CommunicationAddress
	if f.Contact.SameAsPermanent {
		comm = perm
	}
	guardian := f.Family.GuardianName
	if guardian == "" {
		guardian = "None"
	}

	return models.GeneralInformation{
		ID:                  studentID,
		IsEMISAvailable:     g.EMISAvailable,
		EMISID:              g.EMISID,
		SalutationID:        SalutationID(g.Salutation),
		SalutationValue:     g.Salutation,
		ReligionID:          ReligionID(g.Religion),
		ReligionValue:       g.Religion,
		Name:                g.Name,
		NameAsOnCertificate: g.Name,
		DateOfBirth:         g.DateOfBirth,
		GenderID:            GenderID(g.Gender),
		BloodGroupID:        BloodGroupID(g.BloodGroup),
		BloodGroupValue:     g.BloodGroup,
		NationalityID:       NationalityID(g.Nationality),
		CommunityID:         CommunityID(g.Community),
		CommunityValue:      g.Community,
		CasteValue:          g.Caste,
		CertificateNumber:   g.CommunityCertificateNumber,
		AadhaarNumber:       g.AadhaarNumber,
		IsFirstGraduate:     yesNo(g.FirstGraduate),
		IsSpecialCategory:   g.SpecialQuota,
		IsDifferentlyAbled:  g.DifferentlyAbled,
		InstituteID:         instituteID,
		MobileNumber:        f.Contact.MobileNumber,
		PermAddress:         perm.PostalAddress,
		CAAddress:           comm.PostalAddress,
		Pincode:             perm.PinCode(),
		FatherName:          f.Family.FatherName,
		MotherName:          f.Family.MotherName,
		GuardianName:        guardian,
		Medium:              "English",
	}
}

// ContactPayload maps the contact step to the registry's shape.
func ContactPayload(f *StudentForm, studentID int64) models.ContactInformation {
	c := f.Contact
	comm := c.CommunicationAddress
	if c.SameAsPermanent {
		comm = c.PermanentAddress
	}
	return models.ContactInformation{
		StudentID:    studentID,
		CountryID:    countryIndia,
		StateID:      stateTamilNadu,
		DistrictID:   districtChennai,
		TalukID:      talukMylapore,
		PermAddress:  c.PermanentAddress.PostalAddress,
		CAAddress:    comm.PostalAddress,
		IsCASameAsPA: c.SameAsPermanent,
		MobileNumber: c.MobileNumber,
		EmailID:      c.EmailID,
		PinCode:      c.PermanentAddress.PinCode(),
		CAPinCode:    comm.PinCode(),
	}
}

// AcademicPayload maps the academic step to the registry's shape.
func AcademicPayload(f *StudentForm, studentID, instituteID int64) models.AcademicInformation {
	a := f.Academic
	return models.AcademicInformation{
		StudentID:           studentID,
		AcademicYearID:      academicYearID,
		CourseID:            courseID,
		ModeOfStudyID:       modeOfStudyID,
		DateOfAdmission:     a.DateOfAdmission,
		RegistrationNo:      a.RegistrationNumber,
		IsLateralEntry:      a.IsLateralEntry,
		IsHosteler:          a.IsHosteler,
		InstituteID:         instituteID,
		YearOfStudy:         a.YearOfStudy,
		MediumOfInstruction: mediumEnglishID,
	}
}
