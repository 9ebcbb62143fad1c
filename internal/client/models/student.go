package models

// GeneralInformation is the first registration step as the registry expects
// it. Only the fields regkeeper fills are modelled; the registry defaults the
// rest.
type GeneralInformation struct {
	ID                  int64  `json:"id"`
	IsEMISAvailable     bool   `json:"isEMSIDAvailable"`
	EMISID              string `json:"emsid"`
	SalutationID        int    `json:"salutationId"`
	SalutationValue     string `json:"salutationValue"`
	ReligionID          int    `json:"religionId"`
	ReligionValue       string `json:"religionValue"`
	Name                string `json:"name"`
	NameAsOnCertificate string `json:"nameAsOnCertificate"`
	DateOfBirth         string `json:"dateOfBirth"`
	GenderID            int    `json:"genderId"`
	BloodGroupID        int    `json:"bloodGroupId"`
	BloodGroupValue     string `json:"bloodGroupValue"`
	NationalityID       int    `json:"nationalityId"`
	CommunityID         int    `json:"communityId"`
	CommunityValue      string `json:"communityValue"`
	CasteValue          string `json:"casteValue"`
	CertificateNumber   string `json:"certificateNumber"`
	AadhaarNumber       string `json:"aadhaarNumber"`
	IsFirstGraduate     string `json:"isFirstGraduate"`
	IsSpecialCategory   bool   `json:"isSpecialCategory"`
	IsDifferentlyAbled  bool   `json:"isDifferentlyAbled"`
	InstituteID         int64  `json:"instituteId"`
	MobileNumber        string `json:"mobileNumber"`
	PermAddress         string `json:"permAddress"`
	CAAddress           string `json:"caAddress"`
	Pincode             string `json:"pincode"`
	FatherName          string `json:"fatherName"`
	MotherName          string `json:"motherName"`
	GuardianName        string `json:"guardianName"`
	Medium              string `json:"medium"`
}

// ContactInformation is the contact step.
type ContactInformation struct {
	ID           int64  `json:"id"`
	StudentID    int64  `json:"studentId"`
	CountryID    int    `json:"countryId"`
	StateID      int    `json:"stateId"`
	DistrictID   int    `json:"districtId"`
	TalukID      int    `json:"talukId"`
	PermAddress  string `json:"permAddress"`
	CAAddress    string `json:"caAddress"`
	IsCASameAsPA bool   `json:"isCASameAsPA"`
	MobileNumber string `json:"mobileNumber"`
	EmailID      string `json:"emailId"`
	PinCode      string `json:"pinCode"`
	CAPinCode    string `json:"caPinCode"`
}

// FamilyInformation has no registry endpoint and is staged locally.
type FamilyInformation struct {
	StudentID          int64   `json:"studentId"`
	IsOrphan           bool    `json:"isOrphan"`
	FatherName         string  `json:"fatherName"`
	MotherName         string  `json:"motherName"`
	GuardianName       string  `json:"guardianName"`
	ParentMobileNo     string  `json:"parentMobileNo"`
	ParentEmailID      string  `json:"parentEmailId"`
	FamilyAnnualIncome float64 `json:"familyAnnualIncome"`
}

// BankInformation has no registry endpoint and is staged locally.
type BankInformation struct {
	StudentID     int64  `json:"studentId"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName"`
	BranchName    string `json:"name"`
	CityName      string `json:"cityName"`
	BankBranchID  int64  `json:"bankBranchId"`
}

// AcademicInformation is the academic step.
type AcademicInformation struct {
	ID                  int64  `json:"id"`
	StudentID           int64  `json:"studentId"`
	AcademicYearID      int    `json:"academicYearId"`
	CourseID            int    `json:"courseId"`
	ModeOfStudyID       int    `json:"modeOfStudyId"`
	DateOfAdmission     string `json:"dateOfAdmission"`
	RegistrationNo      string `json:"registrationNo"`
	IsLateralEntry      bool   `json:"isLateralEntry"`
	IsHosteler          bool   `json:"isHosteler"`
	InstituteID         int64  `json:"instituteId"`
	YearOfStudy         string `json:"yearOfStudy"`
	MediumOfInstruction int    `json:"mediumOfInstructionType"`
	IsUsingTransport    bool   `json:"isStudentUsingTransport"`
}

// BankBranch is one result of an IFSC lookup.
type BankBranch struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	IFSC     string `json:"ifsc"`
	CityName string `json:"cityName"`
	BankName string `json:"bankName"`
}

// ApprovalType is the decision sent with a student approval.
type ApprovalType int

const (
	ApprovalApproved ApprovalType = 1
	ApprovalRejected ApprovalType = 2
)

// StudentApproval approves or rejects a registered student.
type StudentApproval struct {
	StudentApprovedType ApprovalType `json:"studentApprovedType"`
	ID                  int64        `json:"id"`
	RejectedRemarkID    *int64       `json:"rejectedRemarkId"`
}
