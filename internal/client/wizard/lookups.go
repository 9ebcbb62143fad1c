package wizard

// Registry ids for the choices the form offers. Unknown values fall back to
// the registry's most common entry.

var salutationIDs = map[string]int{
	"Selvan":     56,
	"Selvi":      57,
	"Thiru":      58,
	"Thirumathi": 59,
}

var religionIDs = map[string]int{
	"Hindu":     1,
	"Christian": 2,
	"Muslim":    3,
	"Buddhism":  4,
	"Jainism":   5,
	"Sikh":      6,
}

var genderIDs = map[string]int{
	"male":         1,
	"female":       2,
	"third_gender": 3,
}

var bloodGroupIDs = map[string]int{
	"A+":  70,
	"A-":  71,
	"B+":  77,
	"B-":  73,
	"AB+": 74,
	"AB-": 75,
	"O+":  76,
	"O-":  78,
}

var communityIDs = map[string]int{
	"BC":               11,
	"BC Muslim":        10,
	"DNC/DNT":          13,
	"MBC":              3,
	"NOT APPLICABLE":   1,
	"Not Stated":       14,
	"OC":               6,
	"SC":               12,
	"SC Arunthathiyar": 7,
	"ST":               4,
}

// Fixed ids for the institute's only configuration.
const (
	countryIndia       = 83
	stateTamilNadu     = 1
	districtChennai    = 2
	talukMylapore      = 22
	academicYearID     = 223
	courseID           = 24
	modeOfStudyID      = 84
	mediumEnglishID    = 2
	defaultCommunityID = 11
)

func lookup(m map[string]int, key string, def int) int {
	if id, ok := m[key]; ok {
		return id
	}
	return def
}

func SalutationID(v string) int { return lookup(salutationIDs, v, 56) }
func ReligionID(v string) int   { return lookup(religionIDs, v, 1) }
func GenderID(v string) int     { return lookup(genderIDs, v, 1) }
func BloodGroupID(v string) int { return lookup(bloodGroupIDs, v, 77) }
func CommunityID(v string) int  { return lookup(communityIDs, v, defaultCommunityID) }

func NationalityID(v string) int {
	if v == "" || v == "Indian" {
		return 1
	}
	return 2
}
