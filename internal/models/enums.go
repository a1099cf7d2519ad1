package models

// County is one of the 47 Kenyan counties, stored as a snake_case code.
type County string

const (
	CountyBaringo        County = "baringo"
	CountyBomet          County = "bomet"
	CountyBungoma        County = "bungoma"
	CountyBusia          County = "busia"
	CountyElgeyoMarakwet County = "elgeyo_marakwet"
	CountyEmbu           County = "embu"
	CountyGarissa        County = "garissa"
	CountyHomaBay        County = "homa_bay"
	CountyIsiolo         County = "isiolo"
	CountyKajiado        County = "kajiado"
	CountyKakamega       County = "kakamega"
	CountyKericho        County = "kericho"
	CountyKiambu         County = "kiambu"
	CountyKilifi         County = "kilifi"
	CountyKirinyaga      County = "kirinyaga"
	CountyKisii          County = "kisii"
	CountyKisumu         County = "kisumu"
	CountyKitui          County = "kitui"
	CountyKwale          County = "kwale"
	CountyLaikipia       County = "laikipia"
	CountyLamu           County = "lamu"
	CountyMachakos       County = "machakos"
	CountyMakueni        County = "makueni"
	CountyMandera        County = "mandera"
	CountyMarsabit       County = "marsabit"
	CountyMeru           County = "meru"
	CountyMigori         County = "migori"
	CountyMombasa        County = "mombasa"
	CountyMuranga        County = "muranga"
	CountyNairobi        County = "nairobi"
	CountyNakuru         County = "nakuru"
	CountyNandi          County = "nandi"
	CountyNarok          County = "narok"
	CountyNyamira        County = "nyamira"
	CountyNyandarua      County = "nyandarua"
	CountyNyeri          County = "nyeri"
	CountySamburu        County = "samburu"
	CountySiaya          County = "siaya"
	CountyTaitaTaveta    County = "taita_taveta"
	CountyTanaRiver      County = "tana_river"
	CountyTharakaNithi   County = "tharaka_nithi"
	CountyTransNzoia     County = "trans_nzoia"
	CountyTurkana        County = "turkana"
	CountyUasinGishu     County = "uasin_gishu"
	CountyVihiga         County = "vihiga"
	CountyWajir          County = "wajir"
	CountyWestPokot      County = "west_pokot"
)

// Counties lists every supported county in alphabetical order.
var Counties = []County{
	CountyBaringo, CountyBomet, CountyBungoma, CountyBusia, CountyElgeyoMarakwet,
	CountyEmbu, CountyGarissa, CountyHomaBay, CountyIsiolo, CountyKajiado,
	CountyKakamega, CountyKericho, CountyKiambu, CountyKilifi, CountyKirinyaga,
	CountyKisii, CountyKisumu, CountyKitui, CountyKwale, CountyLaikipia,
	CountyLamu, CountyMachakos, CountyMakueni, CountyMandera, CountyMarsabit,
	CountyMeru, CountyMigori, CountyMombasa, CountyMuranga, CountyNairobi,
	CountyNakuru, CountyNandi, CountyNarok, CountyNyamira, CountyNyandarua,
	CountyNyeri, CountySamburu, CountySiaya, CountyTaitaTaveta, CountyTanaRiver,
	CountyTharakaNithi, CountyTransNzoia, CountyTurkana, CountyUasinGishu,
	CountyVihiga, CountyWajir, CountyWestPokot,
}

var countySet = func() map[County]struct{} {
	set := make(map[County]struct{}, len(Counties))
	for _, county := range Counties {
		set[county] = struct{}{}
	}
	return set
}()

// Valid reports whether the county is one of the enumerated counties.
func (c County) Valid() bool {
	_, ok := countySet[c]
	return ok
}

// EducationLevel is the student's current level of study.
type EducationLevel string

const (
	EducationPrimary       EducationLevel = "primary"
	EducationSecondary     EducationLevel = "secondary"
	EducationCertificate   EducationLevel = "certificate"
	EducationDiploma       EducationLevel = "diploma"
	EducationUndergraduate EducationLevel = "undergraduate"
	EducationPostgraduate  EducationLevel = "postgraduate"
	EducationPhD           EducationLevel = "phd"
	EducationVocational    EducationLevel = "vocational"
)

// Valid reports whether the education level is known.
func (e EducationLevel) Valid() bool {
	switch e {
	case EducationPrimary, EducationSecondary, EducationCertificate, EducationDiploma,
		EducationUndergraduate, EducationPostgraduate, EducationPhD, EducationVocational:
		return true
	}
	return false
}

// Gender as recorded on the student profile.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// GenderRestriction limits a scholarship to one gender.
type GenderRestriction string

const (
	GenderAny        GenderRestriction = "any"
	GenderFemaleOnly GenderRestriction = "female_only"
	GenderMaleOnly   GenderRestriction = "male_only"
)

// Allows reports whether a student of the given gender satisfies the restriction.
func (r GenderRestriction) Allows(g Gender) bool {
	switch r {
	case GenderFemaleOnly:
		return g == GenderFemale
	case GenderMaleOnly:
		return g == GenderMale
	default:
		return true
	}
}

// Restricted reports whether the restriction excludes anyone.
func (r GenderRestriction) Restricted() bool {
	return r == GenderFemaleOnly || r == GenderMaleOnly
}

// DisabilityStatus describes a student's disability, if any.
type DisabilityStatus string

const (
	DisabilityNone         DisabilityStatus = "none"
	DisabilityPhysical     DisabilityStatus = "physical"
	DisabilityVisual       DisabilityStatus = "visual"
	DisabilityHearing      DisabilityStatus = "hearing"
	DisabilityIntellectual DisabilityStatus = "intellectual"
	DisabilityMultiple     DisabilityStatus = "multiple"
)

// DocumentType names a supporting document a scholarship may require.
type DocumentType string

const (
	DocumentNationalID         DocumentType = "national_id"
	DocumentBirthCertificate   DocumentType = "birth_certificate"
	DocumentAcademicTranscript DocumentType = "academic_transcript"
	DocumentAdmissionLetter    DocumentType = "admission_letter"
	DocumentIncomeProof        DocumentType = "income_proof"
	DocumentRecommendation     DocumentType = "recommendation_letter"
	DocumentDeathCertificate   DocumentType = "death_certificate"
	DocumentDisabilityCard     DocumentType = "disability_card"
	DocumentOther              DocumentType = "other"
)

// ScholarshipStatus is the publication state of a scholarship.
type ScholarshipStatus string

const (
	ScholarshipDraft  ScholarshipStatus = "draft"
	ScholarshipActive ScholarshipStatus = "active"
	ScholarshipClosed ScholarshipStatus = "closed"
)
