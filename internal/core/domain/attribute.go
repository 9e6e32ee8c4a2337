package domain

// Attribute is a canonical attribute name. The set below is the subset of
// the downstream tool's attribute vocabulary that the built-in connectors
// emit; Attributes.Set silently drops anything outside it so unknown keys
// never reach the wire.
type Attribute string

const (
	// Relationship plumbing.
	AttrFromID    Attribute = "FromId"
	AttrToID      Attribute = "ToId"
	AttrDirection Attribute = "Direction"
	AttrTitle     Attribute = "Title"

	// Names and descriptions.
	AttrName        Attribute = "Name"
	AttrLocalName   Attribute = "LocalName"
	AttrFirstName   Attribute = "FirstName"
	AttrLastName    Attribute = "LastName"
	AttrOtherNames  Attribute = "OtherNames"
	AttrSalutation  Attribute = "Salutation"
	AttrDescription Attribute = "Description"
	AttrText        Attribute = "Text"

	// Person details.
	AttrDob         Attribute = "Dob"
	AttrDateOfDeath Attribute = "DateOfDeath"
	AttrGender      Attribute = "Gender"
	AttrNationality Attribute = "Nationality"
	AttrEducation   Attribute = "Education"
	AttrJobTitle    Attribute = "JobTitle"
	AttrIsCompany   Attribute = "IsCompany"

	// Business details.
	AttrStatus              Attribute = "Status"
	AttrStatusSince         Attribute = "StatusSince"
	AttrLiquidated          Attribute = "Liquidated"
	AttrIncorporationDate   Attribute = "IncorporationDate"
	AttrRegistrationCountry Attribute = "RegistrationCountry"
	AttrRegistrationState   Attribute = "RegistrationState"
	AttrCompanyNumber       Attribute = "CompanyNumber"
	AttrCompaniesHouseID    Attribute = "CompaniesHouseId"
	AttrVatNumber           Attribute = "VatNumber"
	AttrSicCode             Attribute = "SicCode"
	AttrDuns                Attribute = "Duns"
	AttrTradeDescription    Attribute = "TradeDescription"
	AttrNumberOfShares      Attribute = "NumberOfShares"
	AttrWorldCompliance     Attribute = "WorldCompliance"
	AttrCompliance          Attribute = "Compliance"

	// Address parts.
	AttrStreet1  Attribute = "Street1"
	AttrStreet2  Attribute = "Street2"
	AttrStreet3  Attribute = "Street3"
	AttrCity     Attribute = "City"
	AttrRegion   Attribute = "Region"
	AttrPostcode Attribute = "Postcode"
	AttrCountry  Attribute = "Country"

	// Contact and online presence.
	AttrURL             Attribute = "Url"
	AttrEmailAddress    Attribute = "EmailAddress"
	AttrLocalNumber     Attribute = "LocalNumber"
	AttrFormattedNumber Attribute = "FormattedNumber"
	AttrIPAddress       Attribute = "IpAddress"
	AttrUsername        Attribute = "Username"
	AttrUserName        Attribute = "UserName"
	AttrUserID          Attribute = "UserId"
	AttrID              Attribute = "Id"
	AttrScreenName      Attribute = "ScreenName"
	AttrSite            Attribute = "Site"
	AttrVerified        Attribute = "Verified"
	AttrData            Attribute = "Data"

	// Events and misc.
	AttrDate     Attribute = "Date"
	AttrCategory Attribute = "Category"
)

// known is the acceptance set for Attributes.Set.
var known = func() map[Attribute]struct{} {
	all := []Attribute{
		AttrFromID, AttrToID, AttrDirection, AttrTitle,
		AttrName, AttrLocalName, AttrFirstName, AttrLastName, AttrOtherNames,
		AttrSalutation, AttrDescription, AttrText,
		AttrDob, AttrDateOfDeath, AttrGender, AttrNationality, AttrEducation,
		AttrJobTitle, AttrIsCompany,
		AttrStatus, AttrStatusSince, AttrLiquidated, AttrIncorporationDate,
		AttrRegistrationCountry, AttrRegistrationState, AttrCompanyNumber,
		AttrCompaniesHouseID, AttrVatNumber, AttrSicCode, AttrDuns,
		AttrTradeDescription, AttrNumberOfShares, AttrWorldCompliance,
		AttrCompliance,
		AttrStreet1, AttrStreet2, AttrStreet3, AttrCity, AttrRegion,
		AttrPostcode, AttrCountry,
		AttrURL, AttrEmailAddress, AttrLocalNumber, AttrFormattedNumber,
		AttrIPAddress, AttrUsername, AttrUserName, AttrUserID, AttrID,
		AttrScreenName, AttrSite, AttrVerified, AttrData,
		AttrDate, AttrCategory,
	}
	m := make(map[Attribute]struct{}, len(all))
	for _, a := range all {
		m[a] = struct{}{}
	}
	return m
}()

// Valid reports whether the attribute belongs to the canonical vocabulary.
func (a Attribute) Valid() bool {
	_, ok := known[a]
	return ok
}

// Attributes maps canonical attribute names to values. Values are strings
// except for the handful of boolean flags (Liquidated, Verified,
// WorldCompliance, Compliance, IsCompany).
type Attributes map[Attribute]any

// Set assigns an attribute, dropping unknown keys at the boundary.
// A nil value is stored as the empty string so absent source fields never
// surface as JSON null.
func (a Attributes) Set(key Attribute, value any) {
	if !key.Valid() {
		return
	}
	if value == nil {
		value = ""
	}
	a[key] = value
}

// EmptyCount returns the number of attributes holding an empty string.
// Used to rank competing sub-records by completeness.
func (a Attributes) EmptyCount() int {
	n := 0
	for _, v := range a {
		if s, ok := v.(string); ok && s == "" {
			n++
		}
	}
	return n
}
