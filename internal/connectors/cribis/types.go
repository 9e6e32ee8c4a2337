package cribis

import "encoding/xml"

// Request and response shapes for the two CRIBIS search operations. Field
// names follow the service's WSDL.

type companySearchRequest struct {
	XMLName                  xml.Name `xml:"http://dis.cribis.com/ CompanySearch"`
	Username                 string
	Password                 string
	ApplicationTransactionID string
	CustomerReferenceText    string
	SearchData               companySearchData
}

type companySearchData struct {
	FlagActiveOnly bool
	FlagHQOnly     bool
	MaximumHits    int
	CompanyName    string
}

type companySearchResponse struct {
	XMLName             xml.Name `xml:"CompanySearchResponse"`
	TransactionResponse transactionResponse
	CompanyList         struct {
		CompanyItem []companyItem
	}
}

type companyItem struct {
	CompanyName                   string
	CrifNumber                    string
	VATCode                       string
	DunsNumber                    string
	ProvinceCode                  string
	Region                        string
	UnitTypeCode                  string
	ActivityStatusCodeDescription string
	ActivityDescription           string
	LastBalanceDate               string
	FlagOutOfBusiness             bool
	WebSite                       string
}

type personSearchRequest struct {
	XMLName                  xml.Name `xml:"http://dis.cribis.com/ PersonSearch"`
	Username                 string
	Password                 string
	ApplicationTransactionID string
	CustomerReferenceText    string
	SearchData               personSearchData
}

type personSearchData struct {
	Name        string
	Surname     string
	MaximumHits int
}

type personSearchResponse struct {
	XMLName             xml.Name `xml:"PersonSearchResponse"`
	TransactionResponse transactionResponse
	PersonList          struct {
		PersonItem []personItem
	}
}

type personItem struct {
	Name          string
	Surname       string
	TAXCode       string
	Gender        string
	BirthDate     string
	BirthTown     string
	Country       string
	Address       string
	Village       string
	Town          string
	Province      string
	Zip           string
	IsSoletrader  bool
	IsShareholder bool
}

type transactionResponse struct {
	Details struct {
		ApplicationTransactionID string
	}
	Result struct {
		Code string
	}
}
