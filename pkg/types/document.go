// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"regexp"
)

// EDINET document type code for 有価証券報告書 (annual securities report).
const DocTypeAnnualReport = "120"

// Document is one entry of the EDINET documents list (書類一覧).
type Document struct {
	SeqNumber            int     `json:"seqNumber" yaml:"seq_number"`
	DocID                string  `json:"docID" yaml:"doc_id"`
	EdinetCode           string  `json:"edinetCode" yaml:"edinet_code"`
	SecCode              string  `json:"secCode" yaml:"sec_code"`
	JCN                  string  `json:"JCN" yaml:"jcn"`
	FilerName            string  `json:"filerName" yaml:"filer_name"`
	FundCode             *string `json:"fundCode" yaml:"fund_code,omitempty"`
	OrdinanceCode        string  `json:"ordinanceCode" yaml:"ordinance_code"`
	FormCode             string  `json:"formCode" yaml:"form_code"`
	DocTypeCode          string  `json:"docTypeCode" yaml:"doc_type_code"`
	PeriodStart          string  `json:"periodStart" yaml:"period_start"`
	PeriodEnd            string  `json:"periodEnd" yaml:"period_end"`
	SubmitDateTime       string  `json:"submitDateTime" yaml:"submit_date_time"`
	DocDescription       string  `json:"docDescription" yaml:"doc_description"`
	IssuerEdinetCode     string  `json:"issuerEdinetCode" yaml:"issuer_edinet_code"`
	SubjectEdinetCode    string  `json:"subjectEdinetCode" yaml:"subject_edinet_code"`
	SubsidiaryEdinetCode string  `json:"subsidiaryEdinetCode" yaml:"subsidiary_edinet_code"`
	CurrentReportReason  string  `json:"currentReportReason" yaml:"current_report_reason"`
	ParentDocID          string  `json:"parentDocID" yaml:"parent_doc_id"`
	OpeDateTime          string  `json:"opeDateTime" yaml:"ope_date_time"`
	WithdrawalStatus     string  `json:"withdrawalStatus" yaml:"withdrawal_status"`
	DocInfoEditStatus    string  `json:"docInfoEditStatus" yaml:"doc_info_edit_status"`
	DisclosureStatus     string  `json:"disclosureStatus" yaml:"disclosure_status"`
	XBRLFlag             string  `json:"xbrlFlag" yaml:"xbrl_flag"`
	PDFFlag              string  `json:"pdfFlag" yaml:"pdf_flag"`
	AttachDocFlag        string  `json:"attachDocFlag" yaml:"attach_doc_flag"`
	EnglishDocFlag       string  `json:"englishDocFlag" yaml:"english_doc_flag"`
	CSVFlag              string  `json:"csvFlag" yaml:"csv_flag"`
	LegalStatus          string  `json:"legalStatus" yaml:"legal_status"`
}

// IsAnnualCSV reports whether d is a publicly viewable, non-fund annual
// securities report that ships a CSV rendition and a listing code.
func (d Document) IsAnnualCSV() bool {
	return d.CSVFlag == "1" &&
		d.LegalStatus == "1" &&
		d.DocTypeCode == DocTypeAnnualReport &&
		(d.FundCode == nil || *d.FundCode == "") &&
		d.SecCode != ""
}

// ArchiveName returns the deliverable file name, <secCode>_<docID>.zip.
func (d Document) ArchiveName() string {
	return d.SecCode + "_" + d.DocID + ".zip"
}

func (d Document) String() string {
	return d.SecCode + ": " + d.FilerName + " (" + d.DocID + ")"
}

var securityCodePattern = regexp.MustCompile(`^([0-9A-Z]{4,5})_`)

// SecurityCodeFromName parses the leading <code>_ segment of an archive or
// export file name. It returns "" when the name carries no code.
func SecurityCodeFromName(path string) string {
	m := securityCodePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return ""
	}
	return m[1]
}
