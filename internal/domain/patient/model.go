package patient

// Patient is the root record of the clinic. Optional demographic fields
// default to the empty string.
type Patient struct {
	ID               int64  `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	MiddleInitial    string `json:"middle_initial"`
	Age              string `json:"age"`
	Sex              string `json:"sex"`
	Barangay         string `json:"barangay"`
	City             string `json:"city"`
	EmergencyContact string `json:"emergency_contact"`
}

// Fields is the mutable part of a Patient as submitted by the add and edit forms.
type Fields struct {
	FirstName        string `form:"first_name" json:"first_name"`
	LastName         string `form:"last_name" json:"last_name"`
	MiddleInitial    string `form:"middle_initial" json:"middle_initial"`
	Age              string `form:"age" json:"age"`
	Sex              string `form:"sex" json:"sex"`
	Barangay         string `form:"barangay" json:"barangay"`
	City             string `form:"city" json:"city"`
	EmergencyContact string `form:"emergency_contact" json:"emergency_contact"`
}

// Summary is a list row: the patient plus the most recent visit date, if any.
type Summary struct {
	Patient
	LastVisit *string `json:"last_visit"`
}

// VisitRecord is a dated encounter note. VisitDate is stored as ISO
// (YYYY-MM-DD) when the submitted value could be parsed.
type VisitRecord struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patient_id"`
	VisitDate string `json:"visit_date"`
	Notes     string `json:"notes"`
}

// HistoryNote is a free-text medical history entry.
type HistoryNote struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patient_id"`
	Note      string `json:"history_note"`
}

// Detail is the composed read behind the patient view.
type Detail struct {
	Patient Patient        `json:"patient"`
	Visits  []*VisitRecord `json:"visits"`
	History []*HistoryNote `json:"history"`
}
