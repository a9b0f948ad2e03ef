package signature

// Info is the practitioner credential block printed on patient records.
// At most one Info is stored.
type Info struct {
	LicNo string `json:"lic_no" form:"lic_no"`
	PTRNo string `json:"ptr_no" form:"ptr_no"`
	TINNo string `json:"tin_no" form:"tin_no"`
	S2No  string `json:"s2_no" form:"s2_no"`
}
