package entity

// ClassificationUpload is one classification of an import batch in the
// shape the Takeoff API accepts. A root code carries a null parentCode.
type ClassificationUpload struct {
	ParentCode      *string `json:"parentCode"`
	Code            string  `json:"code"`
	Description     string  `json:"description"`
	MeasurementType string  `json:"measurementType"`
}

// MutationResult carries the upstream outcome of a mutation call. Any
// status other than 200/201 is surfaced verbatim to the caller.
type MutationResult struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the mutation succeeded upstream.
func (r MutationResult) OK() bool {
	return r.StatusCode == 200 || r.StatusCode == 201
}
