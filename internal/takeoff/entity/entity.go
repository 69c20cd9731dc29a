// Package entity defines the takeoff domain model: packages, items,
// classification systems, locations, content views and the aggregate
// structures derived from them.
package entity

// SystemTag identifies one of the two classification system slots a
// project can carry. The tags are the type values the Takeoff API
// reports on a classification system.
type SystemTag string

const (
	System1 SystemTag = "CLASSIFICATION_SYSTEM_1"
	System2 SystemTag = "CLASSIFICATION_SYSTEM_2"
)

// ClassificationCode is one code of a classification system. A root
// code has an empty ParentCode.
type ClassificationCode struct {
	Code            string `json:"code"`
	Description     string `json:"description"`
	ParentCode      string `json:"parentCode"`
	MeasurementType string `json:"measurementType"`
}

// ClassificationSystem is one of the at most two code taxonomies of a
// project, keyed by its system tag.
type ClassificationSystem struct {
	ID    string               `json:"id"`
	Name  string               `json:"name"`
	Type  SystemTag            `json:"type"`
	Codes []ClassificationCode `json:"codes"`
}

// Location is one node of the project location tree. The root has an
// empty ParentID. Items without a location carry an empty location id,
// which maps to the "Unassigned" pseudo-location.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

// ContentView is the document (3D model view or 2D sheet) an item was
// measured against. Name is already resolved from the type-dependent
// nested field of the API payload.
type ContentView struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// QuantityDefinition is the primary quantity definition of a takeoff type.
type QuantityDefinition struct {
	ClassificationCodeOne string `json:"classificationCodeOne"`
	UnitOfMeasure         string `json:"unitOfMeasure"`
}

// TakeoffType describes how items of that type are measured.
type TakeoffType struct {
	ID                        string             `json:"id"`
	Name                      string             `json:"name"`
	PrimaryQuantityDefinition QuantityDefinition `json:"primaryQuantityDefinition"`
}

// Quantity is one measured quantity of an item. The primary quantity is
// classified under system 1, secondary quantities under system 2.
type Quantity struct {
	Quantity              float64 `json:"quantity"`
	UnitOfMeasure         string  `json:"unitOfMeasure"`
	ClassificationCodeOne string  `json:"classificationCodeOne"`
	ClassificationCodeTwo string  `json:"classificationCodeTwo"`
	OutputName            string  `json:"outputName"`
}

// RawItem is one physical takeoff entry: exactly one primary quantity
// and zero or more secondary quantities.
type RawItem struct {
	ID                  string     `json:"id"`
	Type                string     `json:"type"`
	TakeoffTypeID       string     `json:"takeoffTypeId"`
	ContentViewID       string     `json:"contentViewId"`
	LocationID          string     `json:"locationId"`
	PrimaryQuantity     Quantity   `json:"primaryQuantity"`
	SecondaryQuantities []Quantity `json:"secondaryQuantities"`
}

// Package is a named collection of takeoff items within a project.
type Package struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	UpdatedByName string `json:"updatedByName"`
	UpdatedAt     string `json:"updatedAt"`
}

// Settings holds the project-level takeoff settings.
type Settings struct {
	MeasurementSystem string `json:"measurementSystem"`
}
