package acc

import "encoding/json"

// pagedResponse is the envelope of every listing endpoint. Results stay
// raw until the caller decodes them into the page's element type.
type pagedResponse struct {
	Results    []json.RawMessage `json:"results"`
	Pagination struct {
		Limit        int     `json:"limit"`
		Offset       int     `json:"offset"`
		TotalResults int     `json:"totalResults"`
		NextURL      *string `json:"nextUrl"`
	} `json:"pagination"`
}

// fileModelViewType marks content views measured against a 3D model;
// every other type is a 2D sheet.
const fileModelViewType = "FILE_MODEL"

// rawContentView is the wire shape of a content view. The display name
// lives in one of two nested fields depending on the view type.
type rawContentView struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	View struct {
		ViewName  string `json:"viewName"`
		SheetName string `json:"sheetName"`
	} `json:"view"`
}

// rawTakeoffType is the wire shape of a takeoff type.
type rawTakeoffType struct {
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	PrimaryQuantityDefinition struct {
		ClassificationCode string `json:"classificationCode"`
		UnitOfMeasure      string `json:"unitOfMeasure"`
	} `json:"primaryQuantityDefinition"`
}

// rawQuantity is the wire shape of a primary or secondary quantity.
type rawQuantity struct {
	Quantity              float64 `json:"quantity"`
	UnitOfMeasure         string  `json:"unitOfMeasure"`
	ClassificationCodeOne string  `json:"classificationCodeOne"`
	ClassificationCodeTwo string  `json:"classificationCodeTwo"`
	OutputName            string  `json:"outputName"`
}

// rawItem is the wire shape of a takeoff item. LocationID decodes to ""
// when the item carries a JSON null location.
type rawItem struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	TakeoffTypeID string `json:"takeoffTypeId"`
	ContentView   struct {
		ID string `json:"id"`
	} `json:"contentView"`
	LocationID          string        `json:"locationId"`
	PrimaryQuantity     rawQuantity   `json:"primaryQuantity"`
	SecondaryQuantities []rawQuantity `json:"secondaryQuantities"`
}

// rawSystem is the wire shape of a classification system; its codes are
// fetched separately.
type rawSystem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// rawLocationNode is the wire shape of one node of the location tree.
type rawLocationNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}
