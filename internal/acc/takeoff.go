package acc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// Endpoint paths of the Takeoff and Locations APIs.
const (
	packagesPath        = "/construction/takeoff/v1/projects/%s/packages"
	itemsPath           = "/construction/takeoff/v1/projects/%s/packages/%s/takeoff-items"
	typesPath           = "/construction/takeoff/v1/projects/%s/packages/%s/takeoff-types"
	contentViewsPath    = "/construction/takeoff/v1/projects/%s/content-views"
	systemsPath         = "/construction/takeoff/v1/projects/%s/classification-systems"
	classificationsPath = "/construction/takeoff/v1/projects/%s/classification-systems/%s/classifications"
	importPath          = "/construction/takeoff/v1/projects/%s/classification-systems/%s/classifications:import"
	settingsPath        = "/construction/takeoff/v1/projects/%s/settings"
	locationsPath       = "/construction/locations/v2/projects/%s/trees/default/nodes"
)

// Packages lists the takeoff packages of a project.
func (c *Client) Packages(ctx context.Context, projectID string) ([]entity.Package, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(packagesPath, accProjectID(projectID)))
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return decodeAll[entity.Package](raw, "package")
}

// Items lists the takeoff items of a package.
func (c *Client) Items(ctx context.Context, projectID, packageID string) ([]entity.RawItem, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(itemsPath, accProjectID(projectID), packageID))
	if err != nil {
		return nil, fmt.Errorf("list takeoff items: %w", err)
	}
	wire, err := decodeAll[rawItem](raw, "takeoff item")
	if err != nil {
		return nil, err
	}
	items := make([]entity.RawItem, len(wire))
	for i, w := range wire {
		items[i] = entity.RawItem{
			ID:                  w.ID,
			Type:                w.Type,
			TakeoffTypeID:       w.TakeoffTypeID,
			ContentViewID:       w.ContentView.ID,
			LocationID:          w.LocationID,
			PrimaryQuantity:     quantityFromWire(w.PrimaryQuantity),
			SecondaryQuantities: quantitiesFromWire(w.SecondaryQuantities),
		}
	}
	return items, nil
}

// Types lists the takeoff types of a package.
func (c *Client) Types(ctx context.Context, projectID, packageID string) ([]entity.TakeoffType, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(typesPath, accProjectID(projectID), packageID))
	if err != nil {
		return nil, fmt.Errorf("list takeoff types: %w", err)
	}
	wire, err := decodeAll[rawTakeoffType](raw, "takeoff type")
	if err != nil {
		return nil, err
	}
	types := make([]entity.TakeoffType, len(wire))
	for i, w := range wire {
		types[i] = entity.TakeoffType{
			ID:   w.ID,
			Name: w.Name,
			PrimaryQuantityDefinition: entity.QuantityDefinition{
				ClassificationCodeOne: w.PrimaryQuantityDefinition.ClassificationCode,
				UnitOfMeasure:         w.PrimaryQuantityDefinition.UnitOfMeasure,
			},
		}
	}
	return types, nil
}

// Systems lists the classification systems of a project, with each
// system's code set fetched alongside it.
func (c *Client) Systems(ctx context.Context, projectID string) ([]entity.ClassificationSystem, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(systemsPath, accProjectID(projectID)))
	if err != nil {
		return nil, fmt.Errorf("list classification systems: %w", err)
	}
	wire, err := decodeAll[rawSystem](raw, "classification system")
	if err != nil {
		return nil, err
	}
	systems := make([]entity.ClassificationSystem, len(wire))
	for i, w := range wire {
		codes, err := c.Classifications(ctx, projectID, w.ID)
		if err != nil {
			return nil, fmt.Errorf("system %s: %w", w.ID, err)
		}
		systems[i] = entity.ClassificationSystem{
			ID:    w.ID,
			Name:  w.Name,
			Type:  entity.SystemTag(w.Type),
			Codes: codes,
		}
	}
	return systems, nil
}

// Classifications lists the codes of one classification system.
func (c *Client) Classifications(ctx context.Context, projectID, systemID string) ([]entity.ClassificationCode, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(classificationsPath, accProjectID(projectID), systemID))
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	return decodeAll[entity.ClassificationCode](raw, "classification")
}

// ContentViews lists the content views of a project with their display
// names resolved from the type-dependent nested field.
func (c *Client) ContentViews(ctx context.Context, projectID string) ([]entity.ContentView, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(contentViewsPath, accProjectID(projectID)))
	if err != nil {
		return nil, fmt.Errorf("list content views: %w", err)
	}
	wire, err := decodeAll[rawContentView](raw, "content view")
	if err != nil {
		return nil, err
	}
	views := make([]entity.ContentView, len(wire))
	for i, w := range wire {
		name := w.View.SheetName
		if w.Type == fileModelViewType {
			name = w.View.ViewName
		}
		views[i] = entity.ContentView{ID: w.ID, Type: w.Type, Name: name}
	}
	return views, nil
}

// Locations lists the nodes of the project's default location tree.
func (c *Client) Locations(ctx context.Context, projectID string) ([]entity.Location, error) {
	raw, err := c.getPaged(ctx, fmt.Sprintf(locationsPath, accProjectID(projectID)))
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	wire, err := decodeAll[rawLocationNode](raw, "location")
	if err != nil {
		return nil, err
	}
	locations := make([]entity.Location, len(wire))
	for i, w := range wire {
		locations[i] = entity.Location{ID: w.ID, Name: w.Name, ParentID: w.ParentID}
	}
	return locations, nil
}

// Settings fetches the project takeoff settings. Unlike the listing
// endpoints this returns a single object, not a page.
func (c *Client) Settings(ctx context.Context, projectID string) (entity.Settings, error) {
	var settings entity.Settings
	url := c.baseURL + fmt.Sprintf(settingsPath, accProjectID(projectID))
	if err := c.getJSON(ctx, url, &settings); err != nil {
		return entity.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// CreatePackage creates a named takeoff package.
func (c *Client) CreatePackage(ctx context.Context, projectID, name string) (entity.MutationResult, error) {
	url := c.baseURL + fmt.Sprintf(packagesPath, accProjectID(projectID))
	status, body, err := c.send(ctx, http.MethodPost, url, map[string]string{"name": name})
	if err != nil {
		return entity.MutationResult{}, fmt.Errorf("create package: %w", err)
	}
	return entity.MutationResult{StatusCode: status, Body: body}, nil
}

// CreateClassificationSystem creates a classification system in the
// given system slot from an import batch.
func (c *Client) CreateClassificationSystem(ctx context.Context, projectID, name string, systemType entity.SystemTag, classifications []entity.ClassificationUpload) (entity.MutationResult, error) {
	url := c.baseURL + fmt.Sprintf(systemsPath, accProjectID(projectID))
	status, body, err := c.send(ctx, http.MethodPost, url, map[string]any{
		"name":            name,
		"type":            systemType,
		"classifications": classifications,
	})
	if err != nil {
		return entity.MutationResult{}, fmt.Errorf("create classification system: %w", err)
	}
	return entity.MutationResult{StatusCode: status, Body: body}, nil
}

// ImportClassifications replaces the codes of an existing system with
// an import batch.
func (c *Client) ImportClassifications(ctx context.Context, projectID, systemID, name string, classifications []entity.ClassificationUpload) (entity.MutationResult, error) {
	url := c.baseURL + fmt.Sprintf(importPath, accProjectID(projectID), systemID)
	status, body, err := c.send(ctx, http.MethodPost, url, map[string]any{
		"name":            name,
		"classifications": classifications,
	})
	if err != nil {
		return entity.MutationResult{}, fmt.Errorf("import classifications: %w", err)
	}
	return entity.MutationResult{StatusCode: status, Body: body}, nil
}

// UpdateSettings patches the project measurement system.
func (c *Client) UpdateSettings(ctx context.Context, projectID, measurementSystem string) (entity.MutationResult, error) {
	url := c.baseURL + fmt.Sprintf(settingsPath, accProjectID(projectID))
	status, body, err := c.send(ctx, http.MethodPatch, url, map[string]string{"measurementSystem": measurementSystem})
	if err != nil {
		return entity.MutationResult{}, fmt.Errorf("update settings: %w", err)
	}
	return entity.MutationResult{StatusCode: status, Body: body}, nil
}

func decodeAll[T any](raw []json.RawMessage, kind string) ([]T, error) {
	out := make([]T, len(raw))
	for i, msg := range raw {
		if err := json.Unmarshal(msg, &out[i]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
	}
	return out, nil
}

func quantityFromWire(w rawQuantity) entity.Quantity {
	return entity.Quantity{
		Quantity:              w.Quantity,
		UnitOfMeasure:         w.UnitOfMeasure,
		ClassificationCodeOne: w.ClassificationCodeOne,
		ClassificationCodeTwo: w.ClassificationCodeTwo,
		OutputName:            w.OutputName,
	}
}

func quantitiesFromWire(ws []rawQuantity) []entity.Quantity {
	if len(ws) == 0 {
		return nil
	}
	out := make([]entity.Quantity, len(ws))
	for i, w := range ws {
		out[i] = quantityFromWire(w)
	}
	return out
}
