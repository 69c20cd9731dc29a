package service

import (
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// Normalize consumes the raw item sequence in order and produces the
// five groupings plus the two raw display projections in a single pass.
// Each item contributes to every grouping independently:
//
//   - ByClassification1 keys on the primary quantity's system-1 code.
//   - ByClassification2 keys on the system-2 code of each secondary
//     quantity; an item with none contributes nothing there.
//   - ByDocument keys on the content view id.
//   - ByType keys on the takeoff type id.
//   - ByLocation keys on the location id ("" for unassigned).
//
// Buckets record the content view of their first contribution and
// blank it when a later contribution disagrees.
func Normalize(items []entity.RawItem) *entity.Groupings {
	g := &entity.Groupings{
		ByClassification1: entity.NewBucketMap(),
		ByClassification2: entity.NewBucketMap(),
		ByDocument:        entity.NewBucketMap(),
		ByType:            entity.NewBucketMap(),
		ByLocation:        entity.NewBucketMap(),
	}

	for _, item := range items {
		primary := item.PrimaryQuantity

		g.RawPrimary = append(g.RawPrimary, entity.RawRow{
			TakeoffName: item.Type + " TYPE",
			Quantity:    primary.Quantity,
			Unit:        primary.UnitOfMeasure,
			Document:    item.ContentViewID,
		})
		if len(item.SecondaryQuantities) > 0 {
			secondary := item.SecondaryQuantities[0]
			g.RawSecondary = append(g.RawSecondary, entity.RawRow{
				TakeoffName: item.Type + " TYPE",
				Quantity:    secondary.Quantity,
				Unit:        secondary.UnitOfMeasure,
				Document:    item.ContentViewID,
			})
		}

		typeBucket := g.ByType.GetOrInsert(item.TakeoffTypeID, func() *entity.Bucket {
			return &entity.Bucket{
				UnitOfMeasure:         primary.UnitOfMeasure,
				ClassificationCodeOne: primary.ClassificationCodeOne,
			}
		})
		typeBucket.Add(primary.Quantity, item.ContentViewID)

		docBucket := g.ByDocument.GetOrInsert(item.ContentViewID, func() *entity.Bucket {
			return &entity.Bucket{
				UnitOfMeasure: primary.UnitOfMeasure,
				ByType:        entity.NewBucketMap(),
			}
		})
		docBucket.Add(primary.Quantity, item.ContentViewID)
		addTypeBreakdown(docBucket, item, primary.Quantity, primary.UnitOfMeasure)

		c1Bucket := g.ByClassification1.GetOrInsert(primary.ClassificationCodeOne, func() *entity.Bucket {
			return &entity.Bucket{
				UnitOfMeasure:         primary.UnitOfMeasure,
				ClassificationCodeOne: primary.ClassificationCodeOne,
				ByType:                entity.NewBucketMap(),
			}
		})
		c1Bucket.Add(primary.Quantity, item.ContentViewID)
		addTypeBreakdown(c1Bucket, item, primary.Quantity, primary.UnitOfMeasure)

		for _, secondary := range item.SecondaryQuantities {
			c2Bucket := g.ByClassification2.GetOrInsert(secondary.ClassificationCodeTwo, func() *entity.Bucket {
				return &entity.Bucket{
					UnitOfMeasure:         secondary.UnitOfMeasure,
					ClassificationCodeOne: primary.ClassificationCodeOne,
					ClassificationCodeTwo: secondary.ClassificationCodeTwo,
					ByType:                entity.NewBucketMap(),
				}
			})
			c2Bucket.Add(secondary.Quantity, item.ContentViewID)
			addTypeBreakdown(c2Bucket, item, secondary.Quantity, secondary.UnitOfMeasure)
		}

		locBucket := g.ByLocation.GetOrInsert(item.LocationID, func() *entity.Bucket {
			return &entity.Bucket{
				UnitOfMeasure: primary.UnitOfMeasure,
				ByType:        entity.NewBucketMap(),
			}
		})
		locBucket.Add(primary.Quantity, item.ContentViewID)
		addTypeBreakdown(locBucket, item, primary.Quantity, primary.UnitOfMeasure)
	}

	return g
}

// addTypeBreakdown accumulates a contribution into the per-takeoff-type
// sub-bucket of parent.
func addTypeBreakdown(parent *entity.Bucket, item entity.RawItem, quantity float64, unit string) {
	sub := parent.ByType.GetOrInsert(item.TakeoffTypeID, func() *entity.Bucket {
		return &entity.Bucket{
			UnitOfMeasure:         unit,
			ClassificationCodeOne: item.PrimaryQuantity.ClassificationCodeOne,
		}
	})
	sub.Add(quantity, item.ContentViewID)
}
