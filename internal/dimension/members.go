package dimension

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

// Candidate member derivations, one per dimension. Each maps the unified
// curated stream onto dimension rows marked active; the builder handles
// distinctness and the anti-join.

func RegionMembers(orders []domain.CuratedSalesOrder) []domain.RegionMember {
	return lo.Map(orders, func(o domain.CuratedSalesOrder, _ int) domain.RegionMember {
		return domain.RegionMember{Country: o.Country, Region: o.Region, IsActive: true}
	})
}

// ProductMembers decomposes each mobile key into brand/model/color/memory. A
// key with fewer than four slash-delimited segments is a data-quality error
// that fails the stage.
func ProductMembers(orders []domain.CuratedSalesOrder) ([]domain.ProductMember, error) {
	members := make([]domain.ProductMember, 0, len(orders))
	for _, o := range orders {
		parts := strings.Split(o.MobileKey, "/")
		if len(parts) < 4 {
			return nil, fmt.Errorf("order %s: %w: %q has %d of 4 segments",
				o.OrderID, domain.ErrMalformedProductKey, o.MobileKey, len(parts))
		}
		members = append(members, domain.ProductMember{
			MobileKey: o.MobileKey,
			Brand:     parts[0],
			Model:     parts[1],
			Color:     parts[2],
			Memory:    parts[3],
			IsActive:  true,
		})
	}
	return members, nil
}

func PromoCodeMembers(orders []domain.CuratedSalesOrder) []domain.PromoCodeMember {
	return lo.Map(orders, func(o domain.CuratedSalesOrder, _ int) domain.PromoCodeMember {
		return domain.PromoCodeMember{
			PromotionCode: o.PromoCode(),
			Country:       o.Country,
			Region:        o.Region,
			IsActive:      true,
		}
	})
}

func CustomerMembers(orders []domain.CuratedSalesOrder) []domain.CustomerMember {
	return lo.Map(orders, func(o domain.CuratedSalesOrder, _ int) domain.CustomerMember {
		return domain.CustomerMember{
			CustomerName:    o.CustomerName,
			ContactNumber:   o.ContactNumber,
			ShippingAddress: o.ShippingAddress,
			Country:         o.Country,
			Region:          o.Region,
			IsActive:        true,
		}
	})
}

func PaymentMembers(orders []domain.CuratedSalesOrder) []domain.PaymentMember {
	return lo.Map(orders, func(o domain.CuratedSalesOrder, _ int) domain.PaymentMember {
		return domain.PaymentMember{
			PaymentMethod:   o.PaymentMethod,
			PaymentProvider: o.PaymentProvider,
			Country:         o.Country,
			Region:          o.Region,
			IsActive:        true,
		}
	})
}
