package vehicle

import (
	"testing"

	"vehicle-booking-service/internal/pkg/money"

	"github.com/stretchr/testify/assert"
)

func TestEligibility(t *testing.T) {
	tests := []struct {
		name     string
		vehicle  Vehicle
		rentable bool
		sellable bool
	}{
		{"available both", Vehicle{Kind: KindBoth, Status: StatusAvailable, IsActive: true}, true, true},
		{"rented both", Vehicle{Kind: KindBoth, Status: StatusRented, IsActive: true}, true, false},
		{"sold", Vehicle{Kind: KindBoth, Status: StatusSold, IsActive: true}, false, false},
		{"inactive", Vehicle{Kind: KindBoth, Status: StatusAvailable}, false, false},
		{"rental only", Vehicle{Kind: KindRentalOnly, Status: StatusAvailable, IsActive: true}, true, false},
		{"sale only", Vehicle{Kind: KindSaleOnly, Status: StatusAvailable, IsActive: true}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rentable, tt.vehicle.Rentable())
			assert.Equal(t, tt.sellable, tt.vehicle.Sellable())
		})
	}
}

func TestSummaryCopiesPrices(t *testing.T) {
	weekly := money.FromUnits(300)
	v := Vehicle{ID: 4, Make: "Toyota", Model: "Hilux", Year: 2021, DailyRate: money.FromUnits(50), WeeklyRate: &weekly}

	s := v.Summary()
	assert.Equal(t, int64(4), s.ID)
	assert.Equal(t, "50.00", s.DailyRate.String())
	assert.Equal(t, "300.00", s.WeeklyRate.String())
	assert.Nil(t, s.SalePrice)
}
