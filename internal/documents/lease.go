package documents

import (
	"strings"
	"text/template"
	"time"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

const leaseTemplateText = `COMMERCIAL LEASE AGREEMENT

Date: {{ .Date }}

LANDLORD: {{ .LandlordName }}
TENANT: {{ .TenantName }}

PREMISES
The Landlord leases to the Tenant the premises known as:
{{ .ListingTitle }}
{{ .ListingLocation }}
Rentable area: {{ .SizeSF }} SF

TERMS
Asking price: {{ .AskingPrice }}
Base rent: {{ .RentPerSF }} per SF per annum
Monthly rent: {{ .MonthlyRent }}

The parties agree to negotiate remaining terms in good faith. This draft
was produced by the deal workflow and is not binding until signed by the
counterparty.

SIGNATURES

Landlord: ____________________

Tenant:   ____________________
`

var leaseTemplate = template.Must(template.New("lease").Parse(leaseTemplateText))

type leaseData struct {
	Date            string
	LandlordName    string
	TenantName      string
	ListingTitle    string
	ListingLocation string
	SizeSF          int
	AskingPrice     string
	RentPerSF       string
	MonthlyRent     string
}

// buildLeaseText renders the default lease draft for a match. Money fields
// are derived with decimal arithmetic from the listing's cent-denominated
// terms; monthly rent is annual rent per SF times area over twelve.
func buildLeaseText(listing models.Listing, landlord, tenant models.Principal, now time.Time) (string, error) {
	annualRent := decimal.NewFromInt(listing.RentPerSFCents).
		Mul(decimal.NewFromInt(int64(listing.SizeSF)))
	monthlyRent := annualRent.Div(decimal.NewFromInt(12))

	data := leaseData{
		Date:            now.UTC().Format("January 2, 2006"),
		LandlordName:    landlord.DisplayName,
		TenantName:      tenant.DisplayName,
		ListingTitle:    listing.Title,
		ListingLocation: listing.Location,
		SizeSF:          listing.SizeSF,
		AskingPrice:     formatCents(decimal.NewFromInt(listing.PriceCents)),
		RentPerSF:       formatCents(decimal.NewFromInt(listing.RentPerSFCents)),
		MonthlyRent:     formatCents(monthlyRent),
	}

	var sb strings.Builder
	if err := leaseTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatCents(cents decimal.Decimal) string {
	return "$" + cents.Div(decimal.NewFromInt(100)).StringFixed(2)
}
