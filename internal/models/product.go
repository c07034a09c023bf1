package models

// Status is the two-state product situation.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// BNColumns is the fixed width of the BN record format.
const BNColumns = 22

// ProductFields holds the normalized optional fields of one BN record.
// A nil pointer means the field was absent or invalid in the input; absent
// fields are never defaulted, zeroed, or sent upstream.
type ProductFields struct {
	Code         *string
	Name         *string
	Unit         *string
	NCM          *string
	Price        *float64
	Status       *Status
	CostPrice    *float64
	SupplierCode *string
	SupplierName *string // display only, never patched
	NetWeight    *float64
	GrossWeight  *float64
	EAN          *string
	WidthCM      *float64
	HeightCM     *float64
	DepthCM      *float64
	Tags         *string // display only, never patched
	ParentCode   *string // display only, never patched
	Brand        *string
	Volumes      *int

	// ShortDescription keeps the HTML as pasted for preview; the stripped,
	// length-capped Text variant is what goes upstream.
	ShortDescription     *string
	ShortDescriptionText *string
}

// BNRecord is one parsed input line or *...* block. Immutable after parsing;
// consumed synchronously by the updater or returned for preview.
type BNRecord struct {
	RawInput     string         `json:"raw_input"`
	ID           string         `json:"id"`
	CleanedLine  string         `json:"bn_line"`
	Warnings     []string       `json:"warnings,omitempty"`
	PatchPayload map[string]any `json:"patch_payload"`
	Images       []string       `json:"images,omitempty"`
}

// ParseResult is the outcome of parsing one pasted block of BN text.
type ParseResult struct {
	CleanedLines []string    `json:"cleaned_lines"`
	Records      []*BNRecord `json:"items"`
	Errors       []string    `json:"errors"`
}
