package commissions

// ListEntriesRequest filters commission entries.
type ListEntriesRequest struct {
	Period    string       `json:"period,omitempty"`
	PartnerID *int64       `json:"partner_id,omitempty"`
	Status    *EntryStatus `json:"status,omitempty"`
	Page      int          `json:"page" validate:"gte=0"`
	PerPage   int          `json:"per_page" validate:"gte=0,lte=200"`
}

// RecalculateRequest asks for a period to be recomputed.
type RecalculateRequest struct {
	Period string `json:"period" validate:"required"`
}
