package paymentmethod

type CreateRequest struct {
	Type     Type              `json:"type" binding:"required"`
	Details  map[string]string `json:"details" binding:"required"`
	IsActive *bool             `json:"is_active"`
}

type UpdateRequest struct {
	Details map[string]string `json:"details" binding:"required"`
}

type ReorderRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required,min=1"`
}
