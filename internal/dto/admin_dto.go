package dto

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type TierPlanRequest struct {
	Name              string `json:"name"`
	ScanCountLimit    int    `json:"scan_count_limit"`
	SavedProductLimit int    `json:"saved_product_limit"`
	PriceCents        int    `json:"price_cents"`
	IsActive          *bool  `json:"is_active"`
}

type UserListResponse struct {
	Data       []UserResponse `json:"data"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
}
