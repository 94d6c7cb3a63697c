package leavetype

type CreateLeaveTypeRequest struct {
	Name             string  `json:"name" binding:"required"`
	DefaultDays      float64 `json:"default_days" binding:"gte=0"`
	FixedAllocation  bool    `json:"fixed_allocation"`
	RestrictedGender string  `json:"restricted_gender" binding:"omitempty,oneof=Male Female"`
	Description      string  `json:"description"`
}

type UpdateLeaveTypeRequest struct {
	Name             string  `json:"name" binding:"required"`
	DefaultDays      float64 `json:"default_days" binding:"gte=0"`
	RestrictedGender string  `json:"restricted_gender" binding:"omitempty,oneof=Male Female"`
	Description      string  `json:"description"`
}

type LeaveTypeResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DefaultDays      float64 `json:"default_days"`
	FixedAllocation  bool    `json:"fixed_allocation"`
	RestrictedGender string  `json:"restricted_gender,omitempty"`
	Description      string  `json:"description,omitempty"`
}
