package leavetype

type LeaveTypeResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Paid               bool   `json:"paid"`
	MaxDaysPerYear     int    `json:"max_days_per_year"`
	AdvanceNoticeDays  int    `json:"advance_notice_days"`
	RequiresAttachment bool   `json:"requires_attachment"`
}

func mapToResponse(lt LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:                 lt.ID.String(),
		Name:               lt.Name,
		Paid:               lt.Paid,
		MaxDaysPerYear:     lt.MaxDaysPerYear,
		AdvanceNoticeDays:  lt.AdvanceNoticeDays,
		RequiresAttachment: lt.RequiresAttachment,
	}
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, lt := range types {
		resp[i] = mapToResponse(lt)
	}
	return resp
}
