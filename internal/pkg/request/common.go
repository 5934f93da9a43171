package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// DateQuery binds an optional ?date=YYYY-MM-DD query parameter.
type DateQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}
