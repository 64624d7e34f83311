package dto

type RecentActivitiesQuery struct {
	Limit int `form:"limit,default=5"`
}

type WeeklySummaryQuery struct {
	IncludeContent bool `form:"include_content,default=false"`
}

type ActivitiesByDateQuery struct {
	Date      string `form:"date"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit,default=30"`
}

type ActivityURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type SubscriptionURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}
