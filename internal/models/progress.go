package models

type Progress struct {
	TotalReviews7d int `json:"totalReviews7d"`
	Accuracy       int `json:"accuracy"`
	Streak         int `json:"streak"`
	DueNow         int `json:"dueNow"`
}
