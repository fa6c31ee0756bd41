package model

import "time"

// Find is one discovery result staged for human review: a Kakao place
// that was investigated through blog posts and scored by the critic.
// Latitude and Longitude keep Kakao's string encoding; the staging
// queue is a review artifact, not map input.
type Find struct {
	ID            string    `json:"id"`
	RunID         string    `json:"run_id"`
	Neighborhood  string    `json:"neighborhood"`
	Keyword       string    `json:"keyword"`
	Name          string    `json:"name"`
	Score         int       `json:"score"`
	AwardLevel    string    `json:"award_level"`
	Justification string    `json:"justification"`
	DescriptionEN string    `json:"description_en"`
	DescriptionKO string    `json:"description_ko"`
	KakaoID       string    `json:"kakao_id"`
	KakaoURL      string    `json:"kakao_url"`
	Latitude      string    `json:"latitude"`
	Longitude     string    `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
}
