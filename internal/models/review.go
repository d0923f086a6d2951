package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TutorID   uint   `json:"tutor_id" gorm:"not null;index"`
	StudentID uint   `json:"student_id" gorm:"not null;index"`
	JobID     *uint  `json:"job_id" gorm:"index"`
	Rating    int    `json:"rating" gorm:"not null"`
	Comment   string `json:"comment" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type ReviewView struct {
	*Review
	Student *PublicUser `json:"student,omitempty"`
}

// AverageRating returns the mean rating and the count; zero values for no reviews.
func AverageRating(reviews []*Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews)
}
