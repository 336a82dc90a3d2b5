package models

import "time"

// AudioClip is the database row for a recorded narration clip. The audio
// itself lives in the blob store under Key.
type AudioClip struct {
	ID          string `gorm:"primaryKey;size:64"`
	Key         string `gorm:"not null"`
	URL         string `gorm:"index;not null"`
	ContentType string `gorm:"not null"`
	Size        int64
	// DurationMS is zero when the clip was never probed.
	DurationMS int64
	CreatedAt  time.Time
}

func (AudioClip) TableName() string {
	return "audio_clips"
}
