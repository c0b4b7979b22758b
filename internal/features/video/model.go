package video

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/pkg/types"
)

// Video is a video component placed in a course or library. Transcript
// references are stored as opaque subtitle ids; the asset naming convention
// lives in the transcript service.
type Video struct {
	types.BaseModel

	CourseKey       string         `gorm:"type:varchar(255);not null;index;column:course_key" json:"courseKey"`
	DisplayName     string         `gorm:"type:varchar(255);not null;column:display_name" json:"displayName"`
	ExternalVideoID string         `gorm:"type:varchar(255);column:external_video_id" json:"externalVideoId,omitempty"`
	SubsID          string         `gorm:"type:varchar(255);column:sub" json:"sub,omitempty"`
	VariantIDs      types.JSON     `gorm:"type:jsonb;column:variant_ids" json:"variantIds,omitempty"`
	SourceIDs       pq.StringArray `gorm:"type:text[];column:source_ids" json:"sourceIds,omitempty"`
	Transcripts     types.JSON     `gorm:"type:jsonb" json:"transcripts,omitempty"`
	DownloadFormat  string         `gorm:"type:varchar(10);not null;default:'srt';column:download_format" json:"downloadFormat"`
}

func (Video) TableName() string { return "videos" }

// TranscriptMap decodes the language to subtitle-id mapping. A nil or
// malformed column yields an empty map.
func (v *Video) TranscriptMap() map[string]string {
	out := map[string]string{}
	if len(v.Transcripts) == 0 {
		return out
	}
	if err := json.Unmarshal(v.Transcripts, &out); err != nil {
		return map[string]string{}
	}
	return out
}

// SetTranscriptMap replaces the language mapping.
func (v *Video) SetTranscriptMap(m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	v.Transcripts = data
	return nil
}

// SpeedVariants decodes the playback-speed to subtitle-id mapping, keyed by
// speeds like "0.75" or "1.5".
func (v *Video) SpeedVariants() map[float64]string {
	out := map[float64]string{}
	if len(v.VariantIDs) == 0 {
		return out
	}

	raw := map[string]string{}
	if err := json.Unmarshal(v.VariantIDs, &raw); err != nil {
		return out
	}
	for key, id := range raw {
		speed, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		out[speed] = id
	}
	return out
}

// Get retrieves a video within a course by id.
func Get(db *gorm.DB, courseKey string, id uuid.UUID) (Video, error) {
	var vid Video
	err := db.First(&vid, "id = ? AND course_key = ?", id, courseKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return vid, ErrVideoNotFound
		}
		return vid, err
	}
	return vid, nil
}

// State holds one learner's playback state for one video.
type State struct {
	types.BaseModel

	UserID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_state_user_video" json:"userId"`
	VideoID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_state_user_video" json:"videoId"`
	Speed              float64    `gorm:"not null;default:1.0" json:"speed"`
	PositionSeconds    float64    `gorm:"not null;default:0;column:position_seconds" json:"positionSeconds"`
	TranscriptLanguage string     `gorm:"type:varchar(10);column:transcript_language" json:"transcriptLanguage,omitempty"`
	DownloadFormat     string     `gorm:"type:varchar(10);column:download_format" json:"downloadFormat,omitempty"`
	AutoAdvance        bool       `gorm:"not null;default:false;column:auto_advance" json:"autoAdvance"`
	StreamAvailable    bool       `gorm:"not null;default:false;column:stream_available" json:"streamAvailable"`
	PrerollLastViewed  *time.Time `gorm:"column:preroll_last_viewed" json:"prerollLastViewed,omitempty"`
	PrerollDismissed   bool       `gorm:"not null;default:false;column:preroll_dismissed" json:"prerollDismissed"`
}

func (State) TableName() string { return "video_states" }

// GetOrCreateState loads a learner's state row, initializing defaults when
// the learner has not touched the video before.
func GetOrCreateState(db *gorm.DB, userID, videoID uuid.UUID) (State, error) {
	var st State
	err := db.Where("user_id = ? AND video_id = ?", userID, videoID).First(&st).Error
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return st, err
	}

	st = State{UserID: userID, VideoID: videoID, Speed: 1.0}
	if err := db.Create(&st).Error; err != nil {
		return st, err
	}
	return st, nil
}
