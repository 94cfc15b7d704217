package signage

import (
	"path"
	"strings"
	"time"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type ContentType string

const (
	ContentSingleMedia    ContentType = "single_media"
	ContentGroupReference ContentType = "group_reference"
)

func (t ContentType) Valid() bool {
	return t == ContentSingleMedia || t == ContentGroupReference
}

type Material struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	Type             MediaType `json:"type"`
	URL              string    `json:"url"`
	Size             int64     `json:"size,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
	GroupID          string    `json:"group_id,omitempty"`
}

type CarouselGroup struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Materials []Material `json:"materials"`
	CreatedAt time.Time  `json:"created_at"`
}

type Assignment struct {
	ID          string      `json:"id"`
	SectionKey  SectionKey  `json:"section_key"`
	ContentType ContentType `json:"content_type"`
	ContentID   string      `json:"content_id"`
	Offset      *int        `json:"offset,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Settings struct {
	HeaderInterval   int `json:"header_interval"`
	CarouselInterval int `json:"carousel_interval"`
	FooterInterval   int `json:"footer_interval"`
}

// DefaultSettings is what readers see before the first write.
func DefaultSettings() Settings {
	return Settings{HeaderInterval: 5, CarouselInterval: 6, FooterInterval: 7}
}

// Snapshot is the aggregate read served to the player and admin pages.
type Snapshot struct {
	Materials         []Material            `json:"materials"`
	Assignments       []Assignment          `json:"assignments"`
	Groups            []CarouselGroup       `json:"groups"`
	Settings          Settings              `json:"settings"`
	AvailableSections map[SectionKey]string `json:"available_sections"`
}

var (
	imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}
	videoExts = map[string]bool{"mp4": true, "webm": true, "mov": true, "avi": true}
)

// MediaTypeFor guesses the media type from a file name; unknown extensions are images.
func MediaTypeFor(filename string) MediaType {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if videoExts[ext] {
		return MediaVideo
	}
	if imageExts[ext] {
		return MediaImage
	}
	return MediaImage
}

// MediaURL is the public path a blob key is served from.
func MediaURL(key string) string {
	return "/media/" + key
}
