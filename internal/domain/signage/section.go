package signage

// SectionKey names one display zone of the player page.
type SectionKey string

const (
	SectionHeaderVideo         SectionKey = "header_video"
	SectionCarouselTopLeft     SectionKey = "carousel_top_left"
	SectionCarouselTopRight    SectionKey = "carousel_top_right"
	SectionCarouselBottomLeft  SectionKey = "carousel_bottom_left"
	SectionCarouselBottomRight SectionKey = "carousel_bottom_right"
	SectionFooterContent       SectionKey = "footer_content"
)

// Sections lists every zone in player layout order.
var Sections = []SectionKey{
	SectionHeaderVideo,
	SectionCarouselTopLeft,
	SectionCarouselTopRight,
	SectionCarouselBottomLeft,
	SectionCarouselBottomRight,
	SectionFooterContent,
}

var sectionLabels = map[SectionKey]string{
	SectionHeaderVideo:         "頁首影片區",
	SectionCarouselTopLeft:     "左上輪播區",
	SectionCarouselTopRight:    "右上輪播區",
	SectionCarouselBottomLeft:  "左下輪播區",
	SectionCarouselBottomRight: "右下輪播區",
	SectionFooterContent:       "頁尾內容區",
}

func (k SectionKey) Valid() bool {
	_, ok := sectionLabels[k]
	return ok
}

// AvailableSections returns key -> display label, as served to the admin page.
func AvailableSections() map[SectionKey]string {
	out := make(map[SectionKey]string, len(sectionLabels))
	for k, v := range sectionLabels {
		out[k] = v
	}
	return out
}
