package castsession

import (
	"encoding/json"
	"sync/atomic"

	"github.com/vishen/go-chromecast/cast"

	"github.com/mjsorribas/PopcornCast/internal/mediainfo"
)

const (
	mediaNamespace = "urn:x-cast:com.google.cast.media"
	senderID       = "sender-0"

	// captionTrackID is the track id the receiver activates when a load
	// request carries subtitles.
	captionTrackID = 1

	// metadataPhoto routes image sources through the receiver's photo
	// pipeline instead of the video player.
	metadataPhoto = 4
)

var requestIDCounter int32

func nextRequestID() int {
	return int(atomic.AddInt32(&requestIDCounter, 1))
}

// loadPayload is the raw LOAD request the media channel understands. The
// library's own loader cannot attach text tracks, so loads go over the
// wire directly.
type loadPayload struct {
	Type           string    `json:"type"`
	RequestId      int       `json:"requestId"`
	Media          mediaItem `json:"media"`
	CurrentTime    int       `json:"currentTime"`
	Autoplay       bool      `json:"autoplay"`
	ActiveTrackIds []int     `json:"activeTrackIds,omitempty"`
}

func (p *loadPayload) SetRequestId(id int) { p.RequestId = id }

var _ cast.Payload = (*loadPayload)(nil)

type mediaItem struct {
	ContentId   string       `json:"contentId"`
	ContentType string       `json:"contentType"`
	StreamType  string       `json:"streamType"`
	Metadata    *mediaMeta   `json:"metadata,omitempty"`
	Tracks      []mediaTrack `json:"tracks,omitempty"`
}

type mediaMeta struct {
	MetadataType int    `json:"metadataType"`
	Title        string `json:"title,omitempty"`
}

type mediaTrack struct {
	TrackId     int    `json:"trackId"`
	Type        string `json:"type"`
	SubType     string `json:"subtype"`
	ContentId   string `json:"trackContentId"`
	ContentType string `json:"trackContentType"`
	Name        string `json:"name"`
	Language    string `json:"language"`
}

func newCaptionTrack(t CaptionTrack) mediaTrack {
	name := t.Name
	if name == "" {
		name = "Subtitles"
	}
	lang := t.Language
	if lang == "" {
		lang = "en"
	}

	return mediaTrack{
		TrackId:     captionTrackID,
		Type:        "TEXT",
		SubType:     "SUBTITLES",
		ContentId:   t.URL,
		ContentType: "text/vtt",
		Name:        name,
		Language:    lang,
	}
}

func buildLoadPayload(req LoadRequest) *loadPayload {
	item := mediaItem{
		ContentId:   req.URL,
		ContentType: req.ContentType,
		StreamType:  "BUFFERED",
	}
	if req.Title != "" {
		item.Metadata = &mediaMeta{Title: req.Title}
	}
	if mediainfo.IsImage(req.ContentType) {
		if item.Metadata == nil {
			item.Metadata = &mediaMeta{}
		}
		item.Metadata.MetadataType = metadataPhoto
	}

	payload := &loadPayload{
		Type:        "LOAD",
		Media:       item,
		CurrentTime: int(req.StartTime),
		Autoplay:    req.Autoplay,
	}

	if req.Captions != nil {
		payload.Media.Tracks = []mediaTrack{newCaptionTrack(*req.Captions)}
		payload.ActiveTrackIds = []int{captionTrackID}
	}

	return payload
}

// rawPayload forwards an arbitrary JSON document as a cast payload,
// injecting the request id the channel protocol requires.
type rawPayload struct {
	data map[string]any
}

func newRawPayload(payload any) (*rawPayload, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	return &rawPayload{data: data}, nil
}

func (p *rawPayload) SetRequestId(id int) { p.data["requestId"] = id }

func (p *rawPayload) MarshalJSON() ([]byte, error) { return json.Marshal(p.data) }

var _ cast.Payload = (*rawPayload)(nil)
