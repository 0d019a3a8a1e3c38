package castsession

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildLoadPayload(t *testing.T) {
	assertions := require.New(t)

	payload := buildLoadPayload(LoadRequest{
		URL:         "http://10.0.0.5:3500/movie.mp4",
		ContentType: "video/mp4",
		Title:       "Movie Night",
		Autoplay:    true,
		StartTime:   42.9,
	})

	assertions.Equal("LOAD", payload.Type)
	assertions.Equal("http://10.0.0.5:3500/movie.mp4", payload.Media.ContentId)
	assertions.Equal("video/mp4", payload.Media.ContentType)
	assertions.Equal("BUFFERED", payload.Media.StreamType)
	assertions.Equal(42, payload.CurrentTime)
	assertions.True(payload.Autoplay)
	assertions.NotNil(payload.Media.Metadata)
	assertions.Equal("Movie Night", payload.Media.Metadata.Title)
	assertions.Zero(payload.Media.Metadata.MetadataType)
	assertions.Empty(payload.Media.Tracks)
	assertions.Empty(payload.ActiveTrackIds)
}

func TestBuildLoadPayloadMarksPhotos(t *testing.T) {
	assertions := require.New(t)

	payload := buildLoadPayload(LoadRequest{
		URL:         "http://10.0.0.5:3500/holiday.png",
		ContentType: "image/png",
	})

	assertions.NotNil(payload.Media.Metadata)
	assertions.Equal(metadataPhoto, payload.Media.Metadata.MetadataType)
	assertions.Empty(payload.Media.Metadata.Title)
}

func TestBuildLoadPayloadWithCaptions(t *testing.T) {
	assertions := require.New(t)

	payload := buildLoadPayload(LoadRequest{
		URL:         "http://10.0.0.5:3500/movie.mp4",
		ContentType: "video/mp4",
		Captions:    &CaptionTrack{URL: "http://10.0.0.5:3500/movie.vtt"},
	})

	assertions.Nil(payload.Media.Metadata)
	assertions.Len(payload.Media.Tracks, 1)

	track := payload.Media.Tracks[0]
	assertions.Equal(captionTrackID, track.TrackId)
	assertions.Equal("TEXT", track.Type)
	assertions.Equal("SUBTITLES", track.SubType)
	assertions.Equal("http://10.0.0.5:3500/movie.vtt", track.ContentId)
	assertions.Equal("text/vtt", track.ContentType)
	assertions.Equal("Subtitles", track.Name)
	assertions.Equal("en", track.Language)
	assertions.Equal([]int{captionTrackID}, payload.ActiveTrackIds)
}

func TestBuildLoadPayloadKeepsTrackNameAndLanguage(t *testing.T) {
	assertions := require.New(t)

	payload := buildLoadPayload(LoadRequest{
		URL: "http://example.com/show.mkv",
		Captions: &CaptionTrack{
			URL:      "http://example.com/show.vtt",
			Name:     "Espanol",
			Language: "es",
		},
	})

	assertions.Equal("Espanol", payload.Media.Tracks[0].Name)
	assertions.Equal("es", payload.Media.Tracks[0].Language)
}

func TestRawPayloadInjectsRequestID(t *testing.T) {
	assertions := require.New(t)

	raw, err := newRawPayload(map[string]any{"type": "FONT", "font": "monospace"})
	assertions.NoError(err)
	raw.SetRequestId(77)

	out, err := json.Marshal(raw)
	assertions.NoError(err)

	decoded := map[string]any{}
	assertions.NoError(json.Unmarshal(out, &decoded))
	assertions.Equal("FONT", decoded["type"])
	assertions.Equal("monospace", decoded["font"])
	assertions.Equal(float64(77), decoded["requestId"])
}

func TestNextRequestIDIsMonotonic(t *testing.T) {
	assertions := require.New(t)

	first := nextRequestID()
	second := nextRequestID()
	assertions.Greater(second, first)
}
