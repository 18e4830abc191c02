package types

type TrackID = int32

// TrackIDNone is what the native engine reports when no track is selected
// (and what it accepts to disable a track).
const TrackIDNone TrackID = -1

const UnknownTrackName = "Unknown"

type TrackOption struct {
	ID   TrackID `json:"id"   yaml:"id"`
	Name string  `json:"name" yaml:"name"`
}

type TrackOptions []TrackOption

// TrackInfo is a snapshot: it has to be re-fetched after any track change.
type TrackInfo struct {
	Audio           TrackOptions `json:"audio"            yaml:"audio"`
	CurrentAudio    TrackID      `json:"current_audio"    yaml:"current_audio"`
	Subtitles       TrackOptions `json:"subtitles"        yaml:"subtitles"`
	CurrentSubtitle TrackID      `json:"current_subtitle" yaml:"current_subtitle"`
}
