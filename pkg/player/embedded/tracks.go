package embedded

import (
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

// TrackDescriptorList iterates over a native track descriptor list.
//
// Next must be called before the first Current. Release must be called
// exactly once when the iteration is over.
type TrackDescriptorList interface {
	Next() bool
	Current() (id int32, name string, hasName bool)
	Release()
}

func collectTracks(list TrackDescriptorList) types.TrackOptions {
	if list == nil {
		return types.TrackOptions{}
	}
	defer list.Release()

	result := types.TrackOptions{}
	for list.Next() {
		id, name, hasName := list.Current()
		if !hasName {
			name = types.UnknownTrackName
		}
		result = append(result, types.TrackOption{
			ID:   id,
			Name: name,
		})
	}
	return result
}
