package fleet

// BuildTracks indexes every record of the dataset by balloon id, placing it
// at its hour slot. Hours where an id is absent stay nil. The result depends
// only on the dataset, so rebuilding yields an identical mapping.
//
// Ids are positional (see Normalize): if upstream reorders balloons between
// hours, a track joins different physical balloons. That is a limitation of
// the upstream format, not something this function tries to repair.
func BuildTracks(d *FleetDataset) Tracks {
	tracks := make(Tracks)
	if d == nil {
		return tracks
	}

	for hour, snapshot := range d.Hours {
		for i := range snapshot {
			rec := snapshot[i]
			t := tracks[rec.ID]
			t[hour] = &rec
			tracks[rec.ID] = t
		}
	}
	return tracks
}
