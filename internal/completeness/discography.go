package completeness

import (
	"context"
	"fmt"
	"strings"

	"lacuna/internal/catalog/musicbrainz"
	"lacuna/internal/library"
	"lacuna/internal/logging"
	"lacuna/internal/resolve"
)

// Release group weights: a missing album hurts completeness more than a
// missing single.
const (
	weightAlbum  = 3
	weightEP     = 2
	weightSingle = 1
)

// excludedSecondaryTypes drop a release group from discography totals.
// Compilations and live albums restate material the studio discography
// already accounts for.
var excludedSecondaryTypes = map[string]bool{
	"compilation": true,
	"live":        true,
	"soundtrack":  true,
	"remix":       true,
	"dj-mix":      true,
	"interview":   true,
}

type ownedAlbum struct {
	title  string
	tracks []library.OwnedItem
}

type artistGroup struct {
	name   string
	tracks int
	albums map[string]*ownedAlbum
}

func (e *Engine) analyzeDiscographies(ctx context.Context, opts Options, summary *Summary) error {
	groups, err := e.ownedArtists(ctx, opts)
	if err != nil {
		return err
	}

	if opts.Progress != nil {
		opts.Progress(Progress{Phase: PhaseScanning, Total: len(groups)})
	}

	units := make([]unit, 0, len(groups))
	for _, group := range groups {
		units = append(units, unit{
			key:   "artist:" + resolve.NormalizeTitle(group.name),
			title: group.name,
			run: func(ctx context.Context) (unitResult, error) {
				return e.analyzeOneArtist(ctx, group, opts)
			},
		})
	}
	return e.runUnits(ctx, units, opts, summary)
}

// ownedArtists groups the owned tracks by artist, and within each
// artist by album, in first-seen order.
func (e *Engine) ownedArtists(ctx context.Context, opts Options) ([]*artistGroup, error) {
	items, err := e.store.OwnedItems(ctx, library.ItemFilter{
		Kind:     library.KindTrack,
		Provider: opts.Provider,
		Library:  opts.Library,
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate owned tracks: %w", err)
	}

	logger := logging.WithContext(ctx, e.logger)
	groups := make(map[string]*artistGroup)
	var order []string
	for _, item := range items {
		key := resolve.NormalizeTitle(item.Artist)
		if key == "" {
			logger.Debug("track without artist skipped", logging.String("title", item.Title))
			continue
		}
		group, seen := groups[key]
		if !seen {
			group = &artistGroup{name: item.Artist, albums: make(map[string]*ownedAlbum)}
			groups[key] = group
			order = append(order, key)
		}
		group.tracks++
		albumKey := resolve.NormalizeTitle(item.Album)
		if albumKey == "" {
			continue
		}
		album, seen := group.albums[albumKey]
		if !seen {
			album = &ownedAlbum{title: item.Album}
			group.albums[albumKey] = album
		}
		album.tracks = append(album.tracks, item)
	}

	ordered := make([]*artistGroup, 0, len(order))
	for _, key := range order {
		ordered = append(ordered, groups[key])
	}
	return ordered, nil
}

func (e *Engine) analyzeOneArtist(ctx context.Context, group *artistGroup, opts Options) (unitResult, error) {
	scope := opts.Scope()
	normalized := resolve.NormalizeTitle(group.name)
	key := "artist:" + normalized

	if skip, err := e.skipFresh(ctx, library.DomainDiscography, key, scope, len(group.albums), opts); err != nil {
		return 0, err
	} else if skip {
		return resultSkipped, nil
	}

	mbid, err := e.artistMBID(ctx, group.name, normalized)
	if err != nil {
		return 0, err
	}
	if mbid == "" {
		return resultAnalyzed, e.store.UpsertRecord(ctx, &library.CompletenessRecord{
			Domain:       library.DomainDiscography,
			UnitKey:      key,
			UnitTitle:    group.name,
			Scope:        scope,
			OwnedCount:   len(group.albums),
			ScannedCount: len(group.albums),
			Status:       library.StatusUnmatched,
		})
	}

	releaseGroups, err := e.music.ReleaseGroupsByArtist(ctx, mbid)
	if err != nil {
		return 0, fmt.Errorf("fetch discography for %s: %w", group.name, err)
	}

	logger := logging.WithContext(ctx, e.logger)
	type matched struct {
		rg    musicbrainz.ReleaseGroup
		album *ownedAlbum
	}
	now := e.now()
	var (
		missing                  []library.MissingItem
		matches                  []matched
		totalCount, ownedCount   int
		totalWeight, ownedWeight int
	)
	for _, rg := range releaseGroups {
		// Announced but unreleased albums are not owed to anyone yet.
		if !released(rg.FirstReleaseDate, now) {
			continue
		}
		weight, eligible := releaseGroupWeight(rg)
		if !eligible {
			continue
		}
		if e.filterVinylOnly(opts) {
			nonVinyl, err := e.music.HasNonVinylRelease(ctx, rg.ID)
			if err != nil {
				logger.Debug("vinyl check failed, keeping release group",
					logging.String("release_group", rg.Title),
					logging.Error(err),
				)
			} else if !nonVinyl {
				continue
			}
		}

		totalCount++
		totalWeight += weight
		if album, owned := group.albums[resolve.NormalizeTitle(rg.Title)]; owned {
			ownedCount++
			ownedWeight += weight
			matches = append(matches, matched{rg: rg, album: album})
			continue
		}
		missing = append(missing, library.MissingItem{
			ExternalID: rg.ID,
			Title:      rg.Title,
			Year:       resolve.ReleaseYear(rg.FirstReleaseDate),
			Category:   strings.ToLower(rg.PrimaryType),
		})
	}

	status := library.StatusComplete
	if len(missing) > 0 {
		status = library.StatusIncomplete
	}
	record := &library.CompletenessRecord{
		Domain:       library.DomainDiscography,
		UnitKey:      key,
		UnitTitle:    group.name,
		Scope:        scope,
		ExternalID:   mbid,
		TotalCount:   totalCount,
		OwnedCount:   ownedCount,
		ScannedCount: len(group.albums),
		Missing:      missing,
		Percentage:   percent(ownedWeight, totalWeight),
		Status:       status,
	}
	if err := e.store.UpsertRecord(ctx, record); err != nil {
		return 0, err
	}

	if e.trackLevel(opts) {
		for _, m := range matches {
			if err := e.analyzeAlbumTracks(ctx, m.rg, m.album, opts); err != nil {
				logger.Warn("track-level analysis failed",
					logging.String("album", m.rg.Title),
					logging.Error(err),
				)
			}
		}
	}
	return resultAnalyzed, nil
}

// artistMBID resolves an artist's MusicBrainz ID, caching hits in the
// store so repeat runs skip the search entirely.
func (e *Engine) artistMBID(ctx context.Context, name, normalized string) (string, error) {
	settingKey := "artist_mbid:" + normalized
	if cached, err := e.store.Setting(ctx, settingKey); err != nil {
		return "", err
	} else if cached != "" {
		return cached, nil
	}
	mbid, ok := e.resolver.ArtistID(ctx, name)
	if !ok {
		return "", nil
	}
	if err := e.store.SetSetting(ctx, settingKey, mbid); err != nil {
		return "", err
	}
	return mbid, nil
}

// releaseGroupWeight classifies a release group for discography
// counting. Ineligible types (compilations, live albums, broadcasts)
// return eligible=false.
func releaseGroupWeight(rg musicbrainz.ReleaseGroup) (weight int, eligible bool) {
	for _, secondary := range rg.SecondaryTypes {
		if excludedSecondaryTypes[strings.ToLower(secondary)] {
			return 0, false
		}
	}
	switch strings.ToLower(rg.PrimaryType) {
	case "album":
		return weightAlbum, true
	case "ep":
		return weightEP, true
	case "single":
		return weightSingle, true
	default:
		return 0, false
	}
}

// analyzeAlbumTracks writes a track-level record for one owned album,
// comparing owned track titles against the album's canonical tracklist.
func (e *Engine) analyzeAlbumTracks(ctx context.Context, rg musicbrainz.ReleaseGroup, album *ownedAlbum, opts Options) error {
	releases, err := e.music.ReleasesByReleaseGroup(ctx, rg.ID)
	if err != nil {
		return err
	}
	releaseID := ""
	for _, release := range releases {
		if len(release.Media) > 0 {
			releaseID = release.ID
			break
		}
	}
	if releaseID == "" && len(releases) > 0 {
		releaseID = releases[0].ID
	}
	if releaseID == "" {
		return nil
	}

	full, err := e.music.ReleaseTracks(ctx, releaseID)
	if err != nil {
		return err
	}

	ownedTitles := make(map[string]bool, len(album.tracks))
	for _, track := range album.tracks {
		ownedTitles[resolve.NormalizeTitle(track.Title)] = true
	}

	var missing []library.MissingItem
	total, owned := 0, 0
	for _, medium := range full.Media {
		for _, track := range medium.Tracks {
			total++
			if ownedTitles[resolve.NormalizeTitle(track.Title)] {
				owned++
				continue
			}
			missing = append(missing, library.MissingItem{
				Title:    track.Title,
				Position: track.Position,
				Category: "track",
			})
		}
	}

	status := library.StatusComplete
	if len(missing) > 0 {
		status = library.StatusIncomplete
	}
	return e.store.UpsertRecord(ctx, &library.CompletenessRecord{
		Domain:       library.DomainAlbum,
		UnitKey:      "release-group:" + rg.ID,
		UnitTitle:    rg.Title,
		Scope:        opts.Scope(),
		ExternalID:   rg.ID,
		TotalCount:   total,
		OwnedCount:   owned,
		ScannedCount: len(album.tracks),
		Missing:      missing,
		Percentage:   percent(owned, total),
		Status:       status,
	})
}

func (e *Engine) filterVinylOnly(opts Options) bool {
	if opts.FilterVinylOnly != nil {
		return *opts.FilterVinylOnly
	}
	return e.cfg != nil && e.cfg.Analysis.FilterVinylOnly
}

func (e *Engine) trackLevel(opts Options) bool {
	if opts.TrackLevel != nil {
		return *opts.TrackLevel
	}
	return e.cfg != nil && e.cfg.Analysis.TrackLevel
}
