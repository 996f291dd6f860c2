package library

import (
	"encoding/json"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidTallyJSON is returned when a profile's tally JSON is malformed.
	ErrInvalidTallyJSON = errors.New("tally json is not valid")

	// ErrSavingProfileFailed is returned when the profile save operation fails.
	ErrSavingProfileFailed = errors.New("saving preference profile failed")

	// ErrLoadingProfileFailed is returned when the profile load operation fails.
	ErrLoadingProfileFailed = errors.New("loading preference profile failed")

	// ErrDeletingProfileFailed is returned when the profile delete operation fails.
	ErrDeletingProfileFailed = errors.New("deleting preference profile failed")
)

// PreferenceProfile is a persisted snapshot of a user's genre tally at a
// point in time, kept for diagnostics and offline analysis.
//
// Profiles are a write-only side channel: the recommendation path always
// recomputes preferences from the ledger and never reads a profile back.
type PreferenceProfile struct {
	UserEmail     EmailString
	DominantGenre GenreString     // "" when the tally is empty (no preference)
	TallyJSON     json.RawMessage // serialized genre tally in first-seen order
	TakenAt       time.Time
}

// Validate ensures the profile has valid data for storage operations.
func (p PreferenceProfile) Validate() error {
	if p.UserEmail == "" {
		return ErrEmptyEmail
	}

	if !jsoniter.ConfigFastest.Valid(p.TallyJSON) {
		return ErrInvalidTallyJSON
	}

	return nil
}

// BuildPreferenceProfile creates a new PreferenceProfile with validation.
func BuildPreferenceProfile(
	userEmail EmailString,
	dominantGenre GenreString,
	tallyJSON json.RawMessage,
	takenAt time.Time,
) (PreferenceProfile, error) {

	profile := PreferenceProfile{
		UserEmail:     userEmail,
		DominantGenre: dominantGenre,
		TallyJSON:     tallyJSON,
		TakenAt:       takenAt.UTC(),
	}

	if err := profile.Validate(); err != nil {
		return PreferenceProfile{}, err
	}

	return profile, nil
}
