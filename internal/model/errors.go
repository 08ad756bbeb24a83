package model

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Every error returned by the core wraps exactly one of these,
// so callers can branch with errors.Is on the kind.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrLocked         = errors.New("game is locked by another editor")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrInvalidState   = errors.New("invalid state")
	ErrAuthentication = errors.New("authentication error")
	ErrQuota          = errors.New("quota exceeded")
	ErrConnectivity   = errors.New("connectivity error")
)

// Common errors used across the application
var (
	// Roster errors
	ErrEmptyPlayerName     = fmt.Errorf("%w: player name is empty", ErrValidation)
	ErrPlayerNameTaken     = fmt.Errorf("%w: player name already in roster", ErrValidation)
	ErrRosterFull          = fmt.Errorf("%w: roster already has %d players", ErrValidation, MaxPlayers)
	ErrInsufficientPlayers = fmt.Errorf("%w: at least %d players are required", ErrValidation, MinPlayers)
	ErrPlayerNotFound      = fmt.Errorf("%w: player", ErrNotFound)

	// Round errors
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be an integer", ErrValidation)
	ErrInvalidBankerRounds = fmt.Errorf("%w: banker rounds must be at least 1", ErrValidation)
	ErrRoundNotFound       = fmt.Errorf("%w: round", ErrNotFound)
	ErrRecordNotFound      = fmt.Errorf("%w: settlement record", ErrNotFound)
	ErrNoActiveRound       = fmt.Errorf("%w: no round is open", ErrInvalidState)
	ErrRoundIncomplete     = fmt.Errorf("%w: round has unrecorded settlements", ErrInvalidState)
	ErrGameNotStarted      = fmt.Errorf("%w: game has not started", ErrInvalidState)

	// Registry errors
	ErrEmptyGameName     = fmt.Errorf("%w: game name is empty", ErrValidation)
	ErrEmptyCreator      = fmt.Errorf("%w: creator name is empty", ErrValidation)
	ErrEmptyUserName     = fmt.Errorf("%w: user name is empty", ErrValidation)
	ErrGameNameTaken     = fmt.Errorf("%w: game name already exists", ErrDuplicateName)
	ErrGameNotFound      = fmt.Errorf("%w: game", ErrNotFound)
	ErrNoCurrentGame     = fmt.Errorf("%w: no game selected", ErrInvalidState)
	ErrRegistryNotFound  = fmt.Errorf("%w: saved registry", ErrNotFound)
	ErrDeviceIDNotFound  = fmt.Errorf("%w: device id", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("%w: cached session", ErrNotFound)
	ErrRemoteFileMissing = fmt.Errorf("%w: remote file", ErrNotFound)
	ErrGameIDExhausted   = fmt.Errorf("%w: no free game id for today", ErrInvalidState)

	// Lease errors
	ErrLeaseNotHeld = fmt.Errorf("%w: lease is not held by this editor", ErrInvalidState)

	// Identity errors
	ErrNotSignedIn       = fmt.Errorf("%w: not signed in", ErrAuthentication)
	ErrInvalidToken      = fmt.Errorf("%w: invalid or expired token", ErrAuthentication)
	ErrInvalidCredential = fmt.Errorf("%w: invalid username or password", ErrAuthentication)
)

// LockedError reports an active lease held by someone else
type LockedError struct {
	GameID GameID
	Holder string
	Expiry time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("game %s is being edited by %s until %s", e.GameID, e.Holder, e.Expiry.Format(time.RFC3339))
}

// Is makes LockedError match ErrLocked
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}
