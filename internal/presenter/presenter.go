// Package presenter projects the shared state document for a specific
// viewer. The host sees everything; player and display views have the
// secret fields stripped so a client cannot read its own round's answer,
// another player's draft guess, or a word it is supposed to be guessing.
package presenter

import (
	"github.com/gameshowhq/gameshow/internal/model"
)

// Role is the viewer's relationship to the game.
type Role string

const (
	// RoleHost drives the game and sees unredacted state.
	RoleHost Role = "host"
	// RolePlayer is a joined player device.
	RolePlayer Role = "player"
	// RoleDisplay is a shared screen: no player identity, no secrets.
	RoleDisplay Role = "display"
)

// Viewer identifies who is looking. PlayerID is set for RolePlayer only.
type Viewer struct {
	Role     Role
	PlayerID string
}

// Project returns a copy of snap redacted for the viewer. The input is not
// modified.
func Project(snap model.Snapshot, v Viewer) model.Snapshot {
	if v.Role == RoleHost {
		return snap
	}
	out := snap
	out.State = snap.State.Clone()
	if out.State == nil || out.State.RoundData == nil {
		return out
	}
	rd := out.State.RoundData

	if rd.GameSetup != nil && rd.GameSetup.HostPinHash != "" {
		setup := *rd.GameSetup
		setup.HostPinHash = ""
		rd.GameSetup = &setup
	}
	if d := rd.GuessNumber; d != nil {
		redactGuesses(d, v)
	}
	if d := rd.BlindDraw; d != nil && !isPerformer(d.DrawerPlayerID, v) {
		d.Word = nil
	}
	if d := rd.DumpCharades; d != nil && !isPerformer(d.ActorPlayerID, v) {
		d.Word = nil
	}
	return out
}

// isPerformer reports whether the viewer is the player the word was dealt
// to.
func isPerformer(playerID *string, v Viewer) bool {
	return v.Role == RolePlayer && playerID != nil && v.PlayerID == *playerID
}

// redactGuesses hides other players' drafts while guessing is open. After
// the reveal everything is public.
func redactGuesses(d *model.GuessNumberData, v Viewer) {
	if d.Phase != model.GuessActive {
		return
	}
	if v.Role == RolePlayer {
		if entry, ok := d.PlayerDrafts[v.PlayerID]; ok {
			d.PlayerDrafts = map[string]model.GuessEntry{v.PlayerID: entry}
			return
		}
	}
	d.PlayerDrafts = nil
}
